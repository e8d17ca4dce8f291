package model

import (
	"sync/atomic"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type moneyFormat struct {
	printer *message.Printer
	unit    currency.Unit
}

var money atomic.Pointer[moneyFormat]

func init() {
	SetMoneyFormat(language.BrazilianPortuguese, currency.BRL)
}

// SetMoneyFormat changes the locale and currency used by FormatMoney.
func SetMoneyFormat(tag language.Tag, unit currency.Unit) {
	money.Store(&moneyFormat{printer: message.NewPrinter(tag), unit: unit})
}

// ParseMoneyFormat resolves textual locale and ISO 4217 currency codes.
func ParseMoneyFormat(locale, code string) (language.Tag, currency.Unit, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Und, currency.Unit{}, err
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return language.Und, currency.Unit{}, err
	}
	return tag, unit, nil
}

// FormatMoney renders an amount with the configured currency symbol.
func FormatMoney(amount float64) string {
	f := money.Load()
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(amount)))
}
