package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

var _ IOptions = (*GarageOptions)(nil)

// GarageOptions contains the domain settings of the garage.
type GarageOptions struct {
	VehiclesKey string `json:"vehicles-key" mapstructure:"vehicles-key"`
	SelectedKey string `json:"selected-key" mapstructure:"selected-key"`

	// ReminderWindow is how far ahead appointments produce reminders.
	ReminderWindow time.Duration `json:"reminder-window" mapstructure:"reminder-window"`

	// NotifyOnStart publishes the reminders once after loading.
	NotifyOnStart bool `json:"notify-on-start" mapstructure:"notify-on-start"`

	// ReminderInterval is how often new reminders are checked. 0 disables it.
	ReminderInterval time.Duration `json:"reminder-interval" mapstructure:"reminder-interval"`

	// Locale drives vehicle ordering and money formatting.
	Locale   string `json:"locale" mapstructure:"locale"`
	Currency string `json:"currency" mapstructure:"currency"`
}

func NewGarageOptions() *GarageOptions {
	return &GarageOptions{
		VehiclesKey:      "garage.vehicles",
		SelectedKey:      "garage.selectedId",
		ReminderWindow:   48 * time.Hour,
		NotifyOnStart:    true,
		ReminderInterval: 0,
		Locale:           "pt-BR",
		Currency:         "BRL",
	}
}

func (o *GarageOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.VehiclesKey == "" || o.SelectedKey == "" {
		errors = append(errors, fmt.Errorf("--garage.vehicles-key and --garage.selected-key must not be empty"))
	}
	if o.VehiclesKey == o.SelectedKey {
		errors = append(errors, fmt.Errorf("--garage.vehicles-key and --garage.selected-key must differ"))
	}
	if o.ReminderWindow <= 0 {
		errors = append(errors, fmt.Errorf("--garage.reminder-window must be positive"))
	}
	if o.ReminderInterval < 0 {
		errors = append(errors, fmt.Errorf("--garage.reminder-interval must not be negative"))
	}
	if _, err := language.Parse(o.Locale); err != nil {
		errors = append(errors, fmt.Errorf("--garage.locale: %w", err))
	}
	if _, err := currency.ParseISO(o.Currency); err != nil {
		errors = append(errors, fmt.Errorf("--garage.currency: %w", err))
	}

	return errors
}

func (o *GarageOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.VehiclesKey, "garage.vehicles-key", o.VehiclesKey, "Store key holding the vehicle list.")
	fs.StringVar(&o.SelectedKey, "garage.selected-key", o.SelectedKey, "Store key holding the selected vehicle id.")
	fs.DurationVar(&o.ReminderWindow, "garage.reminder-window", o.ReminderWindow, "How far ahead appointments trigger reminders.")
	fs.BoolVar(&o.NotifyOnStart, "garage.notify-on-start", o.NotifyOnStart, "Publish upcoming reminders once at start-up.")
	fs.DurationVar(&o.ReminderInterval, "garage.reminder-interval", o.ReminderInterval, "How often to check for new reminders, 0 to disable.")
	fs.StringVar(&o.Locale, "garage.locale", o.Locale, "BCP 47 locale for sorting and money formatting.")
	fs.StringVar(&o.Currency, "garage.currency", o.Currency, "ISO 4217 currency for maintenance costs.")
}
