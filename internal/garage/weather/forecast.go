package weather

import (
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const maxDays = 5

// Forecast is the subset of the /forecast payload the summary needs.
type Forecast struct {
	List []Slot `json:"list"`
}

// Slot is one 3 hour forecast entry.
type Slot struct {
	Dt      int64       `json:"dt"`
	DtTxt   string      `json:"dt_txt"`
	Main    Main        `json:"main"`
	Weather []Condition `json:"weather"`
}

type Main struct {
	Temp float64 `json:"temp"`
}

type Condition struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// DailySummary condenses one day of forecast slots.
type DailySummary struct {
	Date        string  `json:"date"`
	TempMin     float64 `json:"tempMin"`
	TempMax     float64 `json:"tempMax"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

type dayBucket struct {
	min, max float64
	rep      *Condition
	midday   bool
}

// Summarize groups forecast slots by calendar day, keeping the first five
// days in upstream order. The 12:00 slot represents the day, then 15:00, then
// the first slot of the day.
func Summarize(f Forecast) []DailySummary {
	var order []string
	buckets := map[string]*dayBucket{}

	for i := range f.List {
		s := &f.List[i]
		date, clock := splitSlot(s)
		if date == "" {
			continue
		}

		b, ok := buckets[date]
		if !ok {
			if len(order) == maxDays {
				continue
			}
			b = &dayBucket{min: s.Main.Temp, max: s.Main.Temp}
			buckets[date] = b
			order = append(order, date)
		}
		b.min = math.Min(b.min, s.Main.Temp)
		b.max = math.Max(b.max, s.Main.Temp)

		if len(s.Weather) == 0 {
			continue
		}
		c := &s.Weather[0]
		switch {
		case clock == "12:00:00":
			b.rep, b.midday = c, true
		case clock == "15:00:00" && !b.midday:
			b.rep, b.midday = c, true
		case b.rep == nil:
			b.rep = c
		}
	}

	out := make([]DailySummary, 0, len(order))
	for _, date := range order {
		b := buckets[date]
		d := DailySummary{Date: date, TempMin: round1(b.min), TempMax: round1(b.max)}
		if b.rep != nil {
			d.Description = capitalize(b.rep.Description)
			d.Icon = b.rep.Icon
		}
		out = append(out, d)
	}
	return out
}

func splitSlot(s *Slot) (date, clock string) {
	if d, c, ok := strings.Cut(s.DtTxt, " "); ok {
		return d, c
	}
	if s.Dt == 0 {
		return "", ""
	}
	t := time.Unix(s.Dt, 0).UTC()
	return t.Format(time.DateOnly), t.Format(time.TimeOnly)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
