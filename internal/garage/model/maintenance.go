package model

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Timestamp layouts accepted from free-form input, most specific first.
// Layouts without a zone are interpreted in local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var (
	costNoise  = regexp.MustCompile(`[^\d.\-]`)
	costPrefix = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// MaintenanceRecord is a single service entry or appointment in a vehicle's log.
// A zero Timestamp marks the record as having an invalid date.
type MaintenanceRecord struct {
	ID          string
	Timestamp   time.Time
	ServiceType string
	Cost        float64
	Notes       string
}

// Validation is the outcome of MaintenanceRecord.Validate.
type Validation struct {
	Valid        bool   `json:"valid"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// NewMaintenanceRecord builds a record with a fresh id. Negative or non-finite
// costs are stored as 0. It never fails; call Validate to check the result.
func NewMaintenanceRecord(ts time.Time, serviceType string, cost float64, notes string) *MaintenanceRecord {
	return &MaintenanceRecord{
		ID:          uuid.NewString(),
		Timestamp:   ts,
		ServiceType: strings.TrimSpace(serviceType),
		Cost:        sanitizeCost(cost),
		Notes:       strings.TrimSpace(notes),
	}
}

// ParseMaintenanceRecord builds a record from user-entered text. Unparseable
// timestamps yield the invalid sentinel, unparseable costs yield 0.
func ParseMaintenanceRecord(tsText, serviceType, costText, notes string) *MaintenanceRecord {
	return NewMaintenanceRecord(ParseTimestamp(tsText), serviceType, ParseCost(costText), notes)
}

// ParseTimestamp returns the zero time when text matches none of the accepted layouts.
func ParseTimestamp(text string) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, text, time.Local); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// ParseCost accepts a comma decimal separator, ignores currency symbols and other
// noise and reads the leading numeric prefix. Anything unusable is 0.
func ParseCost(text string) float64 {
	cleaned := costNoise.ReplaceAllString(strings.Replace(text, ",", ".", 1), "")
	prefix := costPrefix.FindString(cleaned)
	if prefix == "" {
		return 0
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0
	}
	return sanitizeCost(v)
}

func sanitizeCost(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// IsValidDate reports whether the record carries a usable timestamp.
func (m *MaintenanceRecord) IsValidDate() bool {
	return !m.Timestamp.IsZero()
}

func (m *MaintenanceRecord) Validate() Validation {
	var problems []string
	if !m.IsValidDate() {
		problems = append(problems, "Invalid or missing date.")
	}
	if m.ServiceType == "" {
		problems = append(problems, "Service type is required.")
	}
	if len(problems) > 0 {
		return Validation{Valid: false, ErrorMessage: strings.Join(problems, " ")}
	}
	return Validation{Valid: true}
}

// FormatCost renders the cost in the configured currency. A zero cost reads
// "Scheduled" for a future appointment and "Free" otherwise.
func (m *MaintenanceRecord) FormatCost() string {
	return m.FormatCostAt(time.Now())
}

// FormatCostAt is FormatCost with "future" measured from now.
func (m *MaintenanceRecord) FormatCostAt(now time.Time) string {
	if m.Cost == 0 {
		if m.IsValidDate() && !m.Timestamp.Before(now) {
			return "Scheduled"
		}
		return "Free"
	}
	return FormatMoney(m.Cost)
}

// Format renders a single display line for the record.
func (m *MaintenanceRecord) Format(includeTime bool) string {
	return m.FormatAt(time.Now(), includeTime)
}

func (m *MaintenanceRecord) FormatAt(now time.Time, includeTime bool) string {
	var b strings.Builder

	if !m.IsValidDate() {
		serviceType := m.ServiceType
		if serviceType == "" {
			serviceType = "Undefined type"
		}
		fmt.Fprintf(&b, "%s - Invalid date - %s", serviceType, m.FormatCostAt(now))
	} else {
		local := m.Timestamp.Local()
		fmt.Fprintf(&b, "%s on %s", m.ServiceType, local.Format("02/01/2006"))
		if includeTime {
			fmt.Fprintf(&b, " at %s", local.Format("15:04"))
		}
		fmt.Fprintf(&b, " - %s", m.FormatCostAt(now))
	}

	if m.Notes != "" {
		fmt.Fprintf(&b, " (%s)", m.Notes)
	}
	return b.String()
}

func (m *MaintenanceRecord) String() string {
	return m.Format(true)
}
