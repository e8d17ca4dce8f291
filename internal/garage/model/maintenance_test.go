package model

import (
	"strings"
	"testing"
	"time"
)

func TestParseCost(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"150", 150},
		{"150,50", 150.5},
		{"R$ 99,90", 99.9},
		{"1.234,56", 1.234},
		{"-20", 0},
		{"abc", 0},
		{"12abc", 12},
		{".5", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseCost(tt.in); got != tt.want {
				t.Errorf("ParseCost(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"2025-03-01T10:30:00Z", true},
		{"2025-03-01T10:30", true},
		{"2025-03-01 10:30", true},
		{"2025-03-01", true},
		{"01/03/2025", false},
		{"tomorrow", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseTimestamp(tt.in)
			if got.IsZero() == tt.valid {
				t.Errorf("ParseTimestamp(%q) = %v, valid want %v", tt.in, got, tt.valid)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		rec   *MaintenanceRecord
		valid bool
	}{
		{"complete", NewMaintenanceRecord(now, "Oil change", 100, ""), true},
		{"missing type", NewMaintenanceRecord(now, "   ", 100, ""), false},
		{"invalid date", NewMaintenanceRecord(time.Time{}, "Oil change", 100, ""), false},
		{"parsed garbage date", ParseMaintenanceRecord("not a date", "Oil change", "10", ""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rec.Validate()
			if got.Valid != tt.valid {
				t.Fatalf("Validate() = %+v, want valid=%v", got, tt.valid)
			}
			if !got.Valid && got.ErrorMessage == "" {
				t.Error("invalid record without error message")
			}
		})
	}
}

func TestFormatCost(t *testing.T) {
	future := time.Now().Add(72 * time.Hour)
	past := time.Now().Add(-72 * time.Hour)

	if got := NewMaintenanceRecord(future, "Inspection", 0, "").FormatCost(); got != "Scheduled" {
		t.Errorf("future zero cost = %q, want Scheduled", got)
	}
	if got := NewMaintenanceRecord(past, "Inspection", 0, "").FormatCost(); got != "Free" {
		t.Errorf("past zero cost = %q, want Free", got)
	}
	if got := NewMaintenanceRecord(time.Time{}, "Inspection", 0, "").FormatCost(); got != "Free" {
		t.Errorf("invalid date zero cost = %q, want Free", got)
	}

	got := NewMaintenanceRecord(past, "Inspection", 250, "").FormatCost()
	if got == "Free" || got == "Scheduled" || !strings.Contains(got, "250") {
		t.Errorf("paid cost = %q, want a currency amount", got)
	}
}

func TestFormatCostAt(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	rec := NewMaintenanceRecord(now.Add(time.Hour), "Inspection", 0, "")

	tests := []struct {
		at   time.Time
		want string
	}{
		{now, "Scheduled"},
		{now.Add(time.Hour), "Scheduled"},
		{now.Add(2 * time.Hour), "Free"},
	}
	for _, tt := range tests {
		if got := rec.FormatCostAt(tt.at); got != tt.want {
			t.Errorf("FormatCostAt(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
	if got := rec.FormatAt(now.Add(2*time.Hour), false); !strings.HasSuffix(got, " - Free") {
		t.Errorf("FormatAt() = %q, want the Free cost", got)
	}
}

func TestFormat(t *testing.T) {
	ts := time.Date(2025, time.March, 7, 9, 5, 0, 0, time.Local)

	rec := NewMaintenanceRecord(ts, "Oil change", 0, "synthetic")
	if got, want := rec.Format(true), "Oil change on 07/03/2025 at 09:05 - Free (synthetic)"; got != want {
		t.Errorf("Format(true) = %q, want %q", got, want)
	}
	if got, want := rec.Format(false), "Oil change on 07/03/2025 - Free (synthetic)"; got != want {
		t.Errorf("Format(false) = %q, want %q", got, want)
	}

	invalid := NewMaintenanceRecord(time.Time{}, "", 0, "")
	if got, want := invalid.Format(true), "Undefined type - Invalid date - Free"; got != want {
		t.Errorf("invalid Format = %q, want %q", got, want)
	}
}
