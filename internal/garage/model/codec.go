package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordDiscriminator tags persisted maintenance records.
const RecordDiscriminator = "MaintenanceRecord"

var (
	ErrMissingDiscriminator = errors.New("missing discriminator")
	ErrWrongDiscriminator   = errors.New("unexpected discriminator")
	ErrHistoryNotList       = errors.New("maintenance history is not a list")
)

// lenientNumber decodes a JSON number or numeric text such as "12" or "12,5".
// Anything else decodes as NaN and is left to the caller's range checks.
type lenientNumber float64

func (n *lenientNumber) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = lenientNumber(f)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		text = strings.Replace(strings.TrimSpace(text), ",", ".", 1)
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			*n = lenientNumber(f)
			return nil
		}
	}
	*n = lenientNumber(math.NaN())
	return nil
}

// lenientCost decodes a stored cost. Text goes through ParseCost.
type lenientCost float64

func (c *lenientCost) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*c = lenientCost(sanitizeCost(f))
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*c = lenientCost(ParseCost(text))
		return nil
	}
	*c = 0
	return nil
}

// lenientBool decodes a boolean, "true"/"false" text or a non-zero number.
type lenientBool bool

func (b *lenientBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case bool:
		*b = lenientBool(v)
	case string:
		parsed, _ := strconv.ParseBool(strings.TrimSpace(v))
		*b = lenientBool(parsed)
	case float64:
		*b = v != 0
	default:
		*b = false
	}
	return nil
}

type recordJSON struct {
	Discriminator string      `json:"discriminator"`
	ID            string      `json:"id"`
	TimestampISO  *string     `json:"timestampISO"`
	ServiceType   string      `json:"serviceType"`
	Cost          lenientCost `json:"cost"`
	Notes         string      `json:"notes"`
}

func (m *MaintenanceRecord) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		Discriminator: RecordDiscriminator,
		ID:            m.ID,
		ServiceType:   m.ServiceType,
		Cost:          lenientCost(m.Cost),
		Notes:         m.Notes,
	}
	if m.IsValidDate() {
		iso := m.Timestamp.UTC().Format(time.RFC3339Nano)
		out.TimestampISO = &iso
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts only entries tagged as maintenance records. The id is
// preserved; a missing one is regenerated.
func (m *MaintenanceRecord) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Discriminator {
	case RecordDiscriminator:
	case "":
		return ErrMissingDiscriminator
	default:
		return fmt.Errorf("%w: %q", ErrWrongDiscriminator, in.Discriminator)
	}

	rec := NewMaintenanceRecord(time.Time{}, in.ServiceType, float64(in.Cost), in.Notes)
	if in.TimestampISO != nil {
		rec.Timestamp = ParseTimestamp(*in.TimestampISO)
	}
	if in.ID != "" {
		rec.ID = in.ID
	}
	*m = *rec
	return nil
}

type vehicleJSON struct {
	Discriminator      Kind            `json:"discriminator"`
	ID                 string          `json:"id"`
	Model              string          `json:"model"`
	Color              string          `json:"color"`
	IgnitionOn         lenientBool     `json:"ignitionOn"`
	Speed              lenientNumber   `json:"speed"`
	TurboUsed          *lenientBool    `json:"turboUsed,omitempty"`
	CargoCapacity      *lenientNumber  `json:"cargoCapacity,omitempty"`
	CurrentCargo       *lenientNumber  `json:"currentCargo,omitempty"`
	MaintenanceHistory json.RawMessage `json:"maintenanceHistory"`
}

func (v *Vehicle) MarshalJSON() ([]byte, error) {
	out := vehicleJSON{
		Discriminator:      v.Kind,
		ID:                 v.ID,
		Model:              v.Model,
		Color:              v.Color,
		IgnitionOn:         lenientBool(v.IgnitionOn()),
		Speed:              lenientNumber(v.Speed),
	}

	p := v.profile()
	if p.turbo {
		out.TurboUsed = (*lenientBool)(&v.TurboUsed)
	}
	if p.cargo {
		out.CargoCapacity = (*lenientNumber)(&v.CargoCapacity)
		out.CurrentCargo = (*lenientNumber)(&v.CurrentCargo)
	}

	history := v.history
	if history == nil {
		history = []*MaintenanceRecord{}
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return nil, err
	}
	out.MaintenanceHistory = raw
	return json.Marshal(out)
}

// decoders is the dispatch table from discriminator to constructor.
var decoders = map[Kind]func(in *vehicleJSON) (*Vehicle, error){
	KindCar:       decodeCar,
	KindSportsCar: decodeSportsCar,
	KindTruck:     decodeTruck,
}

func decodeCar(in *vehicleJSON) (*Vehicle, error) {
	return newVehicle(in.ID, Params{Kind: KindCar, Model: in.Model, Color: in.Color})
}

func decodeSportsCar(in *vehicleJSON) (*Vehicle, error) {
	v, err := newVehicle(in.ID, Params{Kind: KindSportsCar, Model: in.Model, Color: in.Color})
	if err != nil {
		return nil, err
	}
	if in.TurboUsed != nil {
		v.TurboUsed = bool(*in.TurboUsed)
	}
	return v, nil
}

func decodeTruck(in *vehicleJSON) (*Vehicle, error) {
	var capacity float64
	if in.CargoCapacity != nil {
		capacity = float64(*in.CargoCapacity)
	}
	v, err := newVehicle(in.ID, Params{Kind: KindTruck, Model: in.Model, Color: in.Color, CargoCapacity: capacity})
	if err != nil {
		return nil, err
	}
	if in.CurrentCargo != nil {
		v.CurrentCargo = clamp(float64(*in.CurrentCargo), 0, v.CargoCapacity)
	}
	return v, nil
}

// DecodeVehicle rebuilds a vehicle from its persisted form. Out-of-range or
// unreadable speed and cargo are clamped, and maintenance entries that are
// not valid records are dropped. A history that is not a list counts as
// empty. The returned slice lists what was dropped.
func DecodeVehicle(data []byte) (*Vehicle, []error, error) {
	var in vehicleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, nil, err
	}
	if in.Discriminator == "" {
		return nil, nil, ErrMissingDiscriminator
	}
	decode, ok := decoders[in.Discriminator]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownKind, in.Discriminator)
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}

	v, err := decode(&in)
	if err != nil {
		return nil, nil, err
	}

	if in.IgnitionOn {
		v.ignition = newIgnition(v, true)
		v.Speed = clamp(float64(in.Speed), 0, v.MaxSpeed())
	}

	entries, dropped := historyEntries(in.MaintenanceHistory)
	for _, raw := range entries {
		var rec MaintenanceRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			dropped = append(dropped, err)
			continue
		}
		if res := v.AddMaintenanceRecord(&rec); !res.Success {
			dropped = append(dropped, errors.New(res.Message))
		}
	}
	return v, dropped, nil
}

func historyEntries(raw json.RawMessage) ([]json.RawMessage, []error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, []error{ErrHistoryNotList}
	}
	return entries, nil
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(x, hi))
}
