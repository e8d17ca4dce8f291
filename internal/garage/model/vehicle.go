package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

var (
	ErrModelRequired   = errors.New("vehicle model is required")
	ErrColorRequired   = errors.New("vehicle color is required")
	ErrInvalidCapacity = errors.New("truck cargo capacity must be a positive number")
	ErrUnknownKind     = errors.New("unknown vehicle kind")
)

// Vehicle is a car, sports car or truck in the garage. The variant-specific
// fields are meaningful only for the matching Kind.
//
// A Vehicle owns its ignition state machine and must not be copied.
type Vehicle struct {
	ID    string
	Model string
	Color string
	Kind  Kind
	Speed float64

	// SportsCar only.
	TurboUsed bool

	// Truck only.
	CargoCapacity float64
	CurrentCargo  float64

	ignition *fsm.FSM
	history  []*MaintenanceRecord
}

// Params describes a vehicle to be constructed.
type Params struct {
	Kind          Kind    `json:"kind"`
	Model         string  `json:"model"`
	Color         string  `json:"color"`
	CargoCapacity float64 `json:"cargoCapacity,omitempty"`
}

// NewVehicle validates p and builds a stopped, switched-off vehicle with a new id.
func NewVehicle(p Params) (*Vehicle, error) {
	return newVehicle(uuid.NewString(), p)
}

func NewCar(model, color string) (*Vehicle, error) {
	return NewVehicle(Params{Kind: KindCar, Model: model, Color: color})
}

func NewSportsCar(model, color string) (*Vehicle, error) {
	return NewVehicle(Params{Kind: KindSportsCar, Model: model, Color: color})
}

func NewTruck(model, color string, capacity float64) (*Vehicle, error) {
	return NewVehicle(Params{Kind: KindTruck, Model: model, Color: color, CargoCapacity: capacity})
}

func newVehicle(id string, p Params) (*Vehicle, error) {
	if !p.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind)
	}
	v := &Vehicle{
		ID:    id,
		Model: strings.TrimSpace(p.Model),
		Color: strings.TrimSpace(p.Color),
		Kind:  p.Kind,
	}
	if v.Model == "" {
		return nil, ErrModelRequired
	}
	if v.Color == "" {
		return nil, ErrColorRequired
	}
	if v.profile().cargo {
		c := p.CargoCapacity
		if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
			return nil, ErrInvalidCapacity
		}
		v.CargoCapacity = c
	}
	v.ignition = newIgnition(v, false)
	return v, nil
}

func (v *Vehicle) profile() profile {
	return profiles[v.Kind]
}

// IgnitionOn reports whether the engine is running.
func (v *Vehicle) IgnitionOn() bool {
	return v.ignition.Is(StateOn)
}

// MaxSpeed returns the top speed for the vehicle's variant.
func (v *Vehicle) MaxSpeed() float64 {
	return v.profile().maxSpeed
}

func (v *Vehicle) TurnOn() Result {
	changed, err := v.fire(EventTurnOn)
	if err != nil {
		return fail("Could not turn on the %s: %v", v.Model, err)
	}
	if !changed {
		return fail("%s is already on.", v.Model)
	}
	return ok("%s turned on.", v.Model)
}

// TurnOff stops the engine, which also brings the speed to zero.
func (v *Vehicle) TurnOff() Result {
	changed, err := v.fire(EventTurnOff)
	if err != nil {
		return fail("Could not turn off the %s: %v", v.Model, err)
	}
	if !changed {
		return fail("%s is already off.", v.Model)
	}
	return ok("%s turned off. Speed reset to zero.", v.Model)
}

func (v *Vehicle) Accelerate() Result {
	if !v.IgnitionOn() {
		return fail("Turn on the %s first!", v.Model)
	}
	limit := v.MaxSpeed()
	if v.Speed >= limit {
		return fail("%s is already at max speed!", v.Model)
	}
	v.Speed = math.Min(v.Speed+v.profile().accelerate(v), limit)
	return ok("%s accelerated to %g km/h.", v.Model, v.Speed)
}

func (v *Vehicle) Brake() Result {
	if v.Speed <= 0 {
		return fail("%s is already stopped.", v.Model)
	}
	v.Speed = math.Max(0, v.Speed-v.profile().brake(v))
	return ok("%s slowed down to %g km/h.", v.Model, v.Speed)
}

// ActivateTurbo gives a sports car a one-shot +50 km/h boost.
func (v *Vehicle) ActivateTurbo() Result {
	if !v.profile().turbo {
		return fail("The %s has no turbo boost.", v.Model)
	}
	if !v.IgnitionOn() {
		return fail("Turn on the car before using the turbo boost!")
	}
	if v.TurboUsed {
		return fail("Turbo boost has already been used on this vehicle!")
	}
	if v.Speed <= 0 {
		return fail("Accelerate a bit before using turbo!")
	}
	before := v.Speed
	v.Speed = math.Min(v.Speed+turboBoost, v.MaxSpeed())
	v.TurboUsed = true
	return ok("Turbo boost activated! %s went from %g to %g km/h.", v.Model, before, v.Speed)
}

// Load adds up to amount kg of cargo, limited by the remaining capacity.
func (v *Vehicle) Load(amount float64) Result {
	if !v.profile().cargo {
		return fail("The %s cannot carry cargo.", v.Model)
	}
	if v.IgnitionOn() {
		return fail("Turn off the truck to load/unload safely.")
	}
	if math.IsNaN(amount) || amount <= 0 {
		return fail("Invalid amount to load.")
	}
	headroom := v.CargoCapacity - v.CurrentCargo
	if headroom <= 0 {
		return fail("Truck is already at full capacity!")
	}

	added := math.Min(amount, headroom)
	v.CurrentCargo += added
	if added < amount {
		return ok("Max capacity reached. %gkg loaded. Current cargo: %gkg", added, v.CurrentCargo).withCargo(v.CurrentCargo)
	}
	return ok("%gkg loaded. Current cargo: %gkg", added, v.CurrentCargo).withCargo(v.CurrentCargo)
}

// Unload removes up to amount kg of cargo.
func (v *Vehicle) Unload(amount float64) Result {
	if !v.profile().cargo {
		return fail("The %s cannot carry cargo.", v.Model)
	}
	if v.IgnitionOn() {
		return fail("Turn off the truck to load/unload safely.")
	}
	if math.IsNaN(amount) || amount <= 0 {
		return fail("Invalid amount to unload.")
	}
	if v.CurrentCargo <= 0 {
		return fail("Truck is already empty.")
	}

	removed := math.Min(amount, v.CurrentCargo)
	v.CurrentCargo -= removed
	return ok("%gkg unloaded. Current cargo: %gkg", removed, v.CurrentCargo).withCargo(v.CurrentCargo)
}

// AddMaintenanceRecord appends a valid record to the history, keeping it
// ordered newest first.
func (v *Vehicle) AddMaintenanceRecord(rec *MaintenanceRecord) Result {
	if rec == nil {
		return fail("No maintenance record given.")
	}
	if check := rec.Validate(); !check.Valid {
		return fail("Invalid record: %s", check.ErrorMessage)
	}
	for _, existing := range v.history {
		if existing.ID == rec.ID {
			return fail("A record with this id already exists.")
		}
	}
	v.history = append(v.history, rec)
	sortHistory(v.history)
	return ok("%s added to the %s history.", rec.ServiceType, v.Model)
}

// RemoveMaintenanceRecord deletes the record with the given id.
func (v *Vehicle) RemoveMaintenanceRecord(id string) Result {
	for i, rec := range v.history {
		if rec.ID == id {
			v.history = append(v.history[:i], v.history[i+1:]...)
			return ok("%s removed from the %s history.", rec.ServiceType, v.Model)
		}
	}
	return fail("Maintenance record not found.")
}

// MaintenanceHistory returns the full log, newest first with invalid dates last.
func (v *Vehicle) MaintenanceHistory() []*MaintenanceRecord {
	out := make([]*MaintenanceRecord, len(v.history))
	copy(out, v.history)
	return out
}

// PastServiceRecords returns records dated before now, newest first.
func (v *Vehicle) PastServiceRecords() []*MaintenanceRecord {
	return v.PastServiceRecordsAt(time.Now())
}

func (v *Vehicle) PastServiceRecordsAt(now time.Time) []*MaintenanceRecord {
	var out []*MaintenanceRecord
	for _, rec := range v.history {
		if rec.IsValidDate() && rec.Timestamp.Before(now) {
			out = append(out, rec)
		}
	}
	return out
}

// UpcomingAppointments returns records dated now or later, soonest first.
func (v *Vehicle) UpcomingAppointments() []*MaintenanceRecord {
	return v.UpcomingAppointmentsAt(time.Now())
}

func (v *Vehicle) UpcomingAppointmentsAt(now time.Time) []*MaintenanceRecord {
	var out []*MaintenanceRecord
	for _, rec := range v.history {
		if rec.IsValidDate() && !rec.Timestamp.Before(now) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func sortHistory(history []*MaintenanceRecord) {
	sort.SliceStable(history, func(i, j int) bool {
		a, b := history[i], history[j]
		if a.IsValidDate() != b.IsValidDate() {
			return a.IsValidDate()
		}
		return a.Timestamp.After(b.Timestamp)
	})
}
