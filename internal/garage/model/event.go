package model

import "time"

// EventType names a garage domain event.
type EventType string

const (
	EventVehicleAdded       EventType = "vehicle.added"
	EventVehicleRemoved     EventType = "vehicle.removed"
	EventVehicleUpdated     EventType = "vehicle.updated"
	EventMaintenanceAdded   EventType = "maintenance.added"
	EventMaintenanceRemoved EventType = "maintenance.removed"
	EventReminder           EventType = "reminder"
)

// Event is published to the notifier after a successful garage mutation.
type Event struct {
	Type      EventType `json:"type"`
	VehicleID string    `json:"vehicleId"`
	Time      time.Time `json:"time"`

	// Action is the vehicle action behind a vehicle.updated event.
	Action string  `json:"action,omitempty"`
	Result *Result `json:"result,omitempty"`

	Vehicle  *View     `json:"vehicle,omitempty"`
	RecordID string    `json:"recordId,omitempty"`
	Reminder *Reminder `json:"reminder,omitempty"`
}

// Reminder describes an appointment falling inside the reminder window.
type Reminder struct {
	VehicleID string    `json:"vehicleId"`
	Model     string    `json:"model"`
	RecordID  string    `json:"recordId"`
	Service   string    `json:"serviceType"`
	Due       time.Time `json:"due"`
	Message   string    `json:"message"`
}
