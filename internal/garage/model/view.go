package model

// View is a read-only snapshot of a vehicle for display.
type View struct {
	ID         string  `json:"id"`
	Kind       Kind    `json:"kind"`
	Model      string  `json:"model"`
	Color      string  `json:"color"`
	IgnitionOn bool    `json:"ignitionOn"`
	State      string  `json:"state"`
	Speed      float64 `json:"speed"`
	MaxSpeed   float64 `json:"maxSpeed"`

	TurboUsed *bool `json:"turboUsed,omitempty"`

	CargoCapacity *float64 `json:"cargoCapacity,omitempty"`
	CurrentCargo  *float64 `json:"currentCargo,omitempty"`
	LoadPercent   *float64 `json:"loadPercent,omitempty"`

	MaintenanceCount int `json:"maintenanceCount"`
}

func (v *Vehicle) View() View {
	view := View{
		ID:               v.ID,
		Kind:             v.Kind,
		Model:            v.Model,
		Color:            v.Color,
		IgnitionOn:       v.IgnitionOn(),
		State:            v.ignition.Current(),
		Speed:            v.Speed,
		MaxSpeed:         v.MaxSpeed(),
		MaintenanceCount: len(v.history),
	}

	p := v.profile()
	if p.turbo {
		used := v.TurboUsed
		view.TurboUsed = &used
	}
	if p.cargo {
		capacity, current := v.CargoCapacity, v.CurrentCargo
		percent := current / capacity * 100
		view.CargoCapacity = &capacity
		view.CurrentCargo = &current
		view.LoadPercent = &percent
	}
	return view
}
