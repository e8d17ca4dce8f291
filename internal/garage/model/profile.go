package model

import "math"

// Kind discriminates the vehicle variants.
type Kind string

const (
	KindCar       Kind = "Car"
	KindSportsCar Kind = "SportsCar"
	KindTruck     Kind = "Truck"
)

// profile captures everything that differs between variants.
type profile struct {
	maxSpeed   float64
	turbo      bool
	cargo      bool
	accelerate func(v *Vehicle) float64
	brake      func(v *Vehicle) float64
}

const (
	turboBoost = 50

	DefaultLoadAmount   = 1000
	DefaultUnloadAmount = 500
)

var profiles = map[Kind]profile{
	KindCar: {
		maxSpeed:   150,
		accelerate: constant(10),
		brake:      constant(10),
	},
	KindSportsCar: {
		maxSpeed:   360,
		turbo:      true,
		accelerate: constant(25),
		brake:      constant(10),
	},
	KindTruck: {
		maxSpeed:   120,
		cargo:      true,
		accelerate: truckAcceleration,
		brake:      truckDeceleration,
	},
}

func constant(step float64) func(*Vehicle) float64 {
	return func(*Vehicle) float64 { return step }
}

// Heavier loads accelerate slower, down to 30% of the base step.
func truckAcceleration(v *Vehicle) float64 {
	factor := math.Max(0.3, 1-v.CurrentCargo/(v.CargoCapacity*1.5))
	return math.Max(1, math.Round(7*factor))
}

// Heavier loads brake slower, down to 40% of the base step.
func truckDeceleration(v *Vehicle) float64 {
	factor := math.Max(0.4, 1-v.CurrentCargo/(v.CargoCapacity*2))
	return math.Max(2, math.Round(8*factor))
}

// Valid reports whether k names a known variant.
func (k Kind) Valid() bool {
	_, ok := profiles[k]
	return ok
}

// MaxSpeed returns the top speed of the variant in km/h.
func (k Kind) MaxSpeed() float64 {
	return profiles[k].maxSpeed
}
