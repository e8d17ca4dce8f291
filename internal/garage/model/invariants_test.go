package model

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"
)

const (
	sequenceSeeds = 20
	sequenceSteps = 300
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestSpeedStaysInRange(t *testing.T) {
	for _, kind := range []Kind{KindCar, KindSportsCar, KindTruck} {
		for seed := range uint64(sequenceSeeds) {
			t.Run(fmt.Sprintf("%s/%d", kind, seed), func(t *testing.T) {
				r := newRand(seed)
				v := mustVehicle(t, Params{Kind: kind, Model: "M", Color: "C", CargoCapacity: 2000})

				for step := range sequenceSteps {
					var op string
					switch r.IntN(6) {
					case 0:
						op = "turn-on"
						v.TurnOn()
					case 1:
						op = "turn-off"
						v.TurnOff()
						if v.Speed != 0 {
							t.Fatalf("step %d: speed %v after turn-off", step, v.Speed)
						}
					case 2, 3:
						op = "accelerate"
						v.Accelerate()
					case 4:
						op = "brake"
						v.Brake()
					case 5:
						op = "turbo"
						v.ActivateTurbo()
					}
					if v.Speed < 0 || v.Speed > v.MaxSpeed() {
						t.Fatalf("step %d (%s): speed %v outside [0, %v]", step, op, v.Speed, v.MaxSpeed())
					}
				}
			})
		}
	}
}

func TestCargoStaysInRange(t *testing.T) {
	for seed := range uint64(sequenceSeeds) {
		t.Run(fmt.Sprint(seed), func(t *testing.T) {
			r := newRand(seed)
			capacity := float64(100 + r.IntN(5000))
			v := mustVehicle(t, Params{Kind: KindTruck, Model: "Atlas", Color: "Red", CargoCapacity: capacity})

			for step := range sequenceSteps {
				amount := r.Float64()*capacity*1.5 - capacity*0.1
				switch r.IntN(5) {
				case 0, 1:
					v.Load(amount)
				case 2, 3:
					v.Unload(amount)
				case 4:
					if v.IgnitionOn() {
						v.TurnOff()
					} else {
						v.TurnOn()
					}
				}
				if v.CurrentCargo < 0 || v.CurrentCargo > v.CargoCapacity {
					t.Fatalf("step %d: cargo %v outside [0, %v]", step, v.CurrentCargo, v.CargoCapacity)
				}
			}
		})
	}
}

func TestHistoryStaysSorted(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for seed := range uint64(sequenceSeeds) {
		t.Run(fmt.Sprint(seed), func(t *testing.T) {
			r := newRand(seed)
			v := mustVehicle(t, Params{Kind: KindCar, Model: "Civic", Color: "Black"})

			for step := range sequenceSteps / 3 {
				history := v.MaintenanceHistory()
				if len(history) > 0 && r.IntN(3) == 0 {
					v.RemoveMaintenanceRecord(history[r.IntN(len(history))].ID)
				} else {
					ts := base.Add(time.Duration(r.IntN(2000)-1000) * time.Hour)
					if r.IntN(8) == 0 {
						ts = time.Time{}
					}
					v.AddMaintenanceRecord(NewMaintenanceRecord(ts, "Service", float64(r.IntN(500)), ""))
				}
				assertHistoryOrder(t, step, v.MaintenanceHistory())
			}
		})
	}
}

func assertHistoryOrder(t *testing.T, step int, history []*MaintenanceRecord) {
	t.Helper()
	seenInvalid := false
	for i, rec := range history {
		if !rec.IsValidDate() {
			seenInvalid = true
			continue
		}
		if seenInvalid {
			t.Fatalf("step %d: valid record %d follows an invalid one", step, i)
		}
		if i > 0 && history[i-1].IsValidDate() && history[i-1].Timestamp.Before(rec.Timestamp) {
			t.Fatalf("step %d: record %d newer than record %d", step, i, i-1)
		}
	}
}
