package model

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	fsmutil "github.com/autopeer-io/garage/internal/pkg/util/fsm"
)

const (
	StateOff = "off"
	StateOn  = "on"

	EventTurnOn  = "turn_on"
	EventTurnOff = "turn_off"
)

// newIgnition builds the engine state machine for v. Entering "off" brings the
// vehicle to a stop.
func newIgnition(v *Vehicle, on bool) *fsm.FSM {
	initial := StateOff
	if on {
		initial = StateOn
	}

	events := fsm.Events{
		{Name: EventTurnOn, Src: []string{StateOff}, Dst: StateOn},
		{Name: EventTurnOff, Src: []string{StateOn}, Dst: StateOff},
	}

	callbacks := fsm.Callbacks{
		"enter_" + StateOff: fsmutil.WrapEvent(func(_ context.Context, _ *fsm.Event) error {
			v.Speed = 0
			return nil
		}),
	}

	return fsm.NewFSM(initial, events, callbacks)
}

// fire triggers an ignition event. It reports false when the machine was
// already in the destination state.
func (v *Vehicle) fire(event string) (bool, error) {
	err := v.ignition.Event(context.Background(), event)
	if err == nil {
		return true, nil
	}
	var invalid fsm.InvalidEventError
	if errors.As(err, &invalid) {
		return false, nil
	}
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return false, nil
	}
	return false, err
}
