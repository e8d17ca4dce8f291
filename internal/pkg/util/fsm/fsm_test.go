package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/looplab/fsm"
)

func TestWrapEvent(t *testing.T) {
	boom := errors.New("boom")

	machine := fsm.NewFSM("idle",
		fsm.Events{{Name: "start", Src: []string{"idle"}, Dst: "running"}},
		fsm.Callbacks{
			"after_start": WrapEvent(func(_ context.Context, _ *fsm.Event) error { return boom }),
		},
	)

	err := machine.Event(context.Background(), "start")
	if !errors.Is(err, boom) {
		t.Fatalf("Event() = %v, want %v", err, boom)
	}
	if machine.Current() != "running" {
		t.Errorf("state = %s, want running", machine.Current())
	}
}
