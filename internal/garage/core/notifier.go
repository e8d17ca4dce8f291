package core

import (
	"context"

	"github.com/autopeer-io/garage/internal/garage/model"
)

// Notifier publishes garage events to an outside audience.
// Implemented by the MQTT and NATS adapters.
type Notifier interface {
	Publish(ctx context.Context, event *model.Event) error

	Close()
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, *model.Event) error { return nil }

func (NopNotifier) Close() {}
