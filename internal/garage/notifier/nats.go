package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/autopeer-io/garage/internal/garage/core"
	"github.com/autopeer-io/garage/internal/garage/model"
	"github.com/autopeer-io/garage/pkg/log"
	"github.com/autopeer-io/garage/pkg/options"
)

// NATSNotifier publishes garage events to {prefix}.events.{vehicleID} and
// {prefix}.reminders.{vehicleID}.
type NATSNotifier struct {
	nc     *nats.Conn
	prefix string
}

var _ core.Notifier = (*NATSNotifier)(nil)

func NewNATSNotifier(opts *options.NotifierOptions) (*NATSNotifier, error) {
	logger := log.WithName("nats")
	nc, err := nats.Connect(opts.NatsURL,
		nats.Name("garaged"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(opts.NatsReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NATSNotifier{nc: nc, prefix: opts.NatsSubjectPrefix}, nil
}

func (n *NATSNotifier) Publish(_ context.Context, event *model.Event) error {
	if n.nc == nil || n.nc.IsClosed() {
		return fmt.Errorf("nats not connected")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.nc.Publish(Subject(n.prefix, event), payload)
}

// Subject returns the NATS subject an event is published on.
func Subject(prefix string, event *model.Event) string {
	kind := "events"
	if event.Type == model.EventReminder {
		kind = "reminders"
	}
	return fmt.Sprintf("%s.%s.%s", prefix, kind, event.VehicleID)
}

func (n *NATSNotifier) Close() {
	if n.nc != nil {
		if err := n.nc.Drain(); err != nil {
			n.nc.Close()
		}
	}
}
