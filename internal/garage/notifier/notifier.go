package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/autopeer-io/garage/internal/garage/core"
	"github.com/autopeer-io/garage/internal/garage/model"
	"github.com/autopeer-io/garage/pkg/options"
)

// New builds the notifier selected by opts. Every publish is bounded by
// opts.PublishTimeout.
func New(ctx context.Context, opts *options.NotifierOptions, mqttOpts *options.MqttOptions) (core.Notifier, error) {
	var (
		n   core.Notifier
		err error
	)

	switch opts.Kind {
	case options.NotifierNone, "":
		return core.NopNotifier{}, nil
	case options.NotifierMQTT:
		n, err = NewMQTTNotifier(ctx, mqttOpts)
	case options.NotifierNATS:
		n, err = NewNATSNotifier(opts)
	default:
		return nil, fmt.Errorf("unknown notifier kind %q", opts.Kind)
	}
	if err != nil {
		return nil, err
	}
	return &timeoutNotifier{next: n, timeout: opts.PublishTimeout}, nil
}

type timeoutNotifier struct {
	next    core.Notifier
	timeout time.Duration
}

func (t *timeoutNotifier) Publish(ctx context.Context, event *model.Event) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Publish(ctx, event)
}

func (t *timeoutNotifier) Close() {
	t.next.Close()
}
