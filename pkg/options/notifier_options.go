package options

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*NotifierOptions)(nil)

// Notifier kinds.
const (
	NotifierNone = "none"
	NotifierMQTT = "mqtt"
	NotifierNATS = "nats"
)

var notifierKinds = []string{NotifierNone, NotifierMQTT, NotifierNATS}

// NotifierOptions selects where garage events are published. The mqtt kind
// is configured by MqttOptions.
type NotifierOptions struct {
	Kind string `json:"kind" mapstructure:"kind"`

	// PublishTimeout bounds a single publish call.
	PublishTimeout time.Duration `json:"publish-timeout" mapstructure:"publish-timeout"`

	NatsURL           string        `json:"nats-url" mapstructure:"nats-url"`
	NatsSubjectPrefix string        `json:"nats-subject-prefix" mapstructure:"nats-subject-prefix"`
	NatsReconnectWait time.Duration `json:"nats-reconnect-wait" mapstructure:"nats-reconnect-wait"`
}

func NewNotifierOptions() *NotifierOptions {
	return &NotifierOptions{
		Kind:              NotifierNone,
		PublishTimeout:    3 * time.Second,
		NatsURL:           "nats://127.0.0.1:4222",
		NatsSubjectPrefix: "garage",
		NatsReconnectWait: 2 * time.Second,
	}
}

func (o *NotifierOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if !slices.Contains(notifierKinds, o.Kind) {
		errors = append(errors, fmt.Errorf("--notifier.kind must be one of %v, got %q", notifierKinds, o.Kind))
	}
	if o.Kind == NotifierNATS && o.NatsURL == "" {
		errors = append(errors, fmt.Errorf("--notifier.nats-url is required for the nats notifier"))
	}
	if o.PublishTimeout <= 0 {
		errors = append(errors, fmt.Errorf("--notifier.publish-timeout must be positive"))
	}

	return errors
}

func (o *NotifierOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Kind, "notifier.kind", o.Kind, fmt.Sprintf("Where garage events are published %v.", notifierKinds))
	fs.DurationVar(&o.PublishTimeout, "notifier.publish-timeout", o.PublishTimeout, "Timeout for publishing one event.")
	fs.StringVar(&o.NatsURL, "notifier.nats-url", o.NatsURL, "NATS server URL.")
	fs.StringVar(&o.NatsSubjectPrefix, "notifier.nats-subject-prefix", o.NatsSubjectPrefix, "Subject prefix for NATS events.")
	fs.DurationVar(&o.NatsReconnectWait, "notifier.nats-reconnect-wait", o.NatsReconnectWait, "Wait between NATS reconnect attempts.")
}
