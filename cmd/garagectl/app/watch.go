package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/autopeer-io/garage/internal/garage/model"
	"github.com/autopeer-io/garage/pkg/mqtt"
	"github.com/autopeer-io/garage/pkg/mqtt/topic"
	"github.com/autopeer-io/garage/pkg/options"
)

// newWatchCommand follows the events garaged publishes on MQTT or NATS.
func newWatchCommand() *cobra.Command {
	notifierOpts := options.NewNotifierOptions()
	notifierOpts.Kind = options.NotifierMQTT
	mqttOpts := options.NewMqttOptions()
	mqttOpts.ClientID = "garagectl-" + uuid.NewString()[:8]

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print garage events and reminders as they are published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			errs := notifierOpts.Validate()
			switch notifierOpts.Kind {
			case options.NotifierMQTT:
				errs = append(errs, mqttOpts.Validate()...)
			case options.NotifierNATS:
			default:
				errs = append(errs, fmt.Errorf("--notifier.kind must be %s or %s to watch", options.NotifierMQTT, options.NotifierNATS))
			}
			if err := utilerrors.NewAggregate(errs); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p := &eventPrinter{out: cmd.OutOrStdout()}
			if notifierOpts.Kind == options.NotifierNATS {
				return watchNATS(ctx, notifierOpts, p)
			}
			return watchMQTT(ctx, mqttOpts, p)
		},
	}

	notifierOpts.AddFlags(cmd.Flags())
	mqttOpts.AddFlags(cmd.Flags())
	return cmd
}

func watchMQTT(ctx context.Context, opts *options.MqttOptions, p *eventPrinter) error {
	client, err := mqtt.NewClient(opts.ToClientConfig())
	if err != nil {
		return err
	}
	if err := client.Start(ctx); err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	topics := topic.NewTopicBuilder(opts.TopicRoot)
	handler := func(_ context.Context, _ string, payload []byte) {
		p.print(payload)
	}
	for _, filter := range []string{topics.EventsWildcard(), topics.RemindersWildcard()} {
		if err := client.Subscribe(ctx, filter, opts.QoS, handler); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", filter, err)
		}
	}

	<-ctx.Done()
	return nil
}

func watchNATS(ctx context.Context, opts *options.NotifierOptions, p *eventPrinter) error {
	nc, err := nats.Connect(opts.NatsURL, nats.Name("garagectl"), nats.ReconnectWait(opts.NatsReconnectWait))
	if err != nil {
		return fmt.Errorf("failed to connect to nats: %w", err)
	}
	defer nc.Drain()

	if _, err := nc.Subscribe(opts.NatsSubjectPrefix+".>", func(m *nats.Msg) {
		p.print(m.Data)
	}); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

// eventPrinter serializes output from concurrent message handlers.
type eventPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *eventPrinter) print(payload []byte) {
	var e model.Event
	line := ""
	if err := json.Unmarshal(payload, &e); err != nil {
		line = fmt.Sprintf("unreadable event: %s", payload)
	} else {
		line = formatEvent(&e)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, line)
}

func formatEvent(e *model.Event) string {
	stamp := e.Time.Local().Format("15:04:05")
	subject := e.VehicleID
	if e.Vehicle != nil {
		subject = e.Vehicle.Model
	}

	switch {
	case e.Reminder != nil:
		return fmt.Sprintf("[%s] %s", stamp, e.Reminder.Message)
	case e.Result != nil && e.Result.Message != "":
		return fmt.Sprintf("[%s] %s %s: %s", stamp, e.Type, subject, e.Result.Message)
	case e.RecordID != "":
		return fmt.Sprintf("[%s] %s %s record %s", stamp, e.Type, subject, e.RecordID)
	default:
		return fmt.Sprintf("[%s] %s %s", stamp, e.Type, subject)
	}
}
