package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/autopeer-io/garage/internal/garage/core"
	"github.com/autopeer-io/garage/internal/garage/model"
	"github.com/autopeer-io/garage/pkg/log"
	pkgmqtt "github.com/autopeer-io/garage/pkg/mqtt"
	"github.com/autopeer-io/garage/pkg/mqtt/topic"
	"github.com/autopeer-io/garage/pkg/options"
)

// MQTTNotifier publishes garage events as JSON to per-vehicle MQTT topics.
type MQTTNotifier struct {
	client pkgmqtt.Client
	topics *topic.TopicBuilder
	status string
	qos    int
}

var _ core.Notifier = (*MQTTNotifier)(nil)

func NewMQTTNotifier(ctx context.Context, opts *options.MqttOptions) (*MQTTNotifier, error) {
	client, err := pkgmqtt.NewClient(opts.ToClientConfig())
	if err != nil {
		return nil, err
	}

	// Start returns immediately; publishes made before the first
	// connection fail and are only logged by the garage.
	if err := client.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start mqtt client: %w", err)
	}

	topics := topic.NewTopicBuilder(opts.TopicRoot)
	return newMQTTNotifier(client, topics, topics.Status(opts.ClientID), opts.QoS), nil
}

func newMQTTNotifier(client pkgmqtt.Client, topics *topic.TopicBuilder, status string, qos int) *MQTTNotifier {
	return &MQTTNotifier{client: client, topics: topics, status: status, qos: qos}
}

// Publish routes reminders to {root}/reminders/{vehicleID} and everything
// else to {root}/events/{vehicleID}.
func (n *MQTTNotifier) Publish(ctx context.Context, event *model.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, n.topicFor(event), n.qos, false, payload)
}

func (n *MQTTNotifier) topicFor(event *model.Event) string {
	if event.Type == model.EventReminder {
		return n.topics.Reminders(event.VehicleID)
	}
	return n.topics.Events(event.VehicleID)
}

// Close marks the publisher offline and disconnects.
func (n *MQTTNotifier) Close() {
	ctx := context.Background()
	if n.client.IsConnected() {
		if err := n.client.Publish(ctx, n.status, 1, true, []byte(pkgmqtt.OfflinePayload)); err != nil {
			log.Warn("Failed to publish offline status", "topic", n.status, "error", err)
		}
	}
	n.client.Disconnect(ctx)
}
