package mqtt

import "context"

// Status payloads retained on a client's status topic.
const (
	OnlinePayload  = "online"
	OfflinePayload = "offline"
)

// MessageHandler processes one received message. It runs on its own goroutine.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Client is the MQTT surface used by the garage notifier and garagectl watch.
type Client interface {
	// Start begins connecting in the background and returns immediately.
	Start(ctx context.Context) error
	Disconnect(ctx context.Context)

	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// Subscribe registers handler for a topic filter. Subscriptions survive
	// reconnects.
	Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error
	Unsubscribe(ctx context.Context, topic string) error

	AwaitConnection(ctx context.Context) error
	IsConnected() bool
}
