package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/autopeer-io/garage/pkg/log"
)

const reconnectDelay = 3 * time.Second

var errNotStarted = errors.New("mqtt client not started")

type subscription struct {
	qos     byte
	handler MessageHandler
}

type pahoClient struct {
	cfg    *ClientConfig
	logger log.Logger

	cm *autopaho.ConnectionManager
	// ctx is the Start context, handed to message handlers.
	ctx context.Context

	mu   sync.RWMutex
	subs map[string]subscription

	connected atomic.Bool
}

// NewClient validates cfg and returns a client that connects on Start.
func NewClient(cfg *ClientConfig) (Client, error) {
	if cfg == nil {
		return nil, errors.New("mqtt config is required")
	}
	setDefaultConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mqtt config: %w", err)
	}

	return &pahoClient{
		cfg:    cfg,
		logger: log.WithName("mqtt").WithValues("clientID", cfg.ClientID),
		ctx:    context.Background(),
		subs:   map[string]subscription{},
	}, nil
}

func (c *pahoClient) Start(ctx context.Context) error {
	broker, err := url.Parse(c.cfg.BrokerURL)
	if err != nil {
		return err
	}

	cm, err := autopaho.NewConnection(ctx, autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{broker},
		KeepAlive:                     c.cfg.KeepAlive,
		CleanStartOnInitialConnection: c.cfg.CleanStart,
		SessionExpiryInterval:         c.cfg.SessionExpiry,
		ReconnectBackoff:              autopaho.NewConstantBackoff(reconnectDelay),
		ConnectTimeout:                c.cfg.ConnectTimeout,
		ConnectUsername:               c.cfg.Username,
		ConnectPassword:               []byte(c.cfg.Password),
		TlsCfg:                        &tls.Config{InsecureSkipVerify: c.cfg.InsecureSkipVerify},
		WillMessage:                   c.will(),
		OnConnectionUp:                c.onConnectionUp,
		OnConnectError:                c.onConnectError,
		ClientConfig: paho.ClientConfig{
			ClientID:           c.cfg.ClientID,
			OnClientError:      func(err error) { c.logger.Error(err, "MQTT client error") },
			OnServerDisconnect: c.onServerDisconnect,
			OnPublishReceived:  []func(paho.PublishReceived) (bool, error){c.dispatch},
		},
	})
	if err != nil {
		return err
	}

	c.ctx = ctx
	c.cm = cm
	c.logger.Info("MQTT client started", "broker", c.cfg.BrokerURL)
	return nil
}

func (c *pahoClient) Disconnect(ctx context.Context) {
	if c.cm == nil {
		return
	}
	if err := c.cm.Disconnect(ctx); err != nil {
		c.logger.Debug("MQTT disconnect", "error", err)
	}
	c.connected.Store(false)
	c.logger.Info("MQTT client disconnected")
}

func (c *pahoClient) Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error {
	if c.cm == nil {
		return errNotStarted
	}
	_, err := c.cm.Publish(ctx, &paho.Publish{
		Topic:   topic,
		QoS:     byte(qos),
		Retain:  retain,
		Payload: payload,
	})
	return err
}

// Subscribe records the handler before sending SUBSCRIBE so a reconnect
// restores it even when this first attempt fails.
func (c *pahoClient) Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error {
	if c.cm == nil {
		return errNotStarted
	}

	c.mu.Lock()
	c.subs[topic] = subscription{qos: byte(qos), handler: handler}
	c.mu.Unlock()

	if _, err := c.cm.Subscribe(ctx, subscribePacket(map[string]byte{topic: byte(qos)})); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	c.logger.Debug("Subscribed", "topic", topic)
	return nil
}

func (c *pahoClient) Unsubscribe(ctx context.Context, topic string) error {
	if c.cm == nil {
		return errNotStarted
	}

	c.mu.Lock()
	delete(c.subs, topic)
	c.mu.Unlock()

	_, err := c.cm.Unsubscribe(ctx, &paho.Unsubscribe{Topics: []string{topic}})
	return err
}

func (c *pahoClient) AwaitConnection(ctx context.Context) error {
	if c.cm == nil {
		return errNotStarted
	}
	return c.cm.AwaitConnection(ctx)
}

func (c *pahoClient) IsConnected() bool {
	return c.connected.Load()
}

// onConnectionUp restores subscriptions in a single SUBSCRIBE and clears the
// retained "offline" status left by the will message.
func (c *pahoClient) onConnectionUp(cm *autopaho.ConnectionManager, _ *paho.Connack) {
	c.connected.Store(true)
	c.logger.Info("MQTT connection up")

	filters := map[string]byte{}
	c.mu.RLock()
	for topic, s := range c.subs {
		filters[topic] = s.qos
	}
	c.mu.RUnlock()

	if len(filters) > 0 {
		if _, err := cm.Subscribe(c.ctx, subscribePacket(filters)); err != nil {
			c.logger.Error(err, "Failed to restore subscriptions", "count", len(filters))
		}
	}

	if c.cfg.WillTopic != "" {
		if _, err := cm.Publish(c.ctx, &paho.Publish{
			Topic:   c.cfg.WillTopic,
			QoS:     c.cfg.WillQoS,
			Retain:  true,
			Payload: []byte(OnlinePayload),
		}); err != nil {
			c.logger.Warn("Failed to publish online status", "topic", c.cfg.WillTopic, "error", err)
		}
	}
}

func (c *pahoClient) onConnectError(err error) {
	c.connected.Store(false)
	c.logger.Error(err, "MQTT connection failed, retrying", "in", reconnectDelay)
}

func (c *pahoClient) onServerDisconnect(d *paho.Disconnect) {
	c.connected.Store(false)
	reason := ""
	if d.Properties != nil {
		reason = d.Properties.ReasonString
	}
	c.logger.Warn("MQTT server closed the connection", "code", d.ReasonCode, "reason", reason)
}

// dispatch hands a received message to every matching handler. Handlers run
// on their own goroutine so they never stall the paho reader.
func (c *pahoClient) dispatch(p paho.PublishReceived) (bool, error) {
	topic := p.Packet.Topic
	payload := p.Packet.Payload

	c.mu.RLock()
	var handlers []MessageHandler
	for filter, s := range c.subs {
		if topicsMatch(topicFilter(filter), topic) {
			handlers = append(handlers, s.handler)
		}
	}
	c.mu.RUnlock()

	if len(handlers) == 0 {
		c.logger.Debug("No handler for topic", "topic", topic)
	}
	for _, h := range handlers {
		go h(c.ctx, topic, payload)
	}
	return true, nil
}

func (c *pahoClient) will() *paho.WillMessage {
	if c.cfg.WillTopic == "" {
		return nil
	}
	return &paho.WillMessage{
		Topic:   c.cfg.WillTopic,
		Payload: c.cfg.WillPayload,
		QoS:     c.cfg.WillQoS,
		Retain:  c.cfg.WillRetain,
	}
}

func subscribePacket(filters map[string]byte) *paho.Subscribe {
	sub := &paho.Subscribe{Subscriptions: make([]paho.SubscribeOptions, 0, len(filters))}
	for topic, qos := range filters {
		sub.Subscriptions = append(sub.Subscriptions, paho.SubscribeOptions{Topic: topic, QoS: qos})
	}
	return sub
}

// topicsMatch reports whether topic is covered by filter, honouring the
// + and # wildcards.
func topicsMatch(filter, topic string) bool {
	for {
		fseg, frest, fmore := strings.Cut(filter, "/")
		if fseg == "#" {
			return true
		}
		tseg, trest, tmore := strings.Cut(topic, "/")
		if fseg != "+" && fseg != tseg {
			return false
		}
		if !fmore || !tmore {
			// "a/#" also matches its parent "a".
			return fmore == tmore || (fmore && frest == "#")
		}
		filter, topic = frest, trest
	}
}

// topicFilter strips the $share/<group>/ prefix of a shared subscription.
func topicFilter(filter string) string {
	if rest, ok := strings.CutPrefix(filter, "$share/"); ok {
		if _, f, ok := strings.Cut(rest, "/"); ok {
			return f
		}
	}
	return filter
}
