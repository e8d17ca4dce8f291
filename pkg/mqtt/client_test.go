package mqtt

import (
	"context"
	"testing"
	"time"

	"github.com/eclipse/paho.golang/paho"
)

func TestTopicsMatch(t *testing.T) {
	tests := []struct {
		filter, topic string
		want          bool
	}{
		{"garage/v1/events/abc", "garage/v1/events/abc", true},
		{"garage/v1/events/+", "garage/v1/events/abc", true},
		{"garage/v1/events/+", "garage/v1/events/abc/extra", false},
		{"garage/v1/#", "garage/v1/reminders/abc", true},
		{"garage/v1/events/+", "garage/v1/reminders/abc", false},
		{"garage/+/events/+", "garage/v2/events/x", true},
		{"garage/v1/events", "garage/v1/events/abc", false},
		{"garage/v1/#", "garage/v1", true},
		{"garage/v1/+", "garage/v1", false},
	}

	for _, tt := range tests {
		if got := topicsMatch(tt.filter, tt.topic); got != tt.want {
			t.Errorf("topicsMatch(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}

func TestTopicFilter(t *testing.T) {
	if got := topicFilter("$share/dash/garage/v1/events/+"); got != "garage/v1/events/+" {
		t.Errorf("shared filter = %q", got)
	}
	if got := topicFilter("garage/v1/events/+"); got != "garage/v1/events/+" {
		t.Errorf("plain filter = %q", got)
	}
}

func TestClientConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ClientConfig
		wantErr bool
	}{
		{"ok", ClientConfig{BrokerURL: "tcp://localhost:1883"}, false},
		{"empty", ClientConfig{}, true},
		{"no scheme", ClientConfig{BrokerURL: "localhost"}, true},
		{"bad will qos", ClientConfig{BrokerURL: "tcp://localhost:1883", WillTopic: "x", WillQoS: 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewClientNotStarted(t *testing.T) {
	c, err := NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883", ClientID: "test"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.IsConnected() {
		t.Error("fresh client reports connected")
	}
	if err := c.Publish(t.Context(), "garage/v1/events/x", 1, false, nil); err == nil {
		t.Error("Publish before Start should fail")
	}
}

func TestDispatch(t *testing.T) {
	c, err := NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883", ClientID: "test"})
	if err != nil {
		t.Fatal(err)
	}
	pc := c.(*pahoClient)

	got := make(chan string, 2)
	pc.subs["garage/v1/events/+"] = subscription{handler: func(_ context.Context, topic string, _ []byte) {
		got <- "events:" + topic
	}}
	pc.subs["garage/v1/reminders/+"] = subscription{handler: func(_ context.Context, topic string, _ []byte) {
		got <- "reminders:" + topic
	}}

	ok, err := pc.dispatch(paho.PublishReceived{Packet: &paho.Publish{Topic: "garage/v1/events/v1", Payload: []byte("{}")}})
	if !ok || err != nil {
		t.Fatalf("dispatch() = %v, %v", ok, err)
	}

	select {
	case s := <-got:
		if s != "events:garage/v1/events/v1" {
			t.Errorf("handler got %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}

	select {
	case s := <-got:
		t.Errorf("unexpected second delivery %q", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribePacket(t *testing.T) {
	p := subscribePacket(map[string]byte{"a/+": 1, "b/#": 0})
	if len(p.Subscriptions) != 2 {
		t.Fatalf("got %d subscriptions", len(p.Subscriptions))
	}
	for _, s := range p.Subscriptions {
		if (s.Topic == "a/+" && s.QoS != 1) || (s.Topic == "b/#" && s.QoS != 0) {
			t.Errorf("subscription %+v has wrong qos", s)
		}
	}
}
