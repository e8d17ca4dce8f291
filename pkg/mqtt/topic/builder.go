package topic

import (
	"fmt"
	"strings"
)

// Topic segments published by the garage. Subscribers depend on these names.
const (
	// SuffixEvents carries vehicle and maintenance change events.
	// Structure: {root}/events/{vehicleID}
	SuffixEvents = "events"

	// SuffixReminders carries upcoming appointment reminders.
	// Structure: {root}/reminders/{vehicleID}
	SuffixReminders = "reminders"

	// SuffixStatus carries the retained online/offline state of a publisher.
	// Structure: {root}/status/{clientID}
	SuffixStatus = "status"
)

// TopicBuilder encapsulates the logic for constructing MQTT topic strings.
type TopicBuilder struct {
	// root is the base namespace for all topics (e.g., "garage/v1").
	root string
}

// NewTopicBuilder creates a new instance of TopicBuilder with the specified root namespace.
func NewTopicBuilder(root string) *TopicBuilder {
	return &TopicBuilder{root: strings.TrimSuffix(root, "/")}
}

// Events returns the topic for change events of a vehicle.
func (b *TopicBuilder) Events(vehicleID string) string {
	return b.build(SuffixEvents, vehicleID)
}

// EventsWildcard matches the events of every vehicle.
// Result: {root}/events/+
func (b *TopicBuilder) EventsWildcard() string {
	return b.build(SuffixEvents, Wildcard)
}

// Reminders returns the topic for appointment reminders of a vehicle.
func (b *TopicBuilder) Reminders(vehicleID string) string {
	return b.build(SuffixReminders, vehicleID)
}

// RemindersWildcard matches the reminders of every vehicle.
// Result: {root}/reminders/+
func (b *TopicBuilder) RemindersWildcard() string {
	return b.build(SuffixReminders, Wildcard)
}

// Status returns the presence topic of a publisher.
func (b *TopicBuilder) Status(clientID string) string {
	return b.build(SuffixStatus, clientID)
}

// All matches every topic under the root.
func (b *TopicBuilder) All() string {
	return b.root + "/" + MultiWildcard
}

// build is a private helper to construct the final topic string.
// Pattern: {root}/{suffix}/{identifier}
func (b *TopicBuilder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
