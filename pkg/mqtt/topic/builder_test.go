package topic

import "testing"

func TestTopicBuilder(t *testing.T) {
	b := NewTopicBuilder("garage/v1/")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"events", b.Events("v-1"), "garage/v1/events/v-1"},
		{"events wildcard", b.EventsWildcard(), "garage/v1/events/+"},
		{"reminders", b.Reminders("v-1"), "garage/v1/reminders/v-1"},
		{"reminders wildcard", b.RemindersWildcard(), "garage/v1/reminders/+"},
		{"status", b.Status("garaged"), "garage/v1/status/garaged"},
		{"all", b.All(), "garage/v1/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
