package server

import (
	"time"

	"github.com/autopeer-io/garage/pkg/options"
)

type Config struct {
	HttpOptions *options.HttpOptions

	ReminderWindow   time.Duration
	ReminderInterval time.Duration

	// SentReminders are record ids already announced before the servers start.
	SentReminders []string
}
