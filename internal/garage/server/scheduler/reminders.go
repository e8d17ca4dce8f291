package scheduler

import (
	"context"
	"time"

	"github.com/autopeer-io/garage/internal/garage/service"
	"github.com/autopeer-io/garage/pkg/log"
)

// Reminders periodically publishes reminders for appointments entering the
// window. Each appointment is announced once per process.
type Reminders struct {
	garage   *service.Garage
	window   time.Duration
	interval time.Duration
	sent     map[string]struct{}
	logger   log.Logger
}

// NewReminders creates the loop. alreadySent marks record ids that must not be
// announced again, typically those published at start-up.
func NewReminders(g *service.Garage, window, interval time.Duration, alreadySent ...string) *Reminders {
	r := &Reminders{
		garage:   g,
		window:   window,
		interval: interval,
		sent:     make(map[string]struct{}),
		logger:   log.WithName("reminders"),
	}
	for _, id := range alreadySent {
		r.sent[id] = struct{}{}
	}
	return r
}

// Start blocks until ctx is cancelled.
func (r *Reminders) Start(ctx context.Context) error {
	r.logger.Info("Starting reminder scheduler", "window", r.window, "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.tick(ctx)
		case <-ctx.Done():
			r.logger.Info("Stopping reminder scheduler")
			return nil
		}
	}
}

// tick publishes the reminders not announced yet and returns how many.
// Ids that left the window, because the appointment passed or was removed,
// are forgotten.
func (r *Reminders) tick(ctx context.Context) int {
	due := r.garage.Reminders(r.window)
	live := make(map[string]struct{}, len(due))

	n := 0
	for _, rem := range due {
		live[rem.RecordID] = struct{}{}
		if _, ok := r.sent[rem.RecordID]; ok {
			continue
		}
		r.garage.PublishReminder(ctx, rem)
		n++
	}
	r.sent = live

	if n > 0 {
		r.logger.Info("Published reminders", "count", n)
	}
	return n
}
