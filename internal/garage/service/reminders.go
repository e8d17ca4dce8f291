package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/autopeer-io/garage/internal/garage/model"
)

// DefaultReminderWindow is how far ahead appointments trigger a reminder.
const DefaultReminderWindow = 48 * time.Hour

// Reminders returns the appointments due between now and now+window across
// all vehicles, soonest first.
func (g *Garage) Reminders(window time.Duration) []model.Reminder {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	limit := now.Add(window)

	var out []model.Reminder
	for _, v := range g.vehicles {
		for _, rec := range v.MaintenanceHistory() {
			if !rec.IsValidDate() || rec.Timestamp.Before(now) || rec.Timestamp.After(limit) {
				continue
			}
			out = append(out, model.Reminder{
				VehicleID: v.ID,
				Model:     v.Model,
				RecordID:  rec.ID,
				Service:   rec.ServiceType,
				Due:       rec.Timestamp,
				Message:   reminderMessage(rec, v.Model, now),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Due.Before(out[j].Due)
	})
	return out
}

// UpcomingRemindersWithin renders the reminder messages for the window.
func (g *Garage) UpcomingRemindersWithin(window time.Duration) []string {
	reminders := g.Reminders(window)
	msgs := make([]string, 0, len(reminders))
	for _, r := range reminders {
		msgs = append(msgs, r.Message)
	}
	return msgs
}

// NotifyReminders publishes one reminder event per upcoming appointment and
// returns how many were sent.
func (g *Garage) NotifyReminders(ctx context.Context, window time.Duration) int {
	reminders := g.Reminders(window)
	for _, r := range reminders {
		g.PublishReminder(ctx, r)
	}
	if len(reminders) > 0 {
		g.logger.Info("Upcoming appointments found", "count", len(reminders))
	}
	return len(reminders)
}

// PublishReminder hands a single reminder to the notifier.
func (g *Garage) PublishReminder(ctx context.Context, r model.Reminder) {
	g.publish(ctx, &model.Event{
		Type:      model.EventReminder,
		VehicleID: r.VehicleID,
		RecordID:  r.RecordID,
		Reminder:  &r,
	})
}

func reminderMessage(rec *model.MaintenanceRecord, vehicleModel string, now time.Time) string {
	due := rec.Timestamp.Local()
	return fmt.Sprintf("Reminder: %s for %s %s (%s at %s).",
		rec.ServiceType, vehicleModel, timeUntil(rec.Timestamp.Sub(now)),
		due.Format("02/01"), due.Format("15:04"))
}

// timeUntil buckets the distance to an appointment for display.
func timeUntil(d time.Duration) string {
	hours := int(math.Round(d.Hours()))
	days := int(d / (24 * time.Hour))

	switch {
	case d < 30*time.Minute:
		return "in under 30 min"
	case d < time.Hour:
		return "in under 1h"
	case days == 0:
		return fmt.Sprintf("today (~%dh)", hours)
	case days == 1:
		return fmt.Sprintf("tomorrow (~%dh)", hours)
	default:
		return fmt.Sprintf("in %d days (~%dh)", days, hours)
	}
}
