package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/garage/internal/garage/core"
	"github.com/autopeer-io/garage/internal/garage/model"
	"github.com/autopeer-io/garage/internal/pkg/metrics"
	"github.com/autopeer-io/garage/pkg/log"
)

var (
	// ErrPersist wraps store failures. The in-memory change it follows is kept.
	ErrPersist = errors.New("failed to persist garage state")

	// ErrCorruptData is returned by Reload when the stored blob cannot be parsed.
	ErrCorruptData = errors.New("stored garage data is corrupt")

	ErrVehicleNotFound = errors.New("vehicle not found")
)

// Keys names the store entries holding the garage state.
type Keys struct {
	Vehicles string
	Selected string
}

// DefaultKeys returns the keys used when none are configured.
func DefaultKeys() Keys {
	return Keys{Vehicles: "garage.vehicles", Selected: "garage.selectedId"}
}

// Garage owns the vehicle collection and the current selection. Every
// operation runs under a single lock, and each successful mutation is written
// through to the store before the lock is released.
type Garage struct {
	mu       sync.Mutex
	vehicles []*model.Vehicle
	selected string

	store    core.Store
	notifier core.Notifier
	keys     Keys
	clock    clock.PassiveClock
	collator *collate.Collator
	logger   log.Logger
}

// Option customizes a Garage.
type Option func(*Garage)

func WithNotifier(n core.Notifier) Option {
	return func(g *Garage) { g.notifier = n }
}

func WithKeys(keys Keys) Option {
	return func(g *Garage) { g.keys = keys }
}

func WithClock(c clock.PassiveClock) Option {
	return func(g *Garage) { g.clock = c }
}

// WithLocale sets the collation used to order vehicles by model name.
func WithLocale(tag language.Tag) Option {
	return func(g *Garage) { g.collator = collate.New(tag) }
}

func WithLogger(l log.Logger) Option {
	return func(g *Garage) { g.logger = l }
}

// New creates an empty garage backed by store. Call Load to restore the
// persisted state.
func New(store core.Store, opts ...Option) *Garage {
	g := &Garage{
		store:    store,
		notifier: core.NopNotifier{},
		keys:     DefaultKeys(),
		clock:    clock.RealClock{},
		collator: collate.New(defaultLocale),
		logger:   log.Std().WithName("garage"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var defaultLocale = language.BrazilianPortuguese

// Add inserts v unless its id is taken or a vehicle with the same model and
// color, compared case-insensitively, is already present.
func (g *Garage) Add(ctx context.Context, v *model.Vehicle) (model.Result, error) {
	if v == nil {
		return model.Result{Message: "No vehicle given."}, nil
	}

	g.mu.Lock()
	if g.indexOf(v.ID) >= 0 {
		g.mu.Unlock()
		g.logger.Debug("Rejected vehicle with a taken id", "id", v.ID)
		return model.Result{Message: fmt.Sprintf("A vehicle with id %s is already in the garage.", v.ID)}, nil
	}
	for _, existing := range g.vehicles {
		if strings.EqualFold(existing.Model, v.Model) && strings.EqualFold(existing.Color, v.Color) {
			g.mu.Unlock()
			g.logger.Debug("Rejected duplicate vehicle", "model", v.Model, "color", v.Color, "existing", existing.ID)
			return model.Result{Message: fmt.Sprintf("A %s %s already exists in the garage.", v.Model, v.Color)}, nil
		}
	}

	g.vehicles = append(g.vehicles, v)
	g.sortLocked()
	metrics.Vehicles.Set(float64(len(g.vehicles)))
	err := g.persistLocked(ctx)
	view := v.View()
	g.mu.Unlock()

	g.logger.Info("Vehicle added", "id", v.ID, "kind", v.Kind, "model", v.Model)
	g.publish(ctx, &model.Event{Type: model.EventVehicleAdded, VehicleID: v.ID, Vehicle: &view})

	return model.Result{Success: true, Message: fmt.Sprintf("%s added to the garage.", v.Model)}, err
}

// Remove deletes the vehicle with the given id. Removing the selected vehicle
// clears the selection.
func (g *Garage) Remove(ctx context.Context, id string) (bool, error) {
	g.mu.Lock()
	i := g.indexOf(id)
	if i < 0 {
		g.mu.Unlock()
		return false, nil
	}

	g.vehicles = append(g.vehicles[:i], g.vehicles[i+1:]...)
	metrics.Vehicles.Set(float64(len(g.vehicles)))

	var errs []error
	if g.selected == id {
		g.selected = ""
		errs = append(errs, g.persistSelectionLocked(ctx))
	}
	errs = append(errs, g.persistLocked(ctx))
	g.mu.Unlock()

	g.logger.Info("Vehicle removed", "id", id)
	g.publish(ctx, &model.Event{Type: model.EventVehicleRemoved, VehicleID: id})

	return true, errors.Join(errs...)
}

// Find returns the live vehicle with the given id. Callers must not mutate it
// outside Update.
func (g *Garage) Find(id string) (*model.Vehicle, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if i := g.indexOf(id); i >= 0 {
		return g.vehicles[i], true
	}
	return nil, false
}

// View returns a snapshot of the vehicle with the given id.
func (g *Garage) View(id string) (model.View, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if i := g.indexOf(id); i >= 0 {
		return g.vehicles[i].View(), true
	}
	return model.View{}, false
}

// Views returns snapshots of all vehicles in display order.
func (g *Garage) Views() []model.View {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]model.View, 0, len(g.vehicles))
	for _, v := range g.vehicles {
		out = append(out, v.View())
	}
	return out
}

// Len returns the number of vehicles.
func (g *Garage) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.vehicles)
}

// Select marks the vehicle with the given id as selected. An empty id clears
// the selection and reports whether there was one to clear.
func (g *Garage) Select(ctx context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id == "" {
		if g.selected == "" {
			return false, nil
		}
		g.selected = ""
		return true, g.persistSelectionLocked(ctx)
	}

	if g.indexOf(id) < 0 {
		return false, nil
	}
	if g.selected == id {
		return true, nil
	}
	g.selected = id
	return true, g.persistSelectionLocked(ctx)
}

// Selected returns the selected vehicle, if any.
func (g *Garage) Selected() (*model.Vehicle, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.selected == "" {
		return nil, false
	}
	if i := g.indexOf(g.selected); i >= 0 {
		return g.vehicles[i], true
	}
	return nil, false
}

// SelectedID returns the id of the selected vehicle or "".
func (g *Garage) SelectedID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selected
}

// Update runs action against the vehicle with the given id and persists the
// garage when the action succeeds. The name is used for logging, metrics and
// the published event.
func (g *Garage) Update(ctx context.Context, id, name string, action func(v *model.Vehicle) model.Result) (model.Result, error) {
	g.mu.Lock()
	i := g.indexOf(id)
	if i < 0 {
		g.mu.Unlock()
		return model.Result{}, fmt.Errorf("%w: %s", ErrVehicleNotFound, id)
	}

	v := g.vehicles[i]
	res := action(v)
	metrics.VehicleActionsTotal.WithLabelValues(name, metrics.Outcome(res.Success)).Inc()
	if !res.Success {
		g.mu.Unlock()
		g.logger.Debug("Vehicle action rejected", "id", id, "action", name, "reason", res.Message)
		return res, nil
	}

	g.sortLocked()
	err := g.persistLocked(ctx)
	view := v.View()
	g.mu.Unlock()

	g.logger.Debug("Vehicle action applied", "id", id, "action", name)
	g.publish(ctx, &model.Event{
		Type:      model.EventVehicleUpdated,
		VehicleID: id,
		Action:    name,
		Result:    &res,
		Vehicle:   &view,
	})
	return res, err
}

// AddMaintenance records a service entry or appointment for a vehicle.
func (g *Garage) AddMaintenance(ctx context.Context, id string, rec *model.MaintenanceRecord) (model.Result, error) {
	res, err := g.mutate(ctx, id, "add-maintenance", func(v *model.Vehicle) model.Result {
		return v.AddMaintenanceRecord(rec)
	})
	if res.Success {
		g.publish(ctx, &model.Event{Type: model.EventMaintenanceAdded, VehicleID: id, RecordID: rec.ID})
	}
	return res, err
}

// RemoveMaintenance deletes a service entry from a vehicle's history.
func (g *Garage) RemoveMaintenance(ctx context.Context, id, recordID string) (model.Result, error) {
	res, err := g.mutate(ctx, id, "remove-maintenance", func(v *model.Vehicle) model.Result {
		return v.RemoveMaintenanceRecord(recordID)
	})
	if res.Success {
		g.publish(ctx, &model.Event{Type: model.EventMaintenanceRemoved, VehicleID: id, RecordID: recordID})
	}
	return res, err
}

// History is a vehicle's maintenance log split at At.
type History struct {
	At       time.Time
	Past     []*model.MaintenanceRecord
	Upcoming []*model.MaintenanceRecord
}

// History returns the past service records and upcoming appointments of a vehicle.
func (g *Garage) History(id string) (History, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.indexOf(id)
	if i < 0 {
		return History{}, fmt.Errorf("%w: %s", ErrVehicleNotFound, id)
	}
	now := g.clock.Now()
	v := g.vehicles[i]
	return History{At: now, Past: v.PastServiceRecordsAt(now), Upcoming: v.UpcomingAppointmentsAt(now)}, nil
}

// Now reads the garage clock.
func (g *Garage) Now() time.Time {
	return g.clock.Now()
}

// mutate is Update without the vehicle.updated event.
func (g *Garage) mutate(ctx context.Context, id, name string, action func(v *model.Vehicle) model.Result) (model.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.indexOf(id)
	if i < 0 {
		return model.Result{}, fmt.Errorf("%w: %s", ErrVehicleNotFound, id)
	}
	res := action(g.vehicles[i])
	metrics.VehicleActionsTotal.WithLabelValues(name, metrics.Outcome(res.Success)).Inc()
	if !res.Success {
		return res, nil
	}
	return res, g.persistLocked(ctx)
}

func (g *Garage) indexOf(id string) int {
	for i, v := range g.vehicles {
		if v.ID == id {
			return i
		}
	}
	return -1
}

func (g *Garage) sortLocked() {
	sortVehicles(g.collator, g.vehicles)
}

func sortVehicles(c *collate.Collator, vehicles []*model.Vehicle) {
	sort.SliceStable(vehicles, func(i, j int) bool {
		return c.CompareString(vehicles[i].Model, vehicles[j].Model) < 0
	})
}

func (g *Garage) publish(ctx context.Context, event *model.Event) {
	if event.Time.IsZero() {
		event.Time = g.clock.Now()
	}
	if err := g.notifier.Publish(ctx, event); err != nil {
		metrics.NotificationsTotal.WithLabelValues(string(event.Type), "failed").Inc()
		g.logger.Warn("Failed to publish garage event", "type", event.Type, "vehicle", event.VehicleID, "error", err)
		return
	}
	metrics.NotificationsTotal.WithLabelValues(string(event.Type), "success").Inc()
}
