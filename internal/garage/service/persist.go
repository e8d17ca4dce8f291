package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/text/collate"

	"github.com/autopeer-io/garage/internal/garage/core"
	"github.com/autopeer-io/garage/internal/garage/model"
	"github.com/autopeer-io/garage/internal/pkg/metrics"
	"github.com/autopeer-io/garage/pkg/log"
)

// Persist writes the full vehicle list to the store.
func (g *Garage) Persist(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.persistLocked(ctx)
}

func (g *Garage) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(g.vehicles)
	if err == nil {
		err = g.store.Put(ctx, g.keys.Vehicles, data)
	}
	if err != nil {
		metrics.PersistFailuresTotal.WithLabelValues("save").Inc()
		g.logger.Error(err, "Failed to save garage", "key", g.keys.Vehicles)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (g *Garage) persistSelectionLocked(ctx context.Context) error {
	var err error
	if g.selected == "" {
		err = g.store.Delete(ctx, g.keys.Selected)
	} else {
		err = g.store.Put(ctx, g.keys.Selected, []byte(g.selected))
	}
	if err != nil {
		metrics.PersistFailuresTotal.WithLabelValues("select").Inc()
		g.logger.Error(err, "Failed to save selection", "key", g.keys.Selected)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Load replaces the garage contents with the persisted state. A persisted
// selection is restored only when it still names a loaded vehicle.
func (g *Garage) Load(ctx context.Context) error {
	vehicles, err := Reload(ctx, g.store, g.keys)
	if err != nil && !errors.Is(err, ErrCorruptData) {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.vehicles = vehicles
	g.sortLocked()
	g.selected = ""
	metrics.Vehicles.Set(float64(len(g.vehicles)))

	raw, selErr := g.store.Get(ctx, g.keys.Selected)
	switch {
	case errors.Is(selErr, core.ErrNotFound):
	case selErr != nil:
		metrics.PersistFailuresTotal.WithLabelValues("load").Inc()
		g.logger.Error(selErr, "Failed to read selection", "key", g.keys.Selected)
	case g.indexOf(string(raw)) >= 0:
		g.selected = string(raw)
	default:
		g.logger.Info("Dropping stale selection", "id", string(raw))
		if delErr := g.store.Delete(ctx, g.keys.Selected); delErr != nil {
			g.logger.Error(delErr, "Failed to clear stale selection")
		}
	}

	g.logger.Info("Garage loaded", "vehicles", len(g.vehicles), "selected", g.selected)
	return err
}

// Reload reads the vehicle list stored under keys.Vehicles. A missing key
// yields an empty list. Entries without a known discriminator, with invalid
// construction data or with a repeated id are skipped. If the blob cannot be
// parsed at all, both keys are deleted and an empty list is returned together
// with ErrCorruptData.
func Reload(ctx context.Context, store core.Store, keys Keys) ([]*model.Vehicle, error) {
	logger := log.Std().WithName("garage")

	data, err := store.Get(ctx, keys.Vehicles)
	if errors.Is(err, core.ErrNotFound) {
		return []*model.Vehicle{}, nil
	}
	if err != nil {
		metrics.PersistFailuresTotal.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Error(err, "Stored garage is corrupt, resetting", "key", keys.Vehicles)
		metrics.PersistFailuresTotal.WithLabelValues("reset").Inc()
		for _, key := range []string{keys.Vehicles, keys.Selected} {
			if delErr := store.Delete(ctx, key); delErr != nil {
				logger.Error(delErr, "Failed to delete corrupt key", "key", key)
			}
		}
		return []*model.Vehicle{}, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}

	vehicles := make([]*model.Vehicle, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, raw := range entries {
		v, dropped, err := model.DecodeVehicle(raw)
		if err != nil {
			logger.Warn("Skipping stored vehicle", "index", i, "error", err)
			continue
		}
		if seen[v.ID] {
			logger.Warn("Skipping duplicate stored vehicle", "index", i, "id", v.ID)
			continue
		}
		seen[v.ID] = true
		for _, reason := range dropped {
			logger.Debug("Dropped stored maintenance record", "vehicle", v.ID, "reason", reason)
		}
		vehicles = append(vehicles, v)
	}

	sortVehicles(collate.New(defaultLocale), vehicles)
	return vehicles, nil
}
