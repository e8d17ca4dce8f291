package server

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/garage/internal/garage/server/http"
	"github.com/autopeer-io/garage/internal/garage/server/scheduler"
	"github.com/autopeer-io/garage/pkg/log"
)

// Server defines the common interface for all sub-servers.
type Server interface {
	Start(ctx context.Context) error
}

// Manager manages the lifecycle of the HTTP API and the background loops.
type Manager struct {
	servers []Server
}

// NewManager creates a new server manager and initializes all sub-servers.
func NewManager(cfg *Config, deps http.Deps) *Manager {
	deps.ReminderWindow = cfg.ReminderWindow

	servers := []Server{http.NewServer(cfg.HttpOptions, deps)}
	if cfg.ReminderInterval > 0 {
		servers = append(servers, scheduler.NewReminders(deps.Garage, cfg.ReminderWindow, cfg.ReminderInterval, cfg.SentReminders...))
	}

	return &Manager{
		servers: servers,
	}
}

// Start launches all servers in parallel and waits for termination.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, s := range m.servers {
		g.Go(func() error {
			return s.Start(ctx)
		})
	}

	log.Info("All servers starting...")
	return g.Wait()
}
