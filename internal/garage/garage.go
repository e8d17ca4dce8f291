package garage

import (
	"context"

	"github.com/autopeer-io/garage/internal/garage/core"
	"github.com/autopeer-io/garage/internal/garage/server"
	"github.com/autopeer-io/garage/internal/garage/service"
	"github.com/autopeer-io/garage/pkg/log"
)

// GarageServer is the running daemon.
type GarageServer struct {
	serverManager *server.Manager
	garage        *service.Garage
	store         core.Store
	notifier      core.Notifier
}

// Run blocks until ctx is cancelled or a server fails, then flushes the
// garage and releases the adapters.
func (s *GarageServer) Run(ctx context.Context) error {
	log.Info("Starting garage server...", "vehicles", s.garage.Len())
	err := s.serverManager.Start(ctx)

	if perr := s.garage.Persist(context.Background()); perr != nil {
		log.Error(perr, "Final persist failed")
	}
	s.notifier.Close()
	if cerr := s.store.Close(); cerr != nil {
		log.Error(cerr, "Failed to close store")
	}
	log.Info("Garage server stopped")
	return err
}
