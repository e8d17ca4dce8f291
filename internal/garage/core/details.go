package core

import (
	"context"

	"github.com/autopeer-io/garage/internal/garage/model"
)

// DetailsProvider looks up extended information about a vehicle.
// A nil result with a nil error means there is nothing on record.
type DetailsProvider interface {
	Lookup(ctx context.Context, vehicleID string) (*model.Details, error)
}
