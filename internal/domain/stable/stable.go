package stable

import (
	"context"

	"github.com/google/uuid"
)

// Horse is the slice of horse reference data the reservation core needs:
// routing (stable), pricing (hourly rate), display (name).
type Horse struct {
	ID              uuid.UUID
	StableID        uuid.UUID
	Name            string
	HourlyRateCents int64
}

// Directory resolves stable and horse reference data owned by the listings
// service.
type Directory interface {
	// OwnerID returns the operator who owns the stable.
	OwnerID(ctx context.Context, stableID uuid.UUID) (uuid.UUID, error)

	// FindHorse returns the horse's stable and hourly rate.
	FindHorse(ctx context.Context, horseID uuid.UUID) (*Horse, error)
}
