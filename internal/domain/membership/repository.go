package membership

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for rider memberships.
type Repository interface {
	Save(ctx context.Context, m *Membership) error
	Update(ctx context.Context, m *Membership) error
	FindByID(ctx context.Context, id uuid.UUID) (*Membership, error)
	// FindActiveByRider returns the rider's current active membership, or a
	// not-found error.
	FindActiveByRider(ctx context.Context, riderID uuid.UUID) (*Membership, error)
}
