package slot

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence operations for blocked slots.
type Repository interface {
	// CreateIfNoOverlap atomically checks for active bookings in the range
	// and inserts the block. Returns a slot-conflict error naming the
	// colliding booking when the range is already reserved.
	CreateIfNoOverlap(ctx context.Context, s *BlockedSlot) error

	// FindByID retrieves a blocked slot.
	FindByID(ctx context.Context, id uuid.UUID) (*BlockedSlot, error)

	// ListByStable returns all blocked slots for a stable.
	ListByStable(ctx context.Context, stableID uuid.UUID) ([]*BlockedSlot, error)

	// FindForHorseInRange returns blocks applying to the horse (horse-scoped
	// or stable-wide) that overlap [from, to).
	FindForHorseInRange(ctx context.Context, stableID, horseID uuid.UUID, from, to time.Time) ([]*BlockedSlot, error)

	// Delete removes a blocked slot.
	Delete(ctx context.Context, id uuid.UUID) error
}
