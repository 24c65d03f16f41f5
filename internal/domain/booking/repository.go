package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for Booking aggregates.
type Repository interface {
	// CreateIfNoOverlap atomically checks the horse's calendar and inserts
	// the booking. Returns a slot-conflict error naming the colliding entry
	// when the range is taken by an active booking or blocked slot.
	CreateIfNoOverlap(ctx context.Context, b *Booking) error

	// FindByID retrieves a booking by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// ListByRider retrieves a rider's bookings with pagination.
	ListByRider(ctx context.Context, riderID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListByStable retrieves a stable's bookings with pagination.
	ListByStable(ctx context.Context, stableID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// FindActiveInRange returns non-cancelled bookings for a horse that
	// overlap [from, to).
	FindActiveInRange(ctx context.Context, horseID uuid.UUID, from, to time.Time) ([]*Booking, error)

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, b *Booking) error

	// FindCompletionCandidates returns confirmed bookings whose end time has
	// passed.
	FindCompletionCandidates(ctx context.Context, now time.Time, limit int) ([]*Booking, error)

	// MarkCompleted transitions a single booking to completed, guarded by
	// the confirmed-status predicate. Returns false when the guard did not
	// match (already processed, cancelled in the meantime).
	MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)

	// FindReminderCandidates returns confirmed, not yet reminded bookings
	// starting within (windowStart, windowEnd].
	FindReminderCandidates(ctx context.Context, windowStart, windowEnd time.Time) ([]*Booking, error)

	// MarkReminded sets the reminder flag, guarded so it flips at most once.
	MarkReminded(ctx context.Context, id uuid.UUID) (bool, error)

	// GetStats returns booking counts by status plus totals (admin).
	GetStats(ctx context.Context) (countByStatus map[string]int64, revenueCents, commissionCents int64, err error)
}
