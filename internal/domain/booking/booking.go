package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/stablebook/service-booking/pkg/domain"
)

// Status represents the lifecycle state of a booking.
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusConfirmed      Status = "confirmed"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// CancelActor identifies who cancelled a booking.
type CancelActor string

const (
	CancelledByRider  CancelActor = "rider"
	CancelledByOwner  CancelActor = "owner"
	CancelledByAdmin  CancelActor = "admin"
	CancelledBySystem CancelActor = "system"
)

// Booking is the aggregate root for a horse reservation. A booking occupies
// the half-open range [startTime, endTime) on its horse's calendar for as
// long as it is not cancelled.
type Booking struct {
	id                 uuid.UUID
	riderID            uuid.UUID
	stableID           uuid.UUID
	horseID            uuid.UUID
	startTime          time.Time
	endTime            time.Time
	totalPriceCents    int64
	commissionCents    int64
	status             Status
	paymentRef         string
	cancelledBy        CancelActor
	cancellationReason string
	reminderSent       bool
	confirmedAt        *time.Time
	completedAt        *time.Time
	cancelledAt        *time.Time
	version            int64
	createdAt          time.Time
	updatedAt          time.Time
}

// New creates a booking in pending_payment. commissionPercent is the
// marketplace cut (e.g. 15.0 for 15%).
func New(riderID, stableID, horseID uuid.UUID, start, end time.Time, totalPriceCents int64, commissionPercent float64) (*Booking, error) {
	if !start.Before(end) {
		return nil, domain.NewInvalidRangeError("start time must be before end time")
	}

	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		riderID:         riderID,
		stableID:        stableID,
		horseID:         horseID,
		startTime:       start.UTC(),
		endTime:         end.UTC(),
		totalPriceCents: totalPriceCents,
		commissionCents: int64(float64(totalPriceCents) * commissionPercent / 100.0),
		status:          StatusPendingPayment,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID                  { return b.id }
func (b *Booking) RiderID() uuid.UUID             { return b.riderID }
func (b *Booking) StableID() uuid.UUID            { return b.stableID }
func (b *Booking) HorseID() uuid.UUID             { return b.horseID }
func (b *Booking) StartTime() time.Time           { return b.startTime }
func (b *Booking) EndTime() time.Time             { return b.endTime }
func (b *Booking) TotalPriceCents() int64         { return b.totalPriceCents }
func (b *Booking) CommissionCents() int64         { return b.commissionCents }
func (b *Booking) Status() Status                 { return b.status }
func (b *Booking) PaymentRef() string             { return b.paymentRef }
func (b *Booking) CancelledBy() CancelActor       { return b.cancelledBy }
func (b *Booking) CancellationReason() string     { return b.cancellationReason }
func (b *Booking) ReminderSent() bool             { return b.reminderSent }
func (b *Booking) ConfirmedAt() *time.Time        { return b.confirmedAt }
func (b *Booking) CompletedAt() *time.Time        { return b.completedAt }
func (b *Booking) CancelledAt() *time.Time        { return b.cancelledAt }
func (b *Booking) Version() int64                 { return b.version }
func (b *Booking) CreatedAt() time.Time           { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time           { return b.updatedAt }

// IsActive reports whether the booking still occupies its time range for
// conflict purposes. pending_payment counts so a slot cannot be taken out
// from under a rider mid-checkout.
func (b *Booking) IsActive() bool {
	return b.status != StatusCancelled
}

// Overlaps reports whether [start, end) intersects the booking's range.
// Touching endpoints do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return start.Before(b.endTime) && b.startTime.Before(end)
}

// --- State transitions ---

// Confirm moves the booking to confirmed upon a successful payment event.
// Replaying the same paymentRef is a no-op; a different ref on an already
// confirmed booking is rejected.
func (b *Booking) Confirm(paymentRef string) error {
	if b.status == StatusConfirmed {
		if b.paymentRef == paymentRef {
			return nil
		}
		return domain.NewConflictError("booking already confirmed with a different payment reference")
	}
	if b.status != StatusPendingPayment {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}

	now := time.Now().UTC()
	b.status = StatusConfirmed
	b.paymentRef = paymentRef
	b.confirmedAt = &now
	b.updatedAt = now
	return nil
}

// Cancel moves the booking to cancelled, recording who did it and why.
// Completed and already-cancelled bookings cannot be cancelled.
func (b *Booking) Cancel(actor CancelActor, reason string) error {
	if b.status != StatusPendingPayment && b.status != StatusConfirmed {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}

	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancelledBy = actor
	b.cancellationReason = reason
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// Complete moves a confirmed booking whose end time has passed to completed.
// Only the auto-completion sweep calls this.
func (b *Booking) Complete(now time.Time) error {
	if b.status != StatusConfirmed {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	if !b.endTime.Before(now) {
		return domain.NewValidationError("booking has not ended yet")
	}

	b.status = StatusCompleted
	b.completedAt = &now
	b.updatedAt = now
	return nil
}

// MarkReminded sets the one-way reminder flag.
func (b *Booking) MarkReminded() {
	b.reminderSent = true
	b.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}

// Reconstitute rebuilds a Booking from persisted data.
func Reconstitute(
	id, riderID, stableID, horseID uuid.UUID,
	start, end time.Time,
	totalPriceCents, commissionCents int64,
	status Status,
	paymentRef string,
	cancelledBy CancelActor,
	cancellationReason string,
	reminderSent bool,
	confirmedAt, completedAt, cancelledAt *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                 id,
		riderID:            riderID,
		stableID:           stableID,
		horseID:            horseID,
		startTime:          start,
		endTime:            end,
		totalPriceCents:    totalPriceCents,
		commissionCents:    commissionCents,
		status:             status,
		paymentRef:         paymentRef,
		cancelledBy:        cancelledBy,
		cancellationReason: cancellationReason,
		reminderSent:       reminderSent,
		confirmedAt:        confirmedAt,
		completedAt:        completedAt,
		cancelledAt:        cancelledAt,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}
