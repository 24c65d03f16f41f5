package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Event types published by this service.
const (
	BookingCreated   = "booking.created"
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"
)

// Event types consumed from the payment service.
const (
	PaymentSucceeded = "payment.succeeded"
	PaymentFailed    = "payment.failed"
)

// BookingCreatedEvent is published when a reservation enters pending_payment.
type BookingCreatedEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	RiderID         uuid.UUID `json:"rider_id"`
	StableID        uuid.UUID `json:"stable_id"`
	HorseID         uuid.UUID `json:"horse_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	TotalPriceCents int64     `json:"total_price_cents"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// BookingConfirmedEvent is published when payment confirmation lands.
type BookingConfirmedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	RiderID    uuid.UUID `json:"rider_id"`
	PaymentRef string    `json:"payment_ref"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when a booking is cancelled.
type BookingCancelledEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	RiderID     uuid.UUID `json:"rider_id"`
	CancelledBy string    `json:"cancelled_by"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BookingCompletedEvent is published by the auto-completion sweep.
type BookingCompletedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	RiderID    uuid.UUID `json:"rider_id"`
	StableID   uuid.UUID `json:"stable_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentSucceededEvent arrives from the payment service when a checkout
// settles.
type PaymentSucceededEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	PaymentRef  string    `json:"payment_ref"`
	AmountCents int64     `json:"amount_cents"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PaymentFailedEvent arrives when a checkout could not settle.
type PaymentFailedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
