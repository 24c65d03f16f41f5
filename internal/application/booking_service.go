package application

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stablebook/service-booking/internal/adapter"
	"github.com/stablebook/service-booking/internal/cache"
	bookingDomain "github.com/stablebook/service-booking/internal/domain/booking"
	membershipDomain "github.com/stablebook/service-booking/internal/domain/membership"
	promoDomain "github.com/stablebook/service-booking/internal/domain/promo"
	slotDomain "github.com/stablebook/service-booking/internal/domain/slot"
	"github.com/stablebook/service-booking/internal/domain/stable"
	"github.com/stablebook/service-booking/internal/events"
	"github.com/stablebook/service-booking/internal/saga"
	"github.com/stablebook/service-booking/pkg/auth"
	"github.com/stablebook/service-booking/pkg/clock"
	"github.com/stablebook/service-booking/pkg/domain"
	"github.com/stablebook/service-booking/pkg/kafka"
)

const eventSource = "service-booking"

// sweepBatchSize caps how many rows one sweep pass processes.
const sweepBatchSize = 500

// ReserveBookingRequest is the DTO for creating a reservation.
type ReserveBookingRequest struct {
	HorseID   uuid.UUID `json:"horse_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	PromoCode string    `json:"promo_code,omitempty"`
}

// BookingDTO is the API response DTO for booking data.
type BookingDTO struct {
	ID                 uuid.UUID  `json:"id"`
	RiderID            uuid.UUID  `json:"rider_id"`
	StableID           uuid.UUID  `json:"stable_id"`
	HorseID            uuid.UUID  `json:"horse_id"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            time.Time  `json:"end_time"`
	TotalPriceCents    int64      `json:"total_price_cents"`
	CommissionCents    int64      `json:"commission_cents"`
	Status             string     `json:"status"`
	PaymentRef         string     `json:"payment_ref,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	Version            int64      `json:"version"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// BusyIntervalDTO is one occupied range in an availability response.
type BusyIntervalDTO struct {
	Kind  string    `json:"kind"`
	ID    uuid.UUID `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SweepResult reports the outcome of one sweep pass.
type SweepResult struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// BookingStatsDTO is the admin statistics response.
type BookingStatsDTO struct {
	CountByStatus        map[string]int64 `json:"count_by_status"`
	TotalRevenueCents    int64            `json:"total_revenue_cents"`
	TotalCommissionCents int64            `json:"total_commission_cents"`
}

// BookingService is the application service that orchestrates reservation
// use cases: the guarded reserve, payment confirmation, cancellation, the
// two sweeps, and availability lookups.
type BookingService struct {
	bookings          bookingDomain.Repository
	slots             slotDomain.Repository
	promos            promoDomain.Repository
	memberships       membershipDomain.Repository
	stables           stable.Directory
	sagaSvc           *saga.ReservationSagaService
	producer          saga.EventPublisher
	notifier          adapter.Notifier
	availability      *cache.AvailabilityCache
	clk               clock.Clock
	commissionPercent float64
	reminderLookahead time.Duration
	logger            *zap.Logger
}

// NewBookingService creates a new BookingService. The availability cache is
// optional; pass nil to serve lookups straight from the database.
func NewBookingService(
	bookings bookingDomain.Repository,
	slots slotDomain.Repository,
	promos promoDomain.Repository,
	memberships membershipDomain.Repository,
	stables stable.Directory,
	sagaSvc *saga.ReservationSagaService,
	producer saga.EventPublisher,
	notifier adapter.Notifier,
	availability *cache.AvailabilityCache,
	clk clock.Clock,
	commissionPercent float64,
	reminderLookahead time.Duration,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:          bookings,
		slots:             slots,
		promos:            promos,
		memberships:       memberships,
		stables:           stables,
		sagaSvc:           sagaSvc,
		producer:          producer,
		notifier:          notifier,
		availability:      availability,
		clk:               clk,
		commissionPercent: commissionPercent,
		reminderLookahead: reminderLookahead,
		logger:            logger,
	}
}

// Reserve prices the requested range and runs the reservation saga. The slot
// insert inside the saga carries the conflict guard, so two racing requests
// for overlapping ranges resolve to exactly one booking.
func (s *BookingService) Reserve(ctx context.Context, riderID uuid.UUID, req ReserveBookingRequest) (*BookingDTO, error) {
	now := s.clk.Now()
	if !req.StartTime.Before(req.EndTime) {
		return nil, domain.NewInvalidRangeError("start_time must be before end_time")
	}
	if req.EndTime.Before(now) {
		return nil, domain.NewInvalidRangeError("cannot reserve a range in the past")
	}

	horse, err := s.stables.FindHorse(ctx, req.HorseID)
	if err != nil {
		return nil, err
	}

	priceCents := priceFor(horse.HourlyRateCents, req.StartTime, req.EndTime)
	priceCents = s.applyMembershipDiscount(ctx, riderID, priceCents)

	redeemedPromo, discountCents, err := s.resolvePromo(ctx, riderID, req.PromoCode, priceCents, now)
	if err != nil {
		return nil, err
	}
	priceCents -= discountCents

	b, err := bookingDomain.New(riderID, horse.StableID, horse.ID, req.StartTime, req.EndTime, priceCents, s.commissionPercent)
	if err != nil {
		return nil, err
	}

	var usage *promoDomain.Usage
	if redeemedPromo != nil {
		usage = &promoDomain.Usage{
			ID:            uuid.New(),
			PromoID:       redeemedPromo.ID(),
			UserID:        riderID,
			BookingID:     b.ID(),
			DiscountCents: discountCents,
			UsedAt:        now,
		}
	}

	if err := s.sagaSvc.CreateBookingSaga(ctx, b, redeemedPromo, usage); err != nil {
		s.logger.Warn("reservation rejected",
			zap.String("rider_id", riderID.String()),
			zap.String("horse_id", horse.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.invalidateAvailability(ctx, horse.ID)

	s.logger.Info("booking reserved",
		zap.String("booking_id", b.ID().String()),
		zap.String("horse_id", horse.ID.String()),
		zap.Int64("total_price_cents", priceCents),
	)

	dto := toBookingDTO(b)
	return &dto, nil
}

// priceFor computes the ride price from the hourly rate, rounding partial
// hours up to the minute.
func priceFor(hourlyRateCents int64, start, end time.Time) int64 {
	minutes := int64(end.Sub(start) / time.Minute)
	return (hourlyRateCents*minutes + 59) / 60
}

func (s *BookingService) applyMembershipDiscount(ctx context.Context, riderID uuid.UUID, priceCents int64) int64 {
	m, err := s.memberships.FindActiveByRider(ctx, riderID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("membership lookup failed, charging full price", zap.Error(err))
		}
		return priceCents
	}
	return priceCents - priceCents*int64(m.DiscountPercent())/100
}

// resolvePromo validates the code against the checkout total. An empty code
// is not an error; a code that exists but does not apply is.
func (s *BookingService) resolvePromo(ctx context.Context, riderID uuid.UUID, code string, priceCents int64, now time.Time) (*promoDomain.PromoCode, int64, error) {
	if code == "" {
		return nil, 0, nil
	}

	p, err := s.promos.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.NewValidationError("invalid promo code")
		}
		return nil, 0, err
	}

	used, err := s.promos.HasUserUsedPromo(ctx, p.ID(), riderID)
	if err != nil {
		return nil, 0, err
	}
	if used {
		return nil, 0, domain.NewValidationError("promo code already used")
	}

	discount, err := p.CalculateDiscount(priceCents, now)
	if err != nil {
		return nil, 0, err
	}
	return p, discount, nil
}

// GetBooking retrieves a booking, enforcing visibility: riders see their own
// bookings, owners see their stable's, admins see everything.
func (s *BookingService) GetBooking(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, actor, b); err != nil {
		return nil, err
	}
	dto := toBookingDTO(b)
	return &dto, nil
}

func (s *BookingService) authorizeView(ctx context.Context, actor bookingDomain.Actor, b *bookingDomain.Booking) error {
	switch actor.Role {
	case auth.RoleAdmin:
		return nil
	case auth.RoleRider:
		if b.RiderID() == actor.UserID {
			return nil
		}
	case auth.RoleOwner:
		ownerID, err := s.stables.OwnerID(ctx, b.StableID())
		if err != nil {
			return err
		}
		if ownerID == actor.UserID {
			return nil
		}
	}
	return domain.NewForbiddenError("not allowed to view this booking")
}

// ListMyBookings returns the rider's bookings, newest first.
func (s *BookingService) ListMyBookings(ctx context.Context, riderID uuid.UUID, page, limit int) ([]BookingDTO, int64, error) {
	bs, total, err := s.bookings.ListByRider(ctx, riderID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toBookingDTOs(bs), total, nil
}

// ListStableBookings returns a stable's bookings for its owner or an admin.
func (s *BookingService) ListStableBookings(ctx context.Context, actor bookingDomain.Actor, stableID uuid.UUID, page, limit int) ([]BookingDTO, int64, error) {
	if actor.Role != auth.RoleAdmin {
		ownerID, err := s.stables.OwnerID(ctx, stableID)
		if err != nil {
			return nil, 0, err
		}
		if ownerID != actor.UserID {
			return nil, 0, domain.NewForbiddenError("not the owner of this stable")
		}
	}
	bs, total, err := s.bookings.ListByStable(ctx, stableID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toBookingDTOs(bs), total, nil
}

// ListAllBookings returns every booking (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bs, total, err := s.bookings.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toBookingDTOs(bs), total, nil
}

// ConfirmPayment transitions the booking to confirmed. Replaying the same
// payment reference is a no-op; a different reference on an already confirmed
// booking is rejected.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, paymentRef string) error {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}

	alreadyConfirmed := b.Status() == bookingDomain.StatusConfirmed
	if err := b.Confirm(paymentRef); err != nil {
		return err
	}
	if alreadyConfirmed {
		s.logger.Info("payment confirmation replayed, ignoring",
			zap.String("booking_id", bookingID.String()),
			zap.String("payment_ref", paymentRef),
		)
		return nil
	}

	b.IncrementVersion()
	if err := s.bookings.Update(ctx, b); err != nil {
		return err
	}

	s.publish(ctx, events.TopicBookingEvents, events.BookingConfirmed, events.BookingConfirmedEvent{
		BookingID:  b.ID(),
		RiderID:    b.RiderID(),
		PaymentRef: paymentRef,
		OccurredAt: s.clk.Now(),
	})

	s.logger.Info("booking confirmed",
		zap.String("booking_id", bookingID.String()),
		zap.String("payment_ref", paymentRef),
	)
	return nil
}

// CancelForFailedPayment releases the slot when the payment service reports a
// failed checkout. A booking that already left pending_payment is left alone.
func (s *BookingService) CancelForFailedPayment(ctx context.Context, bookingID uuid.UUID, reason string) error {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("payment failure for unknown booking", zap.String("booking_id", bookingID.String()))
			return nil
		}
		return err
	}
	if b.Status() != bookingDomain.StatusPendingPayment {
		s.logger.Info("ignoring payment failure, booking no longer pending",
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(b.Status())),
		)
		return nil
	}
	return s.cancel(ctx, b, bookingDomain.CancelledBySystem, reason)
}

// Cancel cancels a booking on behalf of the actor. The cancellation policy
// decides who may cancel; completed bookings can never be cancelled.
func (s *BookingService) Cancel(ctx context.Context, actor bookingDomain.Actor, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	ownerID, err := s.stables.OwnerID(ctx, b.StableID())
	if err != nil {
		return nil, err
	}
	if !bookingDomain.CanCancel(actor, b, ownerID) {
		return nil, domain.NewForbiddenError("not allowed to cancel this booking")
	}

	if err := s.cancel(ctx, b, bookingDomain.CancelActorFor(actor.Role), reason); err != nil {
		return nil, err
	}
	dto := toBookingDTO(b)
	return &dto, nil
}

func (s *BookingService) cancel(ctx context.Context, b *bookingDomain.Booking, actor bookingDomain.CancelActor, reason string) error {
	if err := b.Cancel(actor, reason); err != nil {
		return err
	}
	b.IncrementVersion()
	if err := s.bookings.Update(ctx, b); err != nil {
		return err
	}

	s.invalidateAvailability(ctx, b.HorseID())

	s.publish(ctx, events.TopicBookingEvents, events.BookingCancelled, events.BookingCancelledEvent{
		BookingID:   b.ID(),
		RiderID:     b.RiderID(),
		CancelledBy: string(actor),
		Reason:      reason,
		OccurredAt:  s.clk.Now(),
	})

	if err := s.notifier.SendBookingCancelled(ctx, b.RiderID(), b.ID(), reason); err != nil {
		s.logger.Warn("cancellation notification failed", zap.Error(err))
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", b.ID().String()),
		zap.String("cancelled_by", string(actor)),
	)
	return nil
}

// Availability returns the occupied ranges for a horse within [from, to),
// merging active bookings with the blocks that apply to the horse.
func (s *BookingService) Availability(ctx context.Context, horseID uuid.UUID, from, to time.Time) ([]BusyIntervalDTO, error) {
	if !from.Before(to) {
		return nil, domain.NewInvalidRangeError("from must be before to")
	}

	if s.availability != nil {
		if cached, ok := s.availability.Get(ctx, horseID, from, to); ok {
			return toBusyDTOs(cached), nil
		}
	}

	horse, err := s.stables.FindHorse(ctx, horseID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookings.FindActiveInRange(ctx, horseID, from, to)
	if err != nil {
		return nil, err
	}
	blocks, err := s.slots.FindForHorseInRange(ctx, horse.StableID, horseID, from, to)
	if err != nil {
		return nil, err
	}

	intervals := make([]cache.BusyInterval, 0, len(bookings)+len(blocks))
	for _, b := range bookings {
		intervals = append(intervals, cache.BusyInterval{
			Kind:  "booking",
			ID:    b.ID(),
			Start: b.StartTime(),
			End:   b.EndTime(),
		})
	}
	for _, bl := range blocks {
		intervals = append(intervals, cache.BusyInterval{
			Kind:  "blocked_slot",
			ID:    bl.ID(),
			Start: bl.StartTime(),
			End:   bl.EndTime(),
		})
	}
	sortBusy(intervals)

	if s.availability != nil {
		s.availability.Set(ctx, horseID, from, to, intervals)
	}
	return toBusyDTOs(intervals), nil
}

// SweepCompletions moves confirmed bookings whose end time has passed to
// completed. Each row is flipped under a status guard, so re-running the
// sweep over the same rows is a no-op.
func (s *BookingService) SweepCompletions(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult

	candidates, err := s.bookings.FindCompletionCandidates(ctx, now, sweepBatchSize)
	if err != nil {
		return res, err
	}

	for _, b := range candidates {
		ok, err := s.bookings.MarkCompleted(ctx, b.ID(), now)
		if err != nil {
			res.Failed++
			s.logger.Error("completion sweep: row failed",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			res.Skipped++
			continue
		}
		res.Processed++

		s.publish(ctx, events.TopicBookingEvents, events.BookingCompleted, events.BookingCompletedEvent{
			BookingID:  b.ID(),
			RiderID:    b.RiderID(),
			StableID:   b.StableID(),
			OccurredAt: now,
		})
	}

	if res.Processed > 0 || res.Failed > 0 {
		s.logger.Info("completion sweep finished",
			zap.Int("processed", res.Processed),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed),
		)
	}
	return res, nil
}

// SweepReminders sends ride reminders for confirmed bookings starting within
// the lookahead window. The reminder flag is flipped only after a successful
// dispatch, so a failed send is retried on the next pass; a flipped flag is
// never reminded again.
func (s *BookingService) SweepReminders(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult

	windowEnd := now.Add(s.reminderLookahead)
	candidates, err := s.bookings.FindReminderCandidates(ctx, now, windowEnd)
	if err != nil {
		return res, err
	}

	for _, b := range candidates {
		if err := s.notifier.SendBookingReminder(ctx, b.RiderID(), b.ID(), b.StartTime()); err != nil {
			res.Failed++
			s.logger.Warn("reminder dispatch failed, will retry next pass",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
			continue
		}

		ok, err := s.bookings.MarkReminded(ctx, b.ID())
		if err != nil {
			res.Failed++
			s.logger.Error("reminder sweep: flag update failed",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			res.Skipped++
			continue
		}
		res.Processed++
	}

	if res.Processed > 0 || res.Failed > 0 {
		s.logger.Info("reminder sweep finished",
			zap.Int("processed", res.Processed),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed),
		)
	}
	return res, nil
}

// GetStats returns booking counts and revenue totals (admin).
func (s *BookingService) GetStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, revenue, commission, err := s.bookings.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	return &BookingStatsDTO{
		CountByStatus:        counts,
		TotalRevenueCents:    revenue,
		TotalCommissionCents: commission,
	}, nil
}

func (s *BookingService) publish(ctx context.Context, topic, eventType string, payload interface{}) {
	event, err := kafka.NewCloudEvent(eventSource, eventType, payload)
	if err != nil {
		s.logger.Error("failed to build event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.producer.PublishEvent(ctx, topic, event); err != nil {
		s.logger.Error("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

func (s *BookingService) invalidateAvailability(ctx context.Context, horseID uuid.UUID) {
	if s.availability != nil {
		s.availability.Invalidate(ctx, horseID)
	}
}

func sortBusy(intervals []cache.BusyInterval) {
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})
}

func toBusyDTOs(intervals []cache.BusyInterval) []BusyIntervalDTO {
	dtos := make([]BusyIntervalDTO, 0, len(intervals))
	for _, iv := range intervals {
		dtos = append(dtos, BusyIntervalDTO{Kind: iv.Kind, ID: iv.ID, Start: iv.Start, End: iv.End})
	}
	return dtos
}

func toBookingDTO(b *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:                 b.ID(),
		RiderID:            b.RiderID(),
		StableID:           b.StableID(),
		HorseID:            b.HorseID(),
		StartTime:          b.StartTime(),
		EndTime:            b.EndTime(),
		TotalPriceCents:    b.TotalPriceCents(),
		CommissionCents:    b.CommissionCents(),
		Status:             string(b.Status()),
		PaymentRef:         b.PaymentRef(),
		CancelledBy:        string(b.CancelledBy()),
		CancellationReason: b.CancellationReason(),
		ConfirmedAt:        b.ConfirmedAt(),
		CompletedAt:        b.CompletedAt(),
		CancelledAt:        b.CancelledAt(),
		Version:            b.Version(),
		CreatedAt:          b.CreatedAt(),
		UpdatedAt:          b.UpdatedAt(),
	}
}

func toBookingDTOs(bs []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, 0, len(bs))
	for _, b := range bs {
		dtos = append(dtos, toBookingDTO(b))
	}
	return dtos
}
