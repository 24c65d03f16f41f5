package saga

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	bookingDomain "github.com/stablebook/service-booking/internal/domain/booking"
	promoDomain "github.com/stablebook/service-booking/internal/domain/promo"
	"github.com/stablebook/service-booking/internal/events"
	"github.com/stablebook/service-booking/pkg/kafka"
)

// SagaStep represents a single step in a saga with execute and compensate actions.
type SagaStep struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga orchestrates a sequence of steps with compensating transactions on failure.
type Saga struct {
	name   string
	steps  []SagaStep
	logger *zap.Logger
}

// NewSaga creates a new saga orchestrator.
func NewSaga(name string, logger *zap.Logger) *Saga {
	return &Saga{
		name:   name,
		steps:  make([]SagaStep, 0),
		logger: logger,
	}
}

// AddStep appends a step to the saga.
func (s *Saga) AddStep(step SagaStep) {
	s.steps = append(s.steps, step)
}

// Execute runs all saga steps in order. On failure, it compensates executed steps in reverse order.
func (s *Saga) Execute(ctx context.Context) error {
	s.logger.Info("saga started", zap.String("saga", s.name))

	executedSteps := make([]SagaStep, 0, len(s.steps))

	for _, step := range s.steps {
		s.logger.Info("executing saga step",
			zap.String("saga", s.name),
			zap.String("step", step.Name),
		)

		if err := step.Execute(ctx); err != nil {
			s.logger.Error("saga step failed, starting compensation",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)

			// Compensate executed steps in reverse order
			for i := len(executedSteps) - 1; i >= 0; i-- {
				compensateStep := executedSteps[i]
				if compensateStep.Compensate != nil {
					s.logger.Info("compensating saga step",
						zap.String("saga", s.name),
						zap.String("step", compensateStep.Name),
					)
					if compErr := compensateStep.Compensate(ctx); compErr != nil {
						s.logger.Error("compensation failed",
							zap.String("saga", s.name),
							zap.String("step", compensateStep.Name),
							zap.Error(compErr),
						)
					}
				}
			}

			return fmt.Errorf("saga '%s' failed at step '%s': %w", s.name, step.Name, err)
		}

		executedSteps = append(executedSteps, step)
	}

	s.logger.Info("saga completed successfully", zap.String("saga", s.name))
	return nil
}

// EventPublisher publishes CloudEvents to the bus. *kafka.Producer satisfies
// it; tests substitute a fake.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// ReservationSagaService orchestrates the multi-step reservation workflow:
// the guarded slot insert, promo redemption, and event publication.
type ReservationSagaService struct {
	bookings bookingDomain.Repository
	promos   promoDomain.Repository
	producer EventPublisher
	logger   *zap.Logger
}

// NewReservationSagaService creates a new ReservationSagaService.
func NewReservationSagaService(
	bookings bookingDomain.Repository,
	promos promoDomain.Repository,
	producer EventPublisher,
	logger *zap.Logger,
) *ReservationSagaService {
	return &ReservationSagaService{
		bookings: bookings,
		promos:   promos,
		producer: producer,
		logger:   logger,
	}
}

// CreateBookingSaga reserves the slot, redeems the promo if one was applied,
// and publishes a BookingCreatedEvent. The slot insert carries the conflict
// guard; promo redemption failing rolls the reservation back to cancelled.
func (s *ReservationSagaService) CreateBookingSaga(
	ctx context.Context,
	b *bookingDomain.Booking,
	redeemedPromo *promoDomain.PromoCode,
	usage *promoDomain.Usage,
) error {
	saga := NewSaga("create_booking", s.logger)

	// Step 1: guarded slot insert
	saga.AddStep(SagaStep{
		Name: "reserve_slot",
		Execute: func(ctx context.Context) error {
			return s.bookings.CreateIfNoOverlap(ctx, b)
		},
		Compensate: func(ctx context.Context) error {
			if err := b.Cancel(bookingDomain.CancelledBySystem, "saga compensation: reservation failed"); err != nil {
				return err
			}
			b.IncrementVersion()
			return s.bookings.Update(ctx, b)
		},
	})

	// Step 2: promo redemption, when a code was applied
	if redeemedPromo != nil && usage != nil {
		saga.AddStep(SagaStep{
			Name: "redeem_promo",
			Execute: func(ctx context.Context) error {
				redeemedPromo.IncrementUses()
				if err := s.promos.Update(ctx, redeemedPromo); err != nil {
					return err
				}
				return s.promos.SaveUsage(ctx, usage)
			},
			Compensate: func(ctx context.Context) error {
				redeemedPromo.DecrementUses()
				if err := s.promos.Update(ctx, redeemedPromo); err != nil {
					return err
				}
				return s.promos.DeleteUsage(ctx, redeemedPromo.ID(), b.ID())
			},
		})
	}

	// Step 3: publish BookingCreatedEvent
	saga.AddStep(SagaStep{
		Name: "publish_booking_created",
		Execute: func(ctx context.Context) error {
			event := events.BookingCreatedEvent{
				BookingID:       b.ID(),
				RiderID:         b.RiderID(),
				StableID:        b.StableID(),
				HorseID:         b.HorseID(),
				StartTime:       b.StartTime(),
				EndTime:         b.EndTime(),
				TotalPriceCents: b.TotalPriceCents(),
				OccurredAt:      time.Now().UTC(),
			}
			cloudEvent, err := kafka.NewCloudEvent("service-booking", events.BookingCreated, event)
			if err != nil {
				return fmt.Errorf("failed to create cloud event: %w", err)
			}
			return s.producer.PublishEvent(ctx, events.TopicBookingEvents, cloudEvent)
		},
		Compensate: nil, // Event publishing has no compensating action
	})

	return saga.Execute(ctx)
}
