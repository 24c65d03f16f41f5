package events

import (
	"context"
	"strings"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/stablebook/service-booking/pkg/kafka"
)

// BookingConfirmer is the slice of the booking service the consumer needs.
type BookingConfirmer interface {
	ConfirmPayment(ctx context.Context, bookingID uuid.UUID, paymentRef string) error
	CancelForFailedPayment(ctx context.Context, bookingID uuid.UUID, reason string) error
}

// PaymentEventConsumer listens to payment events and drives the booking
// lifecycle.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	bookings BookingConfirmer
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new consumer for payment events.
func NewPaymentEventConsumer(brokers []string, groupID string, bookings BookingConfirmer, logger *zap.Logger) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		bookings: bookings,
		logger:   logger,
	}
}

// Start begins consuming payment events. It blocks until the context is
// cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// handleMessage routes incoming Kafka messages to the appropriate handler.
func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return err
	}

	c.logger.Info("received payment event",
		zap.String("type", cloudEvent.Type),
		zap.String("id", cloudEvent.ID),
	)

	switch {
	case strings.EqualFold(cloudEvent.Type, PaymentSucceeded):
		return c.handlePaymentSucceeded(ctx, cloudEvent)

	case strings.EqualFold(cloudEvent.Type, PaymentFailed):
		return c.handlePaymentFailed(ctx, cloudEvent)

	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentSucceeded(ctx context.Context, ce kafka.CloudEvent) error {
	var event PaymentSucceededEvent
	if err := ce.ParseData(&event); err != nil {
		c.logger.Error("failed to parse PaymentSucceededEvent data", zap.Error(err))
		return err
	}
	return c.bookings.ConfirmPayment(ctx, event.BookingID, event.PaymentRef)
}

func (c *PaymentEventConsumer) handlePaymentFailed(ctx context.Context, ce kafka.CloudEvent) error {
	var event PaymentFailedEvent
	if err := ce.ParseData(&event); err != nil {
		c.logger.Error("failed to parse PaymentFailedEvent data", zap.Error(err))
		return err
	}
	return c.bookings.CancelForFailedPayment(ctx, event.BookingID, event.Reason)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}
