package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier is the Anti-Corruption Layer interface for push/email dispatch.
// The actual transport (FCM, email provider) lives in the notification
// service; this abstraction keeps the reservation core decoupled from it.
type Notifier interface {
	// SendBookingReminder notifies a rider about an upcoming booking.
	SendBookingReminder(ctx context.Context, riderID, bookingID uuid.UUID, startTime time.Time) error

	// SendBookingCancelled notifies a rider their booking was cancelled.
	SendBookingCancelled(ctx context.Context, riderID, bookingID uuid.UUID, reason string) error
}

// LogNotifier is a development/testing implementation of Notifier that only
// logs the dispatch.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a logging notifier for development.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendBookingReminder logs the reminder dispatch.
func (n *LogNotifier) SendBookingReminder(ctx context.Context, riderID, bookingID uuid.UUID, startTime time.Time) error {
	n.logger.Info("[NOTIFIER] booking reminder",
		zap.String("rider_id", riderID.String()),
		zap.String("booking_id", bookingID.String()),
		zap.Time("start_time", startTime),
	)
	return nil
}

// SendBookingCancelled logs the cancellation notice.
func (n *LogNotifier) SendBookingCancelled(ctx context.Context, riderID, bookingID uuid.UUID, reason string) error {
	n.logger.Info("[NOTIFIER] booking cancelled",
		zap.String("rider_id", riderID.String()),
		zap.String("booking_id", bookingID.String()),
		zap.String("reason", reason),
	)
	return nil
}
