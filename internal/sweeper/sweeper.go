package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stablebook/service-booking/internal/application"
	"github.com/stablebook/service-booking/pkg/clock"
)

// Sweeper periodically runs the completion and reminder sweeps. Both sweeps
// are idempotent, so overlapping runs (or a second replica) are safe.
type Sweeper struct {
	service  *application.BookingService
	clk      clock.Clock
	interval time.Duration
	logger   *zap.Logger
}

// New creates a Sweeper with the given tick interval.
func New(service *application.BookingService, clk clock.Clock, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		service:  service,
		clk:      clk,
		interval: interval,
		logger:   logger,
	}
}

// Run ticks until the context is cancelled. One pass runs immediately on
// start so a restart does not wait a full interval to catch up.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("sweeper started", zap.Duration("interval", s.interval))

	s.pass(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

func (s *Sweeper) pass(ctx context.Context) {
	now := s.clk.Now()

	if _, err := s.service.SweepCompletions(ctx, now); err != nil {
		s.logger.Error("completion sweep pass failed", zap.Error(err))
	}
	if _, err := s.service.SweepReminders(ctx, now); err != nil {
		s.logger.Error("reminder sweep pass failed", zap.Error(err))
	}
}
