package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	membershipDomain "github.com/stablebook/service-booking/internal/domain/membership"
	"github.com/stablebook/service-booking/pkg/clock"
	"github.com/stablebook/service-booking/pkg/domain"
)

// SubscribeRequest is the DTO for starting a membership.
type SubscribeRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// MembershipDTO is the API response DTO for membership data.
type MembershipDTO struct {
	ID         uuid.UUID `json:"id"`
	RiderID    uuid.UUID `json:"rider_id"`
	Plan       string    `json:"plan"`
	PriceCents int64     `json:"price_cents"`
	StartedAt  time.Time `json:"started_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Status     string    `json:"status"`
	AutoRenew  bool      `json:"auto_renew"`
	CreatedAt  time.Time `json:"created_at"`
}

// PlanDTO describes one membership plan on offer.
type PlanDTO struct {
	Plan         string `json:"plan"`
	PriceCents   int64  `json:"price_cents"`
	DurationDays int    `json:"duration_days"`
	DiscountPct  int    `json:"discount_pct"`
}

// MembershipService handles rider membership use cases.
type MembershipService struct {
	repo   membershipDomain.Repository
	clk    clock.Clock
	logger *zap.Logger
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(repo membershipDomain.Repository, clk clock.Clock, logger *zap.Logger) *MembershipService {
	return &MembershipService{repo: repo, clk: clk, logger: logger}
}

// GetPlans lists the membership plans on offer.
func (s *MembershipService) GetPlans(ctx context.Context) []PlanDTO {
	plans := membershipDomain.AvailablePlans()
	dtos := make([]PlanDTO, 0, len(plans))
	for _, p := range plans {
		dtos = append(dtos, PlanDTO{
			Plan:         string(p.Plan),
			PriceCents:   p.PriceCents,
			DurationDays: p.DurationDays,
			DiscountPct:  p.DiscountPct,
		})
	}
	return dtos
}

// Subscribe starts a membership for the rider. A rider with an active
// membership cannot start a second one.
func (s *MembershipService) Subscribe(ctx context.Context, riderID uuid.UUID, req SubscribeRequest) (*MembershipDTO, error) {
	existing, err := s.repo.FindActiveByRider(ctx, riderID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.IsActiveAt(s.clk.Now()) {
		return nil, domain.NewConflictError("rider already has an active membership")
	}

	m, err := membershipDomain.New(riderID, membershipDomain.PlanType(req.Plan))
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("membership started",
		zap.String("rider_id", riderID.String()),
		zap.String("plan", req.Plan),
	)

	dto := toMembershipDTO(m)
	return &dto, nil
}

// GetMyMembership returns the rider's active membership.
func (s *MembershipService) GetMyMembership(ctx context.Context, riderID uuid.UUID) (*MembershipDTO, error) {
	m, err := s.repo.FindActiveByRider(ctx, riderID)
	if err != nil {
		return nil, err
	}
	dto := toMembershipDTO(m)
	return &dto, nil
}

// CancelMembership stops auto-renewal and marks the membership cancelled.
// The checkout discount lapses immediately.
func (s *MembershipService) CancelMembership(ctx context.Context, riderID uuid.UUID) error {
	m, err := s.repo.FindActiveByRider(ctx, riderID)
	if err != nil {
		return err
	}
	m.Cancel()
	if err := s.repo.Update(ctx, m); err != nil {
		return err
	}
	s.logger.Info("membership cancelled", zap.String("rider_id", riderID.String()))
	return nil
}

func toMembershipDTO(m *membershipDomain.Membership) MembershipDTO {
	return MembershipDTO{
		ID:         m.ID(),
		RiderID:    m.RiderID(),
		Plan:       string(m.Plan()),
		PriceCents: m.PriceCents(),
		StartedAt:  m.StartedAt(),
		ExpiresAt:  m.ExpiresAt(),
		Status:     string(m.Status()),
		AutoRenew:  m.AutoRenew(),
		CreatedAt:  m.CreatedAt(),
	}
}
