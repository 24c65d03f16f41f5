package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	promoDomain "github.com/stablebook/service-booking/internal/domain/promo"
	"github.com/stablebook/service-booking/pkg/clock"
	"github.com/stablebook/service-booking/pkg/domain"
)

// CreatePromoRequest holds data to create a promo code.
type CreatePromoRequest struct {
	Code             string `json:"code" binding:"required"`
	DiscountType     string `json:"discount_type" binding:"required"`
	DiscountValue    int64  `json:"discount_value" binding:"required"`
	MinAmountCents   int64  `json:"min_amount_cents"`
	MaxDiscountCents int64  `json:"max_discount_cents"`
	MaxUses          int    `json:"max_uses"`
	ExpiresAt        string `json:"expires_at,omitempty"`
}

// ValidatePromoRequest holds data to validate a promo code against a
// checkout amount.
type ValidatePromoRequest struct {
	Code        string `json:"code" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
}

// PromoDTO is the API response representation of a promo code.
type PromoDTO struct {
	ID               uuid.UUID  `json:"id"`
	Code             string     `json:"code"`
	DiscountType     string     `json:"discount_type"`
	DiscountValue    int64      `json:"discount_value"`
	MinAmountCents   int64      `json:"min_amount_cents"`
	MaxDiscountCents int64      `json:"max_discount_cents"`
	MaxUses          int        `json:"max_uses"`
	CurrentUses      int        `json:"current_uses"`
	Active           bool       `json:"active"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// PromoValidationDTO is the result of validating a promo code.
type PromoValidationDTO struct {
	Valid         bool   `json:"valid"`
	Code          string `json:"code"`
	DiscountCents int64  `json:"discount_cents"`
	Message       string `json:"message,omitempty"`
}

// PromoService handles promo code use cases.
type PromoService struct {
	repo   promoDomain.Repository
	clk    clock.Clock
	logger *zap.Logger
}

// NewPromoService creates a new PromoService.
func NewPromoService(repo promoDomain.Repository, clk clock.Clock, logger *zap.Logger) *PromoService {
	return &PromoService{repo: repo, clk: clk, logger: logger}
}

// CreatePromo creates a new promo code (admin only).
func (s *PromoService) CreatePromo(ctx context.Context, createdBy uuid.UUID, req CreatePromoRequest) (*PromoDTO, error) {
	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return nil, domain.NewValidationError("invalid expires_at format (use RFC3339)")
		}
		expiresAt = &t
	}

	p, err := promoDomain.NewPromoCode(
		req.Code,
		promoDomain.DiscountType(req.DiscountType),
		req.DiscountValue,
		req.MinAmountCents,
		req.MaxDiscountCents,
		req.MaxUses,
		expiresAt,
		createdBy,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("promo created", zap.String("code", p.Code()))
	dto := toPromoDTO(p)
	return &dto, nil
}

// ValidatePromo checks whether a code applies to the given amount. An
// inapplicable code is reported in the result, not as an error.
func (s *PromoService) ValidatePromo(ctx context.Context, userID uuid.UUID, req ValidatePromoRequest) (*PromoValidationDTO, error) {
	now := s.clk.Now()

	p, err := s.repo.FindByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &PromoValidationDTO{Valid: false, Code: req.Code, Message: "promo code not found"}, nil
		}
		return nil, err
	}

	used, err := s.repo.HasUserUsedPromo(ctx, p.ID(), userID)
	if err != nil {
		return nil, err
	}
	if used {
		return &PromoValidationDTO{Valid: false, Code: req.Code, Message: "promo code already used"}, nil
	}

	discount, err := p.CalculateDiscount(req.AmountCents, now)
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) {
			return &PromoValidationDTO{Valid: false, Code: req.Code, Message: de.Message}, nil
		}
		return nil, err
	}

	return &PromoValidationDTO{Valid: true, Code: req.Code, DiscountCents: discount}, nil
}

// GetActivePromos returns currently redeemable promo codes.
func (s *PromoService) GetActivePromos(ctx context.Context) ([]PromoDTO, error) {
	promos, err := s.repo.FindActive(ctx, s.clk.Now())
	if err != nil {
		return nil, err
	}
	dtos := make([]PromoDTO, 0, len(promos))
	for _, p := range promos {
		dtos = append(dtos, toPromoDTO(p))
	}
	return dtos, nil
}

// DeactivatePromo retires a code so it can no longer be redeemed (admin only).
func (s *PromoService) DeactivatePromo(ctx context.Context, promoID uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, promoID)
	if err != nil {
		return err
	}
	p.Deactivate()
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.logger.Info("promo deactivated", zap.String("code", p.Code()))
	return nil
}

func toPromoDTO(p *promoDomain.PromoCode) PromoDTO {
	return PromoDTO{
		ID:               p.ID(),
		Code:             p.Code(),
		DiscountType:     string(p.DiscountType()),
		DiscountValue:    p.DiscountValue(),
		MinAmountCents:   p.MinAmountCents(),
		MaxDiscountCents: p.MaxDiscountCents(),
		MaxUses:          p.MaxUses(),
		CurrentUses:      p.CurrentUses(),
		Active:           p.Active(),
		ExpiresAt:        p.ExpiresAt(),
		CreatedAt:        p.CreatedAt(),
	}
}
