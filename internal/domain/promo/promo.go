package promo

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stablebook/service-booking/pkg/domain"
)

// DiscountType represents the type of discount.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// PromoCode is the aggregate root for promotional codes applied at checkout.
type PromoCode struct {
	id               uuid.UUID
	code             string
	discountType     DiscountType
	discountValue    int64 // percentage (1-100) or fixed amount in cents
	minAmountCents   int64
	maxDiscountCents int64
	maxUses          int
	currentUses      int
	active           bool
	expiresAt        *time.Time
	createdBy        uuid.UUID
	createdAt        time.Time
	updatedAt        time.Time
}

// NewPromoCode creates an active promo code. A nil expiresAt never expires;
// maxUses of zero means unlimited.
func NewPromoCode(code string, discountType DiscountType, discountValue, minAmountCents, maxDiscountCents int64, maxUses int, expiresAt *time.Time, createdBy uuid.UUID) (*PromoCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, domain.NewValidationError("promo code is required")
	}
	if discountType != DiscountTypePercentage && discountType != DiscountTypeFixed {
		return nil, domain.NewValidationError("invalid discount type: " + string(discountType))
	}
	if discountValue <= 0 {
		return nil, domain.NewValidationError("discount value must be positive")
	}
	if discountType == DiscountTypePercentage && discountValue > 100 {
		return nil, domain.NewValidationError("percentage discount cannot exceed 100")
	}

	now := time.Now().UTC()
	return &PromoCode{
		id:               uuid.New(),
		code:             code,
		discountType:     discountType,
		discountValue:    discountValue,
		minAmountCents:   minAmountCents,
		maxDiscountCents: maxDiscountCents,
		maxUses:          maxUses,
		currentUses:      0,
		active:           true,
		expiresAt:        expiresAt,
		createdBy:        createdBy,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// Reconstruct rebuilds a PromoCode from persistence.
func Reconstruct(id uuid.UUID, code string, discountType DiscountType, discountValue, minAmountCents, maxDiscountCents int64, maxUses, currentUses int, active bool, expiresAt *time.Time, createdBy uuid.UUID, createdAt, updatedAt time.Time) *PromoCode {
	return &PromoCode{
		id: id, code: code, discountType: discountType, discountValue: discountValue,
		minAmountCents: minAmountCents, maxDiscountCents: maxDiscountCents,
		maxUses: maxUses, currentUses: currentUses, active: active,
		expiresAt: expiresAt, createdBy: createdBy, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// IsValidAt checks whether the code can be redeemed at the given instant.
func (p *PromoCode) IsValidAt(now time.Time) bool {
	if !p.active {
		return false
	}
	if p.expiresAt != nil && !now.Before(*p.expiresAt) {
		return false
	}
	return p.maxUses == 0 || p.currentUses < p.maxUses
}

// CalculateDiscount returns the discount in cents for a given total.
func (p *PromoCode) CalculateDiscount(totalCents int64, now time.Time) (int64, error) {
	if !p.IsValidAt(now) {
		return 0, domain.NewValidationError("promo code is no longer valid")
	}
	if totalCents < p.minAmountCents {
		return 0, domain.NewValidationError("booking total below promo minimum")
	}

	var discount int64
	switch p.discountType {
	case DiscountTypePercentage:
		discount = totalCents * p.discountValue / 100
	case DiscountTypeFixed:
		discount = p.discountValue
	}

	if p.maxDiscountCents > 0 && discount > p.maxDiscountCents {
		discount = p.maxDiscountCents
	}
	if discount > totalCents {
		discount = totalCents
	}
	return discount, nil
}

// IncrementUses increments the usage count.
func (p *PromoCode) IncrementUses() {
	p.currentUses++
	p.updatedAt = time.Now().UTC()
}

// DecrementUses undoes a redemption (reservation saga compensation).
func (p *PromoCode) DecrementUses() {
	if p.currentUses > 0 {
		p.currentUses--
	}
	p.updatedAt = time.Now().UTC()
}

// Deactivate turns the code off.
func (p *PromoCode) Deactivate() {
	p.active = false
	p.updatedAt = time.Now().UTC()
}

// Getters.
func (p *PromoCode) ID() uuid.UUID              { return p.id }
func (p *PromoCode) Code() string               { return p.code }
func (p *PromoCode) DiscountType() DiscountType { return p.discountType }
func (p *PromoCode) DiscountValue() int64       { return p.discountValue }
func (p *PromoCode) MinAmountCents() int64      { return p.minAmountCents }
func (p *PromoCode) MaxDiscountCents() int64    { return p.maxDiscountCents }
func (p *PromoCode) MaxUses() int               { return p.maxUses }
func (p *PromoCode) CurrentUses() int           { return p.currentUses }
func (p *PromoCode) Active() bool               { return p.active }
func (p *PromoCode) ExpiresAt() *time.Time      { return p.expiresAt }
func (p *PromoCode) CreatedBy() uuid.UUID       { return p.createdBy }
func (p *PromoCode) CreatedAt() time.Time       { return p.createdAt }
func (p *PromoCode) UpdatedAt() time.Time       { return p.updatedAt }
