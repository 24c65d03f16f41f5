package promo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence operations for promo codes.
type Repository interface {
	Save(ctx context.Context, p *PromoCode) error
	Update(ctx context.Context, p *PromoCode) error
	FindByCode(ctx context.Context, code string) (*PromoCode, error)
	FindByID(ctx context.Context, id uuid.UUID) (*PromoCode, error)
	FindActive(ctx context.Context, now time.Time) ([]*PromoCode, error)
	SaveUsage(ctx context.Context, usage *Usage) error
	DeleteUsage(ctx context.Context, promoID, bookingID uuid.UUID) error
	HasUserUsedPromo(ctx context.Context, promoID, userID uuid.UUID) (bool, error)
}

// Usage tracks each individual promo code redemption.
type Usage struct {
	ID            uuid.UUID
	PromoID       uuid.UUID
	UserID        uuid.UUID
	BookingID     uuid.UUID
	DiscountCents int64
	UsedAt        time.Time
}
