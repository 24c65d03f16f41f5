package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	promoDomain "github.com/stablebook/service-booking/internal/domain/promo"
	"github.com/stablebook/service-booking/pkg/clock"
	"github.com/stablebook/service-booking/pkg/domain"
)

func newPromoFixture(t *testing.T) (*PromoService, *fakePromoRepo) {
	t.Helper()
	repo := newFakePromoRepo()
	return NewPromoService(repo, clock.Fixed{T: testNow}, zap.NewNop()), repo
}

func TestCreatePromo(t *testing.T) {
	t.Run("creates active code", func(t *testing.T) {
		svc, _ := newPromoFixture(t)
		dto, err := svc.CreatePromo(context.Background(), uuid.New(), CreatePromoRequest{
			Code:          "spring15",
			DiscountType:  "percentage",
			DiscountValue: 15,
			ExpiresAt:     testNow.Add(30 * 24 * time.Hour).Format(time.RFC3339),
		})
		require.NoError(t, err)
		assert.Equal(t, "SPRING15", dto.Code)
		assert.True(t, dto.Active)
		require.NotNil(t, dto.ExpiresAt)
	})

	t.Run("rejects malformed expiry", func(t *testing.T) {
		svc, _ := newPromoFixture(t)
		_, err := svc.CreatePromo(context.Background(), uuid.New(), CreatePromoRequest{
			Code:          "X",
			DiscountType:  "fixed",
			DiscountValue: 500,
			ExpiresAt:     "next tuesday",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestValidatePromo(t *testing.T) {
	svc, repo := newPromoFixture(t)
	p, err := promoDomain.NewPromoCode("RIDE20", promoDomain.DiscountTypePercentage, 20, 5000, 0, 0, nil, uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), p))

	t.Run("valid code returns the discount", func(t *testing.T) {
		res, err := svc.ValidatePromo(context.Background(), uuid.New(), ValidatePromoRequest{Code: "RIDE20", AmountCents: 10000})
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.Equal(t, int64(2000), res.DiscountCents)
	})

	t.Run("below minimum reports invalid, not error", func(t *testing.T) {
		res, err := svc.ValidatePromo(context.Background(), uuid.New(), ValidatePromoRequest{Code: "RIDE20", AmountCents: 3000})
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.NotEmpty(t, res.Message)
	})

	t.Run("unknown code reports invalid", func(t *testing.T) {
		res, err := svc.ValidatePromo(context.Background(), uuid.New(), ValidatePromoRequest{Code: "NOPE", AmountCents: 10000})
		require.NoError(t, err)
		assert.False(t, res.Valid)
	})

	t.Run("already used code reports invalid", func(t *testing.T) {
		userID := uuid.New()
		require.NoError(t, repo.SaveUsage(context.Background(), &promoDomain.Usage{
			ID: uuid.New(), PromoID: p.ID(), UserID: userID, BookingID: uuid.New(), DiscountCents: 2000, UsedAt: testNow,
		}))

		res, err := svc.ValidatePromo(context.Background(), userID, ValidatePromoRequest{Code: "RIDE20", AmountCents: 10000})
		require.NoError(t, err)
		assert.False(t, res.Valid)
	})
}

func TestDeactivatePromo(t *testing.T) {
	svc, repo := newPromoFixture(t)
	p, err := promoDomain.NewPromoCode("BYE", promoDomain.DiscountTypeFixed, 500, 0, 0, 0, nil, uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), p))

	require.NoError(t, svc.DeactivatePromo(context.Background(), p.ID()))

	res, err := svc.ValidatePromo(context.Background(), uuid.New(), ValidatePromoRequest{Code: "BYE", AmountCents: 10000})
	require.NoError(t, err)
	assert.False(t, res.Valid)

	active, err := svc.GetActivePromos(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}
