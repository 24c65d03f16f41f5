package membership

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablebook/service-booking/pkg/domain"
)

func TestNew(t *testing.T) {
	t.Run("basic plan", func(t *testing.T) {
		m, err := New(uuid.New(), PlanBasic)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, m.Status())
		assert.Equal(t, int64(1990), m.PriceCents())
		assert.Equal(t, 5, m.DiscountPercent())
		assert.True(t, m.AutoRenew())
		assert.Equal(t, m.StartedAt().AddDate(0, 0, 30), m.ExpiresAt())
	})

	t.Run("premium plan", func(t *testing.T) {
		m, err := New(uuid.New(), PlanPremium)
		require.NoError(t, err)
		assert.Equal(t, int64(4990), m.PriceCents())
		assert.Equal(t, 15, m.DiscountPercent())
	})

	t.Run("unknown plan", func(t *testing.T) {
		_, err := New(uuid.New(), PlanType("gold"))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestIsActiveAt(t *testing.T) {
	m, err := New(uuid.New(), PlanBasic)
	require.NoError(t, err)

	assert.True(t, m.IsActiveAt(m.StartedAt().Add(time.Hour)))
	assert.False(t, m.IsActiveAt(m.ExpiresAt().Add(time.Hour)), "expired membership is inactive")

	m.Cancel()
	assert.False(t, m.IsActiveAt(m.StartedAt().Add(time.Hour)), "cancelled membership is inactive")
	assert.False(t, m.AutoRenew())
}
