package slot

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablebook/service-booking/pkg/domain"
)

func TestNew(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("valid range", func(t *testing.T) {
		s, err := New(uuid.New(), nil, start, start.Add(time.Hour), "farrier visit", uuid.New())
		require.NoError(t, err)
		assert.Nil(t, s.HorseID())
		assert.Equal(t, "farrier visit", s.Reason())
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		_, err := New(uuid.New(), nil, start.Add(time.Hour), start, "", uuid.New())
		assert.ErrorIs(t, err, domain.ErrInvalidRange)
	})

	t.Run("rejects empty range", func(t *testing.T) {
		_, err := New(uuid.New(), nil, start, start, "", uuid.New())
		assert.ErrorIs(t, err, domain.ErrInvalidRange)
	})
}

func TestBlocksHorse(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	horseID := uuid.New()

	t.Run("stable-wide block applies to every horse", func(t *testing.T) {
		s, err := New(uuid.New(), nil, start, start.Add(time.Hour), "maintenance", uuid.New())
		require.NoError(t, err)
		assert.True(t, s.BlocksHorse(horseID))
		assert.True(t, s.BlocksHorse(uuid.New()))
	})

	t.Run("horse-scoped block applies to that horse only", func(t *testing.T) {
		s, err := New(uuid.New(), &horseID, start, start.Add(time.Hour), "vet check", uuid.New())
		require.NoError(t, err)
		assert.True(t, s.BlocksHorse(horseID))
		assert.False(t, s.BlocksHorse(uuid.New()))
	})
}

func TestOverlaps(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	s, err := New(uuid.New(), nil, start, end, "", uuid.New())
	require.NoError(t, err)

	assert.True(t, s.Overlaps(start.Add(30*time.Minute), end.Add(time.Hour)))
	assert.False(t, s.Overlaps(end, end.Add(time.Hour)), "touching at end does not overlap")
	assert.False(t, s.Overlaps(start.Add(-time.Hour), start), "touching at start does not overlap")
}
