package booking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablebook/service-booking/pkg/auth"
)

func TestCanCancel(t *testing.T) {
	riderID := uuid.New()
	ownerID := uuid.New()
	b := newTestBooking(t)

	own, err := New(riderID, b.StableID(), b.HorseID(), b.StartTime(), b.EndTime(), 5000, 15.0)
	require.NoError(t, err)

	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"rider cancels own booking", Actor{UserID: riderID, Role: auth.RoleRider}, true},
		{"rider cannot cancel someone else's", Actor{UserID: uuid.New(), Role: auth.RoleRider}, false},
		{"stable owner can cancel", Actor{UserID: ownerID, Role: auth.RoleOwner}, true},
		{"other owner cannot cancel", Actor{UserID: uuid.New(), Role: auth.RoleOwner}, false},
		{"admin can always cancel", Actor{UserID: uuid.New(), Role: auth.RoleAdmin}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanCancel(tt.actor, own, ownerID))
		})
	}
}

func TestCanBlock(t *testing.T) {
	ownerID := uuid.New()

	assert.True(t, CanBlock(Actor{UserID: ownerID, Role: auth.RoleOwner}, ownerID))
	assert.False(t, CanBlock(Actor{UserID: uuid.New(), Role: auth.RoleOwner}, ownerID))
	assert.True(t, CanBlock(Actor{UserID: uuid.New(), Role: auth.RoleAdmin}, ownerID))
	assert.False(t, CanBlock(Actor{UserID: ownerID, Role: auth.RoleRider}, ownerID))
}

func TestCancelActorFor(t *testing.T) {
	assert.Equal(t, CancelledByRider, CancelActorFor(auth.RoleRider))
	assert.Equal(t, CancelledByOwner, CancelActorFor(auth.RoleOwner))
	assert.Equal(t, CancelledByAdmin, CancelActorFor(auth.RoleAdmin))
}
