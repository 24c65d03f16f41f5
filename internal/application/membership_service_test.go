package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stablebook/service-booking/pkg/clock"
	"github.com/stablebook/service-booking/pkg/domain"
)

func newMembershipFixture(t *testing.T) (*MembershipService, *fakeMembershipRepo) {
	t.Helper()
	clk := clock.System{}
	repo := newFakeMembershipRepo(clk.Now)
	return NewMembershipService(repo, clk, zap.NewNop()), repo
}

func TestGetPlans(t *testing.T) {
	svc, _ := newMembershipFixture(t)
	plans := svc.GetPlans(context.Background())
	require.Len(t, plans, 2)
	assert.Equal(t, "basic", plans[0].Plan)
	assert.Equal(t, "premium", plans[1].Plan)
}

func TestSubscribe(t *testing.T) {
	t.Run("starts a membership", func(t *testing.T) {
		svc, _ := newMembershipFixture(t)
		riderID := uuid.New()

		dto, err := svc.Subscribe(context.Background(), riderID, SubscribeRequest{Plan: "premium"})
		require.NoError(t, err)
		assert.Equal(t, "active", dto.Status)
		assert.Equal(t, int64(4990), dto.PriceCents)
	})

	t.Run("second active membership conflicts", func(t *testing.T) {
		svc, _ := newMembershipFixture(t)
		riderID := uuid.New()

		_, err := svc.Subscribe(context.Background(), riderID, SubscribeRequest{Plan: "basic"})
		require.NoError(t, err)

		_, err = svc.Subscribe(context.Background(), riderID, SubscribeRequest{Plan: "premium"})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("unknown plan", func(t *testing.T) {
		svc, _ := newMembershipFixture(t)
		_, err := svc.Subscribe(context.Background(), uuid.New(), SubscribeRequest{Plan: "gold"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestCancelMembership(t *testing.T) {
	svc, _ := newMembershipFixture(t)
	riderID := uuid.New()

	_, err := svc.Subscribe(context.Background(), riderID, SubscribeRequest{Plan: "basic"})
	require.NoError(t, err)

	require.NoError(t, svc.CancelMembership(context.Background(), riderID))

	_, err = svc.GetMyMembership(context.Background(), riderID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "cancelled membership is no longer active")

	// And the rider can subscribe again.
	_, err = svc.Subscribe(context.Background(), riderID, SubscribeRequest{Plan: "premium"})
	assert.NoError(t, err)
}
