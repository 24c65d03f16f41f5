package membership

import (
	"time"

	"github.com/google/uuid"

	"github.com/stablebook/service-booking/pkg/domain"
)

// PlanType represents the rider membership plan.
type PlanType string

const (
	PlanBasic   PlanType = "basic"
	PlanPremium PlanType = "premium"
)

// Status represents the membership status.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// PlanInfo defines the properties of a membership plan.
type PlanInfo struct {
	Plan         PlanType `json:"plan"`
	PriceCents   int64    `json:"price_cents"`
	DurationDays int      `json:"duration_days"`
	DiscountPct  int      `json:"discount_percent"`
	Description  string   `json:"description"`
}

// AvailablePlans returns the list of rider membership plans.
func AvailablePlans() []PlanInfo {
	return []PlanInfo{
		{Plan: PlanBasic, PriceCents: 1990, DurationDays: 30, DiscountPct: 5, Description: "5% off every ride booking, valid 30 days"},
		{Plan: PlanPremium, PriceCents: 4990, DurationDays: 30, DiscountPct: 15, Description: "15% off every ride booking + priority support, valid 30 days"},
	}
}

// Membership is the aggregate root for rider memberships. An active
// membership discounts every booking at checkout.
type Membership struct {
	id         uuid.UUID
	riderID    uuid.UUID
	plan       PlanType
	priceCents int64
	startedAt  time.Time
	expiresAt  time.Time
	status     Status
	autoRenew  bool
	createdAt  time.Time
	updatedAt  time.Time
}

// New creates a membership on the given plan.
func New(riderID uuid.UUID, plan PlanType) (*Membership, error) {
	var planInfo *PlanInfo
	for _, p := range AvailablePlans() {
		if p.Plan == plan {
			planInfo = &p
			break
		}
	}
	if planInfo == nil {
		return nil, domain.NewValidationError("invalid plan: " + string(plan))
	}

	now := time.Now().UTC()
	return &Membership{
		id:         uuid.New(),
		riderID:    riderID,
		plan:       plan,
		priceCents: planInfo.PriceCents,
		startedAt:  now,
		expiresAt:  now.AddDate(0, 0, planInfo.DurationDays),
		status:     StatusActive,
		autoRenew:  true,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct rebuilds a Membership from persistence.
func Reconstruct(id, riderID uuid.UUID, plan PlanType, priceCents int64, startedAt, expiresAt time.Time, status Status, autoRenew bool, createdAt, updatedAt time.Time) *Membership {
	return &Membership{
		id: id, riderID: riderID, plan: plan, priceCents: priceCents,
		startedAt: startedAt, expiresAt: expiresAt, status: status,
		autoRenew: autoRenew, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// Cancel cancels the membership.
func (m *Membership) Cancel() {
	m.status = StatusCancelled
	m.autoRenew = false
	m.updatedAt = time.Now().UTC()
}

// IsActiveAt reports whether the membership is active at the given instant.
func (m *Membership) IsActiveAt(now time.Time) bool {
	return m.status == StatusActive && now.Before(m.expiresAt)
}

// DiscountPercent returns the plan's booking discount percentage.
func (m *Membership) DiscountPercent() int {
	for _, p := range AvailablePlans() {
		if p.Plan == m.plan {
			return p.DiscountPct
		}
	}
	return 0
}

// Getters.
func (m *Membership) ID() uuid.UUID        { return m.id }
func (m *Membership) RiderID() uuid.UUID   { return m.riderID }
func (m *Membership) Plan() PlanType       { return m.plan }
func (m *Membership) PriceCents() int64    { return m.priceCents }
func (m *Membership) StartedAt() time.Time { return m.startedAt }
func (m *Membership) ExpiresAt() time.Time { return m.expiresAt }
func (m *Membership) Status() Status       { return m.status }
func (m *Membership) AutoRenew() bool      { return m.autoRenew }
func (m *Membership) CreatedAt() time.Time { return m.createdAt }
func (m *Membership) UpdatedAt() time.Time { return m.updatedAt }
