package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	memberDomain "github.com/stablebook/service-booking/internal/domain/membership"
	"github.com/stablebook/service-booking/pkg/domain"
)

// MembershipModel is the GORM model for the memberships table.
type MembershipModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	RiderID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Plan       string    `gorm:"type:varchar(20);not null"`
	PriceCents int64     `gorm:"not null"`
	StartedAt  time.Time `gorm:"not null"`
	ExpiresAt  time.Time `gorm:"not null"`
	Status     string    `gorm:"type:varchar(20);not null;default:'active'"`
	AutoRenew  bool      `gorm:"default:true"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (MembershipModel) TableName() string { return "memberships" }

// GormMembershipRepository implements membership.Repository using GORM.
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewGormMembershipRepository creates a new GormMembershipRepository.
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

// Save persists a new membership.
func (r *GormMembershipRepository) Save(ctx context.Context, m *memberDomain.Membership) error {
	model := toMembershipModel(m)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update updates a membership.
func (r *GormMembershipRepository) Update(ctx context.Context, m *memberDomain.Membership) error {
	model := toMembershipModel(m)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID returns a membership by ID.
func (r *GormMembershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*memberDomain.Membership, error) {
	var model MembershipModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Membership", id.String())
		}
		return nil, err
	}
	return toMembershipDomain(&model), nil
}

// FindActiveByRider returns the rider's current active membership.
func (r *GormMembershipRepository) FindActiveByRider(ctx context.Context, riderID uuid.UUID) (*memberDomain.Membership, error) {
	var model MembershipModel
	now := time.Now().UTC()
	if err := r.db.WithContext(ctx).
		Where("rider_id = ? AND status = ? AND expires_at > ?", riderID, "active", now).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Membership", riderID.String())
		}
		return nil, err
	}
	return toMembershipDomain(&model), nil
}

func toMembershipModel(m *memberDomain.Membership) MembershipModel {
	return MembershipModel{
		ID: m.ID(), RiderID: m.RiderID(), Plan: string(m.Plan()),
		PriceCents: m.PriceCents(), StartedAt: m.StartedAt(), ExpiresAt: m.ExpiresAt(),
		Status: string(m.Status()), AutoRenew: m.AutoRenew(),
		CreatedAt: m.CreatedAt(), UpdatedAt: m.UpdatedAt(),
	}
}

func toMembershipDomain(m *MembershipModel) *memberDomain.Membership {
	return memberDomain.Reconstruct(
		m.ID, m.RiderID, memberDomain.PlanType(m.Plan), m.PriceCents,
		m.StartedAt, m.ExpiresAt, memberDomain.Status(m.Status), m.AutoRenew,
		m.CreatedAt, m.UpdatedAt,
	)
}
