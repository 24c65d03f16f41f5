package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stablebook/service-booking/internal/domain/stable"
	"github.com/stablebook/service-booking/pkg/domain"
)

// StableModel is the GORM model for the stables reference table. Stables are
// owned by the listings service; the reservation core only needs the owner
// for authorization and the name for display.
type StableModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (StableModel) TableName() string { return "stables" }

// HorseModel is the GORM model for the horses reference table.
type HorseModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	StableID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Name            string    `gorm:"type:varchar(255);not null"`
	HourlyRateCents int64     `gorm:"not null"`
	CreatedAt       time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt       time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (HorseModel) TableName() string { return "horses" }

// StableRepository reads stable and horse reference data.
type StableRepository struct {
	db *gorm.DB
}

// NewStableRepository creates a GORM-based stable repository.
func NewStableRepository(db *gorm.DB) *StableRepository {
	return &StableRepository{db: db}
}

// OwnerID returns the owning operator of a stable.
func (r *StableRepository) OwnerID(ctx context.Context, stableID uuid.UUID) (uuid.UUID, error) {
	var model StableModel
	if err := r.db.WithContext(ctx).Where("id = ?", stableID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, domain.NewNotFoundError("Stable", stableID.String())
		}
		return uuid.Nil, err
	}
	return model.OwnerID, nil
}

// FindHorse returns the horse's stable and hourly rate.
func (r *StableRepository) FindHorse(ctx context.Context, horseID uuid.UUID) (*stable.Horse, error) {
	var model HorseModel
	if err := r.db.WithContext(ctx).Where("id = ?", horseID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Horse", horseID.String())
		}
		return nil, err
	}
	return &stable.Horse{
		ID:              model.ID,
		StableID:        model.StableID,
		Name:            model.Name,
		HourlyRateCents: model.HourlyRateCents,
	}, nil
}
