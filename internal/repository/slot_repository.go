package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	bookingDomain "github.com/stablebook/service-booking/internal/domain/booking"
	slotDomain "github.com/stablebook/service-booking/internal/domain/slot"
	"github.com/stablebook/service-booking/pkg/domain"
)

// BlockedSlotModel is the GORM model for the blocked_slots table.
type BlockedSlotModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StableID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	HorseID   *uuid.UUID `gorm:"type:uuid;index"`
	StartTime time.Time  `gorm:"type:timestamptz;not null"`
	EndTime   time.Time  `gorm:"type:timestamptz;not null"`
	Reason    string     `gorm:"type:text"`
	CreatedBy uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (BlockedSlotModel) TableName() string { return "blocked_slots" }

// SlotRepositoryImpl is the GORM-based implementation of slot.Repository.
type SlotRepositoryImpl struct {
	db *gorm.DB
}

// NewSlotRepository creates a new GORM-based blocked-slot repository.
func NewSlotRepository(db *gorm.DB) *SlotRepositoryImpl {
	return &SlotRepositoryImpl{db: db}
}

// CreateIfNoOverlap inserts the block after verifying no active booking
// occupies the range. Takes the same stable-row lock as booking creation so
// the two cannot interleave.
func (r *SlotRepositoryImpl) CreateIfNoOverlap(ctx context.Context, s *slotDomain.BlockedSlot) error {
	return translatePgError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stable StableModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", s.StableID()).
			First(&stable).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("Stable", s.StableID().String())
			}
			return err
		}

		scope := tx.Model(&BookingModel{}).
			Where("stable_id = ? AND status <> ?", s.StableID(), string(bookingDomain.StatusCancelled)).
			Where("start_time < ? AND end_time > ?", s.EndTime(), s.StartTime())
		if s.HorseID() != nil {
			scope = scope.Where("horse_id = ?", *s.HorseID())
		}

		var existing BookingModel
		err := scope.Take(&existing).Error
		if err == nil {
			return domain.NewSlotConflictError("booking", existing.ID.String())
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(toSlotModel(s)).Error
	}))
}

// FindByID retrieves a blocked slot.
func (r *SlotRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*slotDomain.BlockedSlot, error) {
	var model BlockedSlotModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("BlockedSlot", id.String())
		}
		return nil, err
	}
	return toSlotDomain(&model), nil
}

// ListByStable returns all blocked slots for a stable, soonest first.
func (r *SlotRepositoryImpl) ListByStable(ctx context.Context, stableID uuid.UUID) ([]*slotDomain.BlockedSlot, error) {
	var models []BlockedSlotModel
	if err := r.db.WithContext(ctx).
		Where("stable_id = ?", stableID).
		Order("start_time ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	slots := make([]*slotDomain.BlockedSlot, len(models))
	for i := range models {
		slots[i] = toSlotDomain(&models[i])
	}
	return slots, nil
}

// FindForHorseInRange returns blocks applying to the horse that overlap [from, to).
func (r *SlotRepositoryImpl) FindForHorseInRange(ctx context.Context, stableID, horseID uuid.UUID, from, to time.Time) ([]*slotDomain.BlockedSlot, error) {
	var models []BlockedSlotModel
	if err := r.db.WithContext(ctx).
		Where("stable_id = ? AND (horse_id = ? OR horse_id IS NULL)", stableID, horseID).
		Where("start_time < ? AND end_time > ?", to, from).
		Order("start_time ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	slots := make([]*slotDomain.BlockedSlot, len(models))
	for i := range models {
		slots[i] = toSlotDomain(&models[i])
	}
	return slots, nil
}

// Delete removes a blocked slot.
func (r *SlotRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&BlockedSlotModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("BlockedSlot", id.String())
	}
	return nil
}

func toSlotModel(s *slotDomain.BlockedSlot) *BlockedSlotModel {
	return &BlockedSlotModel{
		ID:        s.ID(),
		StableID:  s.StableID(),
		HorseID:   s.HorseID(),
		StartTime: s.StartTime(),
		EndTime:   s.EndTime(),
		Reason:    s.Reason(),
		CreatedBy: s.CreatedBy(),
		CreatedAt: s.CreatedAt(),
	}
}

func toSlotDomain(m *BlockedSlotModel) *slotDomain.BlockedSlot {
	return slotDomain.Reconstitute(
		m.ID, m.StableID, m.HorseID,
		m.StartTime, m.EndTime,
		m.Reason, m.CreatedBy, m.CreatedAt,
	)
}
