package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	bookingDomain "github.com/stablebook/service-booking/internal/domain/booking"
	"github.com/stablebook/service-booking/pkg/domain"
)

// BookingModel is the GORM persistence model for the bookings table.
type BookingModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RiderID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	StableID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	HorseID            uuid.UUID  `gorm:"type:uuid;not null;index:idx_bookings_horse_time,priority:1"`
	StartTime          time.Time  `gorm:"type:timestamptz;not null;index:idx_bookings_horse_time,priority:2"`
	EndTime            time.Time  `gorm:"type:timestamptz;not null"`
	TotalPriceCents    int64      `gorm:"not null"`
	CommissionCents    int64      `gorm:"not null"`
	Status             string     `gorm:"type:varchar(20);not null;default:'pending_payment';index"`
	PaymentRef         string     `gorm:"type:varchar(255)"`
	CancelledBy        string     `gorm:"type:varchar(20)"`
	CancellationReason string     `gorm:"type:text"`
	ReminderSent       bool       `gorm:"not null;default:false"`
	ConfirmedAt        *time.Time `gorm:"type:timestamptz"`
	CompletedAt        *time.Time `gorm:"type:timestamptz"`
	CancelledAt        *time.Time `gorm:"type:timestamptz"`
	Version            int64      `gorm:"not null;default:1"`
	CreatedAt          time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt          time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (BookingModel) TableName() string { return "bookings" }

// BookingRepositoryImpl is the GORM-based implementation of booking.Repository.
type BookingRepositoryImpl struct {
	db *gorm.DB
}

// NewBookingRepository creates a new GORM-based booking repository.
func NewBookingRepository(db *gorm.DB) *BookingRepositoryImpl {
	return &BookingRepositoryImpl{db: db}
}

// CreateIfNoOverlap inserts the booking after verifying the horse's calendar
// is free, all inside one transaction. The stable row is locked FOR UPDATE
// first: that serializes every reservation and block attempt touching the
// stable, so two concurrent requests for the same range cannot both pass the
// overlap check. A locked check on booking rows alone cannot serialize
// against stable-wide blocks, hence the coarser lock.
func (r *BookingRepositoryImpl) CreateIfNoOverlap(ctx context.Context, b *bookingDomain.Booking) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stable StableModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", b.StableID()).
			First(&stable).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("Stable", b.StableID().String())
			}
			return err
		}

		var existing BookingModel
		err := tx.Model(&BookingModel{}).
			Where("horse_id = ? AND status <> ?", b.HorseID(), string(bookingDomain.StatusCancelled)).
			Where("start_time < ? AND end_time > ?", b.EndTime(), b.StartTime()).
			Take(&existing).Error
		if err == nil {
			return domain.NewSlotConflictError("booking", existing.ID.String())
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var block BlockedSlotModel
		err = tx.Model(&BlockedSlotModel{}).
			Where("stable_id = ? AND (horse_id = ? OR horse_id IS NULL)", b.StableID(), b.HorseID()).
			Where("start_time < ? AND end_time > ?", b.EndTime(), b.StartTime()).
			Take(&block).Error
		if err == nil {
			return domain.NewSlotConflictError("blocked_slot", block.ID.String())
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(toBookingModel(b)).Error
	})
	return translatePgError(err)
}

// FindByID retrieves a booking by its unique ID.
func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, err
	}
	return toBookingDomain(&model), nil
}

// ListByRider retrieves a rider's bookings with pagination.
func (r *BookingRepositoryImpl) ListByRider(ctx context.Context, riderID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.list(ctx, r.db.Where("rider_id = ?", riderID), page, limit)
}

// ListByStable retrieves a stable's bookings with pagination.
func (r *BookingRepositoryImpl) ListByStable(ctx context.Context, stableID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.list(ctx, r.db.Where("stable_id = ?", stableID), page, limit)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *BookingRepositoryImpl) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.list(ctx, r.db, page, limit)
}

func (r *BookingRepositoryImpl) list(ctx context.Context, scope *gorm.DB, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := scope.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := scope.WithContext(ctx).Model(&BookingModel{}).
		Order("start_time DESC").Offset(offset).Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = toBookingDomain(&models[i])
	}
	return bookings, total, nil
}

// FindActiveInRange returns non-cancelled bookings for a horse overlapping [from, to).
func (r *BookingRepositoryImpl) FindActiveInRange(ctx context.Context, horseID uuid.UUID, from, to time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("horse_id = ? AND status <> ?", horseID, string(bookingDomain.StatusCancelled)).
		Where("start_time < ? AND end_time > ?", to, from).
		Order("start_time ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = toBookingDomain(&models[i])
	}
	return bookings, nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *BookingRepositoryImpl) Update(ctx context.Context, b *bookingDomain.Booking) error {
	model := toBookingModel(b)
	previousVersion := b.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Select("*").Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return translatePgError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// FindCompletionCandidates returns confirmed bookings whose end time has passed.
func (r *BookingRepositoryImpl) FindCompletionCandidates(ctx context.Context, now time.Time, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_time < ?", string(bookingDomain.StatusConfirmed), now).
		Order("end_time ASC").Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = toBookingDomain(&models[i])
	}
	return bookings, nil
}

// MarkCompleted transitions one booking to completed. The status predicate in
// the WHERE clause makes the update idempotent and race-safe against a
// concurrent cancellation: whichever write lands first wins, the other
// matches zero rows.
func (r *BookingRepositoryImpl) MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND status = ? AND end_time < ?", id, string(bookingDomain.StatusConfirmed), now).
		Updates(map[string]interface{}{
			"status":       string(bookingDomain.StatusCompleted),
			"completed_at": now,
			"updated_at":   now,
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindReminderCandidates returns confirmed, un-reminded bookings starting
// within (windowStart, windowEnd].
func (r *BookingRepositoryImpl) FindReminderCandidates(ctx context.Context, windowStart, windowEnd time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND reminder_sent = false", string(bookingDomain.StatusConfirmed)).
		Where("start_time > ? AND start_time <= ?", windowStart, windowEnd).
		Order("start_time ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = toBookingDomain(&models[i])
	}
	return bookings, nil
}

// MarkReminded flips the reminder flag at most once.
func (r *BookingRepositoryImpl) MarkReminded(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND reminder_sent = false", id).
		Updates(map[string]interface{}{
			"reminder_sent": true,
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetStats returns booking counts by status plus revenue totals (admin).
func (r *BookingRepositoryImpl) GetStats(ctx context.Context) (map[string]int64, int64, int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, 0, 0, err
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}

	type totals struct {
		Revenue    int64
		Commission int64
	}
	var t totals
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("status IN ?", []string{
			string(bookingDomain.StatusConfirmed),
			string(bookingDomain.StatusCompleted),
		}).
		Select("COALESCE(SUM(total_price_cents), 0) as revenue, COALESCE(SUM(commission_cents), 0) as commission").
		Scan(&t).Error; err != nil {
		return nil, 0, 0, err
	}

	return counts, t.Revenue, t.Commission, nil
}

// translatePgError maps Postgres failure modes onto the domain taxonomy:
// the booking exclusion constraint to a slot conflict, serialization and
// deadlock failures to retryable transient errors.
func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23P01": // exclusion_violation
			return domain.NewSlotConflictError("booking", pgErr.Detail)
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return domain.NewTransientError(err)
		}
	}
	return err
}

// toBookingDomain maps a BookingModel to the domain Booking aggregate.
func toBookingDomain(m *BookingModel) *bookingDomain.Booking {
	return bookingDomain.Reconstitute(
		m.ID, m.RiderID, m.StableID, m.HorseID,
		m.StartTime, m.EndTime,
		m.TotalPriceCents, m.CommissionCents,
		bookingDomain.Status(m.Status),
		m.PaymentRef,
		bookingDomain.CancelActor(m.CancelledBy),
		m.CancellationReason,
		m.ReminderSent,
		m.ConfirmedAt, m.CompletedAt, m.CancelledAt,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}

// toBookingModel maps a domain Booking to a BookingModel for persistence.
func toBookingModel(b *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:                 b.ID(),
		RiderID:            b.RiderID(),
		StableID:           b.StableID(),
		HorseID:            b.HorseID(),
		StartTime:          b.StartTime(),
		EndTime:            b.EndTime(),
		TotalPriceCents:    b.TotalPriceCents(),
		CommissionCents:    b.CommissionCents(),
		Status:             string(b.Status()),
		PaymentRef:         b.PaymentRef(),
		CancelledBy:        string(b.CancelledBy()),
		CancellationReason: b.CancellationReason(),
		ReminderSent:       b.ReminderSent(),
		ConfirmedAt:        b.ConfirmedAt(),
		CompletedAt:        b.CompletedAt(),
		CancelledAt:        b.CancelledAt(),
		Version:            b.Version(),
		CreatedAt:          b.CreatedAt(),
		UpdatedAt:          b.UpdatedAt(),
	}
}
