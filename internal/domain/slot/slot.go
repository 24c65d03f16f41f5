package slot

import (
	"time"

	"github.com/google/uuid"

	"github.com/stablebook/service-booking/pkg/domain"
)

// BlockedSlot is a time range a stable operator has taken off the calendar.
// A nil horseID blocks every horse at the stable.
type BlockedSlot struct {
	id        uuid.UUID
	stableID  uuid.UUID
	horseID   *uuid.UUID
	startTime time.Time
	endTime   time.Time
	reason    string
	createdBy uuid.UUID
	createdAt time.Time
}

// New creates a blocked slot.
func New(stableID uuid.UUID, horseID *uuid.UUID, start, end time.Time, reason string, createdBy uuid.UUID) (*BlockedSlot, error) {
	if !start.Before(end) {
		return nil, domain.NewInvalidRangeError("start time must be before end time")
	}

	return &BlockedSlot{
		id:        uuid.New(),
		stableID:  stableID,
		horseID:   horseID,
		startTime: start.UTC(),
		endTime:   end.UTC(),
		reason:    reason,
		createdBy: createdBy,
		createdAt: time.Now().UTC(),
	}, nil
}

func (s *BlockedSlot) ID() uuid.UUID        { return s.id }
func (s *BlockedSlot) StableID() uuid.UUID  { return s.stableID }
func (s *BlockedSlot) HorseID() *uuid.UUID  { return s.horseID }
func (s *BlockedSlot) StartTime() time.Time { return s.startTime }
func (s *BlockedSlot) EndTime() time.Time   { return s.endTime }
func (s *BlockedSlot) Reason() string       { return s.reason }
func (s *BlockedSlot) CreatedBy() uuid.UUID { return s.createdBy }
func (s *BlockedSlot) CreatedAt() time.Time { return s.createdAt }

// BlocksHorse reports whether this slot applies to the given horse.
func (s *BlockedSlot) BlocksHorse(horseID uuid.UUID) bool {
	return s.horseID == nil || *s.horseID == horseID
}

// Overlaps reports whether [start, end) intersects the slot's range.
func (s *BlockedSlot) Overlaps(start, end time.Time) bool {
	return start.Before(s.endTime) && s.startTime.Before(end)
}

// Reconstitute rebuilds a BlockedSlot from persisted data.
func Reconstitute(id, stableID uuid.UUID, horseID *uuid.UUID, start, end time.Time, reason string, createdBy uuid.UUID, createdAt time.Time) *BlockedSlot {
	return &BlockedSlot{
		id:        id,
		stableID:  stableID,
		horseID:   horseID,
		startTime: start,
		endTime:   end,
		reason:    reason,
		createdBy: createdBy,
		createdAt: createdAt,
	}
}
