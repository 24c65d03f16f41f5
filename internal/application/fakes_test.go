package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/stablebook/service-booking/internal/domain/booking"
	membershipDomain "github.com/stablebook/service-booking/internal/domain/membership"
	promoDomain "github.com/stablebook/service-booking/internal/domain/promo"
	slotDomain "github.com/stablebook/service-booking/internal/domain/slot"
	"github.com/stablebook/service-booking/internal/domain/stable"
	"github.com/stablebook/service-booking/pkg/domain"
	"github.com/stablebook/service-booking/pkg/kafka"
)

// memStore backs the fake repositories. The booking and slot repositories
// share it so the conflict check spans both calendars, matching the
// transactional check the real repositories run.
type memStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	slots    map[uuid.UUID]*slotDomain.BlockedSlot
}

func newMemStore() *memStore {
	return &memStore{
		bookings: make(map[uuid.UUID]*bookingDomain.Booking),
		slots:    make(map[uuid.UUID]*slotDomain.BlockedSlot),
	}
}

// findConflict reports the first active entry overlapping [start, end) on
// the horse's calendar. Callers must hold the lock.
func (st *memStore) findConflict(horseID, stableID uuid.UUID, start, end time.Time) error {
	for _, other := range st.bookings {
		if other.HorseID() == horseID && other.IsActive() && other.Overlaps(start, end) {
			return domain.NewSlotConflictError("booking", other.ID().String())
		}
	}
	for _, bl := range st.slots {
		if bl.StableID() == stableID && bl.BlocksHorse(horseID) && bl.Overlaps(start, end) {
			return domain.NewSlotConflictError("blocked_slot", bl.ID().String())
		}
	}
	return nil
}

type fakeBookingRepo struct {
	store *memStore
}

func (r *fakeBookingRepo) CreateIfNoOverlap(ctx context.Context, b *bookingDomain.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.findConflict(b.HorseID(), b.StableID(), b.StartTime(), b.EndTime()); err != nil {
		return err
	}
	r.store.bookings[b.ID()] = b
	return nil
}

func (r *fakeBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return b, nil
}

func (r *fakeBookingRepo) ListByRider(ctx context.Context, riderID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.store.bookings {
		if b.RiderID() == riderID {
			out = append(out, b)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) ListByStable(ctx context.Context, stableID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.store.bookings {
		if b.StableID() == stableID {
			out = append(out, b)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.store.bookings {
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) FindActiveInRange(ctx context.Context, horseID uuid.UUID, from, to time.Time) ([]*bookingDomain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.store.bookings {
		if b.HorseID() == horseID && b.IsActive() && b.Overlaps(from, to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) Update(ctx context.Context, b *bookingDomain.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.bookings[b.ID()]; !ok {
		return domain.NewNotFoundError("Booking", b.ID().String())
	}
	r.store.bookings[b.ID()] = b
	return nil
}

func (r *fakeBookingRepo) FindCompletionCandidates(ctx context.Context, now time.Time, limit int) ([]*bookingDomain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.store.bookings {
		if b.Status() == bookingDomain.StatusConfirmed && b.EndTime().Before(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.bookings[id]
	if !ok {
		return false, nil
	}
	if b.Status() != bookingDomain.StatusConfirmed || !b.EndTime().Before(now) {
		return false, nil
	}
	if err := b.Complete(now); err != nil {
		return false, err
	}
	b.IncrementVersion()
	return true, nil
}

func (r *fakeBookingRepo) FindReminderCandidates(ctx context.Context, windowStart, windowEnd time.Time) ([]*bookingDomain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.store.bookings {
		if b.Status() != bookingDomain.StatusConfirmed || b.ReminderSent() {
			continue
		}
		if b.StartTime().After(windowStart) && !b.StartTime().After(windowEnd) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) MarkReminded(ctx context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.bookings[id]
	if !ok || b.ReminderSent() || b.Status() != bookingDomain.StatusConfirmed {
		return false, nil
	}
	b.MarkReminded()
	return true, nil
}

func (r *fakeBookingRepo) GetStats(ctx context.Context) (map[string]int64, int64, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	counts := make(map[string]int64)
	var revenue, commission int64
	for _, b := range r.store.bookings {
		counts[string(b.Status())]++
		if b.Status() == bookingDomain.StatusConfirmed || b.Status() == bookingDomain.StatusCompleted {
			revenue += b.TotalPriceCents()
			commission += b.CommissionCents()
		}
	}
	return counts, revenue, commission, nil
}

type fakeSlotRepo struct {
	store *memStore
}

func (r *fakeSlotRepo) CreateIfNoOverlap(ctx context.Context, s *slotDomain.BlockedSlot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, b := range r.store.bookings {
		if b.StableID() == s.StableID() && s.BlocksHorse(b.HorseID()) && b.IsActive() && b.Overlaps(s.StartTime(), s.EndTime()) {
			return domain.NewSlotConflictError("booking", b.ID().String())
		}
	}
	r.store.slots[s.ID()] = s
	return nil
}

func (r *fakeSlotRepo) FindByID(ctx context.Context, id uuid.UUID) (*slotDomain.BlockedSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.slots[id]
	if !ok {
		return nil, domain.NewNotFoundError("BlockedSlot", id.String())
	}
	return s, nil
}

func (r *fakeSlotRepo) ListByStable(ctx context.Context, stableID uuid.UUID) ([]*slotDomain.BlockedSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*slotDomain.BlockedSlot
	for _, s := range r.store.slots {
		if s.StableID() == stableID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) FindForHorseInRange(ctx context.Context, stableID, horseID uuid.UUID, from, to time.Time) ([]*slotDomain.BlockedSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*slotDomain.BlockedSlot
	for _, s := range r.store.slots {
		if s.StableID() == stableID && s.BlocksHorse(horseID) && s.Overlaps(from, to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.slots[id]; !ok {
		return domain.NewNotFoundError("BlockedSlot", id.String())
	}
	delete(r.store.slots, id)
	return nil
}

type fakePromoRepo struct {
	mu     sync.Mutex
	promos map[uuid.UUID]*promoDomain.PromoCode
	usages []*promoDomain.Usage
}

func newFakePromoRepo() *fakePromoRepo {
	return &fakePromoRepo{promos: make(map[uuid.UUID]*promoDomain.PromoCode)}
}

func (r *fakePromoRepo) Save(ctx context.Context, p *promoDomain.PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promos[p.ID()] = p
	return nil
}

func (r *fakePromoRepo) Update(ctx context.Context, p *promoDomain.PromoCode) error {
	return r.Save(ctx, p)
}

func (r *fakePromoRepo) FindByCode(ctx context.Context, code string) (*promoDomain.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.promos {
		if p.Code() == code {
			return p, nil
		}
	}
	return nil, domain.NewNotFoundError("PromoCode", code)
}

func (r *fakePromoRepo) FindByID(ctx context.Context, id uuid.UUID) (*promoDomain.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[id]
	if !ok {
		return nil, domain.NewNotFoundError("PromoCode", id.String())
	}
	return p, nil
}

func (r *fakePromoRepo) FindActive(ctx context.Context, now time.Time) ([]*promoDomain.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*promoDomain.PromoCode
	for _, p := range r.promos {
		if p.IsValidAt(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePromoRepo) SaveUsage(ctx context.Context, usage *promoDomain.Usage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usages = append(r.usages, usage)
	return nil
}

func (r *fakePromoRepo) DeleteUsage(ctx context.Context, promoID, bookingID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.usages {
		if u.PromoID == promoID && u.BookingID == bookingID {
			r.usages = append(r.usages[:i], r.usages[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakePromoRepo) HasUserUsedPromo(ctx context.Context, promoID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.usages {
		if u.PromoID == promoID && u.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeMembershipRepo struct {
	mu          sync.Mutex
	memberships map[uuid.UUID]*membershipDomain.Membership
	now         func() time.Time
}

func newFakeMembershipRepo(now func() time.Time) *fakeMembershipRepo {
	return &fakeMembershipRepo{
		memberships: make(map[uuid.UUID]*membershipDomain.Membership),
		now:         now,
	}
}

func (r *fakeMembershipRepo) Save(ctx context.Context, m *membershipDomain.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memberships[m.ID()] = m
	return nil
}

func (r *fakeMembershipRepo) Update(ctx context.Context, m *membershipDomain.Membership) error {
	return r.Save(ctx, m)
}

func (r *fakeMembershipRepo) FindByID(ctx context.Context, id uuid.UUID) (*membershipDomain.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.memberships[id]
	if !ok {
		return nil, domain.NewNotFoundError("Membership", id.String())
	}
	return m, nil
}

func (r *fakeMembershipRepo) FindActiveByRider(ctx context.Context, riderID uuid.UUID) (*membershipDomain.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.memberships {
		if m.RiderID() == riderID && m.IsActiveAt(r.now()) {
			return m, nil
		}
	}
	return nil, domain.NewNotFoundError("Membership", riderID.String())
}

type fakeStableDirectory struct {
	owners map[uuid.UUID]uuid.UUID // stableID -> ownerID
	horses map[uuid.UUID]*stable.Horse
}

func newFakeStableDirectory() *fakeStableDirectory {
	return &fakeStableDirectory{
		owners: make(map[uuid.UUID]uuid.UUID),
		horses: make(map[uuid.UUID]*stable.Horse),
	}
}

func (d *fakeStableDirectory) addStable(ownerID uuid.UUID) uuid.UUID {
	stableID := uuid.New()
	d.owners[stableID] = ownerID
	return stableID
}

func (d *fakeStableDirectory) addHorse(stableID uuid.UUID, hourlyRateCents int64) uuid.UUID {
	h := &stable.Horse{ID: uuid.New(), StableID: stableID, Name: "Copper", HourlyRateCents: hourlyRateCents}
	d.horses[h.ID] = h
	return h.ID
}

func (d *fakeStableDirectory) OwnerID(ctx context.Context, stableID uuid.UUID) (uuid.UUID, error) {
	ownerID, ok := d.owners[stableID]
	if !ok {
		return uuid.Nil, domain.NewNotFoundError("Stable", stableID.String())
	}
	return ownerID, nil
}

func (d *fakeStableDirectory) FindHorse(ctx context.Context, horseID uuid.UUID) (*stable.Horse, error) {
	h, ok := d.horses[horseID]
	if !ok {
		return nil, domain.NewNotFoundError("Horse", horseID.String())
	}
	return h, nil
}

// fakePublisher records published events in order.
type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *fakePublisher) PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) eventsOfType(eventType string) []kafka.CloudEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []kafka.CloudEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeNotifier counts dispatches and can be told to fail.
type fakeNotifier struct {
	mu         sync.Mutex
	reminders  map[uuid.UUID]int // bookingID -> dispatch count
	cancels    int
	failNextN  int
	lastReason string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{reminders: make(map[uuid.UUID]int)}
}

func (n *fakeNotifier) SendBookingReminder(ctx context.Context, riderID, bookingID uuid.UUID, startTime time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failNextN > 0 {
		n.failNextN--
		return context.DeadlineExceeded
	}
	n.reminders[bookingID]++
	return nil
}

func (n *fakeNotifier) SendBookingCancelled(ctx context.Context, riderID, bookingID uuid.UUID, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancels++
	n.lastReason = reason
	return nil
}

func (n *fakeNotifier) reminderCount(bookingID uuid.UUID) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.reminders[bookingID]
}
