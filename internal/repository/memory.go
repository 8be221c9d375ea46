package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/Domenick1991/matchbooking/internal/timeutil"
)

// MemoryStore keeps windows, bookings, invites and claims in process. One
// mutex guards all of them, so a record write and its claim check are a
// single atomic step.
type MemoryStore struct {
	mu       sync.Mutex
	now      func() time.Time
	windows  map[string]domain.AvailabilityWindow
	bookings map[string]domain.Booking
	invites  map[string]domain.Invite
	claims   map[domain.Ref][]domain.Claim
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:      time.Now,
		windows:  make(map[string]domain.AvailabilityWindow),
		bookings: make(map[string]domain.Booking),
		invites:  make(map[string]domain.Invite),
		claims:   make(map[domain.Ref][]domain.Claim),
	}
}

func (s *MemoryStore) Availability() AvailabilityRepository { return memoryWindows{s} }
func (s *MemoryStore) Bookings() BookingRepository { return memoryBookings{s} }
func (s *MemoryStore) Invites() InviteRepository { return memoryInvites{s} }

func (s *MemoryStore) ListClaims(_ context.Context, userID string, from, to time.Time) ([]domain.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Claim
	for _, claims := range s.claims {
		for _, c := range claims {
			if c.UserID == userID && timeutil.OverlapsInstant(from, to, c.StartsAt, c.EndsAt) {
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

// replaceClaimsLocked swaps the claims held by ref. On conflict the previous
// claims are left untouched.
func (s *MemoryStore) replaceClaimsLocked(ref domain.Ref, claims []domain.Claim) error {
	for _, c := range claims {
		for other, held := range s.claims {
			if other == ref {
				continue
			}
			for _, h := range held {
				if h.UserID == c.UserID && timeutil.OverlapsInstant(c.StartsAt, c.EndsAt, h.StartsAt, h.EndsAt) {
					return &domain.ConflictError{Reason: domain.ConflictSlotTaken, UserID: c.UserID}
				}
			}
		}
	}
	if len(claims) == 0 {
		delete(s.claims, ref)
		return nil
	}
	s.claims[ref] = append([]domain.Claim(nil), claims...)
	return nil
}

type memoryWindows struct{ s *MemoryStore }

func (m memoryWindows) CreateWindow(_ context.Context, w *domain.AvailabilityWindow) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	now := m.s.now()
	w.CreatedAt, w.UpdatedAt = now, now
	m.s.windows[w.ID] = *w
	return nil
}

func (m memoryWindows) UpdateWindow(_ context.Context, w *domain.AvailabilityWindow) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	current, ok := m.s.windows[w.ID]
	if !ok {
		return domain.ErrNotFound
	}
	w.CreatedAt = current.CreatedAt
	w.UpdatedAt = m.s.now()
	m.s.windows[w.ID] = *w
	return nil
}

func (m memoryWindows) DeleteWindow(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.windows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.s.windows, id)
	return nil
}

func (m memoryWindows) GetWindow(_ context.Context, id string) (*domain.AvailabilityWindow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	w, ok := m.s.windows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &w, nil
}

func (m memoryWindows) ListWindows(_ context.Context, ownerID string, from, to timeutil.Date) ([]domain.AvailabilityWindow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	out := make([]domain.AvailabilityWindow, 0)
	for _, w := range m.s.windows {
		if w.OwnerID != ownerID || w.Date.Before(from) || w.Date.After(to) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type memoryBookings struct{ s *MemoryStore }

func (m memoryBookings) Create(_ context.Context, b *domain.Booking) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if err := m.s.replaceClaimsLocked(domain.Ref{Kind: domain.RefBooking, ID: b.ID}, b.Claims()); err != nil {
		return err
	}
	now := m.s.now()
	b.Version = 1
	b.CreatedAt, b.UpdatedAt = now, now
	m.s.bookings[b.ID] = copyBooking(*b)
	return nil
}

func (m memoryBookings) Get(_ context.Context, id string) (*domain.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	b, ok := m.s.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyBooking(b)
	return &out, nil
}

func (m memoryBookings) Update(_ context.Context, b *domain.Booking) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	current, ok := m.s.bookings[b.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if current.Version != b.Version {
		return &domain.ConflictError{Reason: domain.ConflictConcurrentUpdate}
	}
	if err := m.s.replaceClaimsLocked(domain.Ref{Kind: domain.RefBooking, ID: b.ID}, b.Claims()); err != nil {
		return err
	}
	b.Version++
	b.UpdatedAt = m.s.now()
	m.s.bookings[b.ID] = copyBooking(*b)
	return nil
}

func (m memoryBookings) ListForUser(_ context.Context, userID string, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	out := make([]domain.Booking, 0)
	for _, b := range m.s.bookings {
		if !b.Involves(userID) || !hasStatus(statuses, b.Status) {
			continue
		}
		out = append(out, copyBooking(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (m memoryBookings) ListPendingStartingBefore(_ context.Context, t time.Time) ([]domain.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	out := make([]domain.Booking, 0)
	for _, b := range m.s.bookings {
		if b.Status == domain.BookingStatusPending && !b.StartsAt.After(t) {
			out = append(out, copyBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

type memoryInvites struct{ s *MemoryStore }

func (m memoryInvites) Create(_ context.Context, inv *domain.Invite) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if err := m.s.replaceClaimsLocked(domain.Ref{Kind: domain.RefInvite, ID: inv.ID}, inv.Claims()); err != nil {
		return err
	}
	now := m.s.now()
	inv.Version = 1
	inv.CreatedAt, inv.UpdatedAt = now, now
	m.s.invites[inv.ID] = copyInvite(*inv)
	return nil
}

func (m memoryInvites) Get(_ context.Context, id string) (*domain.Invite, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	inv, ok := m.s.invites[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyInvite(inv)
	return &out, nil
}

func (m memoryInvites) Update(_ context.Context, inv *domain.Invite) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	current, ok := m.s.invites[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if current.Version != inv.Version {
		return &domain.ConflictError{Reason: domain.ConflictConcurrentUpdate}
	}
	if err := m.s.replaceClaimsLocked(domain.Ref{Kind: domain.RefInvite, ID: inv.ID}, inv.Claims()); err != nil {
		return err
	}
	inv.Version++
	inv.UpdatedAt = m.s.now()
	m.s.invites[inv.ID] = copyInvite(*inv)
	return nil
}

func (m memoryInvites) ListForUser(_ context.Context, userID string, statuses []domain.InviteStatus) ([]domain.Invite, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	out := make([]domain.Invite, 0)
	for _, inv := range m.s.invites {
		if !inv.Involves(userID) || !hasStatus(statuses, inv.Status) {
			continue
		}
		out = append(out, copyInvite(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (m memoryInvites) ListOpenStartingBefore(_ context.Context, t time.Time) ([]domain.Invite, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	out := make([]domain.Invite, 0)
	for _, inv := range m.s.invites {
		if inv.Status.Open() && !inv.StartsAt.After(t) {
			out = append(out, copyInvite(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func hasStatus[S comparable](statuses []S, s S) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, want := range statuses {
		if want == s {
			return true
		}
	}
	return false
}

func copyBooking(b domain.Booking) domain.Booking {
	if b.Proposal != nil {
		p := *b.Proposal
		b.Proposal = &p
	}
	return b
}

func copyInvite(inv domain.Invite) domain.Invite {
	if inv.Proposal != nil {
		p := *inv.Proposal
		inv.Proposal = &p
	}
	return inv
}

var (
	_ ClaimRepository        = (*MemoryStore)(nil)
	_ AvailabilityRepository = memoryWindows{}
	_ BookingRepository      = memoryBookings{}
	_ InviteRepository       = memoryInvites{}
)
