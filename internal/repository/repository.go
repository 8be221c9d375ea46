package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/Domenick1991/matchbooking/internal/timeutil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type AvailabilityRepository interface {
	CreateWindow(ctx context.Context, w *domain.AvailabilityWindow) error
	UpdateWindow(ctx context.Context, w *domain.AvailabilityWindow) error
	DeleteWindow(ctx context.Context, id string) error
	GetWindow(ctx context.Context, id string) (*domain.AvailabilityWindow, error)
	ListWindows(ctx context.Context, ownerID string, from, to timeutil.Date) ([]domain.AvailabilityWindow, error)
}

type ClaimRepository interface {
	ListClaims(ctx context.Context, userID string, from, to time.Time) ([]domain.Claim, error)
}

// BookingRepository persists bookings together with the claims they hold.
// Create and Update are atomic: the record and its claims are written as
// one unit, and an overlapping claim fails the whole write with a
// ConflictError.
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	Get(ctx context.Context, id string) (*domain.Booking, error)
	// Update writes b if the stored version still equals b.Version, then
	// bumps b.Version.
	Update(ctx context.Context, b *domain.Booking) error
	ListForUser(ctx context.Context, userID string, statuses []domain.BookingStatus) ([]domain.Booking, error)
	ListPendingStartingBefore(ctx context.Context, t time.Time) ([]domain.Booking, error)
}

type InviteRepository interface {
	Create(ctx context.Context, inv *domain.Invite) error
	Get(ctx context.Context, id string) (*domain.Invite, error)
	Update(ctx context.Context, inv *domain.Invite) error
	ListForUser(ctx context.Context, userID string, statuses []domain.InviteStatus) ([]domain.Invite, error)
	ListOpenStartingBefore(ctx context.Context, t time.Time) ([]domain.Invite, error)
}

const sqlStateExclusionViolation = "23P01"

// isClaimConflict reports whether err came from the slot_claims exclusion
// constraint.
func isClaimConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateExclusionViolation
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func parseRange(date, start, end, zone string) (domain.TimeRange, error) {
	d, err := timeutil.ParseDate(date)
	if err != nil {
		return domain.TimeRange{}, err
	}
	s, err := timeutil.ParseTimeOfDay(start)
	if err != nil {
		return domain.TimeRange{}, err
	}
	e, err := timeutil.ParseTimeOfDay(end)
	if err != nil {
		return domain.TimeRange{}, err
	}
	return domain.TimeRange{Date: d, Start: s, End: e, TimeZone: zone}, nil
}

func parseProposal(date, start, end, zone, by *string) (*domain.Proposal, error) {
	if date == nil || start == nil || end == nil {
		return nil, nil
	}
	r, err := parseRange(*date, *start, *end, derefString(zone))
	if err != nil {
		return nil, err
	}
	return &domain.Proposal{Range: r, ProposedBy: derefString(by)}, nil
}

// proposalColumns returns the nullable column values for p.
func proposalColumns(p *domain.Proposal) (date, start, end, zone, by *string) {
	if p == nil {
		return nil, nil, nil, nil, nil
	}
	d, s, e := p.Range.Date.String(), p.Range.Start.String(), p.Range.End.String()
	return &d, &s, &e, &p.Range.TimeZone, &p.ProposedBy
}
