package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id::text, requester_id, opponent_id, COALESCE(availability_id::text, ''),
	to_char(date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), timezone, status,
	to_char(proposed_date, 'YYYY-MM-DD'), to_char(proposed_start_time, 'HH24:MI'), to_char(proposed_end_time, 'HH24:MI'),
	proposed_timezone, proposed_by, reschedule_count, court_location, message, starts_at, ends_at, version, created_at, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	pDate, pStart, pEnd, pZone, pBy := proposalColumns(b.Proposal)
	b.Version = 1
	if err := tx.QueryRow(ctx, `INSERT INTO bookings
		(id, requester_id, opponent_id, availability_id, date, start_time, end_time, timezone, status,
		 proposed_date, proposed_start_time, proposed_end_time, proposed_timezone, proposed_by,
		 reschedule_count, court_location, message, starts_at, ends_at, version)
		VALUES ($1, $2, $3, $4, $5::date, $6::time, $7::time, $8, $9,
		 $10::date, $11::time, $12::time, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING created_at, updated_at`,
		b.ID, b.RequesterID, b.OpponentID, nullString(b.AvailabilityID),
		b.Range.Date.String(), b.Range.Start.String(), b.Range.End.String(), b.Range.TimeZone, string(b.Status),
		pDate, pStart, pEnd, pZone, pBy,
		b.RescheduleCount, nullString(b.Location), nullString(b.Message), b.StartsAt, b.EndsAt, b.Version).
		Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return err
	}

	if err := replaceClaims(ctx, tx, domain.Ref{Kind: domain.RefBooking, ID: b.ID}, b.Claims()); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGBookingRepository) Get(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

const updateBookingSQL = `UPDATE bookings
	SET date = $3::date, start_time = $4::time, end_time = $5::time, timezone = $6, status = $7,
		proposed_date = $8::date, proposed_start_time = $9::time, proposed_end_time = $10::time,
		proposed_timezone = $11, proposed_by = $12, reschedule_count = $13,
		starts_at = $14, ends_at = $15, availability_id = $16, version = version + 1, updated_at = now()
	WHERE id = $1 AND version = $2
	RETURNING version, updated_at`

// updateBookingArgs lines b up with the placeholders of updateBookingSQL.
func updateBookingArgs(b *domain.Booking) []any {
	pDate, pStart, pEnd, pZone, pBy := proposalColumns(b.Proposal)
	return []any{
		b.ID, b.Version, b.Range.Date.String(), b.Range.Start.String(), b.Range.End.String(), b.Range.TimeZone,
		string(b.Status), pDate, pStart, pEnd, pZone, pBy, b.RescheduleCount, b.StartsAt, b.EndsAt,
		nullString(b.AvailabilityID),
	}
}

func (r *PGBookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var version int64
	var updatedAt time.Time
	err = tx.QueryRow(ctx, updateBookingSQL, updateBookingArgs(b)...).
		Scan(&version, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.ConflictError{Reason: domain.ConflictConcurrentUpdate}
		}
		return err
	}

	if err := replaceClaims(ctx, tx, domain.Ref{Kind: domain.RefBooking, ID: b.ID}, b.Claims()); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	b.Version, b.UpdatedAt = version, updatedAt
	return nil
}

func (r *PGBookingRepository) ListForUser(ctx context.Context, userID string, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	filter := make([]string, 0, len(statuses))
	for _, s := range statuses {
		filter = append(filter, string(s))
	}
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE (requester_id = $1 OR opponent_id = $1)
			AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		ORDER BY starts_at`, userID, filter)
}

func (r *PGBookingRepository) ListPendingStartingBefore(ctx context.Context, t time.Time) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status = $1 AND starts_at <= $2
		ORDER BY starts_at`, string(domain.BookingStatusPending), t)
}

func (r *PGBookingRepository) list(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b                               domain.Booking
		date, start, end, zone, status  string
		pDate, pStart, pEnd, pZone, pBy *string
		location, message               *string
	)
	if err := row.Scan(&b.ID, &b.RequesterID, &b.OpponentID, &b.AvailabilityID,
		&date, &start, &end, &zone, &status,
		&pDate, &pStart, &pEnd, &pZone, &pBy,
		&b.RescheduleCount, &location, &message, &b.StartsAt, &b.EndsAt, &b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	rng, err := parseRange(date, start, end, zone)
	if err != nil {
		return nil, err
	}
	proposal, err := parseProposal(pDate, pStart, pEnd, pZone, pBy)
	if err != nil {
		return nil, err
	}
	b.Range = rng
	b.Status = domain.BookingStatus(status)
	b.Proposal = proposal
	b.Location = derefString(location)
	b.Message = derefString(message)
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
