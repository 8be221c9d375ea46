package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGInviteRepository struct {
	db *pgxpool.Pool
}

func NewInviteRepository(db *pgxpool.Pool) InviteRepository {
	return &PGInviteRepository{db: db}
}

const inviteColumns = `id::text, sender_id, receiver_id,
	to_char(date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), timezone, status,
	reschedule_count, to_char(proposed_date, 'YYYY-MM-DD'), to_char(proposed_start_time, 'HH24:MI'),
	to_char(proposed_end_time, 'HH24:MI'), proposed_timezone, proposed_by, cancellation_reason, location, message,
	starts_at, ends_at, version, created_at, updated_at`

func (r *PGInviteRepository) Create(ctx context.Context, inv *domain.Invite) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	pDate, pStart, pEnd, pZone, pBy := proposalColumns(inv.Proposal)
	inv.Version = 1
	if err := tx.QueryRow(ctx, `INSERT INTO invites
		(id, sender_id, receiver_id, date, start_time, end_time, timezone, status, reschedule_count,
		 proposed_date, proposed_start_time, proposed_end_time, proposed_timezone, proposed_by,
		 cancellation_reason, location, message, starts_at, ends_at, version)
		VALUES ($1, $2, $3, $4::date, $5::time, $6::time, $7, $8, $9,
		 $10::date, $11::time, $12::time, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING created_at, updated_at`,
		inv.ID, inv.SenderID, inv.ReceiverID, inv.Range.Date.String(), inv.Range.Start.String(), inv.Range.End.String(),
		inv.Range.TimeZone, string(inv.Status), inv.RescheduleCount,
		pDate, pStart, pEnd, pZone, pBy,
		nullString(inv.CancellationReason), nullString(inv.Location), nullString(inv.Message),
		inv.StartsAt, inv.EndsAt, inv.Version).
		Scan(&inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return err
	}

	if err := replaceClaims(ctx, tx, domain.Ref{Kind: domain.RefInvite, ID: inv.ID}, inv.Claims()); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGInviteRepository) Get(ctx context.Context, id string) (*domain.Invite, error) {
	inv, err := scanInvite(r.db.QueryRow(ctx, `SELECT `+inviteColumns+` FROM invites WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return inv, nil
}

func (r *PGInviteRepository) Update(ctx context.Context, inv *domain.Invite) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	pDate, pStart, pEnd, pZone, pBy := proposalColumns(inv.Proposal)
	var version int64
	var updatedAt time.Time
	err = tx.QueryRow(ctx, `UPDATE invites
		SET date = $3::date, start_time = $4::time, end_time = $5::time, timezone = $6, status = $7,
			reschedule_count = $8, proposed_date = $9::date, proposed_start_time = $10::time,
			proposed_end_time = $11::time, proposed_timezone = $12, proposed_by = $13,
			cancellation_reason = $14, starts_at = $15, ends_at = $16, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at`,
		inv.ID, inv.Version, inv.Range.Date.String(), inv.Range.Start.String(), inv.Range.End.String(),
		inv.Range.TimeZone, string(inv.Status), inv.RescheduleCount, pDate, pStart, pEnd, pZone, pBy,
		nullString(inv.CancellationReason), inv.StartsAt, inv.EndsAt).
		Scan(&version, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.ConflictError{Reason: domain.ConflictConcurrentUpdate}
		}
		return err
	}

	if err := replaceClaims(ctx, tx, domain.Ref{Kind: domain.RefInvite, ID: inv.ID}, inv.Claims()); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	inv.Version, inv.UpdatedAt = version, updatedAt
	return nil
}

func (r *PGInviteRepository) ListForUser(ctx context.Context, userID string, statuses []domain.InviteStatus) ([]domain.Invite, error) {
	filter := make([]string, 0, len(statuses))
	for _, s := range statuses {
		filter = append(filter, string(s))
	}
	return r.list(ctx, `SELECT `+inviteColumns+` FROM invites
		WHERE (sender_id = $1 OR receiver_id = $1)
			AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		ORDER BY starts_at`, userID, filter)
}

func (r *PGInviteRepository) ListOpenStartingBefore(ctx context.Context, t time.Time) ([]domain.Invite, error) {
	return r.list(ctx, `SELECT `+inviteColumns+` FROM invites
		WHERE status IN ($1, $2) AND starts_at <= $3
		ORDER BY starts_at`, string(domain.InviteStatusPending), string(domain.InviteStatusRescheduled), t)
}

func (r *PGInviteRepository) list(ctx context.Context, query string, args ...any) ([]domain.Invite, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := make([]domain.Invite, 0)
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, *inv)
	}
	return invites, rows.Err()
}

func scanInvite(row rowScanner) (*domain.Invite, error) {
	var (
		inv                             domain.Invite
		date, start, end, zone, status  string
		pDate, pStart, pEnd, pZone, pBy *string
		reason, location, message       *string
	)
	if err := row.Scan(&inv.ID, &inv.SenderID, &inv.ReceiverID,
		&date, &start, &end, &zone, &status, &inv.RescheduleCount,
		&pDate, &pStart, &pEnd, &pZone, &pBy, &reason, &location, &message,
		&inv.StartsAt, &inv.EndsAt, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
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
	inv.Range = rng
	inv.Status = domain.InviteStatus(status)
	inv.Proposal = proposal
	inv.CancellationReason = derefString(reason)
	inv.Location = derefString(location)
	inv.Message = derefString(message)
	return &inv, nil
}

var _ InviteRepository = (*PGInviteRepository)(nil)
