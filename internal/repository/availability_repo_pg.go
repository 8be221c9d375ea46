package repository

import (
	"context"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/Domenick1991/matchbooking/internal/timeutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGAvailabilityRepository struct {
	db *pgxpool.Pool
}

func NewAvailabilityRepository(db *pgxpool.Pool) AvailabilityRepository {
	return &PGAvailabilityRepository{db: db}
}

const windowColumns = `id::text, owner_id, to_char(date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	is_available, is_blocked, timezone, visibility, COALESCE(notes, ''), created_at, updated_at`

func (r *PGAvailabilityRepository) CreateWindow(ctx context.Context, w *domain.AvailabilityWindow) error {
	return r.db.QueryRow(ctx, `INSERT INTO availability_windows
		(id, owner_id, date, start_time, end_time, is_available, is_blocked, timezone, visibility, notes)
		VALUES ($1, $2, $3::date, $4::time, $5::time, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		w.ID, w.OwnerID, w.Date.String(), w.Start.String(), w.End.String(),
		w.IsAvailable, w.IsBlocked, w.TimeZone, string(w.Visibility), nullString(w.Notes)).
		Scan(&w.CreatedAt, &w.UpdatedAt)
}

func (r *PGAvailabilityRepository) UpdateWindow(ctx context.Context, w *domain.AvailabilityWindow) error {
	err := r.db.QueryRow(ctx, `UPDATE availability_windows
		SET date = $2::date, start_time = $3::time, end_time = $4::time, is_available = $5, is_blocked = $6,
			timezone = $7, visibility = $8, notes = $9, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		w.ID, w.Date.String(), w.Start.String(), w.End.String(), w.IsAvailable, w.IsBlocked,
		w.TimeZone, string(w.Visibility), nullString(w.Notes)).Scan(&w.UpdatedAt)
	return notFound(err)
}

func (r *PGAvailabilityRepository) DeleteWindow(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM availability_windows WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGAvailabilityRepository) GetWindow(ctx context.Context, id string) (*domain.AvailabilityWindow, error) {
	w, err := scanWindow(r.db.QueryRow(ctx, `SELECT `+windowColumns+` FROM availability_windows WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return w, nil
}

func (r *PGAvailabilityRepository) ListWindows(ctx context.Context, ownerID string, from, to timeutil.Date) ([]domain.AvailabilityWindow, error) {
	rows, err := r.db.Query(ctx, `SELECT `+windowColumns+` FROM availability_windows
		WHERE owner_id = $1 AND date BETWEEN $2::date AND $3::date
		ORDER BY date, start_time`, ownerID, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := make([]domain.AvailabilityWindow, 0)
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		windows = append(windows, *w)
	}
	return windows, rows.Err()
}

func scanWindow(row rowScanner) (*domain.AvailabilityWindow, error) {
	var (
		w                     domain.AvailabilityWindow
		date, start, end, vis string
	)
	if err := row.Scan(&w.ID, &w.OwnerID, &date, &start, &end, &w.IsAvailable, &w.IsBlocked,
		&w.TimeZone, &vis, &w.Notes, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	rng, err := parseRange(date, start, end, w.TimeZone)
	if err != nil {
		return nil, err
	}
	w.Date, w.Start, w.End = rng.Date, rng.Start, rng.End
	w.Visibility = domain.Visibility(vis)
	return &w, nil
}

var _ AvailabilityRepository = (*PGAvailabilityRepository)(nil)
