package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGClaimRepository struct {
	db *pgxpool.Pool
}

func NewClaimRepository(db *pgxpool.Pool) ClaimRepository {
	return &PGClaimRepository{db: db}
}

func (r *PGClaimRepository) ListClaims(ctx context.Context, userID string, from, to time.Time) ([]domain.Claim, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id, ref_kind, ref_id::text, lower(during), upper(during)
		FROM slot_claims
		WHERE user_id = $1 AND during && tstzrange($2, $3, '[)')
		ORDER BY lower(during)`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []domain.Claim
	for rows.Next() {
		var c domain.Claim
		var kind string
		if err := rows.Scan(&c.UserID, &kind, &c.Ref.ID, &c.StartsAt, &c.EndsAt); err != nil {
			return nil, err
		}
		c.Ref.Kind = domain.RefKind(kind)
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// replaceClaims drops every claim held by ref and inserts claims in their
// place inside tx. The exclusion constraint rejects overlaps.
func replaceClaims(ctx context.Context, tx pgx.Tx, ref domain.Ref, claims []domain.Claim) error {
	if _, err := tx.Exec(ctx, `DELETE FROM slot_claims WHERE ref_kind = $1 AND ref_id = $2`, string(ref.Kind), ref.ID); err != nil {
		return err
	}
	for _, c := range claims {
		_, err := tx.Exec(ctx, `INSERT INTO slot_claims (user_id, ref_kind, ref_id, during)
			VALUES ($1, $2, $3, tstzrange($4, $5, '[)'))`, c.UserID, string(c.Ref.Kind), c.Ref.ID, c.StartsAt, c.EndsAt)
		if err != nil {
			if isClaimConflict(err) {
				return &domain.ConflictError{Reason: domain.ConflictSlotTaken, UserID: c.UserID}
			}
			return err
		}
	}
	return nil
}

var _ ClaimRepository = (*PGClaimRepository)(nil)
