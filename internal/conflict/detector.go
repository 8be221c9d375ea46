// Package conflict decides whether a user's time is free and covered by
// their declared availability.
package conflict

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/Domenick1991/matchbooking/internal/timeutil"
)

// zoneDateSpread is how many calendar days apart two zones can label the
// same instant (UTC-12 against UTC+14).
const zoneDateSpread = 2

type ClaimReader interface {
	ListClaims(ctx context.Context, userID string, from, to time.Time) ([]domain.Claim, error)
}

type WindowReader interface {
	ListWindows(ctx context.Context, ownerID string, from, to timeutil.Date) ([]domain.AvailabilityWindow, error)
}

type Detector struct {
	claims  ClaimReader
	windows WindowReader
}

func NewDetector(claims ClaimReader, windows WindowReader) *Detector {
	return &Detector{claims: claims, windows: windows}
}

// IsBooked reports whether any claim of user other than exclude overlaps r.
func (d *Detector) IsBooked(ctx context.Context, userID string, r domain.TimeRange, exclude *domain.Ref) (bool, error) {
	start, end, err := r.Instants()
	if err != nil {
		return false, err
	}
	claims, err := d.claims.ListClaims(ctx, userID, start, end)
	if err != nil {
		return false, fmt.Errorf("list claims for %s: %w", userID, err)
	}
	for _, c := range claims {
		if exclude != nil && c.Ref == *exclude {
			continue
		}
		if timeutil.OverlapsInstant(start, end, c.StartsAt, c.EndsAt) {
			return true, nil
		}
	}
	return false, nil
}

// Covered reports whether r lies inside the union of user's open windows and
// touches none of their blocked windows.
func (d *Detector) Covered(ctx context.Context, userID string, r domain.TimeRange) (bool, error) {
	start, end, err := r.Instants()
	if err != nil {
		return false, err
	}
	windows, err := d.windows.ListWindows(ctx, userID, r.Date.AddDays(-zoneDateSpread), r.Date.AddDays(zoneDateSpread))
	if err != nil {
		return false, fmt.Errorf("list availability for %s: %w", userID, err)
	}
	return covers(windows, start, end), nil
}

// IsAvailable reports whether r is covered by user's availability and not booked.
func (d *Detector) IsAvailable(ctx context.Context, userID string, r domain.TimeRange, exclude *domain.Ref) (bool, error) {
	ok, err := d.Covered(ctx, userID, r)
	if err != nil || !ok {
		return false, err
	}
	booked, err := d.IsBooked(ctx, userID, r, exclude)
	if err != nil {
		return false, err
	}
	return !booked, nil
}

// Check returns a ConflictError naming why user cannot take r. Coverage is
// only required when requireCoverage is set.
func (d *Detector) Check(ctx context.Context, userID string, r domain.TimeRange, exclude *domain.Ref, requireCoverage bool) error {
	if requireCoverage {
		ok, err := d.Covered(ctx, userID, r)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.ConflictError{Reason: domain.ConflictOutsideAvailability, UserID: userID, Range: r.String()}
		}
	}
	booked, err := d.IsBooked(ctx, userID, r, exclude)
	if err != nil {
		return err
	}
	if booked {
		return &domain.ConflictError{Reason: domain.ConflictSlotTaken, UserID: userID, Range: r.String()}
	}
	return nil
}

func covers(windows []domain.AvailabilityWindow, start, end time.Time) bool {
	var open []timeutil.Interval
	for _, w := range windows {
		ws, we, err := w.Range().Instants()
		if err != nil {
			continue
		}
		if !w.Open() {
			if timeutil.OverlapsInstant(start, end, ws, we) {
				return false
			}
			continue
		}
		open = append(open, timeutil.Interval{Start: ws, End: we})
	}
	for _, iv := range timeutil.MergeIntervals(open) {
		if !iv.Start.After(start) && !iv.End.Before(end) {
			return true
		}
	}
	return false
}
