package domain

import (
	"time"

	"github.com/Domenick1991/matchbooking/internal/timeutil"
)

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

// AvailabilityWindow is an interval on one date that its owner declared as
// open for play, or explicitly blocked.
type AvailabilityWindow struct {
	ID          string             `json:"id"`
	OwnerID     string             `json:"owner_id"`
	Date        timeutil.Date      `json:"date"`
	Start       timeutil.TimeOfDay `json:"start_time"`
	End         timeutil.TimeOfDay `json:"end_time"`
	IsAvailable bool               `json:"is_available"`
	IsBlocked   bool               `json:"is_blocked"`
	TimeZone    string             `json:"timezone"`
	Visibility  Visibility         `json:"visibility"`
	Notes       string             `json:"notes,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Open reports whether the window adds bookable coverage.
func (w AvailabilityWindow) Open() bool {
	return w.IsAvailable && !w.IsBlocked
}

func (w AvailabilityWindow) Range() TimeRange {
	return TimeRange{Date: w.Date, Start: w.Start, End: w.End, TimeZone: w.TimeZone}
}

func (w AvailabilityWindow) Validate() error {
	if w.OwnerID == "" {
		return NewValidationError("owner_id", "is required")
	}
	if !w.Visibility.Valid() {
		return NewValidationError("visibility", "must be private or public, got %q", w.Visibility)
	}
	return w.Range().Validate()
}

// BookableUnit is a derived slice of a window that can be claimed on its own.
type BookableUnit struct {
	WindowID string             `json:"window_id"`
	Date     timeutil.Date      `json:"date"`
	Start    timeutil.TimeOfDay `json:"start_time"`
	End      timeutil.TimeOfDay `json:"end_time"`
	TimeZone string             `json:"timezone"`
	Notes    string             `json:"notes,omitempty"`
}

func (u BookableUnit) Range() TimeRange {
	return TimeRange{Date: u.Date, Start: u.Start, End: u.End, TimeZone: u.TimeZone}
}
