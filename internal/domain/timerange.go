package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/matchbooking/internal/timeutil"
)

// TimeRange is a wall-clock range on one date in a named zone.
type TimeRange struct {
	Date     timeutil.Date      `json:"date"`
	Start    timeutil.TimeOfDay `json:"start_time"`
	End      timeutil.TimeOfDay `json:"end_time"`
	TimeZone string             `json:"timezone"`
}

// NewTimeRange parses the textual form of a range and validates it.
func NewTimeRange(date, start, end, zone string) (TimeRange, error) {
	d, err := timeutil.ParseDate(date)
	if err != nil {
		return TimeRange{}, asValidation("date", err)
	}
	s, err := timeutil.ParseTimeOfDay(start)
	if err != nil {
		return TimeRange{}, asValidation("start_time", err)
	}
	e, err := timeutil.ParseTimeOfDay(end)
	if err != nil {
		return TimeRange{}, asValidation("end_time", err)
	}
	r := TimeRange{Date: d, Start: s, End: e, TimeZone: zone}
	if err := r.Validate(); err != nil {
		return TimeRange{}, err
	}
	return r, nil
}

func (r TimeRange) Validate() error {
	if r.Date.IsZero() {
		return NewValidationError("date", "is required")
	}
	if !r.Start.Valid() || !r.End.Valid() {
		return NewValidationError("start_time", "must be within the day")
	}
	if r.Start >= r.End {
		return NewValidationError("end_time", "must be after start_time (%s >= %s)", r.Start, r.End)
	}
	if _, err := timeutil.LoadZone(r.TimeZone); err != nil {
		return asValidation("timezone", err)
	}
	return nil
}

// Instants returns the absolute [start, end) of the range in UTC.
func (r TimeRange) Instants() (time.Time, time.Time, error) {
	start, err := timeutil.Instant(r.Date, r.Start, r.TimeZone)
	if err != nil {
		return time.Time{}, time.Time{}, asValidation("timezone", err)
	}
	end, err := timeutil.Instant(r.Date, r.End, r.TimeZone)
	if err != nil {
		return time.Time{}, time.Time{}, asValidation("timezone", err)
	}
	return start, end, nil
}

func (r TimeRange) Duration() time.Duration {
	return timeutil.Duration(r.Start, r.End)
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%s %s-%s %s", r.Date, r.Start, r.End, r.TimeZone)
}

func asValidation(field string, err error) error {
	var pe *timeutil.ParseError
	if errors.As(err, &pe) {
		return &ValidationError{Field: field, Message: pe.Error()}
	}
	return &ValidationError{Field: field, Message: err.Error()}
}
