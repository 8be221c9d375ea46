// Package slots turns availability windows into atomic bookable units.
package slots

import (
	"sort"
	"time"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/Domenick1991/matchbooking/internal/timeutil"
)

// DefaultUnit is the length of a bookable unit.
const DefaultUnit = time.Hour

// TakenFunc reports whether a unit's range is already held.
type TakenFunc func(r domain.TimeRange) (bool, error)

// Decompose splits [w.Start, w.End) into consecutive units of length unit.
// A trailing remainder shorter than unit is dropped.
func Decompose(w domain.AvailabilityWindow, unit time.Duration) []domain.BookableUnit {
	if unit <= 0 || w.Start >= w.End {
		return nil
	}
	var units []domain.BookableUnit
	for s := w.Start; s.Add(unit) <= w.End; s = s.Add(unit) {
		units = append(units, domain.BookableUnit{
			WindowID: w.ID,
			Date:     w.Date,
			Start:    s,
			End:      s.Add(unit),
			TimeZone: w.TimeZone,
			Notes:    w.Notes,
		})
	}
	return units
}

// Flatten merges the open windows of each zone and date into one coverage,
// cuts out every span held by a blocked or closed window, and decomposes
// what remains into whole units ordered by absolute start. Returned units
// never overlap each other. A unit belongs to the first window that
// contains its start.
func Flatten(windows []domain.AvailabilityWindow, unit time.Duration) []domain.BookableUnit {
	if unit <= 0 {
		return nil
	}
	type groupKey struct {
		zone string
		date timeutil.Date
	}
	type member struct {
		w  domain.AvailabilityWindow
		iv timeutil.Interval
	}

	var cut []timeutil.Interval
	groups := make(map[groupKey][]member)
	var order []groupKey
	for _, w := range windows {
		start, end, err := w.Range().Instants()
		if err != nil || !start.Before(end) {
			continue
		}
		iv := timeutil.Interval{Start: start, End: end}
		if !w.Open() {
			cut = append(cut, iv)
			continue
		}
		k := groupKey{zone: w.TimeZone, date: w.Date}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], member{w: w, iv: iv})
	}

	type placed struct {
		unit       domain.BookableUnit
		start, end time.Time
	}
	var all []placed
	for _, k := range order {
		members := groups[k]
		loc, err := timeutil.LoadZone(k.zone)
		if err != nil {
			continue
		}
		spans := make([]timeutil.Interval, 0, len(members))
		for _, m := range members {
			spans = append(spans, m.iv)
		}
		for _, seg := range timeutil.SubtractIntervals(timeutil.MergeIntervals(spans), cut) {
			for s := seg.Start; !s.Add(unit).After(seg.End); s = s.Add(unit) {
				e := s.Add(unit)
				owner := members[0].w
				for _, m := range members {
					if !s.Before(m.iv.Start) && s.Before(m.iv.End) {
						owner = m.w
						break
					}
				}
				all = append(all, placed{
					unit: domain.BookableUnit{
						WindowID: owner.ID,
						Date:     k.date,
						Start:    wallClock(s, loc, k.date),
						End:      wallClock(e, loc, k.date),
						TimeZone: k.zone,
						Notes:    owner.Notes,
					},
					start: s,
					end:   e,
				})
			}
		}
	}

	// the same instants declared in two zones must not yield two units
	sort.SliceStable(all, func(i, j int) bool { return all[i].start.Before(all[j].start) })
	out := make([]domain.BookableUnit, 0, len(all))
	var lastEnd time.Time
	for _, p := range all {
		if len(out) > 0 && p.start.Before(lastEnd) {
			continue
		}
		out = append(out, p.unit)
		lastEnd = p.end
	}
	return out
}

// AvailableUnits flattens windows into units and removes the ones taken
// reports as held.
func AvailableUnits(windows []domain.AvailabilityWindow, unit time.Duration, taken TakenFunc) ([]domain.BookableUnit, error) {
	all := Flatten(windows, unit)
	if taken == nil {
		return all, nil
	}
	free := make([]domain.BookableUnit, 0, len(all))
	for _, u := range all {
		held, err := taken(u.Range())
		if err != nil {
			return nil, err
		}
		if !held {
			free = append(free, u)
		}
	}
	return free, nil
}

// LocalUnit is a unit as seen from a viewer's zone. LocalDate is the viewer's
// calendar date of LocalStart; LocalEnd may wrap past midnight.
type LocalUnit struct {
	domain.BookableUnit
	LocalDate  timeutil.Date      `json:"local_date"`
	LocalStart timeutil.TimeOfDay `json:"local_start_time"`
	LocalEnd   timeutil.TimeOfDay `json:"local_end_time"`
	LocalZone  string             `json:"local_timezone"`
}

// Localize converts units into the viewer's zone for display.
func Localize(units []domain.BookableUnit, viewerZone string) ([]LocalUnit, error) {
	out := make([]LocalUnit, 0, len(units))
	for _, u := range units {
		start, offset, err := timeutil.ConvertTime(u.Start, u.TimeZone, viewerZone, u.Date)
		if err != nil {
			return nil, err
		}
		end, _, err := timeutil.ConvertTime(u.End, u.TimeZone, viewerZone, u.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, LocalUnit{
			BookableUnit: u,
			LocalDate:    u.Date.AddDays(offset),
			LocalStart:   start,
			LocalEnd:     end,
			LocalZone:    viewerZone,
		})
	}
	return out, nil
}

// wallClock returns t as a time of day on date in loc. The midnight that
// ends date is reported as 24:00.
func wallClock(t time.Time, loc *time.Location, date timeutil.Date) timeutil.TimeOfDay {
	local := t.In(loc)
	if timeutil.DateOf(local).After(date) {
		return timeutil.TimeOfDay(24 * 60)
	}
	return timeutil.TimeOfDay(local.Hour()*60 + local.Minute())
}
