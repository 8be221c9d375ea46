package timeutil

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const minutesPerDay = 24 * 60

// Date is a calendar date without a zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
// The value 24:00 (1440) is allowed as an end-of-day boundary.
type TimeOfDay int

// ParseError is returned for malformed dates, times and zone names.
type ParseError struct {
	Kind  string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Kind, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Kind, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ParseError{Kind: "date", Value: s, Err: err}
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) IsZero() bool { return d == Date{} }

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// MarshalText encodes the zero Date as empty text.
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseTimeOfDay accepts "HH:MM" and "HH:MM:SS". Seconds must be zero.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	raw := strings.TrimSpace(s)
	parts := strings.Split(raw, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, &ParseError{Kind: "time", Value: s}
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		if len(p) != 2 {
			return 0, &ParseError{Kind: "time", Value: s}
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, &ParseError{Kind: "time", Value: s, Err: err}
		}
		nums[i] = n
	}
	if len(nums) == 3 && nums[2] != 0 {
		return 0, &ParseError{Kind: "time", Value: s}
	}
	h, m := nums[0], nums[1]
	if m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, &ParseError{Kind: "time", Value: s}
	}
	return TimeOfDay(h*60 + m), nil
}

// MustTimeOfDay is ParseTimeOfDay for constants; it panics on bad input.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) Valid() bool { return t >= 0 && t <= minutesPerDay }

func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return t + TimeOfDay(d/time.Minute)
}

func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Duration returns end - start.
func Duration(start, end TimeOfDay) time.Duration {
	return time.Duration(end-start) * time.Minute
}

// Overlaps reports whether [startA,endA) and [startB,endB) intersect.
// Ranges that only touch at a boundary do not overlap.
func Overlaps(startA, endA, startB, endB TimeOfDay) bool {
	return startA < endB && startB < endA
}

// OverlapsInstant is Overlaps for absolute instants.
func OverlapsInstant(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && startB.Before(endA)
}

// Interval is a half-open span [Start, End) of absolute time.
type Interval struct {
	Start, End time.Time
}

// MergeIntervals returns the union of in as sorted, disjoint intervals.
// Intervals that touch are joined.
func MergeIntervals(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	sorted := append([]Interval(nil), in...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })
	out := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// SubtractIntervals removes every span of cut from base, splitting base
// intervals where needed. Order of base is preserved.
func SubtractIntervals(base, cut []Interval) []Interval {
	out := make([]Interval, 0, len(base))
	for _, b := range base {
		pieces := []Interval{b}
		for _, c := range cut {
			var next []Interval
			for _, p := range pieces {
				if !OverlapsInstant(p.Start, p.End, c.Start, c.End) {
					next = append(next, p)
					continue
				}
				if p.Start.Before(c.Start) {
					next = append(next, Interval{Start: p.Start, End: c.Start})
				}
				if c.End.Before(p.End) {
					next = append(next, Interval{Start: c.End, End: p.End})
				}
			}
			pieces = next
		}
		out = append(out, pieces...)
	}
	return out
}

var zones sync.Map

// LoadZone resolves an IANA zone name, caching the result.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, &ParseError{Kind: "timezone", Value: name}
	}
	if loc, ok := zones.Load(name); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &ParseError{Kind: "timezone", Value: name, Err: err}
	}
	zones.Store(name, loc)
	return loc, nil
}

// Instant returns the absolute instant of the wall clock tod on date in zone.
// Wall times that do not exist because of a DST gap are normalized forward.
func Instant(date Date, tod TimeOfDay, zone string) (time.Time, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year, date.Month, date.Day, tod.Hour(), tod.Minute(), 0, 0, loc).UTC(), nil
}

// ConvertTime reinterprets tod on date in fromZone and returns the wall clock
// in toZone together with the number of days the converted value lies
// before (-1) or after (+1) date. Callers display the shifted date when the
// offset is non-zero.
func ConvertTime(tod TimeOfDay, fromZone, toZone string, date Date) (TimeOfDay, int, error) {
	if !tod.Valid() {
		return 0, 0, &ParseError{Kind: "time", Value: tod.String()}
	}
	at, err := Instant(date, tod, fromZone)
	if err != nil {
		return 0, 0, err
	}
	to, err := LoadZone(toZone)
	if err != nil {
		return 0, 0, err
	}
	local := at.In(to)
	offset := DateOf(local).Compare(date)
	if offset != 0 {
		offset = daysBetween(date, DateOf(local))
	}
	return TimeOfDay(local.Hour()*60 + local.Minute()), offset, nil
}

// ConvertString is ConvertTime over the textual forms.
func ConvertString(tod, fromZone, toZone, date string) (string, int, error) {
	t, err := ParseTimeOfDay(tod)
	if err != nil {
		return "", 0, err
	}
	d, err := ParseDate(date)
	if err != nil {
		return "", 0, err
	}
	out, offset, err := ConvertTime(t, fromZone, toZone, d)
	if err != nil {
		return "", 0, err
	}
	return out.String(), offset, nil
}

func daysBetween(from, to Date) int {
	a := from.In(time.UTC)
	b := to.In(time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
