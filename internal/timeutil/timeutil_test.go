package timeutil

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: 540},
		{in: "00:00", want: 0},
		{in: "23:59", want: 1439},
		{in: "24:00", want: 1440},
		{in: "07:30:00", want: 450},
		{in: " 10:15 ", want: 615},
		{in: "07:30:15", wantErr: true},
		{in: "24:01", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "9:00", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				var pe *ParseError
				assert.True(t, errors.As(err, &pe), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2024, Month: time.February, Day: 29}, d)
	assert.Equal(t, "2024-03-01", d.AddDays(1).String())
	assert.Equal(t, "2024-02-28", d.AddDays(-1).String())

	_, err = ParseDate("2023-02-29")
	assert.Error(t, err)
	_, err = ParseDate("03/10/2024")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		D Date `json:"d"`
	}
	d, _ := ParseDate("2024-03-10")

	data, err := json.Marshal(wrapper{D: d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-03-10"}`, string(data))

	data, err = json.Marshal(wrapper{})
	require.NoError(t, err)
	var back wrapper
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.D.IsZero())
}

func TestOverlaps(t *testing.T) {
	at := MustTimeOfDay
	assert.True(t, Overlaps(at("09:00"), at("10:00"), at("09:30"), at("10:30")))
	assert.True(t, Overlaps(at("09:00"), at("12:00"), at("10:00"), at("11:00")))
	assert.False(t, Overlaps(at("09:00"), at("10:00"), at("10:00"), at("11:00")), "touching ranges are disjoint")
	assert.False(t, Overlaps(at("10:00"), at("11:00"), at("09:00"), at("10:00")))
	assert.Equal(t, 90*time.Minute, Duration(at("09:00"), at("10:30")))
}

func TestConvertTime(t *testing.T) {
	march10, _ := ParseDate("2024-03-10")
	june1, _ := ParseDate("2024-06-01")

	tests := []struct {
		name     string
		tod      string
		from, to string
		date     Date
		want     string
		offset   int
	}{
		{name: "new york to los angeles", tod: "09:00", from: "America/New_York", to: "America/Los_Angeles", date: march10, want: "06:00"},
		{name: "identity", tod: "13:45", from: "Europe/Berlin", to: "Europe/Berlin", date: june1, want: "13:45"},
		{name: "forward across midnight", tod: "22:00", from: "America/New_York", to: "Asia/Tokyo", date: march10, want: "11:00", offset: 1},
		{name: "backward across midnight", tod: "01:00", from: "Europe/Berlin", to: "America/New_York", date: june1, want: "19:00", offset: -1},
		{name: "end of day boundary", tod: "24:00", from: "UTC", to: "UTC", date: june1, want: "00:00", offset: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, offset, err := ConvertTime(MustTimeOfDay(tt.tod), tt.from, tt.to, tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.offset, offset)
		})
	}
}

func TestConvertTime_UnknownZone(t *testing.T) {
	d, _ := ParseDate("2024-03-10")
	_, _, err := ConvertTime(MustTimeOfDay("09:00"), "America/New_York", "Mars/Olympus", d)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "timezone", pe.Kind)
}

func TestConvertString(t *testing.T) {
	out, offset, err := ConvertString("09:00", "America/New_York", "Europe/London", "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, "13:00", out)
	assert.Zero(t, offset)

	_, _, err = ConvertString("9am", "UTC", "UTC", "2024-03-10")
	assert.Error(t, err)
}

func TestInstant_DSTGap(t *testing.T) {
	d, _ := ParseDate("2024-03-10")
	// 02:30 does not exist in New York on this date
	got, err := Instant(d, MustTimeOfDay("02:30"), "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 10, got.Day())
	assert.GreaterOrEqual(t, got.Hour(), 6)
	assert.LessOrEqual(t, got.Hour(), 7)
}

func TestLoadZone_Cached(t *testing.T) {
	a, err := LoadZone("Asia/Kolkata")
	require.NoError(t, err)
	b, err := LoadZone("Asia/Kolkata")
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = LoadZone("")
	assert.Error(t, err)
}

func TestConvertTime_RoundTrip(t *testing.T) {
	d, _ := ParseDate("2024-03-10")
	zones := []string{"UTC", "America/New_York", "America/Los_Angeles", "Europe/Berlin", "Asia/Kolkata", "Asia/Tokyo"}
	times := []string{"00:00", "06:30", "09:00", "12:45", "18:15", "23:30"}

	for _, from := range zones {
		for _, to := range zones {
			for _, raw := range times {
				tod := MustTimeOfDay(raw)
				there, offset, err := ConvertTime(tod, from, to, d)
				require.NoError(t, err)
				if offset != 0 {
					continue
				}
				back, backOffset, err := ConvertTime(there, to, from, d)
				require.NoError(t, err)
				assert.Equal(t, tod, back, "%s %s -> %s", raw, from, to)
				assert.Zero(t, backOffset)
			}
		}
	}
}

func TestOverlaps_Symmetric(t *testing.T) {
	points := []TimeOfDay{0, 540, 570, 600, 630, 660, 1440}
	for _, a := range points {
		for _, b := range points {
			if a >= b {
				continue
			}
			for _, c := range points {
				for _, d := range points {
					if c >= d {
						continue
					}
					assert.Equal(t, Overlaps(a, b, c, d), Overlaps(c, d, a, b), "[%s,%s) vs [%s,%s)", a, b, c, d)
				}
			}
		}
	}
}

func TestMergeIntervals(t *testing.T) {
	h := func(hour int) time.Time { return time.Date(2024, 3, 10, hour, 0, 0, 0, time.UTC) }
	merged := MergeIntervals([]Interval{
		{Start: h(12), End: h(13)},
		{Start: h(9), End: h(10)},
		{Start: h(10), End: h(11)},
		{Start: h(9), End: h(10)},
	})

	assert.Equal(t, []Interval{{Start: h(9), End: h(11)}, {Start: h(12), End: h(13)}}, merged)
	assert.Nil(t, MergeIntervals(nil))
}

func TestSubtractIntervals(t *testing.T) {
	h := func(hour, minute int) time.Time { return time.Date(2024, 3, 10, hour, minute, 0, 0, time.UTC) }
	base := []Interval{{Start: h(9, 0), End: h(13, 0)}}

	got := SubtractIntervals(base, []Interval{{Start: h(10, 0), End: h(10, 30)}, {Start: h(12, 30), End: h(14, 0)}})

	assert.Equal(t, []Interval{
		{Start: h(9, 0), End: h(10, 0)},
		{Start: h(10, 30), End: h(12, 30)},
	}, got)
	assert.Empty(t, SubtractIntervals(base, []Interval{{Start: h(8, 0), End: h(14, 0)}}))
}
