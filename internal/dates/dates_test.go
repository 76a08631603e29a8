package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) time.Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseCompact(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"20250110", "2025-01-10", true},
		{"20250110T140000Z", "2025-01-10", true},
		{"2025011", "", false},
		{"2025-01-10", "", false},
		{"20251310", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCompact(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, Format(got))
			}
		})
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("2025-06-10T15:00:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-10", Format(got))

	_, err = Parse("10/06/2025")
	assert.Error(t, err)
}

func TestDayStripsTimeAndZone(t *testing.T) {
	loc := time.FixedZone("CLT", -4*3600)
	got := Day(time.Date(2025, 3, 9, 23, 59, 0, 0, loc))
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), got)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 3, DaysBetween(d("2025-01-10"), d("2025-01-13")))
	assert.Equal(t, 31, DaysBetween(d("2025-03-01"), d("2025-04-01")))
	assert.Equal(t, -1, DaysBetween(d("2025-01-02"), d("2025-01-01")))
	assert.Equal(t, 146097, DaysBetween(d("1700-01-01"), d("2100-01-01")), "four Gregorian centuries")
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		day  string
		want string
	}{
		{"2025-06-09", "2025-06-09"}, // Monday
		{"2025-06-11", "2025-06-09"},
		{"2025-06-15", "2025-06-09"}, // Sunday
		{"2025-06-16", "2025-06-16"},
	}

	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(WeekStart(d(tt.day))))
		})
	}
}

func TestSpanIsOrderIndependent(t *testing.T) {
	want := []string{"2025-06-07", "2025-06-08", "2025-06-09", "2025-06-10"}

	for _, span := range [][]time.Time{
		Span(d("2025-06-10"), d("2025-06-07")),
		Span(d("2025-06-07"), d("2025-06-10")),
	} {
		var got []string
		for _, day := range span {
			got = append(got, Format(day))
		}
		assert.Equal(t, want, got)
	}
}
