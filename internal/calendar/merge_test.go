package calendar

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaulosky/travel-suites-app/internal/dates"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

func day(s string) time.Time {
	t, err := dates.Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func ev(uid, start, end, summary string) models.CalendarEvent {
	return models.CalendarEvent{UID: uid, Start: day(start), End: day(end), Summary: summary}
}

func uids(events []models.CalendarEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.UID
	}
	return out
}

func TestMergeFirstOccurrenceWins(t *testing.T) {
	airbnb := []models.CalendarEvent{
		ev("a", "2025-01-10", "2025-01-13", "Reserved"),
		ev("b", "2025-01-15", "2025-01-18", "Reserved"),
	}
	booking := []models.CalendarEvent{
		ev("b", "2025-01-15", "2025-01-18", "CLOSED"),
		ev("c", "2025-01-20", "2025-01-22", "CLOSED"),
	}

	merged := Merge(airbnb, booking)
	assert.Equal(t, []string{"a", "b", "c"}, uids(merged))
	assert.Equal(t, "Reserved", merged[1].Summary)
}

func TestMergeKeepsEventsWithoutUID(t *testing.T) {
	api := []models.CalendarEvent{
		ev("", "2025-01-10", "2025-01-13", "Juan"),
		ev("", "2025-01-10", "2025-01-13", "Juan"),
	}
	merged := Merge(api, []models.CalendarEvent{ev("", "2025-02-01", "2025-02-02", "Ana")})
	assert.Len(t, merged, 3)
}

func TestMergeIsIdempotent(t *testing.T) {
	events := []models.CalendarEvent{
		ev("a", "2025-01-10", "2025-01-13", ""),
		ev("", "2025-01-15", "2025-01-18", ""),
		ev("c", "2025-01-20", "2025-01-22", ""),
	}
	once := Merge(events)
	assert.Equal(t, once, Merge(once))
}

func TestMergeMembershipIsOrderIndependent(t *testing.T) {
	x := []models.CalendarEvent{ev("a", "2025-01-10", "2025-01-13", ""), ev("b", "2025-01-15", "2025-01-18", "")}
	y := []models.CalendarEvent{ev("b", "2025-01-15", "2025-01-18", ""), ev("c", "2025-01-20", "2025-01-22", "")}

	assert.ElementsMatch(t, uids(Merge(x, y)), uids(Merge(y, x)))
}

func TestMergeEmpty(t *testing.T) {
	assert.Empty(t, Merge())
	assert.Empty(t, Merge(nil, nil))
}

func TestTagEventsDoesNotMutateInput(t *testing.T) {
	events := []models.CalendarEvent{ev("a", "2025-01-10", "2025-01-13", "")}
	tagged := TagEvents(events, models.Property{ID: "sao-205", Name: "Depto 205 Olivo"})

	assert.Equal(t, "sao-205", tagged[0].PropertyID)
	assert.Equal(t, "Depto 205 Olivo", tagged[0].PropertyName)
	assert.Empty(t, events[0].PropertyID)
	assert.Len(t, ForProperty(tagged, "sao-205"), 1)
	assert.Empty(t, ForProperty(tagged, "lum-401"))
}

func TestExportRoundTrip(t *testing.T) {
	events := []models.CalendarEvent{
		ev("a@airbnb.com", "2025-01-10", "2025-01-13", "Reserved"),
		ev("", "2025-01-15", "2025-01-18", "Familia Soto, 3 huéspedes"),
		{Start: day("2025-02-01"), End: day("2025-02-02"), PropertyID: "sao-205", Source: models.SourceTravelSuites},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportICS(&buf, "Depto 205 Olivo", events))

	parsed := ParseString(buf.String())
	require.Len(t, parsed, len(events))

	type tuple struct{ start, end, summary string }
	var want, got []tuple
	for _, e := range events {
		want = append(want, tuple{dates.Format(e.Start), dates.Format(e.End), e.Summary})
	}
	for _, e := range parsed {
		got = append(got, tuple{dates.Format(e.Start), dates.Format(e.End), e.Summary})
	}
	assert.ElementsMatch(t, want, got)
	assert.Equal(t, "a@airbnb.com", parsed[0].UID)
	assert.NotEmpty(t, parsed[1].UID)
}
