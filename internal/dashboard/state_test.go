package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaulosky/travel-suites-app/internal/availability"
	"github.com/xaulosky/travel-suites-app/internal/dates"
	"github.com/xaulosky/travel-suites-app/internal/quote"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

func day(s string) time.Time {
	t, err := dates.Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

var today = day("2025-06-01")

func testProperty(id string) models.Property {
	return models.Property{
		ID:       id,
		Name:     "Depto " + id,
		Price:    50000,
		Capacity: models.Capacity{Min: 1, Max: 2},
		Duration: models.Duration{Min: 1},
	}
}

func booked() []models.CalendarEvent {
	return []models.CalendarEvent{{UID: "b1", Summary: "Reserved", Start: day("2025-06-10"), End: day("2025-06-12")}}
}

// loaded returns a state with p selected and its occupancy applied.
func loaded(t *testing.T, p models.Property) State {
	t.Helper()
	s := SelectProperty(NewState(nil), p)
	s, ok := ApplyEvents(s, s.LoadToken, p.ID, booked(), 0)
	require.True(t, ok)
	return s
}

func TestSelectPropertyResetsState(t *testing.T) {
	s := loaded(t, testProperty("a"))
	s, err := Click(s, day("2025-06-03"), availability.ModeSingle, today)
	require.NoError(t, err)
	require.NotNil(t, s.Quote)

	next := SelectProperty(s, testProperty("b"))

	assert.Equal(t, "b", next.PropertyID)
	assert.Equal(t, s.LoadToken+1, next.LoadToken)
	assert.True(t, next.Loading)
	assert.Zero(t, next.Selection.Len())
	assert.Nil(t, next.Quote)
	assert.Empty(t, next.Events)

	// The input is untouched.
	assert.Equal(t, "a", s.PropertyID)
	assert.Equal(t, 1, s.Selection.Len())
}

func TestApplyEventsDiscardsStaleResults(t *testing.T) {
	s := SelectProperty(NewState(nil), testProperty("a"))
	oldToken := s.LoadToken
	s = SelectProperty(s, testProperty("b"))

	got, ok := ApplyEvents(s, oldToken, "a", booked(), 0)
	assert.False(t, ok)
	assert.True(t, got.Loading)
	assert.Empty(t, got.Events)

	got, ok = ApplyEvents(s, s.LoadToken, "a", booked(), 0)
	assert.False(t, ok, "property mismatch is stale too")

	got, ok = ApplyEvents(s, s.LoadToken, "b", booked(), 1)
	require.True(t, ok)
	assert.False(t, got.Loading)
	assert.Len(t, got.Events, 1)
	assert.Equal(t, 1, got.FailedFeeds)
	assert.True(t, got.Degraded)
}

func TestFailLoad(t *testing.T) {
	s := SelectProperty(NewState(nil), testProperty("a"))

	got, ok := FailLoad(s, s.LoadToken, "a", errors.New("feed down"))
	require.True(t, ok)
	assert.False(t, got.Loading)
	assert.Equal(t, "feed down", got.LoadError)

	_, ok = FailLoad(s, s.LoadToken-1, "a", errors.New("old"))
	assert.False(t, ok)
}

func TestClickRejectsUnavailableDays(t *testing.T) {
	s := loaded(t, testProperty("a"))

	tests := []struct {
		name   string
		setup  []string
		click  string
		mode   availability.Mode
		reason string
	}{
		{"occupied single", nil, "2025-06-10", availability.ModeSingle, ReasonOccupied},
		{"past", nil, "2025-05-31", availability.ModeSingle, ReasonPast},
		{"occupied toggle", nil, "2025-06-11", availability.ModeToggle, ReasonOccupied},
		{"range over booking", []string{"2025-06-08"}, "2025-06-13", availability.ModeRange, ReasonOccupied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := s
			for _, d := range tt.setup {
				var err error
				start, err = Click(start, day(d), availability.ModeSingle, today)
				require.NoError(t, err)
			}

			got, err := Click(start, day(tt.click), tt.mode, today)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDateUnavailable)

			var de *DateError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.reason, de.Reason)
			assert.Equal(t, start.Selection.Dates(), got.Selection.Dates())
		})
	}
}

func TestClickTodayIsSelectable(t *testing.T) {
	s := loaded(t, testProperty("a"))

	got, err := Click(s, today, availability.ModeSingle, today)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-01"}, got.Selection.Dates())
}

func TestClickRangeQuotes(t *testing.T) {
	s := loaded(t, testProperty("a"))

	s, err := Click(s, day("2025-06-03"), availability.ModeSingle, today)
	require.NoError(t, err)
	s, err = Click(s, day("2025-06-05"), availability.ModeRange, today)
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-06-03", "2025-06-04", "2025-06-05"}, s.Selection.Dates())
	assert.Equal(t, availability.ModeRange, s.Mode)
	require.NotNil(t, s.Quote)
	assert.Equal(t, 3, s.Quote.Nights)
	assert.Equal(t, int64(150000), s.Quote.Total)
	assert.Equal(t, "$150.000", s.Quote.FormattedTotal)
	assert.Equal(t, "2025-06-06", s.Quote.CheckOut)

	s = ClearSelection(s)
	assert.Zero(t, s.Selection.Len())
	assert.Nil(t, s.Quote)
}

func TestClickPreconditions(t *testing.T) {
	_, err := Click(NewState(nil), day("2025-06-03"), availability.ModeSingle, today)
	assert.ErrorIs(t, err, ErrNoProperty)

	s := SelectProperty(NewState(nil), testProperty("a"))
	_, err = Click(s, day("2025-06-03"), availability.ModeSingle, today)
	assert.ErrorIs(t, err, ErrLoading)
}

func TestQuoteErrorsAreKeptOnState(t *testing.T) {
	p := testProperty("a")
	p.Duration.Min = 2
	s := loaded(t, p)

	s, err := Click(s, day("2025-06-03"), availability.ModeSingle, today)
	require.NoError(t, err)
	assert.Nil(t, s.Quote)
	assert.Equal(t, "minimum stay is 2 nights", s.QuoteError)

	s, err = Click(s, day("2025-06-04"), availability.ModeToggle, today)
	require.NoError(t, err)
	require.NotNil(t, s.Quote)
	assert.Empty(t, s.QuoteError)

	s, err = SetGuests(s, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Guests)
	assert.Nil(t, s.Quote)
	assert.Equal(t, "maximum capacity is 2 guests", s.QuoteError)
}

func TestToggleGapIsNotQuoted(t *testing.T) {
	p := testProperty("a")
	s := SelectProperty(NewState(nil), p)
	s, ok := ApplyEvents(s, s.LoadToken, p.ID, []models.CalendarEvent{
		{UID: "b2", Start: day("2025-06-14"), End: day("2025-06-18")},
	}, 0)
	require.True(t, ok)

	s, err := Click(s, day("2025-06-10"), availability.ModeToggle, today)
	require.NoError(t, err)
	require.NotNil(t, s.Quote)

	s, err = Click(s, day("2025-06-20"), availability.ModeToggle, today)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-10", "2025-06-20"}, s.Selection.Dates())
	assert.Nil(t, s.Quote)
	assert.Equal(t, "selected nights must be consecutive", s.QuoteError)

	s, err = Click(s, day("2025-06-20"), availability.ModeToggle, today)
	require.NoError(t, err)
	require.NotNil(t, s.Quote)
	assert.Empty(t, s.QuoteError)
}

func TestClickRangeRespectsMaxStay(t *testing.T) {
	p := testProperty("a")
	p.Duration.Max = 30
	s := loaded(t, p)

	s, err := Click(s, day("2025-06-12"), availability.ModeSingle, today)
	require.NoError(t, err)

	got, err := Click(s, day("2999-12-31"), availability.ModeRange, today)
	var ve *quote.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, quote.RuleMaxStay, ve.Rule)
	assert.Equal(t, 30, ve.Limit)
	assert.Equal(t, []string{"2025-06-12"}, got.Selection.Dates())

	got, err = Click(s, day("2025-07-11"), availability.ModeRange, today)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Selection.Len())

	_, err = Click(s, day("2025-07-12"), availability.ModeRange, today)
	assert.True(t, errors.As(err, &ve))
}

func TestClickRangeCappedWithoutMaxStay(t *testing.T) {
	s := loaded(t, testProperty("a"))
	s, err := Click(s, day("2025-06-12"), availability.ModeSingle, today)
	require.NoError(t, err)

	_, err = Click(s, day("2999-12-31"), availability.ModeRange, today)
	var ve *quote.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, MaxRangeDays, ve.Limit)
}

func TestSetGuestsValidates(t *testing.T) {
	s := NewState(nil)

	got, err := SetGuests(s, 0)
	assert.ErrorIs(t, err, ErrInvalidGuests)
	assert.Equal(t, 1, got.Guests)

	got, err = SetGuests(s, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Guests)
	assert.Nil(t, got.Quote)
}
