// Package dashboard holds the per-user dashboard state: the chosen property,
// its occupancy, the date selection and the resulting quote. State changes
// only through the reducers in this file.
package dashboard

import (
	"errors"
	"fmt"
	"time"

	"github.com/xaulosky/travel-suites-app/internal/availability"
	"github.com/xaulosky/travel-suites-app/internal/dates"
	"github.com/xaulosky/travel-suites-app/internal/quote"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

var (
	// ErrDateUnavailable is returned when a click would select a past or
	// occupied day.
	ErrDateUnavailable = errors.New("date unavailable")
	// ErrNoProperty is returned when selecting dates before a property.
	ErrNoProperty = errors.New("no property selected")
	// ErrLoading is returned when selecting dates while occupancy is loading.
	ErrLoading = errors.New("occupancy still loading")
	// ErrInvalidGuests is returned for a guest count below one.
	ErrInvalidGuests = errors.New("guests must be at least 1")
)

// MaxRangeDays caps a range click on properties without a maximum stay.
const MaxRangeDays = 366

// Reasons a day cannot be selected.
const (
	ReasonPast     = "past"
	ReasonOccupied = "occupied"
)

// DateError names the first day that blocked a click.
type DateError struct {
	Date   string
	Reason string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s is not available (%s)", e.Date, e.Reason)
}

// Unwrap lets errors.Is match ErrDateUnavailable.
func (e *DateError) Unwrap() error {
	return ErrDateUnavailable
}

// State is a snapshot of one dashboard. Reducers never modify their input.
type State struct {
	PropertyID  string                 `json:"property_id,omitempty"`
	Property    *models.Property       `json:"property,omitempty"`
	Mode        availability.Mode      `json:"mode"`
	Selection   availability.Selection `json:"selection"`
	Guests      int                    `json:"guests"`
	Events      []models.CalendarEvent `json:"events"`
	LoadToken   uint64                 `json:"load_token"`
	Loading     bool                   `json:"loading"`
	LoadError   string                 `json:"load_error,omitempty"`
	Degraded    bool                   `json:"degraded"`
	FailedFeeds int                    `json:"failed_feeds"`
	Quote       *quote.Quote           `json:"quote,omitempty"`
	QuoteError  string                 `json:"quote_error,omitempty"`

	index     *availability.Index
	formatter *quote.Formatter
}

// NewState returns an empty dashboard for one guest. A nil formatter uses the
// es-CL default.
func NewState(f *quote.Formatter) State {
	if f == nil {
		f = quote.DefaultFormatter()
	}
	return State{
		Mode:      availability.ModeSingle,
		Guests:    1,
		Events:    []models.CalendarEvent{},
		formatter: f,
	}
}

// Index returns the occupancy index of the loaded events.
func (s State) Index() *availability.Index {
	if s.index == nil {
		return availability.NewIndex(s.Events)
	}
	return s.index
}

// SelectProperty switches to p. The selection, quote and occupancy are
// cleared and a new load token is issued; results for older tokens are
// discarded by ApplyEvents.
func SelectProperty(s State, p models.Property) State {
	next := s
	prop := p
	next.PropertyID = p.ID
	next.Property = &prop
	next.Selection = availability.Selection{}
	next.Events = []models.CalendarEvent{}
	next.index = nil
	next.LoadToken = s.LoadToken + 1
	next.Loading = true
	next.LoadError = ""
	next.Degraded = false
	next.FailedFeeds = 0
	next.Quote = nil
	next.QuoteError = ""
	return next
}

// ApplyEvents installs the occupancy loaded for token. It reports false and
// returns s unchanged when the result is stale.
func ApplyEvents(s State, token uint64, propertyID string, events []models.CalendarEvent, failed int) (State, bool) {
	if token != s.LoadToken || propertyID != s.PropertyID {
		return s, false
	}

	next := s
	next.Events = events
	if next.Events == nil {
		next.Events = []models.CalendarEvent{}
	}
	next.index = availability.NewIndex(next.Events)
	next.Loading = false
	next.LoadError = ""
	next.FailedFeeds = failed
	next.Degraded = failed > 0
	return recompute(next), true
}

// FailLoad records a failed load for token. Stale failures are ignored.
func FailLoad(s State, token uint64, propertyID string, err error) (State, bool) {
	if token != s.LoadToken || propertyID != s.PropertyID {
		return s, false
	}
	next := s
	next.Loading = false
	next.LoadError = err.Error()
	next.Degraded = true
	return next, true
}

// Click applies a click on day d in mode. Every day that would
// enter the selection must be today or later and unoccupied; otherwise the
// state is returned unchanged with a *DateError.
func Click(s State, d time.Time, mode availability.Mode, today time.Time) (State, error) {
	if s.Property == nil {
		return s, ErrNoProperty
	}
	if s.Loading {
		return s, ErrLoading
	}

	if err := checkSpan(s, d, mode); err != nil {
		return s, err
	}

	ix := s.Index()
	today = dates.Day(today)
	for _, day := range s.Selection.Entering(d, mode) {
		switch {
		case ix.Past(day, today):
			return s, &DateError{Date: dates.Format(day), Reason: ReasonPast}
		case ix.Occupied(day):
			return s, &DateError{Date: dates.Format(day), Reason: ReasonOccupied}
		}
	}

	next := s
	next.Mode = mode
	next.Selection = s.Selection.Click(d, mode)
	return recompute(next), nil
}

// checkSpan rejects a range click longer than the maximum stay before any
// day of it is built.
func checkSpan(s State, d time.Time, mode availability.Mode) error {
	anchor, ok := s.Selection.Anchor()
	if mode != availability.ModeRange || !ok {
		return nil
	}
	limit := MaxRangeDays
	if s.Property.Duration.Max > 0 {
		limit = s.Property.Duration.Max
	}
	span := dates.DaysBetween(anchor, d)
	if span < 0 {
		span = -span
	}
	if span+1 > limit {
		return &quote.ValidationError{Rule: quote.RuleMaxStay, Limit: limit}
	}
	return nil
}

// ClearSelection drops every selected day.
func ClearSelection(s State) State {
	next := s
	next.Selection = s.Selection.Clear()
	return recompute(next)
}

// SetGuests changes the guest count and reprices.
func SetGuests(s State, n int) (State, error) {
	if n < 1 {
		return s, ErrInvalidGuests
	}
	next := s
	next.Guests = n
	return recompute(next), nil
}

func recompute(s State) State {
	s.Quote = nil
	s.QuoteError = ""
	if s.Property == nil || s.Selection.Len() == 0 {
		return s
	}
	if !s.Selection.Contiguous() {
		s.QuoteError = (&quote.ValidationError{Rule: quote.RuleNotContiguous}).Error()
		return s
	}

	f := s.formatter
	if f == nil {
		f = quote.DefaultFormatter()
	}
	q, err := quote.Calculate(*s.Property, s.Selection.Dates(), s.Guests, quote.WithFormatter(f))
	if err != nil {
		s.QuoteError = err.Error()
		return s
	}
	s.Quote = q
	return s
}
