package availability

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/xaulosky/travel-suites-app/internal/dates"
)

// Mode is how a click changes the selection.
type Mode int

const (
	// ModeSingle replaces the selection with the clicked day.
	ModeSingle Mode = iota
	// ModeToggle adds the clicked day, or removes it if already selected.
	ModeToggle
	// ModeRange replaces the selection with every day from the anchor to the
	// clicked day.
	ModeRange
)

func (m Mode) String() string {
	switch m {
	case ModeToggle:
		return "toggle"
	case ModeRange:
		return "range"
	default:
		return "single"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	mode, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseMode accepts "", "single", "toggle" and "range".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "single":
		return ModeSingle, nil
	case "toggle":
		return ModeToggle, nil
	case "range":
		return ModeRange, nil
	}
	return ModeSingle, fmt.Errorf("unknown selection mode %q", s)
}

// Selection is a sorted set of distinct days plus the anchor used by range
// clicks. It is a value: Click returns a new Selection.
type Selection struct {
	days   []time.Time
	anchor time.Time
}

// NewSelection builds a selection from days, anchored on the last one given.
func NewSelection(days ...time.Time) Selection {
	var s Selection
	for _, d := range days {
		s = s.Click(d, ModeToggle)
	}
	return s
}

// Entering returns the days a click would add to the selection. Callers
// validate these before calling Click.
func (s Selection) Entering(d time.Time, mode Mode) []time.Time {
	d = dates.Day(d)
	switch mode {
	case ModeToggle:
		if s.Contains(d) {
			return nil
		}
		return []time.Time{d}
	case ModeRange:
		if s.anchor.IsZero() {
			return []time.Time{d}
		}
		var out []time.Time
		for _, day := range dates.Span(s.anchor, d) {
			if !s.Contains(day) {
				out = append(out, day)
			}
		}
		return out
	default:
		if s.Contains(d) {
			return nil
		}
		return []time.Time{d}
	}
}

// Click applies a click on day d.
func (s Selection) Click(d time.Time, mode Mode) Selection {
	d = dates.Day(d)

	switch mode {
	case ModeToggle:
		if i := s.index(d); i >= 0 {
			days := slices.Delete(slices.Clone(s.days), i, i+1)
			next := Selection{days: days, anchor: s.anchor}
			if s.anchor.Equal(d) {
				next.anchor = time.Time{}
				if len(days) > 0 {
					next.anchor = days[len(days)-1]
				}
			}
			return next
		}
		days := append(slices.Clone(s.days), d)
		slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })
		return Selection{days: days, anchor: d}

	case ModeRange:
		if s.anchor.IsZero() {
			return Selection{days: []time.Time{d}, anchor: d}
		}
		return Selection{days: dates.Span(s.anchor, d), anchor: d}

	default:
		return Selection{days: []time.Time{d}, anchor: d}
	}
}

// Clear returns an empty selection.
func (s Selection) Clear() Selection {
	return Selection{}
}

// Days returns the selected days in ascending order.
func (s Selection) Days() []time.Time {
	return slices.Clone(s.days)
}

// Dates returns the selected days as ISO strings in ascending order.
func (s Selection) Dates() []string {
	out := make([]string, len(s.days))
	for i, d := range s.days {
		out[i] = dates.Format(d)
	}
	return out
}

// Anchor returns the most recently selected day.
func (s Selection) Anchor() (time.Time, bool) {
	return s.anchor, !s.anchor.IsZero()
}

// Len returns the number of selected days.
func (s Selection) Len() int {
	return len(s.days)
}

// Contains reports whether d is selected.
func (s Selection) Contains(d time.Time) bool {
	return s.index(dates.Day(d)) >= 0
}

// Contiguous reports whether the selection has no gaps.
func (s Selection) Contiguous() bool {
	for i := 1; i < len(s.days); i++ {
		if dates.DaysBetween(s.days[i-1], s.days[i]) != 1 {
			return false
		}
	}
	return true
}

func (s Selection) index(d time.Time) int {
	i, found := slices.BinarySearchFunc(s.days, d, func(a, b time.Time) int { return a.Compare(b) })
	if !found {
		return -1
	}
	return i
}

type selectionJSON struct {
	Dates  []string `json:"dates"`
	Anchor string   `json:"anchor,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s Selection) MarshalJSON() ([]byte, error) {
	v := selectionJSON{Dates: s.Dates()}
	if !s.anchor.IsZero() {
		v.Anchor = dates.Format(s.anchor)
	}
	return json.Marshal(v)
}
