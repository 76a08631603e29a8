package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xaulosky/travel-suites-app/internal/dates"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

// ErrUnrecognizedShape is wrapped by every *ShapeError.
var ErrUnrecognizedShape = errors.New("unrecognized bookings response shape")

// ShapeError reports a bookings response that holds no recognizable list.
type ShapeError struct {
	Keys []string
	Err  error
}

func (e *ShapeError) Error() string {
	msg := ErrUnrecognizedShape.Error()
	if len(e.Keys) > 0 {
		msg += fmt.Sprintf(" (keys: %s)", strings.Join(e.Keys, ", "))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ShapeError) Unwrap() error {
	return ErrUnrecognizedShape
}

// containerPaths are tried in order on object responses.
var containerPaths = [][]string{
	{"data", "checkouts"},
	{"data"},
	{"checkouts"},
	{"bookings"},
	{"items"},
	{"results"},
	{"data", "bookings"},
	{"data", "items"},
}

// NormalizeBookings extracts the booking list from any response shape the
// bookings API is known to produce. Elements that are not booking objects are
// skipped. An unknown shape yields an empty, non-nil slice and a *ShapeError.
func NormalizeBookings(raw []byte) ([]models.Booking, error) {
	list, err := findList(bytes.TrimSpace(raw))
	if err != nil {
		return []models.Booking{}, err
	}

	bookings := make([]models.Booking, 0, len(list))
	for _, item := range list {
		var b models.Booking
		if err := json.Unmarshal(item, &b); err != nil {
			log.Debug().Err(err).Msg("Skipping malformed booking")
			continue
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

func findList(raw []byte) ([]json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, &ShapeError{}
	}

	var list []json.RawMessage
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, &ShapeError{Err: err}
		}
		return list, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, &ShapeError{Err: err}
	}

	for _, path := range containerPaths {
		if v, ok := lookup(obj, path); ok && isArray(v) {
			if err := json.Unmarshal(v, &list); err == nil {
				return list, nil
			}
		}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return nil, &ShapeError{Keys: keys}
}

func lookup(obj map[string]json.RawMessage, path []string) (json.RawMessage, bool) {
	v, ok := obj[path[0]]
	if !ok {
		return nil, false
	}
	if len(path) == 1 {
		return v, true
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(v, &nested); err != nil {
		return nil, false
	}
	return lookup(nested, path[1:])
}

func isArray(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '['
}

// Cancelled bookings do not occupy the property.
var inactiveStatuses = map[string]bool{
	"cancelled": true,
	"canceled":  true,
	"refunded":  true,
	"trash":     true,
}

// BookingsToEvents converts API bookings into occupancy events. A booking is
// attributed to the property with the same product id, else the same name.
// Bookings with unusable dates or an inactive status are dropped.
func BookingsToEvents(bookings []models.Booking, properties []models.Property) []models.CalendarEvent {
	byProduct := make(map[string]models.Property, len(properties))
	byName := make(map[string]models.Property, len(properties))
	for _, p := range properties {
		if p.ProductID != 0 {
			byProduct[strconv.FormatInt(p.ProductID, 10)] = p
		}
		byName[strings.ToLower(strings.TrimSpace(p.Name))] = p
	}

	events := make([]models.CalendarEvent, 0, len(bookings))
	for _, b := range bookings {
		if inactiveStatuses[strings.ToLower(b.Status)] {
			continue
		}
		start, err := dates.Parse(b.StartDate)
		if err != nil {
			continue
		}
		end, err := dates.Parse(b.EndDate)
		if err != nil || !start.Before(end) {
			continue
		}

		e := models.CalendarEvent{
			Summary:      b.GuestName,
			Start:        start,
			End:          end,
			PropertyName: b.ProductName,
			Source:       models.SourceTravelSuites,
		}
		if e.Summary == "" {
			e.Summary = "Reserva"
		}

		p, ok := byProduct[string(b.ProductID)]
		if !ok {
			p, ok = byName[strings.ToLower(strings.TrimSpace(b.ProductName))]
		}
		if ok {
			e.PropertyID = p.ID
			e.PropertyName = p.Name
		}
		events = append(events, e)
	}
	return events
}
