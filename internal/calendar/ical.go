// Package calendar parses, merges, loads and exports occupancy calendars.
package calendar

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/xaulosky/travel-suites-app/internal/dates"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

// Parse reads iCal text and returns one event per well-formed VEVENT block,
// in input order. Blocks without a usable DTSTART/DTEND are skipped. Only a
// read failure is reported as an error.
func Parse(r io.Reader) ([]models.CalendarEvent, error) {
	lines, err := unfold(r)
	if err != nil {
		return nil, fmt.Errorf("reading calendar: %w", err)
	}

	var events []models.CalendarEvent
	var current *models.CalendarEvent

	for _, line := range lines {
		// The value is everything after the first colon; parameters
		// (DTSTART;VALUE=DATE) only affect the key.
		colonIdx := strings.Index(line, ":")
		if colonIdx == -1 {
			continue
		}
		key := line[:colonIdx]
		value := line[colonIdx+1:]
		if semicolonIdx := strings.Index(key, ";"); semicolonIdx != -1 {
			key = key[:semicolonIdx]
		}
		key = strings.ToUpper(strings.TrimSpace(key))

		switch {
		case key == "BEGIN" && value == "VEVENT":
			current = &models.CalendarEvent{}
		case key == "END" && value == "VEVENT":
			if current != nil && valid(*current) {
				events = append(events, *current)
			}
			current = nil
		case current == nil:
			continue
		case strings.HasPrefix(key, "DTSTART"):
			if t, ok := dates.ParseCompact(strings.TrimSpace(value)); ok {
				current.Start = t
			}
		case strings.HasPrefix(key, "DTEND"):
			if t, ok := dates.ParseCompact(strings.TrimSpace(value)); ok {
				current.End = t
			}
		case key == "SUMMARY":
			current.Summary = unescape(value)
		case key == "UID":
			current.UID = strings.TrimSpace(value)
		}
	}

	return events, nil
}

// ParseString is Parse for in-memory calendar text.
func ParseString(s string) []models.CalendarEvent {
	events, _ := Parse(strings.NewReader(s))
	return events
}

func valid(e models.CalendarEvent) bool {
	return !e.Start.IsZero() && !e.End.IsZero() && e.Start.Before(e.End)
}

// unfold joins RFC 5545 continuation lines (leading space or tab) onto the
// previous line and strips CR line endings.
func unfold(r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && len(lines) > 0 {
			lines[len(lines)-1] += line[1:]
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// unescape handles common iCal text escapes.
func unescape(value string) string {
	value = strings.ReplaceAll(value, "\\n", "\n")
	value = strings.ReplaceAll(value, "\\N", "\n")
	value = strings.ReplaceAll(value, "\\,", ",")
	value = strings.ReplaceAll(value, "\\;", ";")
	value = strings.ReplaceAll(value, "\\\\", "\\")
	return value
}
