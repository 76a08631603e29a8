package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Booking is a reservation as returned by the TravelSuites bookings API.
type Booking struct {
	ID          FlexString `json:"id"`
	ProductID   FlexString `json:"product_id"`
	ProductName string     `json:"product_name"`
	GuestName   string     `json:"guest_name"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Nights      FlexInt    `json:"nights"`
	Source      string     `json:"source"`
	Status      string     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
}

// FlexString accepts either a JSON string or a JSON number.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(b)
	return nil
}

// FlexInt accepts a JSON number or a numeric string. Unparseable values decode as 0.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	n, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}
