// Package quote prices a prospective stay. Calculate is a pure function of
// its inputs.
package quote

import (
	"fmt"
	"math"
	"slices"

	"github.com/xaulosky/travel-suites-app/internal/dates"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

// Defaults applied when a property leaves the limit unset.
const (
	DefaultMinNights   = 1
	DefaultMaxCapacity = 2
)

// Discount thresholds in nights.
const (
	WeeklyNights  = 7
	MonthlyNights = 30
)

// DiscountType names the applied discount.
type DiscountType string

const (
	DiscountWeekly  DiscountType = "weekly"
	DiscountMonthly DiscountType = "monthly"
)

// Validation rules.
const (
	RuleMinStay       = "min_stay"
	RuleMaxStay       = "max_stay"
	RuleMaxCapacity   = "max_capacity"
	RuleInvalidDate   = "invalid_date"
	RuleNotContiguous = "not_contiguous"
)

// ValidationError is a business-rule rejection. It is an expected outcome,
// returned as a value.
type ValidationError struct {
	Rule  string `json:"rule"`
	Limit int    `json:"limit,omitempty"`
	Value string `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	switch e.Rule {
	case RuleMinStay:
		return fmt.Sprintf("minimum stay is %d nights", e.Limit)
	case RuleMaxStay:
		return fmt.Sprintf("maximum stay is %d nights", e.Limit)
	case RuleNotContiguous:
		return "selected nights must be consecutive"
	case RuleMaxCapacity:
		return fmt.Sprintf("maximum capacity is %d guests", e.Limit)
	case RuleInvalidDate:
		return fmt.Sprintf("invalid date %q", e.Value)
	}
	return e.Rule
}

// Discount is the single discount applied to a quote.
type Discount struct {
	Type       DiscountType `json:"type"`
	Percentage float64      `json:"percentage"`
	Amount     int64        `json:"amount"`
}

// ExtraGuests is the surcharge for guests above the property's threshold.
type ExtraGuests struct {
	PricePerPerson int64 `json:"price_per_person"`
	Count          int   `json:"count"`
	Total          int64 `json:"total"`
}

// Quote is the price breakdown of a stay.
type Quote struct {
	PropertyID     string      `json:"property_id"`
	Dates          []string    `json:"dates"`
	CheckIn        string      `json:"check_in"`
	CheckOut       string      `json:"check_out"`
	Nights         int         `json:"nights"`
	Guests         int         `json:"guests"`
	PricePerNight  int64       `json:"price_per_night"`
	TotalBase      int64       `json:"total_base"`
	ExtraGuests    ExtraGuests `json:"extra_guests"`
	Subtotal       int64       `json:"subtotal"`
	Discount       *Discount   `json:"discount,omitempty"`
	Total          int64       `json:"total"`
	FormattedTotal string      `json:"formatted_total"`
}

type options struct {
	formatter *Formatter
}

// Option configures Calculate.
type Option func(*options)

// WithFormatter renders FormattedTotal with f instead of the es-CL default.
func WithFormatter(f *Formatter) Option {
	return func(o *options) { o.formatter = f }
}

// Calculate prices a stay of one night per selected date for guests guests.
// It returns nil, nil for an empty selection and a *ValidationError when a
// booking rule rejects the request.
func Calculate(p models.Property, selected []string, guests int, opts ...Option) (*Quote, error) {
	if len(selected) == 0 {
		return nil, nil
	}

	o := options{formatter: DefaultFormatter()}
	for _, opt := range opts {
		opt(&o)
	}

	sorted, err := normalizeDates(selected)
	if err != nil {
		return nil, err
	}
	first, _ := dates.Parse(sorted[0])
	last, _ := dates.Parse(sorted[len(sorted)-1])

	nights := len(sorted)

	minNights := p.Duration.Min
	if minNights <= 0 {
		minNights = DefaultMinNights
	}
	if nights < minNights {
		return nil, &ValidationError{Rule: RuleMinStay, Limit: minNights}
	}

	if p.Duration.Max > 0 && nights > p.Duration.Max {
		return nil, &ValidationError{Rule: RuleMaxStay, Limit: p.Duration.Max}
	}

	maxGuests := p.Capacity.Max
	if maxGuests <= 0 {
		maxGuests = DefaultMaxCapacity
	}
	if guests > maxGuests {
		return nil, &ValidationError{Rule: RuleMaxCapacity, Limit: maxGuests}
	}

	q := &Quote{
		PropertyID:    p.ID,
		Dates:         sorted,
		CheckIn:       dates.Format(first),
		CheckOut:      dates.Format(dates.AddDays(last, 1)),
		Nights:        nights,
		Guests:        guests,
		PricePerNight: p.Price,
		TotalBase:     p.Price * int64(nights),
	}

	q.ExtraGuests.PricePerPerson = p.ExtraGuest.PricePerPerson
	if p.ExtraGuest.PricePerPerson > 0 && guests > p.ExtraGuest.Threshold {
		q.ExtraGuests.Count = guests - p.ExtraGuest.Threshold
		q.ExtraGuests.Total = int64(q.ExtraGuests.Count) * p.ExtraGuest.PricePerPerson * int64(nights)
	}

	q.Subtotal = q.TotalBase + q.ExtraGuests.Total
	q.Discount = discountFor(p.Discounts, nights, q.Subtotal)

	q.Total = q.Subtotal
	if q.Discount != nil {
		q.Total -= q.Discount.Amount
	}
	q.FormattedTotal = o.formatter.Format(q.Total)

	return q, nil
}

// normalizeDates parses every date and returns the distinct days as sorted
// YYYY-MM-DD strings.
func normalizeDates(selected []string) ([]string, error) {
	out := make([]string, 0, len(selected))
	for _, s := range selected {
		d, err := dates.Parse(s)
		if err != nil {
			return nil, &ValidationError{Rule: RuleInvalidDate, Value: s}
		}
		out = append(out, dates.Format(d))
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// discountFor picks at most one discount. Monthly wins over weekly.
func discountFor(d models.Discounts, nights int, subtotal int64) *Discount {
	var (
		kind DiscountType
		pct  float64
	)
	switch {
	case nights >= MonthlyNights && d.Monthly > 0:
		kind, pct = DiscountMonthly, d.Monthly
	case nights >= WeeklyNights && d.Weekly > 0:
		kind, pct = DiscountWeekly, d.Weekly
	default:
		return nil
	}

	return &Discount{
		Type:       kind,
		Percentage: pct,
		Amount:     int64(math.Round(float64(subtotal) * pct / 100)),
	}
}
