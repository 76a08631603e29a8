package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/xaulosky/travel-suites-app/internal/quote"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

// DefaultPhoneRegion is used for numbers without a country code.
const DefaultPhoneRegion = "CL"

// ErrNoQuote is returned when an order is attempted without a valid quote.
var ErrNoQuote = errors.New("a valid quote is required to place an order")

// BillingError rejects a billing field.
type BillingError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *BillingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Billing is the guest contact submitted with an order.
type Billing struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Normalize validates b and returns it with the phone in E.164 form.
func (b Billing) Normalize(region string) (Billing, error) {
	b.FirstName = strings.TrimSpace(b.FirstName)
	b.LastName = strings.TrimSpace(b.LastName)
	b.Email = strings.TrimSpace(b.Email)

	if b.FirstName == "" {
		return b, &BillingError{Field: "first_name", Message: "is required"}
	}
	if _, err := mail.ParseAddress(b.Email); err != nil {
		return b, &BillingError{Field: "email", Message: "is not a valid address"}
	}

	if region == "" {
		region = DefaultPhoneRegion
	}
	num, err := phonenumbers.Parse(b.Phone, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return b, &BillingError{Field: "phone", Message: "is not a valid phone number"}
	}
	b.Phone = phonenumbers.Format(num, phonenumbers.E164)

	return b, nil
}

// Order is the WooCommerce order payload.
type Order struct {
	Status       string     `json:"status"`
	SetPaid      bool       `json:"set_paid"`
	Billing      Billing    `json:"billing"`
	LineItems    []LineItem `json:"line_items"`
	CustomerNote string     `json:"customer_note,omitempty"`
}

// LineItem is one ordered product.
type LineItem struct {
	ProductID int64      `json:"product_id"`
	Quantity  int        `json:"quantity"`
	MetaData  []MetaItem `json:"meta_data"`
}

// MetaItem is a key/value attached to a line item.
type MetaItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// BuildOrder assembles the order for a quoted stay. The quote must be
// non-nil; billing must already be normalized.
func BuildOrder(p models.Property, q *quote.Quote, billing Billing, note string) (*Order, error) {
	if q == nil {
		return nil, ErrNoQuote
	}
	if p.ProductID == 0 {
		return nil, fmt.Errorf("property %s has no catalog product", p.ID)
	}

	return &Order{
		Status:  "pending",
		Billing: billing,
		LineItems: []LineItem{{
			ProductID: p.ProductID,
			Quantity:  q.Nights,
			MetaData: []MetaItem{
				{Key: "check_in", Value: q.CheckIn},
				{Key: "check_out", Value: q.CheckOut},
				{Key: "guests", Value: strconv.Itoa(q.Guests)},
				{Key: "total", Value: strconv.FormatInt(q.Total, 10)},
			},
		}},
		CustomerNote: strings.TrimSpace(note),
	}, nil
}

// OrderResult is the part of the created order echoed back to the caller.
type OrderResult struct {
	ID       int64  `json:"id"`
	Status   string `json:"status"`
	Total    string `json:"total"`
	OrderKey string `json:"order_key"`
}

// CreateOrder submits order to WooCommerce.
func (c *Client) CreateOrder(ctx context.Context, order *Order) (*OrderResult, error) {
	u, err := c.endpoint("orders", nil)
	if err != nil {
		return nil, err
	}

	var result OrderResult
	if err := c.http.PostJSON(ctx, u, order, &result); err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}
	return &result, nil
}
