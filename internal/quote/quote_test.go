package quote

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

func nightsFrom(start string, n int) []string {
	var out []string
	var y, m, d int
	fmt.Sscanf(start, "%d-%d-%d", &y, &m, &d)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("%04d-%02d-%02d", y, m, d+i))
	}
	return out
}

func property() models.Property {
	return models.Property{
		ID:        "sao-205",
		Price:     50000,
		Capacity:  models.Capacity{Min: 1, Max: 4},
		Duration:  models.Duration{Min: 2},
		Discounts: models.Discounts{Weekly: 10, Monthly: 25},
	}
}

func TestCalculateWeeklyDiscount(t *testing.T) {
	q, err := Calculate(property(), nightsFrom("2025-03-01", 7), 2)
	require.NoError(t, err)
	require.NotNil(t, q)

	assert.Equal(t, 7, q.Nights)
	assert.Equal(t, int64(350000), q.TotalBase)
	assert.Equal(t, int64(350000), q.Subtotal)
	require.NotNil(t, q.Discount)
	assert.Equal(t, DiscountWeekly, q.Discount.Type)
	assert.Equal(t, int64(35000), q.Discount.Amount)
	assert.Equal(t, int64(315000), q.Total)
	assert.Equal(t, "$315.000", q.FormattedTotal)
	assert.Equal(t, "2025-03-01", q.CheckIn)
	assert.Equal(t, "2025-03-08", q.CheckOut)
}

func TestCalculateEmptySelection(t *testing.T) {
	q, err := Calculate(property(), nil, 2)
	assert.NoError(t, err)
	assert.Nil(t, q)
}

func TestCalculateValidation(t *testing.T) {
	p := property()
	p.Duration.Min = 5

	_, err := Calculate(p, nightsFrom("2025-03-01", 3), 2)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, RuleMinStay, ve.Rule)
	assert.Equal(t, "minimum stay is 5 nights", err.Error())

	_, err = Calculate(p, nightsFrom("2025-03-01", 5), 5)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "maximum capacity is 4 guests", err.Error())

	_, err = Calculate(p, []string{"2025-03-01", "tomorrow", "x", "y", "z"}, 1)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, RuleInvalidDate, ve.Rule)
}

func TestCalculateDefaults(t *testing.T) {
	p := models.Property{Price: 40000}

	q, err := Calculate(p, []string{"2025-03-01"}, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(40000), q.Total)

	_, err = Calculate(p, []string{"2025-03-01"}, 3)
	assert.EqualError(t, err, "maximum capacity is 2 guests")
}

func TestCalculateMonthlyBeatsWeekly(t *testing.T) {
	q, err := Calculate(property(), nightsFrom("2025-01-01", 30), 2)
	require.NoError(t, err)

	require.NotNil(t, q.Discount)
	assert.Equal(t, DiscountMonthly, q.Discount.Type)
	assert.Equal(t, int64(375000), q.Discount.Amount)
	assert.Equal(t, int64(1125000), q.Total)
}

func TestCalculateWeeklyWhenNoMonthly(t *testing.T) {
	p := property()
	p.Discounts.Monthly = 0

	q, err := Calculate(p, nightsFrom("2025-01-01", 30), 2)
	require.NoError(t, err)
	require.NotNil(t, q.Discount)
	assert.Equal(t, DiscountWeekly, q.Discount.Type)
}

func TestCalculateExtraGuests(t *testing.T) {
	p := property()
	p.ExtraGuest = models.ExtraGuest{PricePerPerson: 10000, Threshold: 2}

	q, err := Calculate(p, nightsFrom("2025-03-01", 3), 4)
	require.NoError(t, err)

	assert.Equal(t, 2, q.ExtraGuests.Count)
	assert.Equal(t, int64(60000), q.ExtraGuests.Total)
	assert.Equal(t, int64(210000), q.Subtotal)
	assert.Nil(t, q.Discount)
	assert.Equal(t, int64(210000), q.Total)

	q, err = Calculate(p, nightsFrom("2025-03-01", 3), 2)
	require.NoError(t, err)
	assert.Zero(t, q.ExtraGuests.Total)
}

func TestCalculateRoundsDiscount(t *testing.T) {
	p := property()
	p.Price = 33333
	p.Discounts.Weekly = 7.5

	q, err := Calculate(p, nightsFrom("2025-03-01", 7), 1)
	require.NoError(t, err)
	// 233331 * 7.5% = 17499.825
	assert.Equal(t, int64(17500), q.Discount.Amount)
	assert.Equal(t, int64(215831), q.Total)
}

func TestCalculateSortsDates(t *testing.T) {
	q, err := Calculate(property(), []string{"2025-03-03", "2025-03-01", "2025-03-02"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-01", "2025-03-02", "2025-03-03"}, q.Dates)
	assert.Equal(t, "2025-03-04", q.CheckOut)
}

func TestCalculateCountsDistinctNights(t *testing.T) {
	same := []string{"2025-06-10", "2025-06-10", "2025-06-10", "2025-06-10", "2025-06-10", "2025-06-10", "2025-06-10"}
	p := property()
	p.Duration.Min = 1

	q, err := Calculate(p, same, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Nights)
	assert.Nil(t, q.Discount)
	assert.Equal(t, int64(50000), q.Total)
	assert.Equal(t, []string{"2025-06-10"}, q.Dates)

	q, err = Calculate(p, []string{"2025-06-11T00:00:00", "2025-06-10", "2025-06-11"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-10", "2025-06-11"}, q.Dates)
}

func TestCalculateRejectsEveryInvalidDate(t *testing.T) {
	_, err := Calculate(property(), []string{"2025-06-29", "2025-06-31", "2025-07-01"}, 2)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, RuleInvalidDate, ve.Rule)
	assert.Equal(t, "2025-06-31", ve.Value)
}

func TestCalculateMaxStay(t *testing.T) {
	p := property()
	p.Duration.Max = 5

	_, err := Calculate(p, nightsFrom("2025-03-01", 5), 2)
	require.NoError(t, err)

	_, err = Calculate(p, nightsFrom("2025-03-01", 6), 2)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, RuleMaxStay, ve.Rule)
	assert.Equal(t, "maximum stay is 5 nights", err.Error())
}

func TestFormatCLP(t *testing.T) {
	assert.Equal(t, "$315.000", FormatCLP(315000))
	assert.Equal(t, "$1.250.000", FormatCLP(1250000))
	assert.Equal(t, "-$45.000", FormatCLP(-45000))
}
