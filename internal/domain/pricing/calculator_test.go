package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayquote/internal/domain/shared/daterange"
)

type lookup map[time.Time]int64

func (l lookup) Lookup(day time.Time) (int64, bool) {
	p, ok := l[daterange.Day(day)]
	return p, ok
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func oceanVilla() RateCard {
	return RateCard{
		Currency:             "USD",
		BaseNightly:          300,
		ExtraGuestNightlyFee: 25,
		GuestsIncluded:       4,
		CleaningFee:          150,
		CheckInFee:           25,
		DamageDeposit:        500,
		WeeklyDiscount:       decimal.RequireFromString("0.9"),
		MinNights:            3,
	}
}

func mustRange(t *testing.T, in, out time.Time) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(in, out)
	require.NoError(t, err)
	return dr
}

func TestComputeQuoteWeeklyStay(t *testing.T) {
	dr := mustRange(t, day(2025, 6, 10), day(2025, 6, 17))

	t.Run("service fee on pre-discount rent", func(t *testing.T) {
		q, err := NewCalculator(DefaultPolicy()).ComputeQuote(dr, 6, oceanVilla(), nil)
		require.NoError(t, err)

		assert.Equal(t, 7, q.Nights)
		assert.Len(t, q.NightlyPrices, 7)
		assert.Equal(t, int64(2100), q.Subtotal)
		assert.Equal(t, int64(300), q.AverageNightlyRate)
		assert.False(t, q.UsedDynamicPricing)
		assert.True(t, q.WeeklyDiscountApplied)
		assert.Equal(t, int64(1890), q.DiscountedSubtotal)
		assert.Equal(t, int64(210), q.Discount)
		assert.Equal(t, int64(350), q.ExtraGuestFee)
		assert.Equal(t, int64(40), q.ServiceFee) // round(2100 × 0.0191)
		assert.Equal(t, int64(1890+350+150+40+25+500), q.Total.Amount)
		assert.Equal(t, q.Total.Amount, q.LineItemsSum())
		assert.True(t, q.MeetsMinimumNights)
		assert.True(t, q.CanCheckout())
	})

	t.Run("service fee on discounted rent", func(t *testing.T) {
		policy := DefaultPolicy()
		policy.ServiceFeeBase = FeeBasePostDiscount
		q, err := NewCalculator(policy).ComputeQuote(dr, 6, oceanVilla(), nil)
		require.NoError(t, err)

		assert.Equal(t, int64(36), q.ServiceFee) // round(1890 × 0.0191)
		assert.Equal(t, int64(2951), q.Total.Amount)
		assert.Equal(t, int64(2951), q.LineItemsSum())
	})
}

func TestComputeQuoteLineItemOrder(t *testing.T) {
	dr := mustRange(t, day(2025, 6, 10), day(2025, 6, 17))
	q, err := NewCalculator(DefaultPolicy()).ComputeQuote(dr, 6, oceanVilla(), nil)
	require.NoError(t, err)

	var kinds []LineKind
	for _, li := range q.LineItems {
		kinds = append(kinds, li.Kind)
	}
	assert.Equal(t, []LineKind{
		LineBaseRent,
		LineExtraGuestFee,
		LineWeeklyDiscount,
		LineCleaningFee,
		LineServiceFee,
		LineCheckInFee,
		LineDamageDeposit,
	}, kinds)

	assert.Equal(t, "$300 × 7 nights", q.LineItems[0].Label)
	assert.Equal(t, int64(-210), q.LineItems[2].Amount.Amount)
	deposit := q.LineItems[len(q.LineItems)-1]
	assert.True(t, deposit.Refundable)
	assert.Equal(t, "Refundable Damage Deposit", deposit.Label)
}

func TestComputeQuoteWeeklyDiscountEligibility(t *testing.T) {
	tests := []struct {
		name       string
		nights     int
		multiplier string
		want       bool
	}{
		{name: "six nights", nights: 6, multiplier: "0.9", want: false},
		{name: "seven nights", nights: 7, multiplier: "0.9", want: true},
		{name: "fourteen nights", nights: 14, multiplier: "0.85", want: true},
		{name: "multiplier of one", nights: 7, multiplier: "1", want: false},
		{name: "multiplier above one", nights: 7, multiplier: "1.1", want: false},
		{name: "unset multiplier", nights: 10, multiplier: "0", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := oceanVilla()
			card.WeeklyDiscount = decimal.RequireFromString(tt.multiplier)
			start := day(2025, 6, 1)
			dr := mustRange(t, start, start.AddDate(0, 0, tt.nights))

			q, err := NewCalculator(DefaultPolicy()).ComputeQuote(dr, 2, card, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.want, q.WeeklyDiscountApplied)
			hasLine := false
			for _, li := range q.LineItems {
				if li.Kind == LineWeeklyDiscount {
					hasLine = true
				}
			}
			assert.Equal(t, tt.want, hasLine)
			assert.Equal(t, q.Total.Amount, q.LineItemsSum())
		})
	}
}

func TestComputeQuoteOverrides(t *testing.T) {
	dr := mustRange(t, day(2025, 7, 1), day(2025, 7, 4))
	rates := lookup{
		day(2025, 7, 1): 410,
		day(2025, 7, 3): 275,
		day(2025, 7, 4): 9999, // checkout day is not a night
	}
	card := oceanVilla()

	q, err := NewCalculator(DefaultPolicy()).ComputeQuote(dr, 2, card, rates)
	require.NoError(t, err)

	require.Len(t, q.NightlyPrices, 3)
	assert.Equal(t, NightlyPrice{Date: day(2025, 7, 1), Price: 410, Override: true}, q.NightlyPrices[0])
	assert.Equal(t, NightlyPrice{Date: day(2025, 7, 2), Price: 300}, q.NightlyPrices[1])
	assert.Equal(t, NightlyPrice{Date: day(2025, 7, 3), Price: 275, Override: true}, q.NightlyPrices[2])
	assert.Equal(t, int64(985), q.Subtotal)
	assert.Equal(t, int64(328), q.AverageNightlyRate) // round(985 / 3)
	assert.True(t, q.UsedDynamicPricing)
	assert.Equal(t, "$328 × 3 nights", q.LineItems[0].Label)
	assert.Equal(t, int64(0), q.ExtraGuestFee)
}

func TestComputeQuoteMinimumNights(t *testing.T) {
	card := oceanVilla()
	card.MinNights = 5
	dr := mustRange(t, day(2025, 8, 1), day(2025, 8, 3))

	q, err := NewCalculator(DefaultPolicy()).ComputeQuote(dr, 2, card, nil)
	require.NoError(t, err)

	assert.False(t, q.MeetsMinimumNights)
	assert.False(t, q.CanCheckout())
	assert.Equal(t, 5, q.MinNights)
	assert.Equal(t, int64(600), q.Subtotal)
}

func TestComputeQuoteIncompleteRange(t *testing.T) {
	card := oceanVilla()
	dr := daterange.DateRange{CheckIn: day(2025, 8, 1)}

	q, err := NewCalculator(DefaultPolicy()).ComputeQuote(dr, 2, card, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, q.Nights)
	assert.Empty(t, q.NightlyPrices)
	assert.Equal(t, int64(0), q.Subtotal)
	assert.Equal(t, card.BaseNightly, q.AverageNightlyRate)
	assert.False(t, q.UsedDynamicPricing)
	assert.False(t, q.CanCheckout())
	assert.Equal(t, q.Total.Amount, q.LineItemsSum())
}

func TestComputeQuoteInvalidRequests(t *testing.T) {
	card := oceanVilla()
	card.MaxGuests = 8
	tests := []struct {
		name   string
		dr     daterange.DateRange
		guests int
	}{
		{name: "checkout before checkin", dr: daterange.DateRange{CheckIn: day(2025, 6, 10), CheckOut: day(2025, 6, 9)}, guests: 2},
		{name: "zero nights", dr: daterange.DateRange{CheckIn: day(2025, 6, 10), CheckOut: day(2025, 6, 10)}, guests: 2},
		{name: "negative guests", dr: daterange.DateRange{CheckIn: day(2025, 6, 10), CheckOut: day(2025, 6, 12)}, guests: -1},
		{name: "no guests", dr: daterange.DateRange{CheckIn: day(2025, 6, 10), CheckOut: day(2025, 6, 12)}, guests: 0},
		{name: "over capacity", dr: daterange.DateRange{CheckIn: day(2025, 6, 10), CheckOut: day(2025, 6, 12)}, guests: 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCalculator(DefaultPolicy()).ComputeQuote(tt.dr, tt.guests, card, nil)
			assert.True(t, errors.Is(err, ErrInvalidQuoteRequest), "got %v", err)
		})
	}

	t.Run("negative override", func(t *testing.T) {
		dr := mustRange(t, day(2025, 6, 10), day(2025, 6, 12))
		_, err := NewCalculator(DefaultPolicy()).ComputeQuote(dr, 2, card, lookup{day(2025, 6, 11): -5})
		assert.ErrorIs(t, err, ErrInvalidQuoteRequest)
	})

	t.Run("broken rate card", func(t *testing.T) {
		bad := card
		bad.CleaningFee = -1
		dr := mustRange(t, day(2025, 6, 10), day(2025, 6, 12))
		_, err := NewCalculator(DefaultPolicy()).ComputeQuote(dr, 2, bad, nil)
		assert.ErrorIs(t, err, ErrInvalidRateCard)
	})
}

type flatTax int64

func (f flatTax) Occupancy(int64, int, int) int64 { return int64(f) }

func TestComputeQuoteTaxHook(t *testing.T) {
	dr := mustRange(t, day(2025, 6, 10), day(2025, 6, 12))

	q, err := NewCalculator(DefaultPolicy()).ComputeQuote(dr, 2, oceanVilla(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.Taxes)
	for _, li := range q.LineItems {
		assert.NotEqual(t, LineOccupancyTax, li.Kind)
	}

	policy := DefaultPolicy()
	policy.Tax = flatTax(42)
	q, err = NewCalculator(policy).ComputeQuote(dr, 2, oceanVilla(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), q.Taxes)
	assert.Equal(t, LineOccupancyTax, q.LineItems[len(q.LineItems)-2].Kind)
	assert.Equal(t, q.Total.Amount, q.LineItemsSum())
}

func TestComputeQuoteSumsMatchAcrossCards(t *testing.T) {
	bases := []int64{99, 137, 301, 1234}
	multipliers := []string{"0", "0.87", "0.9", "0.95"}
	for _, base := range bases {
		for _, m := range multipliers {
			for nights := 1; nights <= 15; nights++ {
				card := oceanVilla()
				card.BaseNightly = base
				card.WeeklyDiscount = decimal.RequireFromString(m)
				start := day(2025, 9, 1)
				dr := mustRange(t, start, start.AddDate(0, 0, nights))
				rates := lookup{start.AddDate(0, 0, nights/2): base + 17}

				q, err := NewCalculator(DefaultPolicy()).ComputeQuote(dr, 5, card, rates)
				require.NoError(t, err)
				assert.Equal(t, nights, len(q.NightlyPrices))
				assert.Equal(t, q.Total.Amount, q.LineItemsSum(), "base=%d m=%s nights=%d", base, m, nights)
			}
		}
	}
}

func TestRateCardWeeklyDiscountPercent(t *testing.T) {
	card := oceanVilla()
	assert.Equal(t, int64(10), card.WeeklyDiscountPercent())
	card.WeeklyDiscount = decimal.Zero
	assert.Equal(t, int64(0), card.WeeklyDiscountPercent())
}

func TestParseFeeBase(t *testing.T) {
	base, err := ParseFeeBase("")
	require.NoError(t, err)
	assert.Equal(t, FeeBasePreDiscount, base)

	base, err = ParseFeeBase("POST_DISCOUNT")
	require.NoError(t, err)
	assert.Equal(t, FeeBasePostDiscount, base)

	_, err = ParseFeeBase("gross")
	assert.Error(t, err)
}
