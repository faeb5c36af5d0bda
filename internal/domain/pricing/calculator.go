package pricing

import (
	"fmt"

	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/money"
)

const weeklyDiscountMinNights = 7

// Calculator turns a date range, guest count and rate card into a Quote.
// It is pure: no I/O and no state beyond its policy.
type Calculator struct {
	policy Policy
}

func NewCalculator(p Policy) *Calculator {
	return &Calculator{policy: p.normalized()}
}

func (c *Calculator) Policy() Policy { return c.policy }

// ComputeQuote prices the nights of dr. rates may be nil, in which case every night
// uses the card's base price. An incomplete range yields a zero-night preview quote.
func (c *Calculator) ComputeQuote(dr daterange.DateRange, guests int, card RateCard, rates RateLookup) (Quote, error) {
	if err := card.Validate(); err != nil {
		return Quote{}, err
	}
	if guests < 1 {
		return Quote{}, fmt.Errorf("%w: guests must be at least 1, got %d", ErrInvalidQuoteRequest, guests)
	}
	if card.MaxGuests > 0 && guests > card.MaxGuests {
		return Quote{}, fmt.Errorf("%w: listing sleeps %d, got %d guests", ErrInvalidQuoteRequest, card.MaxGuests, guests)
	}
	dr = daterange.Partial(dr.CheckIn, dr.CheckOut)
	if dr.IsComplete() {
		if err := dr.Validate(); err != nil {
			return Quote{}, fmt.Errorf("%w: %s", ErrInvalidQuoteRequest, err)
		}
	}

	q := Quote{
		Range:     dr,
		Guests:    guests,
		Currency:  card.Currency,
		MinNights: card.MinNights,
	}

	// 1. nightly aggregation
	q.AverageNightlyRate = card.BaseNightly
	for _, day := range dr.Days() {
		price := card.BaseNightly
		override := false
		if rates != nil {
			if p, ok := rates.Lookup(day); ok {
				if p < 0 {
					return Quote{}, fmt.Errorf("%w: negative price on %s", ErrInvalidQuoteRequest, daterange.FormatDay(day))
				}
				price = p
				override = true
				q.UsedDynamicPricing = true
			}
		}
		q.NightlyPrices = append(q.NightlyPrices, NightlyPrice{Date: day, Price: price, Override: override})
		q.Subtotal += price
	}
	q.Nights = len(q.NightlyPrices)
	if q.Nights > 0 {
		q.AverageNightlyRate = money.RoundDiv(q.Subtotal, int64(q.Nights))
	}

	// 2. extra guests
	q.ExtraGuests = max(0, guests-card.guestsIncluded())
	q.ExtraGuestFee = int64(q.ExtraGuests) * card.ExtraGuestNightlyFee * int64(q.Nights)

	// 3. weekly discount on rent only
	q.DiscountedSubtotal = q.Subtotal
	if card.HasWeeklyDiscount() && q.Nights >= weeklyDiscountMinNights {
		q.WeeklyDiscountApplied = true
		q.DiscountedSubtotal = money.ApplyRate(q.Subtotal, card.WeeklyDiscount)
		q.Discount = q.Subtotal - q.DiscountedSubtotal
	}

	// 4. flat fees
	feeBase := q.Subtotal
	if c.policy.ServiceFeeBase == FeeBasePostDiscount {
		feeBase = q.DiscountedSubtotal
	}
	q.ServiceFee = money.ApplyRate(feeBase, c.policy.ServiceFeeRate)
	q.CleaningFee = card.CleaningFee
	q.CheckInFee = card.CheckInFee

	// 5. taxes and deposit; the deposit is never discounted or taxed
	q.Taxes = c.policy.Tax.Occupancy(q.DiscountedSubtotal+q.ExtraGuestFee+q.CleaningFee, q.Nights, guests)
	q.Deposit = card.DamageDeposit

	// 6. total
	total := q.DiscountedSubtotal + q.ExtraGuestFee + q.CleaningFee + q.CheckInFee + q.ServiceFee + q.Taxes + q.Deposit
	q.Total = money.Money{Amount: total, Currency: card.Currency}
	q.LineItems = buildLineItems(q)

	// 7. minimum stay
	q.MeetsMinimumNights = q.Nights >= card.MinNights

	return q, nil
}

func buildLineItems(q Quote) []LineItem {
	amount := func(v int64) money.Money { return money.Money{Amount: v, Currency: q.Currency} }
	items := []LineItem{{
		Kind:   LineBaseRent,
		Label:  fmt.Sprintf("%s × %d %s", money.Format(q.AverageNightlyRate, q.Currency), q.Nights, pluralNights(q.Nights)),
		Amount: amount(q.Subtotal),
	}}
	add := func(kind LineKind, label string, v int64, refundable bool) {
		if v == 0 {
			return
		}
		items = append(items, LineItem{Kind: kind, Label: label, Amount: amount(v), Refundable: refundable})
	}
	add(LineExtraGuestFee, "Extra guest fee", q.ExtraGuestFee, false)
	add(LineWeeklyDiscount, "Weekly discount", -q.Discount, false)
	add(LineCleaningFee, "Cleaning Fee", q.CleaningFee, false)
	add(LineServiceFee, "Guest Channel Fee", q.ServiceFee, false)
	add(LineCheckInFee, "Check-in fee", q.CheckInFee, false)
	add(LineOccupancyTax, "Occupancy Tax", q.Taxes, false)
	add(LineDamageDeposit, "Refundable Damage Deposit", q.Deposit, true)
	return items
}

func pluralNights(n int) string {
	if n == 1 {
		return "night"
	}
	return "nights"
}
