package dto

import (
	"stayquote/internal/domain/pricing"
	"stayquote/internal/domain/shared/daterange"
)

type LineItem struct {
	Kind       string `json:"kind"`
	Label      string `json:"label"`
	Amount     int64  `json:"amount"`
	Display    string `json:"display"`
	Refundable bool   `json:"refundable,omitempty"`
}

type NightlyPrice struct {
	Date     string `json:"date"`
	Price    int64  `json:"price"`
	Override bool   `json:"override,omitempty"`
}

type Quote struct {
	ListingID             string         `json:"listing_id"`
	CheckIn               string         `json:"check_in,omitempty"`
	CheckOut              string         `json:"check_out,omitempty"`
	Guests                int            `json:"guests"`
	Nights                int            `json:"nights"`
	Currency              string         `json:"currency"`
	NightlyPrices         []NightlyPrice `json:"nightly_prices"`
	Subtotal              int64          `json:"subtotal"`
	AverageNightlyRate    int64          `json:"average_nightly_rate"`
	UsedDynamicPricing    bool           `json:"used_dynamic_pricing"`
	ExtraGuests           int            `json:"extra_guests"`
	ExtraGuestFee         int64          `json:"extra_guest_fee"`
	WeeklyDiscountApplied bool           `json:"weekly_discount_applied"`
	WeeklyDiscountPercent int64          `json:"weekly_discount_percent,omitempty"`
	Discount              int64          `json:"discount"`
	DiscountedSubtotal    int64          `json:"discounted_subtotal"`
	CleaningFee           int64          `json:"cleaning_fee"`
	ServiceFee            int64          `json:"service_fee"`
	CheckInFee            int64          `json:"checkin_fee"`
	Taxes                 int64          `json:"taxes"`
	Deposit               int64          `json:"deposit"`
	LineItems             []LineItem     `json:"line_items"`
	Total                 int64          `json:"total"`
	TotalDisplay          string         `json:"total_display"`
	MinNights             int            `json:"min_nights"`
	MeetsMinimumNights    bool           `json:"meets_minimum_nights"`
}

// QuoteResult is a quote plus the checkout gate and freshness flags.
type QuoteResult struct {
	QuoteID     string `json:"quote_id"`
	Quote       Quote  `json:"quote"`
	Available   bool   `json:"available"`
	CanCheckout bool   `json:"can_checkout"`
	Stale       bool   `json:"stale"`
	SessionID   string `json:"session_id,omitempty"`
	Sequence    int64  `json:"sequence,omitempty"`
}

func MapQuote(listingID string, card pricing.RateCard, q pricing.Quote) Quote {
	out := Quote{
		ListingID:             listingID,
		CheckIn:               daterange.FormatDay(q.Range.CheckIn),
		CheckOut:              daterange.FormatDay(q.Range.CheckOut),
		Guests:                q.Guests,
		Nights:                q.Nights,
		Currency:              q.Currency,
		NightlyPrices:         make([]NightlyPrice, 0, len(q.NightlyPrices)),
		Subtotal:              q.Subtotal,
		AverageNightlyRate:    q.AverageNightlyRate,
		UsedDynamicPricing:    q.UsedDynamicPricing,
		ExtraGuests:           q.ExtraGuests,
		ExtraGuestFee:         q.ExtraGuestFee,
		WeeklyDiscountApplied: q.WeeklyDiscountApplied,
		WeeklyDiscountPercent: card.WeeklyDiscountPercent(),
		Discount:              q.Discount,
		DiscountedSubtotal:    q.DiscountedSubtotal,
		CleaningFee:           q.CleaningFee,
		ServiceFee:            q.ServiceFee,
		CheckInFee:            q.CheckInFee,
		Taxes:                 q.Taxes,
		Deposit:               q.Deposit,
		LineItems:             make([]LineItem, 0, len(q.LineItems)),
		Total:                 q.Total.Amount,
		TotalDisplay:          q.Total.String(),
		MinNights:             q.MinNights,
		MeetsMinimumNights:    q.MeetsMinimumNights,
	}
	for _, n := range q.NightlyPrices {
		out.NightlyPrices = append(out.NightlyPrices, NightlyPrice{
			Date:     daterange.FormatDay(n.Date),
			Price:    n.Price,
			Override: n.Override,
		})
	}
	for _, li := range q.LineItems {
		out.LineItems = append(out.LineItems, LineItem{
			Kind:       string(li.Kind),
			Label:      li.Label,
			Amount:     li.Amount.Amount,
			Display:    li.Amount.String(),
			Refundable: li.Refundable,
		})
	}
	return out
}
