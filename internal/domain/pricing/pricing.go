package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/money"
)

var (
	ErrInvalidQuoteRequest = errors.New("pricing: invalid quote request")
	ErrInvalidRateCard     = errors.New("pricing: invalid rate card")
)

// RateCard is a property's static price sheet; amounts are whole currency units.
type RateCard struct {
	Currency             string
	BaseNightly          int64
	ExtraGuestNightlyFee int64
	GuestsIncluded       int
	CleaningFee          int64
	CheckInFee           int64
	DamageDeposit        int64
	// WeeklyDiscount is a multiplier on rent for stays of seven nights or more,
	// honored only when strictly between 0 and 1.
	WeeklyDiscount decimal.Decimal
	MinNights      int
	// MaxGuests caps occupancy; zero means no cap.
	MaxGuests int
}

func (rc RateCard) Validate() error {
	if len(rc.Currency) != 3 {
		return fmt.Errorf("%w: currency %q", ErrInvalidRateCard, rc.Currency)
	}
	amounts := []struct {
		name  string
		value int64
	}{
		{"base nightly", rc.BaseNightly},
		{"extra guest fee", rc.ExtraGuestNightlyFee},
		{"cleaning fee", rc.CleaningFee},
		{"check-in fee", rc.CheckInFee},
		{"damage deposit", rc.DamageDeposit},
	}
	for _, a := range amounts {
		if a.value < 0 {
			return fmt.Errorf("%w: %s must be non-negative", ErrInvalidRateCard, a.name)
		}
	}
	if rc.GuestsIncluded < 0 || rc.MinNights < 0 || rc.MaxGuests < 0 {
		return fmt.Errorf("%w: counts must be non-negative", ErrInvalidRateCard)
	}
	if rc.WeeklyDiscount.IsNegative() {
		return fmt.Errorf("%w: weekly discount multiplier must be non-negative", ErrInvalidRateCard)
	}
	return nil
}

// HasWeeklyDiscount reports whether the multiplier is usable at all.
func (rc RateCard) HasWeeklyDiscount() bool {
	return rc.WeeklyDiscount.IsPositive() && rc.WeeklyDiscount.LessThan(decimal.NewFromInt(1))
}

// WeeklyDiscountPercent is the badge value, e.g. 10 for a 0.9 multiplier.
func (rc RateCard) WeeklyDiscountPercent() int64 {
	if !rc.HasWeeklyDiscount() {
		return 0
	}
	return decimal.NewFromInt(1).Sub(rc.WeeklyDiscount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (rc RateCard) guestsIncluded() int {
	if rc.GuestsIncluded < 1 {
		return 1
	}
	return rc.GuestsIncluded
}

// RateLookup resolves a per-night price override.
type RateLookup interface {
	Lookup(day time.Time) (int64, bool)
}

type NightlyPrice struct {
	Date     time.Time
	Price    int64
	Override bool
}

type LineKind string

const (
	LineBaseRent       LineKind = "base_rent"
	LineExtraGuestFee  LineKind = "extra_guest_fee"
	LineWeeklyDiscount LineKind = "weekly_discount"
	LineCleaningFee    LineKind = "cleaning_fee"
	LineServiceFee     LineKind = "service_fee"
	LineCheckInFee     LineKind = "checkin_fee"
	LineOccupancyTax   LineKind = "occupancy_tax"
	LineDamageDeposit  LineKind = "damage_deposit"
)

type LineItem struct {
	Kind       LineKind
	Label      string
	Amount     money.Money
	Refundable bool
}

// Quote is the itemized result for one range and guest count. It is rebuilt from
// scratch on every change and never patched.
type Quote struct {
	Range              daterange.DateRange
	Guests             int
	Nights             int
	Currency           string
	NightlyPrices      []NightlyPrice
	Subtotal           int64
	AverageNightlyRate int64
	UsedDynamicPricing bool

	ExtraGuests           int
	ExtraGuestFee         int64
	WeeklyDiscountApplied bool
	Discount              int64
	DiscountedSubtotal    int64
	CleaningFee           int64
	ServiceFee            int64
	CheckInFee            int64
	Taxes                 int64
	Deposit               int64

	LineItems []LineItem
	Total     money.Money

	MinNights          int
	MeetsMinimumNights bool
}

// CanCheckout is the hard gate for handing the quote to checkout.
func (q Quote) CanCheckout() bool {
	return q.Range.IsComplete() && q.MeetsMinimumNights
}

// LineItemsSum adds every line; it always equals Total.Amount.
func (q Quote) LineItemsSum() int64 {
	var sum int64
	for _, li := range q.LineItems {
		sum += li.Amount.Amount
	}
	return sum
}
