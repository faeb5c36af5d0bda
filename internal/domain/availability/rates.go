package availability

import (
	"time"

	"stayquote/internal/domain/shared/daterange"
)

// RateOverrides maps a calendar day to a nightly price in whole units.
// Days missing from the map fall back to the listing's static base price.
type RateOverrides map[time.Time]int64

// NewRateOverrides normalizes every key to its calendar day.
func NewRateOverrides(prices map[time.Time]int64) RateOverrides {
	out := make(RateOverrides, len(prices))
	for d, p := range prices {
		if d.IsZero() {
			continue
		}
		out[daterange.Day(d)] = p
	}
	return out
}

// Lookup returns the override for day, if any.
func (r RateOverrides) Lookup(day time.Time) (int64, bool) {
	if r == nil {
		return 0, false
	}
	p, ok := r[daterange.Day(day)]
	return p, ok
}

// Restrict keeps only the nights of dr: [CheckIn, CheckOut).
func (r RateOverrides) Restrict(dr daterange.DateRange) RateOverrides {
	out := make(RateOverrides)
	if !dr.IsComplete() {
		return out
	}
	for d, p := range r {
		if dr.ContainsDate(d) {
			out[d] = p
		}
	}
	return out
}

func (r RateOverrides) clone() RateOverrides {
	out := make(RateOverrides, len(r))
	for d, p := range r {
		out[d] = p
	}
	return out
}
