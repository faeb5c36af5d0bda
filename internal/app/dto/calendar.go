package dto

import (
	"time"

	"stayquote/internal/domain/availability"
	"stayquote/internal/domain/selection"
	"stayquote/internal/domain/shared/daterange"
)

type CalendarDay struct {
	Date     string `json:"date"`
	Occupied bool   `json:"occupied"`
	Disabled bool   `json:"disabled"`
	Start    bool   `json:"start,omitempty"`
	End      bool   `json:"end,omitempty"`
	InRange  bool   `json:"in_range,omitempty"`
	Price    int64  `json:"price"`
	Override bool   `json:"override,omitempty"`
}

// CalendarView is a classified day grid for one listing and selection state.
type CalendarView struct {
	ListingID             string        `json:"listing_id"`
	Currency              string        `json:"currency"`
	From                  string        `json:"from"`
	To                    string        `json:"to"`
	Phase                 string        `json:"phase"`
	CheckIn               string        `json:"check_in,omitempty"`
	CheckOut              string        `json:"check_out,omitempty"`
	RangeLimit            string        `json:"range_limit,omitempty"`
	MinNights             int           `json:"min_nights"`
	WeeklyDiscountPercent int64         `json:"weekly_discount_percent,omitempty"`
	Sequence              int64         `json:"sequence"`
	Days                  []CalendarDay `json:"days"`
}

// CalendarWindow carries what MapCalendarView needs beyond the classified days.
type CalendarWindow struct {
	ListingID             string
	Currency              string
	BaseNightly           int64
	MinNights             int
	WeeklyDiscountPercent int64
	Sequence              int64
	Rates                 availability.RateOverrides
	Occupied              availability.OccupiedSet
}

func MapCalendarView(w CalendarWindow, state selection.State, from, to time.Time, days []selection.DayView) CalendarView {
	out := CalendarView{
		ListingID:             w.ListingID,
		Currency:              w.Currency,
		From:                  daterange.FormatDay(from),
		To:                    daterange.FormatDay(to),
		Phase:                 string(state.Phase),
		CheckIn:               daterange.FormatDay(state.Range.CheckIn),
		CheckOut:              daterange.FormatDay(state.Range.CheckOut),
		MinNights:             w.MinNights,
		WeeklyDiscountPercent: w.WeeklyDiscountPercent,
		Sequence:              w.Sequence,
		Days:                  make([]CalendarDay, 0, len(days)),
	}
	if state.Phase == selection.AwaitingEnd {
		if limit, ok := selection.RangeLimit(state.Range.CheckIn, w.Occupied); ok {
			out.RangeLimit = daterange.FormatDay(limit)
		}
	}
	for _, d := range days {
		price, override := w.Rates.Lookup(d.Date)
		if !override {
			price = w.BaseNightly
		}
		out.Days = append(out.Days, CalendarDay{
			Date:     daterange.FormatDay(d.Date),
			Occupied: d.Occupied,
			Disabled: d.Disabled,
			Start:    d.Start,
			End:      d.End,
			InRange:  d.InRange,
			Price:    price,
			Override: override,
		})
	}
	return out
}
