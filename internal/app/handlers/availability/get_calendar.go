package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stayquote/internal/app/dto"
	"stayquote/internal/app/handlers/support"
	"stayquote/internal/app/policies"
	"stayquote/internal/app/queries"
	"stayquote/internal/app/uow"
	domainlistings "stayquote/internal/domain/listings"
	"stayquote/internal/domain/selection"
	"stayquote/internal/domain/shared/daterange"
)

const (
	getCalendarKey = "availability.calendar"

	// DefaultWindowDays covers a six week month grid.
	DefaultWindowDays = 42
	MaxWindowDays     = 366
)

var ErrInvalidWindow = errors.New("availability: invalid calendar window")

// GetCalendarQuery renders the picker grid for [From, To] given the current selection.
type GetCalendarQuery struct {
	ListingID string
	From      time.Time
	To        time.Time
	CheckIn   time.Time
	CheckOut  time.Time
	Today     time.Time
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
	Clock      policies.Clock
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.CalendarView, error) {
	today := resolveToday(q.Today, h.Clock)
	from, to, err := resolveWindow(q.From, q.To, today)
	if err != nil {
		return dto.CalendarView{}, err
	}

	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CalendarView{}, err
	}
	defer cleanup()

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.CalendarView{}, err
	}
	calendar, err := support.LoadCalendar(ctx, unit, listing.ID)
	if err != nil {
		return dto.CalendarView{}, err
	}

	state := selection.NewState(daterange.Partial(q.CheckIn, q.CheckOut))
	constraints := selection.DefaultConstraints(calendar.Occupied, today)
	days := selection.ClassifyWindow(state, from, to, constraints)

	return dto.MapCalendarView(dto.CalendarWindow{
		ListingID:             string(listing.ID),
		Currency:              listing.RateCard.Currency,
		BaseNightly:           listing.RateCard.BaseNightly,
		MinNights:             listing.RateCard.MinNights,
		WeeklyDiscountPercent: listing.RateCard.WeeklyDiscountPercent(),
		Sequence:              calendar.Sequence,
		Rates:                 calendar.Rates,
		Occupied:              calendar.Occupied,
	}, state, from, to, days), nil
}

func resolveToday(today time.Time, clock policies.Clock) time.Time {
	if !today.IsZero() {
		return daterange.Day(today)
	}
	if clock == nil {
		clock = policies.SystemClock{}
	}
	return daterange.Day(clock.Now())
}

// resolveWindow defaults a missing start to today and a missing end to a
// six week grid. Both ends are inclusive.
func resolveWindow(from, to, today time.Time) (time.Time, time.Time, error) {
	from, to = daterange.Day(from), daterange.Day(to)
	if from.IsZero() {
		from = today
	}
	if to.IsZero() {
		to = daterange.AddDays(from, DefaultWindowDays-1)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to %s is before from %s", ErrInvalidWindow, daterange.FormatDay(to), daterange.FormatDay(from))
	}
	if daterange.DaysBetween(from, to) >= MaxWindowDays {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: at most %d days", ErrInvalidWindow, MaxWindowDays)
	}
	return from, to, nil
}

var _ queries.Handler[GetCalendarQuery, dto.CalendarView] = (*GetCalendarHandler)(nil)
