package availability

import (
	"context"
	"errors"
	"time"

	"stayquote/internal/domain/listings"
	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/events"
)

var (
	ErrStaleSnapshot    = errors.New("availability: snapshot sequence is not newer than the calendar")
	ErrCalendarNotFound = errors.New("availability: calendar not found")
	ErrInvalidPrice     = errors.New("availability: nightly price must be non-negative")
)

type Source string

const (
	SourceFeed   Source = "FEED"
	SourceICal   Source = "ICAL"
	SourceManual Source = "MANUAL"
)

// Snapshot is one resolved view of occupied nights and per-day prices from the data source.
// When Window is complete only days inside it are replaced; otherwise the whole calendar is.
type Snapshot struct {
	Sequence int64
	Source   Source
	Window   daterange.DateRange
	Occupied []time.Time
	Rates    map[time.Time]int64
}

// Calendar is the per-listing availability and rate view used by the picker and the quote.
type Calendar struct {
	ListingID listings.ListingID
	Occupied  OccupiedSet
	Rates     RateOverrides
	Sequence  int64
	UpdatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	Calendar(ctx context.Context, id listings.ListingID) (*Calendar, error)
	Save(ctx context.Context, calendar *Calendar) error
}

func NewCalendar(id listings.ListingID) *Calendar {
	return &Calendar{ListingID: id, Occupied: NewOccupiedSet(), Rates: RateOverrides{}}
}

// Apply replaces calendar contents with the snapshot. Snapshots are never merged with
// each other: one whose sequence is not newer than the last applied one is rejected.
func (c *Calendar) Apply(s Snapshot, now time.Time) error {
	if s.Sequence <= c.Sequence {
		c.Record(CalendarSnapshotSupersededEvent(c.ListingID, s.Sequence, c.Sequence, now))
		return ErrStaleSnapshot
	}
	for _, p := range s.Rates {
		if p < 0 {
			return ErrInvalidPrice
		}
	}

	incoming := NewOccupiedSet(s.Occupied...)
	rates := NewRateOverrides(s.Rates)
	if s.Window.IsComplete() {
		kept := NewOccupiedSet()
		for _, d := range c.Occupied.Days() {
			if !s.Window.ContainsDate(d) {
				kept.days[d] = struct{}{}
			}
		}
		c.Occupied = kept.Union(incoming.Within(s.Window))

		merged := c.Rates.clone()
		for d := range merged {
			if s.Window.ContainsDate(d) {
				delete(merged, d)
			}
		}
		for d, p := range rates.Restrict(s.Window) {
			merged[d] = p
		}
		c.Rates = merged
	} else {
		c.Occupied = incoming
		c.Rates = rates
	}

	c.Sequence = s.Sequence
	c.UpdatedAt = now.UTC()
	c.Record(CalendarSyncedEvent(c.ListingID, s, c.Occupied.Len(), now))
	return nil
}

// Window is the slice of a calendar handed to the selector and the calculator.
type Window struct {
	Range    daterange.DateRange
	Occupied OccupiedSet
	Rates    RateOverrides
}

// Window returns occupied days and prices for nights in [from, to).
func (c *Calendar) Window(from, to time.Time) Window {
	r := daterange.Partial(from, to)
	return Window{
		Range:    r,
		Occupied: c.Occupied.Within(r),
		Rates:    c.Rates.Restrict(r),
	}
}

// CanReserve reports whether no night of r is occupied.
func (c *Calendar) CanReserve(r daterange.DateRange) bool {
	for _, d := range r.Days() {
		if c.Occupied.Contains(d) {
			return false
		}
	}
	return true
}

// Clone copies the calendar contents without pending events.
func (c *Calendar) Clone() *Calendar {
	return &Calendar{
		ListingID: c.ListingID,
		Occupied:  NewOccupiedSet(c.Occupied.Days()...),
		Rates:     c.Rates.clone(),
		Sequence:  c.Sequence,
		UpdatedAt: c.UpdatedAt,
	}
}
