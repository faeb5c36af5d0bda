// Package selection resolves day clicks into a validated check-in/check-out pair.
//
// The selector is a two-state machine. From AwaitingStart a click picks the check-in;
// from AwaitingEnd it picks the check-out, restarts the check-in, or is rejected.
// Every step is a pure function of the current State, the clicked day and the
// Constraints, so the same inputs always give the same Outcome.
package selection

import (
	"time"

	"stayquote/internal/domain/availability"
	"stayquote/internal/domain/shared/daterange"
)

type Phase string

const (
	AwaitingStart Phase = "awaiting_start"
	AwaitingEnd   Phase = "awaiting_end"
)

// Reason explains why a click left the state untouched.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonPast       Reason = "before_min_date"
	ReasonOccupied   Reason = "occupied"
	ReasonZeroNights Reason = "zero_nights"
	ReasonStraddles  Reason = "straddles_reservation"
)

// State is the in-progress range and the half the next click fills.
type State struct {
	Range daterange.DateRange
	Phase Phase
}

// NewState derives the phase from the supplied range: a check-in without a
// check-out waits for the end, anything else waits for a new start.
func NewState(r daterange.DateRange) State {
	r = daterange.Partial(r.CheckIn, r.CheckOut)
	if r.HasCheckIn() && !r.HasCheckOut() {
		return State{Range: r, Phase: AwaitingEnd}
	}
	return State{Range: r, Phase: AwaitingStart}
}

// Constraints are the read-only inputs for one picker session.
type Constraints struct {
	Occupied      availability.OccupiedSet
	MinSelectable time.Time
}

// DefaultConstraints uses today's calendar date as the earliest selectable day.
func DefaultConstraints(occupied availability.OccupiedSet, now time.Time) Constraints {
	return Constraints{Occupied: occupied, MinSelectable: daterange.Day(now)}
}

// Outcome is the result of one click.
type Outcome struct {
	State     State
	Accepted  bool
	Completed bool
	Reason    Reason
}

func rejected(s State, reason Reason) Outcome {
	return Outcome{State: s, Reason: reason}
}

// Select applies one click. Rejected clicks return the input state unchanged.
func Select(s State, date time.Time, c Constraints) Outcome {
	day := daterange.Day(date)
	if floor := daterange.Day(c.MinSelectable); !floor.IsZero() && day.Before(floor) {
		return rejected(s, ReasonPast)
	}

	if s.Phase != AwaitingEnd || !s.Range.HasCheckIn() {
		return selectStart(s, day, c)
	}

	start := daterange.Day(s.Range.CheckIn)
	switch {
	case day.Before(start):
		return selectStart(s, day, c)
	case day.Equal(start):
		return rejected(s, ReasonZeroNights)
	}

	if limit, ok := RangeLimit(start, c.Occupied); ok && day.After(limit) {
		return rejected(s, ReasonStraddles)
	}

	return Outcome{
		State:     State{Range: daterange.DateRange{CheckIn: start, CheckOut: day}, Phase: AwaitingStart},
		Accepted:  true,
		Completed: true,
	}
}

func selectStart(s State, day time.Time, c Constraints) Outcome {
	if c.Occupied.Contains(day) {
		return rejected(s, ReasonOccupied)
	}
	return Outcome{
		State:    State{Range: daterange.DateRange{CheckIn: day}, Phase: AwaitingEnd},
		Accepted: true,
	}
}

// RangeLimit is the nearest occupied day strictly after start. A check-out may land
// on it but never beyond it.
func RangeLimit(start time.Time, occupied availability.OccupiedSet) (time.Time, bool) {
	return occupied.NextAfter(start)
}
