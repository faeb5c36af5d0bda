package selection

import (
	"time"

	"stayquote/internal/domain/shared/daterange"
)

// DayView classifies one visible day along independent axes.
type DayView struct {
	Date     time.Time
	Occupied bool
	// Disabled means a click on this day would be rejected in the current phase.
	Disabled bool
	Start    bool
	End      bool
	// InRange is strictly between check-in and check-out.
	InRange bool
}

func (d DayView) Endpoint() bool { return d.Start || d.End }

func Classify(s State, date time.Time, c Constraints) DayView {
	day := daterange.Day(date)
	return DayView{
		Date:     day,
		Occupied: c.Occupied.Contains(day),
		Disabled: !Select(s, day, c).Accepted,
		Start:    s.Range.HasCheckIn() && day.Equal(daterange.Day(s.Range.CheckIn)),
		End:      s.Range.HasCheckOut() && day.Equal(daterange.Day(s.Range.CheckOut)),
		InRange:  s.Range.StrictlyInside(day),
	}
}

// ClassifyWindow classifies every day from first through last, inclusive.
func ClassifyWindow(s State, first, last time.Time, c Constraints) []DayView {
	first, last = daterange.Day(first), daterange.Day(last)
	if first.IsZero() || last.Before(first) {
		return nil
	}
	out := make([]DayView, 0, daterange.DaysBetween(first, last)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, Classify(s, d, c))
	}
	return out
}
