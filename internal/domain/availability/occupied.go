package availability

import (
	"sort"
	"time"

	"stayquote/internal/domain/shared/daterange"
)

// OccupiedSet holds nights already booked for a listing, at day granularity.
// It is read-only once built; callers share it freely.
type OccupiedSet struct {
	days map[time.Time]struct{}
}

func NewOccupiedSet(days ...time.Time) OccupiedSet {
	s := OccupiedSet{days: make(map[time.Time]struct{}, len(days))}
	for _, d := range days {
		if d.IsZero() {
			continue
		}
		s.days[daterange.Day(d)] = struct{}{}
	}
	return s
}

// OccupiedFromRanges expands booked ranges into their nights.
func OccupiedFromRanges(ranges ...daterange.DateRange) OccupiedSet {
	var days []time.Time
	for _, r := range ranges {
		days = append(days, r.Days()...)
	}
	return NewOccupiedSet(days...)
}

func (s OccupiedSet) Contains(day time.Time) bool {
	if s.days == nil {
		return false
	}
	_, ok := s.days[daterange.Day(day)]
	return ok
}

func (s OccupiedSet) Len() int { return len(s.days) }

// Days returns the occupied days in chronological order.
func (s OccupiedSet) Days() []time.Time {
	out := make([]time.Time, 0, len(s.days))
	for d := range s.days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// NextAfter returns the earliest occupied day strictly after day.
// A linear scan is enough for a year-long calendar.
func (s OccupiedSet) NextAfter(day time.Time) (time.Time, bool) {
	day = daterange.Day(day)
	var (
		best  time.Time
		found bool
	)
	for d := range s.days {
		if !d.After(day) {
			continue
		}
		if !found || d.Before(best) {
			best = d
			found = true
		}
	}
	return best, found
}

// Within returns the subset of days falling on nights of r.
func (s OccupiedSet) Within(r daterange.DateRange) OccupiedSet {
	out := OccupiedSet{days: make(map[time.Time]struct{})}
	for d := range s.days {
		if r.ContainsDate(d) {
			out.days[d] = struct{}{}
		}
	}
	return out
}

// Union merges two sets into a new one.
func (s OccupiedSet) Union(other OccupiedSet) OccupiedSet {
	out := OccupiedSet{days: make(map[time.Time]struct{}, len(s.days)+len(other.days))}
	for d := range s.days {
		out.days[d] = struct{}{}
	}
	for d := range other.days {
		out.days[d] = struct{}{}
	}
	return out
}
