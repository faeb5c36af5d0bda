package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
	ErrInvalidDay   = errors.New("daterange: invalid calendar day")
)

// DayLayout is the ISO calendar-date wire format used for every day value.
const DayLayout = "2006-01-02"

// DateRange represents a half-open interval of nights [checkIn, checkOut).
// A zero CheckIn or CheckOut means that side has not been chosen yet.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Day drops the time-of-day and location, keeping the calendar date of t.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses YYYY-MM-DD, also accepting RFC3339 timestamps for which only the date is kept.
func ParseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(DayLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDay, raw)
	}
	return Day(t), nil
}

func FormatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return Day(t).Format(DayLayout)
}

// AddDays shifts a calendar day by n days.
func AddDays(day time.Time, n int) time.Time {
	return Day(day).AddDate(0, 0, n)
}

// New builds a complete range. Both ends are truncated to calendar days.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Partial builds a range without validation; either side may be zero.
func Partial(checkIn, checkOut time.Time) DateRange {
	return DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
}

func (dr DateRange) HasCheckIn() bool  { return !dr.CheckIn.IsZero() }
func (dr DateRange) HasCheckOut() bool { return !dr.CheckOut.IsZero() }

// IsComplete reports whether both ends are set.
func (dr DateRange) IsComplete() bool {
	return dr.HasCheckIn() && dr.HasCheckOut()
}

func (dr DateRange) Validate() error {
	if !dr.IsComplete() {
		return ErrInvalidRange
	}
	if !Day(dr.CheckOut).After(Day(dr.CheckIn)) {
		return ErrInvalidRange
	}
	return nil
}

// Nights counts whole calendar days between the ends; zero for incomplete ranges.
func (dr DateRange) Nights() int {
	if !dr.IsComplete() {
		return 0
	}
	return DaysBetween(dr.CheckIn, dr.CheckOut)
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// Days enumerates every night of the stay: CheckIn inclusive, CheckOut exclusive.
func (dr DateRange) Days() []time.Time {
	n := dr.Nights()
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	for d := Day(dr.CheckIn); d.Before(Day(dr.CheckOut)); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

// ContainsDate reports whether t falls on a night of the range.
func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Day(t)
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}

// StrictlyInside reports whether t lies strictly between the two ends.
func (dr DateRange) StrictlyInside(t time.Time) bool {
	if !dr.IsComplete() {
		return false
	}
	t = Day(t)
	return t.After(dr.CheckIn) && t.Before(dr.CheckOut)
}

func (dr DateRange) String() string {
	return FormatDay(dr.CheckIn) + ".." + FormatDay(dr.CheckOut)
}
