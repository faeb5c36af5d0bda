package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayquote/internal/domain/availability"
	"stayquote/internal/domain/shared/daterange"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func constraints(occupied ...time.Time) Constraints {
	return Constraints{
		Occupied:      availability.NewOccupiedSet(occupied...),
		MinSelectable: day(2025, 6, 1),
	}
}

func TestNewStatePhase(t *testing.T) {
	assert.Equal(t, AwaitingStart, NewState(daterange.DateRange{}).Phase)
	assert.Equal(t, AwaitingEnd, NewState(daterange.DateRange{CheckIn: day(2025, 6, 10)}).Phase)
	assert.Equal(t, AwaitingStart, NewState(daterange.DateRange{CheckIn: day(2025, 6, 10), CheckOut: day(2025, 6, 12)}).Phase)
}

func TestSelectFromAwaitingStart(t *testing.T) {
	c := constraints(day(2025, 6, 5))

	t.Run("occupied day is ignored", func(t *testing.T) {
		s := NewState(daterange.DateRange{})
		out := Select(s, day(2025, 6, 5), c)
		assert.False(t, out.Accepted)
		assert.Equal(t, ReasonOccupied, out.Reason)
		assert.Equal(t, s, out.State)
	})

	t.Run("past day is ignored", func(t *testing.T) {
		s := NewState(daterange.DateRange{})
		out := Select(s, day(2025, 5, 31), c)
		assert.False(t, out.Accepted)
		assert.Equal(t, ReasonPast, out.Reason)
		assert.Equal(t, s, out.State)
	})

	t.Run("min date itself is selectable", func(t *testing.T) {
		out := Select(NewState(daterange.DateRange{}), day(2025, 6, 1), c)
		assert.True(t, out.Accepted)
	})

	t.Run("free day starts a new range", func(t *testing.T) {
		prev := NewState(daterange.DateRange{CheckIn: day(2025, 6, 20), CheckOut: day(2025, 6, 22)})
		out := Select(prev, day(2025, 6, 10).Add(15*time.Hour), c)
		require.True(t, out.Accepted)
		assert.False(t, out.Completed)
		assert.Equal(t, AwaitingEnd, out.State.Phase)
		assert.Equal(t, day(2025, 6, 10), out.State.Range.CheckIn)
		assert.True(t, out.State.Range.CheckOut.IsZero())
	})
}

func TestSelectFromAwaitingEnd(t *testing.T) {
	start := NewState(daterange.DateRange{CheckIn: day(2025, 6, 10)})
	c := constraints(day(2025, 6, 15), day(2025, 6, 8))

	t.Run("past the next reservation is rejected", func(t *testing.T) {
		out := Select(start, day(2025, 6, 20), c)
		assert.False(t, out.Accepted)
		assert.Equal(t, ReasonStraddles, out.Reason)
		assert.Equal(t, start, out.State)
	})

	t.Run("checkout on the next reservation's first night", func(t *testing.T) {
		out := Select(start, day(2025, 6, 15), c)
		require.True(t, out.Accepted)
		assert.True(t, out.Completed)
		assert.Equal(t, AwaitingStart, out.State.Phase)
		assert.Equal(t, day(2025, 6, 15), out.State.Range.CheckOut)
		assert.Equal(t, 5, out.State.Range.Nights())
	})

	t.Run("same day is a zero night stay", func(t *testing.T) {
		out := Select(start, day(2025, 6, 10), c)
		assert.False(t, out.Accepted)
		assert.Equal(t, ReasonZeroNights, out.Reason)
		assert.Equal(t, start, out.State)
	})

	t.Run("earlier free day restarts the range", func(t *testing.T) {
		out := Select(start, day(2025, 6, 9), c)
		require.True(t, out.Accepted)
		assert.False(t, out.Completed)
		assert.Equal(t, AwaitingEnd, out.State.Phase)
		assert.Equal(t, day(2025, 6, 9), out.State.Range.CheckIn)
	})

	t.Run("earlier occupied day is ignored", func(t *testing.T) {
		out := Select(start, day(2025, 6, 8), c)
		assert.False(t, out.Accepted)
		assert.Equal(t, ReasonOccupied, out.Reason)
		assert.Equal(t, start, out.State)
	})

	t.Run("no reservation ahead means no limit", func(t *testing.T) {
		out := Select(start, day(2026, 1, 3), constraints())
		assert.True(t, out.Completed)
		assert.Equal(t, 207, out.State.Range.Nights())
	})
}

func TestRangeLimit(t *testing.T) {
	occ := availability.NewOccupiedSet(day(2025, 6, 3), day(2025, 6, 15), day(2025, 6, 12), day(2025, 6, 10))

	limit, ok := RangeLimit(day(2025, 6, 10), occ)
	require.True(t, ok)
	assert.Equal(t, day(2025, 6, 12), limit)

	_, ok = RangeLimit(day(2025, 6, 15), occ)
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	c := constraints(day(2025, 6, 15))

	t.Run("awaiting end", func(t *testing.T) {
		s := NewState(daterange.DateRange{CheckIn: day(2025, 6, 10)})
		days := ClassifyWindow(s, day(2025, 6, 9), day(2025, 6, 16), c)
		require.Len(t, days, 8)

		byDay := map[int]DayView{}
		for _, d := range days {
			byDay[d.Date.Day()] = d
		}
		assert.False(t, byDay[9].Disabled)
		assert.True(t, byDay[10].Disabled)
		assert.True(t, byDay[10].Start)
		assert.False(t, byDay[12].Disabled)
		assert.True(t, byDay[15].Occupied)
		assert.False(t, byDay[15].Disabled)
		assert.True(t, byDay[16].Disabled)
		assert.False(t, byDay[16].Occupied)
	})

	t.Run("complete range", func(t *testing.T) {
		s := NewState(daterange.DateRange{CheckIn: day(2025, 6, 10), CheckOut: day(2025, 6, 13)})
		assert.True(t, Classify(s, day(2025, 6, 10), c).Endpoint())
		assert.False(t, Classify(s, day(2025, 6, 10), c).InRange)
		assert.True(t, Classify(s, day(2025, 6, 11), c).InRange)
		assert.True(t, Classify(s, day(2025, 6, 12), c).InRange)
		assert.True(t, Classify(s, day(2025, 6, 13), c).End)
		assert.False(t, Classify(s, day(2025, 6, 13), c).InRange)
		assert.True(t, Classify(s, day(2025, 6, 15), c).Disabled)
		assert.True(t, Classify(s, day(2025, 5, 30), c).Disabled)
	})
}

func TestPickerCompletionFiresOnce(t *testing.T) {
	var completed []daterange.DateRange
	p := NewPicker(daterange.DateRange{}, constraints(day(2025, 6, 15)), func(r daterange.DateRange) {
		completed = append(completed, r)
	})

	p.Click(day(2025, 6, 10))
	p.Click(day(2025, 6, 20)) // straddles, ignored
	p.Click(day(2025, 6, 10)) // zero nights, ignored
	assert.Empty(t, completed)

	p.Click(day(2025, 6, 14))
	require.Len(t, completed, 1)
	assert.Equal(t, 4, completed[0].Nights())
	assert.Equal(t, AwaitingStart, p.State().Phase)

	p.Click(day(2025, 6, 16))
	p.Click(day(2025, 6, 18))
	assert.Len(t, completed, 2)

	p.Reset()
	assert.Equal(t, State{Phase: AwaitingStart}, p.State())
}
