package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayquote/internal/domain/shared/daterange"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOccupiedSetNormalizesDays(t *testing.T) {
	s := NewOccupiedSet(time.Date(2025, 6, 5, 18, 0, 0, 0, time.UTC), day(2025, 6, 5), time.Time{})
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Contains(time.Date(2025, 6, 5, 7, 0, 0, 0, time.UTC)))
	assert.False(t, s.Contains(day(2025, 6, 6)))

	var empty OccupiedSet
	assert.False(t, empty.Contains(day(2025, 6, 5)))
	_, ok := empty.NextAfter(day(2025, 6, 5))
	assert.False(t, ok)
}

func TestOccupiedFromRanges(t *testing.T) {
	s := OccupiedFromRanges(
		daterange.DateRange{CheckIn: day(2025, 6, 5), CheckOut: day(2025, 6, 8)},
		daterange.DateRange{CheckIn: day(2025, 6, 20), CheckOut: day(2025, 6, 21)},
	)
	assert.Equal(t, []time.Time{day(2025, 6, 5), day(2025, 6, 6), day(2025, 6, 7), day(2025, 6, 20)}, s.Days())
}

func TestRateOverridesRestrict(t *testing.T) {
	r := NewRateOverrides(map[time.Time]int64{
		day(2025, 6, 9):  100,
		day(2025, 6, 10): 200,
		day(2025, 6, 12): 300,
	})
	got := r.Restrict(daterange.DateRange{CheckIn: day(2025, 6, 10), CheckOut: day(2025, 6, 12)})
	assert.Equal(t, RateOverrides{day(2025, 6, 10): 200}, got)

	p, ok := r.Lookup(time.Date(2025, 6, 12, 23, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, int64(300), p)
}

func TestCalendarApply(t *testing.T) {
	now := day(2025, 5, 1)

	t.Run("full snapshot replaces everything", func(t *testing.T) {
		c := NewCalendar("villa")
		require.NoError(t, c.Apply(Snapshot{Sequence: 1, Occupied: []time.Time{day(2025, 6, 5)}, Rates: map[time.Time]int64{day(2025, 6, 6): 410}}, now))
		require.NoError(t, c.Apply(Snapshot{Sequence: 2, Occupied: []time.Time{day(2025, 7, 1)}}, now))

		assert.False(t, c.Occupied.Contains(day(2025, 6, 5)))
		assert.True(t, c.Occupied.Contains(day(2025, 7, 1)))
		assert.Empty(t, c.Rates)
		assert.Equal(t, int64(2), c.Sequence)
	})

	t.Run("windowed snapshot keeps days outside the window", func(t *testing.T) {
		c := NewCalendar("villa")
		require.NoError(t, c.Apply(Snapshot{
			Sequence: 1,
			Occupied: []time.Time{day(2025, 6, 5), day(2025, 7, 5)},
			Rates:    map[time.Time]int64{day(2025, 6, 6): 410, day(2025, 7, 6): 390},
		}, now))
		require.NoError(t, c.Apply(Snapshot{
			Sequence: 2,
			Window:   daterange.DateRange{CheckIn: day(2025, 7, 1), CheckOut: day(2025, 8, 1)},
			Occupied: []time.Time{day(2025, 7, 10), day(2025, 9, 1)},
			Rates:    map[time.Time]int64{day(2025, 7, 11): 500},
		}, now))

		assert.Equal(t, []time.Time{day(2025, 6, 5), day(2025, 7, 10)}, c.Occupied.Days())
		assert.Equal(t, RateOverrides{day(2025, 6, 6): 410, day(2025, 7, 11): 500}, c.Rates)
	})

	t.Run("older snapshot is rejected", func(t *testing.T) {
		c := NewCalendar("villa")
		require.NoError(t, c.Apply(Snapshot{Sequence: 5, Occupied: []time.Time{day(2025, 6, 5)}}, now))
		c.ClearEvents()

		err := c.Apply(Snapshot{Sequence: 4, Occupied: []time.Time{day(2025, 6, 9)}}, now)
		assert.ErrorIs(t, err, ErrStaleSnapshot)
		assert.True(t, c.Occupied.Contains(day(2025, 6, 5)))
		assert.False(t, c.Occupied.Contains(day(2025, 6, 9)))

		evts := c.PendingEvents()
		require.Len(t, evts, 1)
		assert.Equal(t, "calendar.snapshot_superseded", evts[0].EventName())
	})

	t.Run("negative price is rejected", func(t *testing.T) {
		c := NewCalendar("villa")
		err := c.Apply(Snapshot{Sequence: 1, Rates: map[time.Time]int64{day(2025, 6, 6): -1}}, now)
		assert.ErrorIs(t, err, ErrInvalidPrice)
		assert.Equal(t, int64(0), c.Sequence)
	})
}

func TestCalendarWindowAndCanReserve(t *testing.T) {
	c := NewCalendar("villa")
	require.NoError(t, c.Apply(Snapshot{
		Sequence: 1,
		Occupied: []time.Time{day(2025, 6, 5), day(2025, 6, 15)},
		Rates:    map[time.Time]int64{day(2025, 6, 10): 350, day(2025, 6, 20): 370},
	}, day(2025, 5, 1)))

	w := c.Window(day(2025, 6, 1), day(2025, 6, 15))
	assert.Equal(t, []time.Time{day(2025, 6, 5)}, w.Occupied.Days())
	assert.Equal(t, RateOverrides{day(2025, 6, 10): 350}, w.Rates)

	assert.True(t, c.CanReserve(daterange.DateRange{CheckIn: day(2025, 6, 10), CheckOut: day(2025, 6, 15)}))
	assert.False(t, c.CanReserve(daterange.DateRange{CheckIn: day(2025, 6, 10), CheckOut: day(2025, 6, 16)}))
}
