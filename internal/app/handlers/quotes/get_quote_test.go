package quotes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayquote/internal/app/dto"
	"stayquote/internal/app/middleware"
	"stayquote/internal/app/queries"
	"stayquote/internal/app/quoting"
	domainavailability "stayquote/internal/domain/availability"
	domainlistings "stayquote/internal/domain/listings"
	domainpricing "stayquote/internal/domain/pricing"
	"stayquote/internal/infra/storage/memory"
)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func newBus(t *testing.T) queries.Bus {
	t.Helper()
	ctx := context.Background()
	listings := memory.NewListingRepository()
	calendars := memory.NewCalendarRepository()

	card := domainpricing.RateCard{Currency: "USD", BaseNightly: 300, CleaningFee: 150, DamageDeposit: 500, MinNights: 3}
	for _, id := range []domainlistings.ListingID{"casa", "draft"} {
		l, err := domainlistings.NewListing(domainlistings.CreateListingParams{ID: id, Title: string(id), Sleeps: 6, RateCard: card, Now: day(1)})
		require.NoError(t, err)
		if id == "casa" {
			require.NoError(t, l.Activate(day(1)))
		}
		require.NoError(t, listings.Save(ctx, l))
	}
	cal := domainavailability.NewCalendar("casa")
	require.NoError(t, cal.Apply(domainavailability.Snapshot{
		Sequence: 1,
		Occupied: []time.Time{day(15)},
		Rates:    map[time.Time]int64{day(11): 420},
	}, day(1)))
	require.NoError(t, calendars.Save(ctx, cal))

	bus := queries.NewInMemoryBus()
	queries.RegisterHandler[GetQuoteQuery, dto.QuoteResult](bus, GetQuoteQuery{}.Key(), &GetQuoteHandler{
		UoWFactory:  memory.Factory{ListingsRepo: listings, CalendarsRepo: calendars},
		Calculator:  domainpricing.NewCalculator(domainpricing.DefaultPolicy()),
		Sessions:    quoting.NewSessionTracker(time.Minute, nil),
		IDGenerator: func() string { return "q-1" },
	})
	return middleware.ChainQueries(bus, middleware.QueryValidation(middleware.StructValidator{}))
}

func ask(t *testing.T, bus queries.Bus, q GetQuoteQuery) (dto.QuoteResult, error) {
	t.Helper()
	return queries.Ask[GetQuoteQuery, dto.QuoteResult](context.Background(), bus, q)
}

func TestGetQuoteCompleteRange(t *testing.T) {
	bus := newBus(t)
	res, err := ask(t, bus, GetQuoteQuery{ListingID: "casa", CheckIn: day(10), CheckOut: day(13), Guests: 2})
	require.NoError(t, err)

	assert.Equal(t, "q-1", res.QuoteID)
	assert.True(t, res.Available)
	assert.True(t, res.CanCheckout)
	assert.False(t, res.Stale)
	assert.Equal(t, 3, res.Quote.Nights)
	assert.Equal(t, int64(300+420+300), res.Quote.Subtotal)
	assert.True(t, res.Quote.UsedDynamicPricing)

	var sum int64
	for _, li := range res.Quote.LineItems {
		sum += li.Amount
	}
	assert.Equal(t, res.Quote.Total, sum)
}

func TestGetQuoteGates(t *testing.T) {
	bus := newBus(t)

	t.Run("occupied night inside the range", func(t *testing.T) {
		res, err := ask(t, bus, GetQuoteQuery{ListingID: "casa", CheckIn: day(13), CheckOut: day(17), Guests: 2})
		require.NoError(t, err)
		assert.False(t, res.Available)
		assert.False(t, res.CanCheckout)
	})

	t.Run("below minimum nights", func(t *testing.T) {
		res, err := ask(t, bus, GetQuoteQuery{ListingID: "casa", CheckIn: day(20), CheckOut: day(22), Guests: 2})
		require.NoError(t, err)
		assert.False(t, res.Quote.MeetsMinimumNights)
		assert.False(t, res.CanCheckout)
	})

	t.Run("check-in only is a preview", func(t *testing.T) {
		res, err := ask(t, bus, GetQuoteQuery{ListingID: "casa", CheckIn: day(20), Guests: 1})
		require.NoError(t, err)
		assert.Zero(t, res.Quote.Nights)
		assert.Equal(t, int64(300), res.Quote.AverageNightlyRate)
		assert.False(t, res.CanCheckout)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := ask(t, bus, GetQuoteQuery{ListingID: "casa", CheckIn: day(20), CheckOut: day(18), Guests: 1})
		assert.ErrorIs(t, err, domainpricing.ErrInvalidQuoteRequest)
	})

	t.Run("too many guests", func(t *testing.T) {
		_, err := ask(t, bus, GetQuoteQuery{ListingID: "casa", CheckIn: day(20), CheckOut: day(24), Guests: 7})
		assert.ErrorIs(t, err, domainpricing.ErrInvalidQuoteRequest)
	})

	t.Run("listing id required", func(t *testing.T) {
		_, err := ask(t, bus, GetQuoteQuery{Guests: 1})
		assert.ErrorIs(t, err, domainpricing.ErrInvalidQuoteRequest)
	})

	t.Run("inactive listing", func(t *testing.T) {
		_, err := ask(t, bus, GetQuoteQuery{ListingID: "draft", CheckIn: day(20), CheckOut: day(24), Guests: 1})
		assert.ErrorIs(t, err, ErrListingUnavailable)
	})

	t.Run("unknown listing", func(t *testing.T) {
		_, err := ask(t, bus, GetQuoteQuery{ListingID: "ghost", Guests: 1})
		assert.ErrorIs(t, err, domainlistings.ErrListingNotFound)
	})
}

func TestGetQuoteOutOfOrderResponsesAreStale(t *testing.T) {
	bus := newBus(t)
	base := GetQuoteQuery{ListingID: "casa", CheckIn: day(20), CheckOut: day(24), Guests: 2, SessionID: "tab-1"}

	newer := base
	newer.Sequence = 2
	res, err := ask(t, bus, newer)
	require.NoError(t, err)
	assert.False(t, res.Stale)
	assert.True(t, res.CanCheckout)

	older := base
	older.Sequence = 1
	res, err = ask(t, bus, older)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.False(t, res.CanCheckout, "a stale quote never reaches checkout")

	retry := newer
	res, err = ask(t, bus, retry)
	require.NoError(t, err)
	assert.False(t, res.Stale)

	other := base
	other.SessionID = "tab-2"
	res, err = ask(t, bus, other)
	require.NoError(t, err)
	assert.False(t, res.Stale, "sessions are independent")
}
