package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "stayquote/internal/app/outbox"
	"stayquote/internal/app/uow"
	domainavailability "stayquote/internal/domain/availability"
	domainlistings "stayquote/internal/domain/listings"
	"stayquote/internal/domain/pricing"
)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestListingRepositoryCopiesAggregates(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()

	_, err := repo.ByID(ctx, "missing")
	assert.ErrorIs(t, err, domainlistings.ErrListingNotFound)

	l, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID: "b", Title: "Cabin", Sleeps: 2,
		RateCard: pricing.RateCard{Currency: "USD", BaseNightly: 90},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, l))
	l.Title = "changed after save"

	got, err := repo.ByID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Cabin", got.Title)
	assert.Empty(t, got.PendingEvents())

	a := l.Clone()
	a.ID = "a"
	require.NoError(t, repo.Save(ctx, a))
	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domainlistings.ListingID("a"), all[0].ID)
}

func TestCalendarRepositoryRefusesOlderSequence(t *testing.T) {
	ctx := context.Background()
	repo := NewCalendarRepository()

	_, err := repo.Calendar(ctx, "casa")
	assert.ErrorIs(t, err, domainavailability.ErrCalendarNotFound)

	cal := domainavailability.NewCalendar("casa")
	require.NoError(t, cal.Apply(domainavailability.Snapshot{Sequence: 3, Occupied: []time.Time{day(5)}}, day(1)))
	require.NoError(t, repo.Save(ctx, cal))

	older := domainavailability.NewCalendar("casa")
	require.NoError(t, older.Apply(domainavailability.Snapshot{Sequence: 2}, day(1)))
	assert.ErrorIs(t, repo.Save(ctx, older), domainavailability.ErrStaleSnapshot)

	same := domainavailability.NewCalendar("casa")
	require.NoError(t, same.Apply(domainavailability.Snapshot{Sequence: 3, Occupied: []time.Time{day(9)}}, day(1)))
	assert.ErrorIs(t, repo.Save(ctx, same), domainavailability.ErrStaleSnapshot, "equal sequence is a duplicate")

	loaded, err := repo.Calendar(ctx, "casa")
	require.NoError(t, err)
	assert.Equal(t, int64(3), loaded.Sequence)
	assert.True(t, loaded.Occupied.Contains(day(5)))
	assert.False(t, loaded.Occupied.Contains(day(9)))

	loaded.Rates[day(6)] = 999
	again, err := repo.Calendar(ctx, "casa")
	require.NoError(t, err)
	_, ok := again.Rates.Lookup(day(6))
	assert.False(t, ok, "callers must not mutate stored calendars")
}

func TestFactoryRequiresRepositories(t *testing.T) {
	_, err := Factory{}.Begin(context.Background(), uow.TxOptions{})
	assert.ErrorIs(t, err, ErrFactoryMisconfigured)

	unit, err := Factory{ListingsRepo: NewListingRepository(), CalendarsRepo: NewCalendarRepository()}.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	assert.NotNil(t, unit.Listings())
	assert.NoError(t, unit.Commit(context.Background()))
}

type fakePublisher struct {
	fail     bool
	messages []map[string]string
}

func (p *fakePublisher) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.messages = append(p.messages, headers)
	return nil
}

func TestOutboxRelaysOnFlush(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	box := NewOutbox(pub, "stayquote.events")

	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "e1", Name: "calendar.synced", Aggregate: "casa", Headers: map[string]string{"event_name": "calendar.synced"}}))
	assert.Empty(t, pub.messages)

	require.NoError(t, box.Flush(ctx))
	require.Len(t, pub.messages, 1)
	assert.Equal(t, "e1", pub.messages[0]["event_id"])
	assert.Equal(t, "calendar.synced", pub.messages[0]["event_name"])
	assert.Equal(t, 1, box.Sent())

	require.NoError(t, box.Flush(ctx))
	assert.Len(t, pub.messages, 1, "records are relayed once")

	pub.fail = true
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "e2"}))
	assert.Error(t, box.Flush(ctx))
}

func TestInboxSeen(t *testing.T) {
	in := NewInbox()
	seen, err := in.Seen(context.Background(), "e1")
	require.NoError(t, err)
	assert.False(t, seen)
	seen, _ = in.Seen(context.Background(), "e1")
	assert.True(t, seen)
}
