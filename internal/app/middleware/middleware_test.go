package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayquote/internal/app/commands"
	appoutbox "stayquote/internal/app/outbox"
	"stayquote/internal/app/queries"
	"stayquote/internal/app/uow"
	domainavailability "stayquote/internal/domain/availability"
	domainlistings "stayquote/internal/domain/listings"
)

type pingCommand struct{ fail bool }

func (pingCommand) Key() string { return "test.ping" }

func (c pingCommand) Validate() error {
	if c.fail {
		return errors.New("invalid ping")
	}
	return nil
}

type fakeUnit struct {
	committed, rolledBack bool
}

func (u *fakeUnit) Listings() domainlistings.ListingRepository { return nil }
func (u *fakeUnit) Calendars() domainavailability.Repository   { return nil }

func (u *fakeUnit) Commit(context.Context) error {
	u.committed = true
	return nil
}

func (u *fakeUnit) Rollback(context.Context) error {
	u.rolledBack = true
	return nil
}

type fakeFactory struct {
	units []*fakeUnit
	opts  []uow.TxOptions
}

func (f *fakeFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	u := &fakeUnit{}
	f.units = append(f.units, u)
	f.opts = append(f.opts, opts)
	return u, nil
}

type countingOutbox struct {
	flushes int
}

func (o *countingOutbox) Add(context.Context, appoutbox.EventRecord) error { return nil }

func (o *countingOutbox) Flush(context.Context) error {
	o.flushes++
	return nil
}

func TestCommandPipeline(t *testing.T) {
	factory := &fakeFactory{}
	box := &countingOutbox{}
	handlerErr := errors.New("handler failed")

	base := commands.NewInMemoryBus()
	var sawUnit bool
	commands.RegisterHandler[pingCommand, string](base, pingCommand{}.Key(), commands.HandlerFunc[pingCommand, string](func(ctx context.Context, cmd pingCommand) (string, error) {
		_, sawUnit = uow.FromContext(ctx)
		if len(factory.units) == 2 {
			return "", handlerErr
		}
		return "pong", nil
	}))
	bus := ChainCommands(base,
		Validation(StructValidator{}),
		OutboxFlush(box),
		Transaction(factory, func(commands.Command) uow.TxOptions { return uow.TxOptions{ReadOnly: true} }),
	)
	ctx := context.Background()

	res, err := commands.Dispatch[pingCommand, string](ctx, bus, pingCommand{})
	require.NoError(t, err)
	assert.Equal(t, "pong", res)
	assert.True(t, sawUnit)
	assert.True(t, factory.units[0].committed)
	assert.False(t, factory.units[0].rolledBack)
	assert.True(t, factory.opts[0].ReadOnly)
	assert.Equal(t, 1, box.flushes)

	_, err = commands.Dispatch[pingCommand, string](ctx, bus, pingCommand{})
	assert.ErrorIs(t, err, handlerErr)
	assert.True(t, factory.units[1].rolledBack)
	assert.False(t, factory.units[1].committed)
	assert.Equal(t, 1, box.flushes, "failed commands relay nothing")

	_, err = commands.Dispatch[pingCommand, string](ctx, bus, pingCommand{fail: true})
	assert.EqualError(t, err, "invalid ping")
	assert.Len(t, factory.units, 2, "validation runs before the transaction")
}

type echoQuery struct{ value string }

func (echoQuery) Key() string { return "test.echo" }

func (q echoQuery) Validate() error {
	if q.value == "" {
		return errors.New("value required")
	}
	return nil
}

func TestQueryValidationAndBus(t *testing.T) {
	base := queries.NewInMemoryBus()
	queries.RegisterHandler[echoQuery, string](base, echoQuery{}.Key(), queries.HandlerFunc[echoQuery, string](func(ctx context.Context, q echoQuery) (string, error) {
		return q.value, nil
	}))
	bus := ChainQueries(base, QueryValidation(StructValidator{}))

	got, err := queries.Ask[echoQuery, string](context.Background(), bus, echoQuery{value: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", got)

	_, err = queries.Ask[echoQuery, string](context.Background(), bus, echoQuery{})
	assert.EqualError(t, err, "value required")

	_, err = queries.Ask[echoQuery, int](context.Background(), bus, echoQuery{value: "hi"})
	assert.ErrorIs(t, err, queries.ErrResultType)

	assert.Panics(t, func() {
		queries.RegisterHandler[echoQuery, string](base, echoQuery{}.Key(), queries.HandlerFunc[echoQuery, string](nil))
	})

	_, err = base.Ask(context.Background(), pingQuery{})
	assert.ErrorIs(t, err, queries.ErrHandlerNotFound)
}

type pingQuery struct{}

func (pingQuery) Key() string { return "test.missing" }
