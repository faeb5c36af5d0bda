// Package bootstrap registers every query and command handler on the
// in-memory buses and wraps them with the standard middleware chain.
package bootstrap

import (
	"errors"
	"log/slog"

	"stayquote/internal/app/commands"
	"stayquote/internal/app/dto"
	availabilityapp "stayquote/internal/app/handlers/availability"
	quotesapp "stayquote/internal/app/handlers/quotes"
	"stayquote/internal/app/middleware"
	"stayquote/internal/app/outbox"
	"stayquote/internal/app/policies"
	"stayquote/internal/app/queries"
	"stayquote/internal/app/quoting"
	"stayquote/internal/app/uow"
	domainpricing "stayquote/internal/domain/pricing"
)

var ErrDepsMissing = errors.New("bootstrap: unit of work factory and outbox are required")

type Deps struct {
	UoW        uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Calculator *domainpricing.Calculator
	Sessions   *quoting.SessionTracker
	Decoder    policies.CalendarDecoder
	Source     policies.CalendarSource
	Clock      policies.Clock
	Logger     *slog.Logger
}

type Buses struct {
	Queries  queries.Bus
	Commands commands.Bus
}

func NewBuses(d Deps) (Buses, error) {
	if d.UoW == nil || d.Outbox == nil {
		return Buses{}, ErrDepsMissing
	}
	if d.Encoder == nil {
		d.Encoder = outbox.JSONEventEncoder{}
	}
	if d.Clock == nil {
		d.Clock = policies.SystemClock{}
	}
	if d.Calculator == nil {
		d.Calculator = domainpricing.NewCalculator(domainpricing.DefaultPolicy())
	}

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[quotesapp.GetQuoteQuery, dto.QuoteResult](queryBus, quotesapp.GetQuoteQuery{}.Key(), &quotesapp.GetQuoteHandler{
		UoWFactory: d.UoW,
		Calculator: d.Calculator,
		Sessions:   d.Sessions,
	})
	queries.RegisterHandler[availabilityapp.GetCalendarQuery, dto.CalendarView](queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{
		UoWFactory: d.UoW,
		Clock:      d.Clock,
	})
	queries.RegisterHandler[availabilityapp.SelectDateQuery, dto.SelectionResult](queryBus, availabilityapp.SelectDateQuery{}.Key(), &availabilityapp.SelectDateHandler{
		UoWFactory: d.UoW,
		Clock:      d.Clock,
	})

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler[availabilityapp.ApplyCalendarSnapshotCommand, dto.CalendarSyncResult](commandBus, availabilityapp.ApplyCalendarSnapshotCommand{}.Key(), &availabilityapp.ApplyCalendarSnapshotHandler{
		Outbox:  d.Outbox,
		Encoder: d.Encoder,
		Clock:   d.Clock,
		Logger:  d.Logger,
	})
	commands.RegisterHandler[availabilityapp.ImportICalCommand, dto.CalendarSyncResult](commandBus, availabilityapp.ImportICalCommand{}.Key(), &availabilityapp.ImportICalHandler{
		Decoder: d.Decoder,
		Outbox:  d.Outbox,
		Encoder: d.Encoder,
		Clock:   d.Clock,
		Logger:  d.Logger,
	})
	commands.RegisterHandler[availabilityapp.RefreshCalendarCommand, dto.CalendarSyncResult](commandBus, availabilityapp.RefreshCalendarCommand{}.Key(), &availabilityapp.RefreshCalendarHandler{
		Source:  d.Source,
		Outbox:  d.Outbox,
		Encoder: d.Encoder,
		Clock:   d.Clock,
		Logger:  d.Logger,
	})

	return Buses{
		Queries: middleware.ChainQueries(queryBus, middleware.QueryValidation(middleware.StructValidator{})),
		// Transaction is innermost so events are relayed only after commit.
		Commands: middleware.ChainCommands(commandBus,
			middleware.Validation(middleware.StructValidator{}),
			middleware.OutboxFlush(d.Outbox),
			middleware.Transaction(d.UoW, nil),
		),
	}, nil
}
