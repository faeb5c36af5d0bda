package availability

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"stayquote/internal/app/commands"
	"stayquote/internal/app/dto"
	"stayquote/internal/app/outbox"
	"stayquote/internal/app/policies"
	"stayquote/internal/app/uow"
	domainavailability "stayquote/internal/domain/availability"
	domainlistings "stayquote/internal/domain/listings"
)

const (
	importICalKey      = "availability.import_ical"
	refreshCalendarKey = "availability.refresh_calendar"
)

var (
	ErrEmptyICal     = errors.New("availability: ical body is empty")
	ErrNoICalFeed    = errors.New("availability: listing has no ical feed")
	ErrDecoderNeeded = errors.New("availability: ical decoder not configured")
)

// ImportICalCommand replaces occupied nights with the events of an uploaded
// iCal export. Nightly prices are kept. Zero Sequence means "newer than
// whatever is stored".
type ImportICalCommand struct {
	ListingID string
	Body      []byte
	Sequence  int64
}

func (c ImportICalCommand) Key() string { return importICalKey }

func (c ImportICalCommand) Validate() error {
	if strings.TrimSpace(c.ListingID) == "" {
		return ErrListingIDRequired
	}
	if len(bytes.TrimSpace(c.Body)) == 0 {
		return ErrEmptyICal
	}
	return nil
}

type ImportICalHandler struct {
	Decoder policies.CalendarDecoder
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   policies.Clock
	Logger  *slog.Logger
}

func (h *ImportICalHandler) Handle(ctx context.Context, cmd ImportICalCommand) (dto.CalendarSyncResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.CalendarSyncResult{}, uow.ErrUnitOfWorkMissing
	}
	if h.Decoder == nil {
		return dto.CalendarSyncResult{}, ErrDecoderNeeded
	}
	stays, err := h.Decoder.Decode(bytes.NewReader(cmd.Body))
	if err != nil {
		return dto.CalendarSyncResult{}, fmt.Errorf("decode ical: %w", err)
	}
	snapshot := domainavailability.Snapshot{
		Sequence: cmd.Sequence,
		Source:   domainavailability.SourceICal,
		Occupied: domainavailability.OccupiedFromRanges(stays...).Days(),
	}
	deps := snapshotDeps{outbox: h.Outbox, encoder: h.Encoder, clock: h.Clock, logger: h.Logger}
	return applySnapshot(ctx, unit, deps, cmd.ListingID, snapshot, keepRates, nextSequence)
}

// RefreshCalendarCommand pulls the listing's configured iCal feed.
type RefreshCalendarCommand struct {
	ListingID string
}

func (c RefreshCalendarCommand) Key() string { return refreshCalendarKey }

func (c RefreshCalendarCommand) Validate() error {
	if strings.TrimSpace(c.ListingID) == "" {
		return ErrListingIDRequired
	}
	return nil
}

type RefreshCalendarHandler struct {
	Source  policies.CalendarSource
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   policies.Clock
	Logger  *slog.Logger
}

func (h *RefreshCalendarHandler) Handle(ctx context.Context, cmd RefreshCalendarCommand) (dto.CalendarSyncResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.CalendarSyncResult{}, uow.ErrUnitOfWorkMissing
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return dto.CalendarSyncResult{}, err
	}
	if listing.ICalURL == "" || h.Source == nil {
		return dto.CalendarSyncResult{}, ErrNoICalFeed
	}
	snapshot, err := h.Source.Fetch(ctx, listing)
	if err != nil {
		return dto.CalendarSyncResult{}, fmt.Errorf("fetch ical for %s: %w", listing.ID, err)
	}
	deps := snapshotDeps{outbox: h.Outbox, encoder: h.Encoder, clock: h.Clock, logger: h.Logger}
	return applySnapshot(ctx, unit, deps, cmd.ListingID, snapshot, keepRates, nextSequence)
}

func keepRates(cal *domainavailability.Calendar, s *domainavailability.Snapshot) {
	if s.Rates == nil {
		s.Rates = cal.Rates
	}
}

func nextSequence(cal *domainavailability.Calendar, s *domainavailability.Snapshot) {
	if s.Sequence == 0 {
		s.Sequence = cal.Sequence + 1
	}
}

var (
	_ commands.Handler[ImportICalCommand, dto.CalendarSyncResult]      = (*ImportICalHandler)(nil)
	_ commands.Handler[RefreshCalendarCommand, dto.CalendarSyncResult] = (*RefreshCalendarHandler)(nil)
)
