package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"stayquote/internal/app/commands"
	"stayquote/internal/app/dto"
	"stayquote/internal/app/handlers/support"
	"stayquote/internal/app/outbox"
	"stayquote/internal/app/policies"
	"stayquote/internal/app/uow"
	domainavailability "stayquote/internal/domain/availability"
	domainlistings "stayquote/internal/domain/listings"
)

const applySnapshotKey = "availability.apply_snapshot"

var ErrListingIDRequired = errors.New("availability: listing id is required")

// ApplyCalendarSnapshotCommand replaces a listing's occupied nights and prices.
// Snapshots that are not newer than the stored one are dropped, not merged.
type ApplyCalendarSnapshotCommand struct {
	ListingID string
	Snapshot  domainavailability.Snapshot
}

func (c ApplyCalendarSnapshotCommand) Key() string { return applySnapshotKey }

func (c ApplyCalendarSnapshotCommand) Validate() error {
	if strings.TrimSpace(c.ListingID) == "" {
		return ErrListingIDRequired
	}
	return nil
}

type ApplyCalendarSnapshotHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   policies.Clock
	Logger  *slog.Logger
}

func (h *ApplyCalendarSnapshotHandler) Handle(ctx context.Context, cmd ApplyCalendarSnapshotCommand) (dto.CalendarSyncResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.CalendarSyncResult{}, uow.ErrUnitOfWorkMissing
	}
	return applySnapshot(ctx, unit, snapshotDeps{outbox: h.Outbox, encoder: h.Encoder, clock: h.Clock, logger: h.Logger}, cmd.ListingID, cmd.Snapshot)
}

type snapshotDeps struct {
	outbox  outbox.Outbox
	encoder outbox.EventEncoder
	clock   policies.Clock
	logger  *slog.Logger
}

// applySnapshot is shared by the feed, iCal import and refresh paths. prepare,
// when set, may adjust the snapshot once the current calendar is known.
func applySnapshot(ctx context.Context, unit uow.UnitOfWork, deps snapshotDeps, listingID string, snapshot domainavailability.Snapshot, prepare ...func(*domainavailability.Calendar, *domainavailability.Snapshot)) (dto.CalendarSyncResult, error) {
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(listingID))
	if err != nil {
		return dto.CalendarSyncResult{}, err
	}
	calendar, err := support.LoadCalendar(ctx, unit, listing.ID)
	if err != nil {
		return dto.CalendarSyncResult{}, err
	}
	for _, fn := range prepare {
		fn(calendar, &snapshot)
	}

	clock := deps.clock
	if clock == nil {
		clock = policies.SystemClock{}
	}
	result := dto.CalendarSyncResult{ListingID: string(listing.ID), Sequence: snapshot.Sequence}

	applyErr := calendar.Apply(snapshot, clock.Now())
	switch {
	case errors.Is(applyErr, domainavailability.ErrStaleSnapshot):
		if deps.logger != nil {
			deps.logger.Info("calendar snapshot superseded", "listing_id", listing.ID, "sequence", snapshot.Sequence, "current", calendar.Sequence)
		}
	case applyErr != nil:
		return dto.CalendarSyncResult{}, fmt.Errorf("apply snapshot %d for %s: %w", snapshot.Sequence, listing.ID, applyErr)
	default:
		err := unit.Calendars().Save(ctx, calendar)
		switch {
		case errors.Is(err, domainavailability.ErrStaleSnapshot):
			// another writer stored this sequence or a newer one first
			calendar.ClearEvents()
			if deps.logger != nil {
				deps.logger.Info("calendar snapshot lost race", "listing_id", listing.ID, "sequence", snapshot.Sequence)
			}
		case err != nil:
			return dto.CalendarSyncResult{}, err
		default:
			result.Applied = true
		}
	}

	pending := calendar.PendingEvents()
	if err := outbox.RecordDomainEvents(ctx, deps.outbox, deps.encoder, pending); err != nil {
		return dto.CalendarSyncResult{}, err
	}
	calendar.ClearEvents()

	result.OccupiedNights = calendar.Occupied.Len()
	result.Events = len(pending)
	return result, nil
}

var _ commands.Handler[ApplyCalendarSnapshotCommand, dto.CalendarSyncResult] = (*ApplyCalendarSnapshotHandler)(nil)
