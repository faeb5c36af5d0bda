package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"stayquote/internal/app/commands"
	"stayquote/internal/app/dto"
	availabilityapp "stayquote/internal/app/handlers/availability"
	domainavailability "stayquote/internal/domain/availability"
	domainlistings "stayquote/internal/domain/listings"
)

// Inbox deduplicates redelivered messages.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

// Observer receives sync outcomes; *obs.Metrics satisfies it.
type Observer interface {
	SnapshotApplied(applied bool)
	SnapshotFailed()
	UpdateCoalesced()
}

// Handler consumes calendar.updated messages into the debouncer.
type Handler struct {
	Inbox     Inbox
	Debouncer *Debouncer
	Logger    *slog.Logger
}

func (h *Handler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	u, err := DecodeUpdate(msg.Value)
	if err != nil {
		// poison message: log and mark so the partition keeps moving
		h.Logger.Warn("calendar update dropped", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		return nil
	}
	if u.EventID == "" {
		u.EventID = fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, u.EventID)
		if err != nil {
			return fmt.Errorf("inbox: %w", err)
		}
		if seen {
			h.Logger.Debug("calendar update already consumed", "event_id", u.EventID)
			return nil
		}
	}
	h.Debouncer.Submit(u)
	return nil
}

// Applier dispatches the surviving update as an ApplyCalendarSnapshotCommand.
type Applier struct {
	Commands commands.Bus
	Logger   *slog.Logger
	Observer Observer
}

func (a *Applier) Apply(ctx context.Context, u Update) {
	snapshot, err := u.Snapshot()
	if err != nil {
		a.failed(u, err)
		return
	}
	res, err := commands.Dispatch[availabilityapp.ApplyCalendarSnapshotCommand, dto.CalendarSyncResult](ctx, a.Commands, availabilityapp.ApplyCalendarSnapshotCommand{
		ListingID: u.ListingID,
		Snapshot:  snapshot,
	})
	switch {
	case errors.Is(err, domainavailability.ErrStaleSnapshot):
		// another writer stored a newer snapshot between load and save
		a.observeApplied(false)
	case errors.Is(err, domainlistings.ErrListingNotFound):
		a.Logger.Warn("calendar update for unknown listing", "listing_id", u.ListingID, "sequence", u.Sequence)
		a.failedCount()
	case err != nil:
		a.failed(u, err)
	default:
		a.observeApplied(res.Applied)
		a.Logger.Info("calendar update applied", "listing_id", u.ListingID, "sequence", u.Sequence, "applied", res.Applied, "occupied_nights", res.OccupiedNights)
	}
}

func (a *Applier) failed(u Update, err error) {
	a.Logger.Error("calendar update failed", "listing_id", u.ListingID, "sequence", u.Sequence, "error", err)
	a.failedCount()
}

func (a *Applier) failedCount() {
	if a.Observer != nil {
		a.Observer.SnapshotFailed()
	}
}

func (a *Applier) observeApplied(applied bool) {
	if a.Observer != nil {
		a.Observer.SnapshotApplied(applied)
	}
}
