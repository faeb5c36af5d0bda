package availability

import (
	"time"

	"stayquote/internal/domain/listings"
)

type CalendarSynced struct {
	ListingID      string
	Sequence       int64
	Source         Source
	OccupiedNights int
	At             time.Time
}

func (e CalendarSynced) EventName() string     { return "calendar.synced" }
func (e CalendarSynced) AggregateID() string   { return e.ListingID }
func (e CalendarSynced) OccurredAt() time.Time { return e.At }

type CalendarSnapshotSuperseded struct {
	ListingID string
	Sequence  int64
	Current   int64
	At        time.Time
}

func (e CalendarSnapshotSuperseded) EventName() string     { return "calendar.snapshot_superseded" }
func (e CalendarSnapshotSuperseded) AggregateID() string   { return e.ListingID }
func (e CalendarSnapshotSuperseded) OccurredAt() time.Time { return e.At }

func CalendarSyncedEvent(id listings.ListingID, s Snapshot, occupied int, at time.Time) CalendarSynced {
	return CalendarSynced{ListingID: string(id), Sequence: s.Sequence, Source: s.Source, OccupiedNights: occupied, At: at}
}

func CalendarSnapshotSupersededEvent(id listings.ListingID, seq, current int64, at time.Time) CalendarSnapshotSuperseded {
	return CalendarSnapshotSuperseded{ListingID: string(id), Sequence: seq, Current: current, At: at}
}
