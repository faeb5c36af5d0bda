package policies

import (
	"context"
	"io"
	"time"

	domainavailability "stayquote/internal/domain/availability"
	domainlistings "stayquote/internal/domain/listings"
	"stayquote/internal/domain/shared/daterange"
)

// CalendarSource pulls a listing's occupied nights and nightly prices from
// the external data source, e.g. the iCal export of a channel manager.
type CalendarSource interface {
	Fetch(ctx context.Context, listing *domainlistings.Listing) (domainavailability.Snapshot, error)
}

// Clock supplies "today" for the selector and timestamps for snapshots.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// CalendarDecoder turns an iCal document into the stays it blocks.
type CalendarDecoder interface {
	Decode(r io.Reader) ([]daterange.DateRange, error)
}
