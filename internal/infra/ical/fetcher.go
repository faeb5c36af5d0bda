package ical

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"stayquote/internal/app/policies"
	domainavailability "stayquote/internal/domain/availability"
	domainlistings "stayquote/internal/domain/listings"
	"stayquote/internal/domain/shared/daterange"
)

const maxFeedBytes = 4 << 20

var ErrFeedUnavailable = errors.New("ical: feed unavailable")

// Fetcher downloads a listing's iCal feed. Concurrent refreshes of the same
// URL share one download.
type Fetcher struct {
	Client  *http.Client
	Decoder policies.CalendarDecoder

	group singleflight.Group
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{Client: &http.Client{Timeout: timeout}, Decoder: Decoder{}}
}

func (f *Fetcher) Fetch(ctx context.Context, listing *domainlistings.Listing) (domainavailability.Snapshot, error) {
	url := listing.ICalURL
	v, err, _ := f.group.Do(url, func() (any, error) {
		return f.download(ctx, url)
	})
	if err != nil {
		return domainavailability.Snapshot{}, err
	}
	stays := v.([]daterange.DateRange)
	return domainavailability.Snapshot{
		Source:   domainavailability.SourceICal,
		Occupied: domainavailability.OccupiedFromRanges(stays...).Days(),
	}, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]daterange.DateRange, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar")
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: feed returned %s", ErrFeedUnavailable, resp.Status)
	}
	dec := f.Decoder
	if dec == nil {
		dec = Decoder{}
	}
	return dec.Decode(io.LimitReader(resp.Body, maxFeedBytes))
}

var _ policies.CalendarSource = (*Fetcher)(nil)
