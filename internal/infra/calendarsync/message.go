// Package calendarsync applies availability feed updates from Kafka.
//
// The feed may publish several updates for one listing in quick succession.
// Updates are coalesced per listing on the trailing edge of a debounce window
// and the newest sequence wins; older payloads are dropped, never merged.
package calendarsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domainavailability "stayquote/internal/domain/availability"
	"stayquote/internal/domain/shared/daterange"
)

var ErrMalformedUpdate = errors.New("calendarsync: malformed calendar update")

// Update is the calendar.updated payload.
type Update struct {
	EventID   string           `json:"event_id"`
	ListingID string           `json:"listing_id"`
	Sequence  int64            `json:"sequence"`
	Window    *Window          `json:"window,omitempty"`
	Occupied  []string         `json:"occupied"`
	Rates     map[string]int64 `json:"rates"`
}

// Window limits the update to nights in [From, To).
type Window struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func DecodeUpdate(data []byte) (Update, error) {
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		return Update{}, fmt.Errorf("%w: %v", ErrMalformedUpdate, err)
	}
	u.ListingID = strings.TrimSpace(u.ListingID)
	if u.ListingID == "" {
		return Update{}, fmt.Errorf("%w: listing_id is required", ErrMalformedUpdate)
	}
	if u.Sequence <= 0 {
		return Update{}, fmt.Errorf("%w: sequence must be positive", ErrMalformedUpdate)
	}
	return u, nil
}

func (u Update) Snapshot() (domainavailability.Snapshot, error) {
	s := domainavailability.Snapshot{
		Sequence: u.Sequence,
		Source:   domainavailability.SourceFeed,
		Occupied: make([]time.Time, 0, len(u.Occupied)),
		Rates:    make(map[time.Time]int64, len(u.Rates)),
	}
	if u.Window != nil {
		from, err := daterange.ParseDay(u.Window.From)
		if err != nil {
			return domainavailability.Snapshot{}, fmt.Errorf("%w: window.from: %v", ErrMalformedUpdate, err)
		}
		to, err := daterange.ParseDay(u.Window.To)
		if err != nil {
			return domainavailability.Snapshot{}, fmt.Errorf("%w: window.to: %v", ErrMalformedUpdate, err)
		}
		if s.Window, err = daterange.New(from, to); err != nil {
			return domainavailability.Snapshot{}, fmt.Errorf("%w: window: %v", ErrMalformedUpdate, err)
		}
	}
	for _, raw := range u.Occupied {
		d, err := daterange.ParseDay(raw)
		if err != nil {
			return domainavailability.Snapshot{}, fmt.Errorf("%w: occupied: %v", ErrMalformedUpdate, err)
		}
		s.Occupied = append(s.Occupied, d)
	}
	for raw, price := range u.Rates {
		d, err := daterange.ParseDay(raw)
		if err != nil {
			return domainavailability.Snapshot{}, fmt.Errorf("%w: rates: %v", ErrMalformedUpdate, err)
		}
		s.Rates[d] = price
	}
	return s, nil
}
