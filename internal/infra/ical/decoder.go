// Package ical reads occupied stays from iCalendar exports such as the
// per-listing feeds published by Airbnb and VRBO.
package ical

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	goical "github.com/emersion/go-ical"

	"stayquote/internal/app/policies"
	"stayquote/internal/domain/shared/daterange"
)

var (
	ErrNoCalendar = errors.New("ical: no VCALENDAR in document")
	ErrMalformed  = errors.New("ical: malformed document")
)

// Decoder maps VEVENTs to stays. DTEND is the checkout day and is exclusive;
// events without an end block their start night only. Cancelled events are skipped.
type Decoder struct {
	// Location interprets floating date-times. Defaults to UTC.
	Location *time.Location
}

func (d Decoder) Decode(r io.Reader) ([]daterange.DateRange, error) {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	dec := goical.NewDecoder(r)
	var (
		stays []daterange.DateRange
		found bool
	)
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		found = true
		for _, ev := range cal.Events() {
			if status, _ := ev.Props.Text(goical.PropStatus); strings.EqualFold(status, "CANCELLED") {
				continue
			}
			start, err := ev.DateTimeStart(loc)
			if err != nil {
				return nil, fmt.Errorf("%w: event start: %v", ErrMalformed, err)
			}
			if start.IsZero() {
				continue
			}
			end, err := ev.DateTimeEnd(loc)
			if err != nil {
				return nil, fmt.Errorf("%w: event end: %v", ErrMalformed, err)
			}
			stays = append(stays, stayFor(start, end))
		}
	}
	if !found {
		return nil, ErrNoCalendar
	}
	sort.Slice(stays, func(i, j int) bool { return stays[i].CheckIn.Before(stays[j].CheckIn) })
	return stays, nil
}

func stayFor(start, end time.Time) daterange.DateRange {
	in, out := daterange.Day(start), daterange.Day(end)
	if !out.After(in) {
		out = daterange.AddDays(in, 1)
	}
	return daterange.DateRange{CheckIn: in, CheckOut: out}
}

var _ policies.CalendarDecoder = Decoder{}
