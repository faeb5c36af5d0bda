package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayquote/internal/domain/pricing"
	"stayquote/internal/domain/shared/events"
)

var (
	ErrIDRequired      = errors.New("listings: id is required")
	ErrTitleRequired   = errors.New("listings: title is required")
	ErrSleeps          = errors.New("listings: sleeps must be at least 1")
	ErrInvalidState    = errors.New("listings: invalid state transition")
	ErrListingNotFound = errors.New("listings: listing not found")
)

type ListingID string

type ListingState string

const (
	ListingDraft     ListingState = "DRAFT"
	ListingActive    ListingState = "ACTIVE"
	ListingSuspended ListingState = "SUSPENDED"
)

// Listing is a bookable property together with its rate card.
type Listing struct {
	ID           ListingID
	Title        string
	Sleeps       int
	CheckInTime  string
	CheckOutTime string
	ICalURL      string
	RateCard     pricing.RateCard
	State        ListingState
	CreatedAt    time.Time
	UpdatedAt    time.Time
	events.EventRecorder
}

type ListingRepository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	List(ctx context.Context) ([]*Listing, error)
}

type CreateListingParams struct {
	ID           ListingID
	Title        string
	Sleeps       int
	CheckInTime  string
	CheckOutTime string
	ICalURL      string
	RateCard     pricing.RateCard
	Now          time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.Sleeps < 1 {
		return nil, ErrSleeps
	}
	card := params.RateCard
	card.Currency = strings.ToUpper(strings.TrimSpace(card.Currency))
	if card.MaxGuests == 0 || card.MaxGuests > params.Sleeps {
		card.MaxGuests = params.Sleeps
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}

	listing := &Listing{
		ID:           params.ID,
		Title:        strings.TrimSpace(params.Title),
		Sleeps:       params.Sleeps,
		CheckInTime:  strings.TrimSpace(params.CheckInTime),
		CheckOutTime: strings.TrimSpace(params.CheckOutTime),
		ICalURL:      strings.TrimSpace(params.ICalURL),
		RateCard:     card,
		State:        ListingDraft,
		CreatedAt:    params.Now.UTC(),
		UpdatedAt:    params.Now.UTC(),
	}
	listing.Record(ListingCreatedEvent{ListingID: listing.ID, At: listing.CreatedAt})
	return listing, nil
}

func (l *Listing) Activate(now time.Time) error {
	if l.State == ListingActive {
		return nil
	}
	l.State = ListingActive
	l.UpdatedAt = now.UTC()
	l.Record(ListingActivatedEvent{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Suspend(now time.Time, reason string) error {
	if l.State != ListingActive {
		return ErrInvalidState
	}
	l.State = ListingSuspended
	l.UpdatedAt = now.UTC()
	l.Record(ListingSuspendedEvent{ListingID: l.ID, Reason: reason, At: l.UpdatedAt})
	return nil
}

// UpdateRateCard replaces the price sheet; quotes built from the old card are stale afterwards.
func (l *Listing) UpdateRateCard(card pricing.RateCard, now time.Time) error {
	card.Currency = strings.ToUpper(strings.TrimSpace(card.Currency))
	if card.MaxGuests == 0 || card.MaxGuests > l.Sleeps {
		card.MaxGuests = l.Sleeps
	}
	if err := card.Validate(); err != nil {
		return err
	}
	l.RateCard = card
	l.UpdatedAt = now.UTC()
	l.Record(RateCardChangedEvent{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Bookable() bool {
	return l.State == ListingActive
}

// Clone returns a copy without pending events.
func (l *Listing) Clone() *Listing {
	cp := *l
	cp.ClearEvents()
	return &cp
}
