package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stayquote/internal/app/dto"
	"stayquote/internal/app/handlers/support"
	"stayquote/internal/app/queries"
	"stayquote/internal/app/quoting"
	"stayquote/internal/app/uow"
	domainlistings "stayquote/internal/domain/listings"
	domainpricing "stayquote/internal/domain/pricing"
	"stayquote/internal/domain/shared/daterange"
)

const getQuoteKey = "quotes.get"

var ErrListingUnavailable = errors.New("quotes: listing is not bookable")

// GetQuoteQuery prices a (possibly incomplete) range for a guest count.
type GetQuoteQuery struct {
	ListingID string
	CheckIn   time.Time
	CheckOut  time.Time
	Guests    int
	SessionID string
	Sequence  int64
}

func (q GetQuoteQuery) Key() string { return getQuoteKey }

func (q GetQuoteQuery) Validate() error {
	if strings.TrimSpace(q.ListingID) == "" {
		return fmt.Errorf("%w: listing id is required", domainpricing.ErrInvalidQuoteRequest)
	}
	if q.Sequence < 0 {
		return fmt.Errorf("%w: sequence must be non-negative", domainpricing.ErrInvalidQuoteRequest)
	}
	return nil
}

type GetQuoteHandler struct {
	UoWFactory  uow.UoWFactory
	Calculator  *domainpricing.Calculator
	Sessions    *quoting.SessionTracker
	IDGenerator func() string
}

func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (dto.QuoteResult, error) {
	current := h.observe(q)

	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.QuoteResult{}, err
	}
	defer cleanup()

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.QuoteResult{}, err
	}
	if !listing.Bookable() {
		return dto.QuoteResult{}, ErrListingUnavailable
	}
	calendar, err := support.LoadCalendar(ctx, unit, listing.ID)
	if err != nil {
		return dto.QuoteResult{}, err
	}

	calc := h.Calculator
	if calc == nil {
		calc = domainpricing.NewCalculator(domainpricing.DefaultPolicy())
	}
	quote, err := calc.ComputeQuote(daterange.Partial(q.CheckIn, q.CheckOut), q.Guests, listing.RateCard, calendar.Rates)
	if err != nil {
		return dto.QuoteResult{}, err
	}

	available := calendar.CanReserve(quote.Range)
	stale := !current || !h.isLatest(q)
	return dto.QuoteResult{
		QuoteID:     h.newID(),
		Quote:       dto.MapQuote(string(listing.ID), listing.RateCard, quote),
		Available:   available,
		CanCheckout: quote.CanCheckout() && available && !stale,
		Stale:       stale,
		SessionID:   q.SessionID,
		Sequence:    q.Sequence,
	}, nil
}

func (h *GetQuoteHandler) observe(q GetQuoteQuery) bool {
	if h.Sessions == nil {
		return true
	}
	return h.Sessions.Observe(q.SessionID, q.Sequence)
}

func (h *GetQuoteHandler) isLatest(q GetQuoteQuery) bool {
	if h.Sessions == nil {
		return true
	}
	return h.Sessions.IsLatest(q.SessionID, q.Sequence)
}

func (h *GetQuoteHandler) newID() string {
	if h.IDGenerator != nil {
		return h.IDGenerator()
	}
	return uuid.NewString()
}

var _ queries.Handler[GetQuoteQuery, dto.QuoteResult] = (*GetQuoteHandler)(nil)
