package memory

import (
	"context"
	"errors"

	"stayquote/internal/app/uow"
	domainavailability "stayquote/internal/domain/availability"
	domainlistings "stayquote/internal/domain/listings"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ListingsRepo  domainlistings.ListingRepository
	CalendarsRepo domainavailability.Repository
}

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided;
// repositories copy aggregates so an uncommitted unit leaks nothing.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.CalendarsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{listings: f.ListingsRepo, calendars: f.CalendarsRepo}, nil
}

type Unit struct {
	listings  domainlistings.ListingRepository
	calendars domainavailability.Repository
}

func (u *Unit) Listings() domainlistings.ListingRepository { return u.listings }
func (u *Unit) Calendars() domainavailability.Repository   { return u.calendars }
func (u *Unit) Commit(ctx context.Context) error           { return nil }
func (u *Unit) Rollback(ctx context.Context) error         { return nil }
