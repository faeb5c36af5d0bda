package memory

import (
	"context"
	"sort"
	"sync"

	domainavailability "stayquote/internal/domain/availability"
	domainlistings "stayquote/internal/domain/listings"
)

// ListingRepository keeps listings in a map. Reads and writes copy the
// aggregate so callers never share state through the store.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

// ByID returns a listing or domainlistings.ErrListingNotFound.
func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrListingNotFound
	}
	return listing.Clone(), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[listing.ID] = listing.Clone()
	return nil
}

// List returns every listing ordered by id.
func (r *ListingRepository) List(ctx context.Context) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainlistings.Listing, 0, len(r.items))
	for _, l := range r.items {
		out = append(out, l.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CalendarRepository stores one calendar per listing.
type CalendarRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainavailability.Calendar
}

func NewCalendarRepository() *CalendarRepository {
	return &CalendarRepository{
		items: make(map[domainlistings.ListingID]*domainavailability.Calendar),
	}
}

func (r *CalendarRepository) Calendar(ctx context.Context, id domainlistings.ListingID) (*domainavailability.Calendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cal, ok := r.items[id]
	if !ok {
		return nil, domainavailability.ErrCalendarNotFound
	}
	return cal.Clone(), nil
}

// Save refuses a calendar whose sequence is not newer than the stored one, so
// concurrent writers resolve last-write-wins the same way the Mongo store does.
func (r *CalendarRepository) Save(ctx context.Context, calendar *domainavailability.Calendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[calendar.ListingID]; ok && existing.Sequence >= calendar.Sequence {
		return domainavailability.ErrStaleSnapshot
	}
	r.items[calendar.ListingID] = calendar.Clone()
	return nil
}

var (
	_ domainlistings.ListingRepository = (*ListingRepository)(nil)
	_ domainavailability.Repository    = (*CalendarRepository)(nil)
)
