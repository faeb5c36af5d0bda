package availability

import (
	"context"
	"errors"
	"time"

	"stayquote/internal/app/dto"
	"stayquote/internal/app/handlers/support"
	"stayquote/internal/app/policies"
	"stayquote/internal/app/queries"
	"stayquote/internal/app/uow"
	domainlistings "stayquote/internal/domain/listings"
	"stayquote/internal/domain/selection"
	"stayquote/internal/domain/shared/daterange"
)

const selectDateKey = "availability.select_date"

var ErrDateRequired = errors.New("availability: clicked date is required")

// SelectDateQuery runs one selector step. The client owns the selection and
// echoes it back, so nothing is stored between clicks.
type SelectDateQuery struct {
	ListingID string
	CheckIn   time.Time
	CheckOut  time.Time
	Date      time.Time
	Today     time.Time
}

func (q SelectDateQuery) Key() string { return selectDateKey }

func (q SelectDateQuery) Validate() error {
	if q.Date.IsZero() {
		return ErrDateRequired
	}
	return nil
}

type SelectDateHandler struct {
	UoWFactory uow.UoWFactory
	Clock      policies.Clock
}

func (h *SelectDateHandler) Handle(ctx context.Context, q SelectDateQuery) (dto.SelectionResult, error) {
	if err := q.Validate(); err != nil {
		return dto.SelectionResult{}, err
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.SelectionResult{}, err
	}
	defer cleanup()

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.SelectionResult{}, err
	}
	calendar, err := support.LoadCalendar(ctx, unit, listing.ID)
	if err != nil {
		return dto.SelectionResult{}, err
	}

	state := selection.NewState(daterange.Partial(q.CheckIn, q.CheckOut))
	constraints := selection.DefaultConstraints(calendar.Occupied, resolveToday(q.Today, h.Clock))
	return dto.MapSelection(selection.Select(state, q.Date, constraints)), nil
}

var _ queries.Handler[SelectDateQuery, dto.SelectionResult] = (*SelectDateHandler)(nil)
