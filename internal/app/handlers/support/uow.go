package support

import (
	"context"
	"errors"

	"stayquote/internal/app/uow"
	domainavailability "stayquote/internal/domain/availability"
	domainlistings "stayquote/internal/domain/listings"
)

// BeginReadOnlyUnit reuses the unit bound to ctx or starts a read-only one.
// cleanup is never nil.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, func() {}, nil
	}
	if factory == nil {
		return nil, ctx, func() {}, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, func() {}, err
	}
	execCtx := ctx
	if injector, ok := newUnit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = uow.ContextWithUnitOfWork(execCtx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// LoadCalendar returns the listing's calendar, or an empty one when no
// snapshot has been applied yet.
func LoadCalendar(ctx context.Context, unit uow.UnitOfWork, id domainlistings.ListingID) (*domainavailability.Calendar, error) {
	cal, err := unit.Calendars().Calendar(ctx, id)
	if errors.Is(err, domainavailability.ErrCalendarNotFound) {
		return domainavailability.NewCalendar(id), nil
	}
	if err != nil {
		return nil, err
	}
	return cal, nil
}
