package booking

import (
	"context"
	"time"

	"renta/internal/app/dto"
	"renta/internal/app/handlers/support"
	"renta/internal/app/queries"
	"renta/internal/app/uow"
	domainbooking "renta/internal/domain/booking"
	"renta/internal/domain/shared/timerange"
	domainspaces "renta/internal/domain/spaces"
)

const quoteBookingKey = "booking.quote"

// QuoteBookingQuery previews the price and prepayment for a booking
// request without placing it.
type QuoteBookingQuery struct {
	SpaceID      string
	PeriodCode   string
	PeriodsCount int
	Start        time.Time
}

func (q QuoteBookingQuery) Key() string { return quoteBookingKey }

type QuoteBookingHandler struct {
	UoWFactory uow.UoWFactory
	Policy     domainbooking.PrepaymentPolicy
}

func (h *QuoteBookingHandler) Handle(ctx context.Context, q QuoteBookingQuery) (dto.Quote, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if q.PeriodsCount <= 0 {
		return dto.Quote{}, domainbooking.ErrPeriodsCount
	}
	period, err := domainspaces.PeriodByCode(q.PeriodCode)
	if err != nil {
		return dto.Quote{}, err
	}

	space, err := unit.Spaces().ByID(ctx, domainspaces.SpaceID(q.SpaceID))
	if err != nil {
		return dto.Quote{}, err
	}
	price, err := space.ActivePrice(period.Code)
	if err != nil {
		return dto.Quote{}, err
	}

	r, err := timerange.FromDuration(q.Start, time.Duration(period.Hours*q.PeriodsCount)*time.Hour)
	if err != nil {
		return dto.Quote{}, err
	}
	conflicts, err := unit.Bookings().FindOverlapping(ctx, space.ID, r)
	if err != nil {
		return dto.Quote{}, err
	}

	total := price.Amount.Multiply(int64(q.PeriodsCount))
	return dto.Quote{
		SpaceID:        string(space.ID),
		PeriodCode:     period.Code,
		PeriodsCount:   q.PeriodsCount,
		PricePerPeriod: dto.MapMoney(price.Amount),
		Total:          dto.MapMoney(total),
		Prepayment:     dto.MapMoney(h.Policy.Amount(total)),
		Available:      len(conflicts) == 0,
	}, nil
}

var _ queries.Handler[QuoteBookingQuery, dto.Quote] = (*QuoteBookingHandler)(nil)
