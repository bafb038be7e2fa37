package booking

import (
	"context"
	"errors"
	"time"

	"renta/internal/app/commands"
	"renta/internal/app/middleware"
	"renta/internal/app/outbox"
	"renta/internal/app/uow"
	domainbooking "renta/internal/domain/booking"
	"renta/internal/domain/shared/timerange"
	domainspaces "renta/internal/domain/spaces"
)

const requestBookingKey = "booking.request"

var (
	ErrUnitOfWorkRequired = errors.New("booking: unit of work required")
	ErrSpaceUnavailable   = errors.New("booking: space is not open for booking")
)

type RequestBookingCommand struct {
	CommandID       string
	SpaceID         string
	TenantID        string
	PeriodCode      string
	PeriodsCount    int
	Start           time.Time
	Comment         string
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID  string `json:"booking_id"`
	Total      int64  `json:"total"`
	Prepayment int64  `json:"prepayment"`
	Currency   string `json:"currency"`
}

type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Policy     domainbooking.PrepaymentPolicy
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	if cmd.PeriodsCount <= 0 {
		return nil, domainbooking.ErrPeriodsCount
	}
	period, err := domainspaces.PeriodByCode(cmd.PeriodCode)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := domainbooking.ValidateStart(cmd.Start, now); err != nil {
		return nil, err
	}
	r, err := timerange.FromDuration(cmd.Start, time.Duration(period.Hours*cmd.PeriodsCount)*time.Hour)
	if err != nil {
		return nil, err
	}

	space, err := unit.Spaces().ByID(ctx, domainspaces.SpaceID(cmd.SpaceID))
	if err != nil {
		return nil, err
	}
	if space.State != domainspaces.SpaceActive {
		return nil, ErrSpaceUnavailable
	}
	price, err := space.ActivePrice(period.Code)
	if err != nil {
		return nil, err
	}

	conflicts, err := unit.Bookings().FindOverlapping(ctx, space.ID, r)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, domainbooking.ErrRangeConflict
	}

	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:             domainbooking.BookingID(cmd.CommandID),
		SpaceID:        space.ID,
		TenantID:       cmd.TenantID,
		PeriodCode:     period.Code,
		PeriodsCount:   cmd.PeriodsCount,
		Range:          r,
		PricePerPeriod: price.Amount,
		Comment:        cmd.Comment,
		CreatedAt:      now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}

	pending := booking.PendingEvents()
	booking.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	prepay := h.Policy.Amount(booking.Total)
	return &RequestBookingResult{
		BookingID:  string(booking.ID),
		Total:      booking.Total.Amount,
		Prepayment: prepay.Amount,
		Currency:   booking.Total.Currency,
	}, nil
}

func (h *RequestBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = RequestBookingCommand{}
