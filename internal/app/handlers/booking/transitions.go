package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"renta/internal/app/commands"
	"renta/internal/app/outbox"
	"renta/internal/app/uow"
	domainaudit "renta/internal/domain/audit"
	domainbooking "renta/internal/domain/booking"
)

const (
	confirmBookingKey  = "booking.confirm"
	completeBookingKey = "booking.complete"
)

var (
	ErrForbidden     = errors.New("booking: actor is not allowed to manage this booking")
	ErrRentalOngoing = errors.New("booking: rental period has not ended yet")
)

// ConfirmBookingCommand moves a pending booking to confirmed. Only the
// space owner or staff may confirm.
type ConfirmBookingCommand struct {
	BookingID string
	ActorID   string
	Staff     bool
}

func (c ConfirmBookingCommand) Key() string { return confirmBookingKey }

type ConfirmBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *ConfirmBookingHandler) Handle(ctx context.Context, cmd ConfirmBookingCommand) (struct{}, error) {
	return runTransition(ctx, h.UoWFactory, h.Outbox, h.Encoder, cmd.BookingID, func(ctx context.Context, unit uow.UnitOfWork, booking *domainbooking.Booking, now time.Time) error {
		space, err := unit.Spaces().ByID(ctx, booking.SpaceID)
		if err != nil {
			return err
		}
		if !cmd.Staff && string(space.Owner) != cmd.ActorID {
			return ErrForbidden
		}
		if err := booking.Confirm(now); err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.Info("booking confirmed", "booking_id", booking.ID, "actor_id", cmd.ActorID)
		}
		return unit.Audit().Append(ctx, domainaudit.NewEntry(uuid.NewString(), cmd.ActorID, domainaudit.ActionUpdate, "booking", string(booking.ID), "confirmed", now))
	})
}

// CompleteBookingCommand closes out a confirmed booking once the
// rental range has passed.
type CompleteBookingCommand struct {
	BookingID string
	ActorID   string
	Staff     bool
}

func (c CompleteBookingCommand) Key() string { return completeBookingKey }

type CompleteBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CompleteBookingHandler) Handle(ctx context.Context, cmd CompleteBookingCommand) (struct{}, error) {
	return runTransition(ctx, h.UoWFactory, h.Outbox, h.Encoder, cmd.BookingID, func(ctx context.Context, unit uow.UnitOfWork, booking *domainbooking.Booking, now time.Time) error {
		space, err := unit.Spaces().ByID(ctx, booking.SpaceID)
		if err != nil {
			return err
		}
		if !cmd.Staff && string(space.Owner) != cmd.ActorID {
			return ErrForbidden
		}
		if now.Before(booking.Range.End) {
			return ErrRentalOngoing
		}
		if err := booking.Complete(now); err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.Info("booking completed", "booking_id", booking.ID, "actor_id", cmd.ActorID)
		}
		return unit.Audit().Append(ctx, domainaudit.NewEntry(uuid.NewString(), cmd.ActorID, domainaudit.ActionUpdate, "booking", string(booking.ID), "completed", now))
	})
}

type transitionFn func(ctx context.Context, unit uow.UnitOfWork, booking *domainbooking.Booking, now time.Time) error

func runTransition(ctx context.Context, factory uow.UoWFactory, box outbox.Outbox, encoder outbox.EventEncoder, bookingID string, fn transitionFn) (struct{}, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if factory == nil {
			return struct{}{}, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = factory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return struct{}{}, err
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

	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return struct{}{}, err
	}
	now := time.Now().UTC()
	if err := fn(ctx, unit, booking, now); err != nil {
		return struct{}{}, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return struct{}{}, err
	}

	pending := booking.PendingEvents()
	booking.ClearEvents()
	enc := encoder
	if enc == nil {
		enc = outbox.JSONEventEncoder{}
	}
	if err := outbox.RecordDomainEvents(ctx, box, enc, pending); err != nil {
		return struct{}{}, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return struct{}{}, err
		}
		committed = true
	}
	return struct{}{}, nil
}

var _ commands.Handler[ConfirmBookingCommand, struct{}] = (*ConfirmBookingHandler)(nil)
var _ commands.Handler[CompleteBookingCommand, struct{}] = (*CompleteBookingHandler)(nil)
