package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"renta/internal/app/commands"
	"renta/internal/app/outbox"
	"renta/internal/app/policies"
	"renta/internal/app/uow"
	domainaudit "renta/internal/domain/audit"
	domainbooking "renta/internal/domain/booking"
)

const cancelBookingKey = "booking.cancel"

// CancelBookingCommand cancels a pending or confirmed booking. When a
// prepayment was collected the cancellation lead time decides its fate:
// inside the lead window the prepayment is forfeited, outside it a
// refund is requested from the gateway. An uncaptured checkout is
// cancelled at the gateway instead.
type CancelBookingCommand struct {
	BookingID string
	ActorID   string
	Staff     bool
	Reason    string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingResult struct {
	BookingID       string `json:"booking_id"`
	Forfeited       bool   `json:"forfeited"`
	RefundRequested bool   `json:"refund_requested"`
}

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Gateway    policies.PaymentGateway
	Policy     domainbooking.PrepaymentPolicy
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
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

	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if !cmd.Staff && booking.TenantID != cmd.ActorID {
		space, err := unit.Spaces().ByID(ctx, booking.SpaceID)
		if err != nil {
			return nil, err
		}
		if string(space.Owner) != cmd.ActorID {
			return nil, ErrForbidden
		}
	}

	now := time.Now().UTC()
	if err := booking.Cancel(cmd.Reason, now); err != nil {
		return nil, err
	}

	result := &CancelBookingResult{BookingID: string(booking.ID)}
	switch {
	case booking.Prepayment.Paid:
		if h.Policy.Forfeited(now, booking.Range.Start) {
			result.Forfeited = true
			if h.Logger != nil {
				h.Logger.Info("prepayment forfeited", "booking_id", booking.ID)
			}
		} else if h.Gateway != nil {
			if _, err := h.Gateway.CreateRefund(ctx, booking.Prepayment.PaymentID, booking.Prepayment.Amount); err != nil {
				return nil, err
			}
			result.RefundRequested = true
		}
	case booking.Prepayment.PaymentID != "":
		// Checkout created but never paid: release the hold.
		if h.Gateway != nil {
			if _, err := h.Gateway.CancelHold(ctx, booking.Prepayment.PaymentID); err != nil && h.Logger != nil {
				h.Logger.Warn("gateway cancel failed", "booking_id", booking.ID, "error", err)
			}
		}
		booking.ClearPaymentRef(now)
	}

	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := unit.Audit().Append(ctx, domainaudit.NewEntry(uuid.NewString(), cmd.ActorID, domainaudit.ActionUpdate, "booking", string(booking.ID), "cancelled: "+cmd.Reason, now)); err != nil {
		return nil, err
	}

	pending := booking.PendingEvents()
	booking.ClearEvents()
	enc := h.Encoder
	if enc == nil {
		enc = outbox.JSONEventEncoder{}
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, enc, pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return result, nil
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
