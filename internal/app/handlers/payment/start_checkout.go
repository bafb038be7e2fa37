package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"renta/internal/app/commands"
	"renta/internal/app/dto"
	"renta/internal/app/middleware"
	"renta/internal/app/policies"
	"renta/internal/app/uow"
	domainbooking "renta/internal/domain/booking"
)

const startCheckoutKey = "payment.start_checkout"

var (
	ErrUnitOfWorkRequired = errors.New("payment: unit of work required")
	ErrNotBookingOwner    = errors.New("payment: booking belongs to another tenant")
)

// StartCheckoutCommand creates a gateway checkout for the booking
// prepayment and stores the payment reference on the booking.
type StartCheckoutCommand struct {
	BookingID       string
	ActorID         string
	ReturnURL       string
	IdempotencyKeyV string
}

func (c StartCheckoutCommand) Key() string { return startCheckoutKey }

func (c StartCheckoutCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c StartCheckoutCommand) ResultPrototype() any { return &dto.Checkout{} }

type StartCheckoutHandler struct {
	UoWFactory uow.UoWFactory
	Gateway    policies.PaymentGateway
	Policy     domainbooking.PrepaymentPolicy
	Logger     *slog.Logger
}

func (h *StartCheckoutHandler) Handle(ctx context.Context, cmd StartCheckoutCommand) (*dto.Checkout, error) {
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
	if booking.TenantID != cmd.ActorID {
		return nil, ErrNotBookingOwner
	}
	if !booking.Cancellable() {
		return nil, domainbooking.ErrNotPayable
	}
	if booking.Prepayment.Paid {
		return nil, domainbooking.ErrAlreadyPaid
	}

	amount := h.Policy.Amount(booking.Total)
	charge, err := h.Gateway.Create(ctx, policies.CreateChargeParams{
		Amount:      amount,
		Description: fmt.Sprintf("Prepayment for booking %s", booking.ID),
		ReturnURL:   cmd.ReturnURL,
		Metadata:    map[string]string{"booking_id": string(booking.ID)},
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := booking.AttachPayment(charge.ID, now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("checkout created", "booking_id", booking.ID, "payment_id", charge.ID, "amount", amount.Amount)
	}
	return &dto.Checkout{
		BookingID:       string(booking.ID),
		PaymentID:       charge.ID,
		ConfirmationURL: charge.ConfirmationURL,
		Amount:          dto.MapMoney(amount),
	}, nil
}

var _ commands.Handler[StartCheckoutCommand, *dto.Checkout] = (*StartCheckoutHandler)(nil)
var _ middleware.IdempotentCommand = StartCheckoutCommand{}
