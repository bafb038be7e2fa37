package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"renta/internal/app/commands"
	"renta/internal/app/outbox"
	"renta/internal/app/policies"
	"renta/internal/app/uow"
	domainbooking "renta/internal/domain/booking"
	domainpayment "renta/internal/domain/payment"
	"renta/internal/domain/shared/money"
	domainuser "renta/internal/domain/user"
)

const processWebhookKey = "payment.process_webhook"

// Gateway event types delivered to the webhook endpoint.
const (
	EventWaitingForCapture = "payment.waiting_for_capture"
	EventPaymentSucceeded  = "payment.succeeded"
	EventPaymentCanceled   = "payment.canceled"
	EventRefundSucceeded   = "refund.succeeded"
)

var ErrBookingUnresolved = errors.New("payment: webhook does not reference a known booking")

// ProcessWebhookCommand applies one gateway notification. Redeliveries
// are safe: the transaction ledger is keyed on the gateway's object id,
// so a replayed event finds its existing row and changes nothing.
type ProcessWebhookCommand struct {
	EventType  string
	PaymentID  string
	RefundID   string
	Amount     money.Money
	Metadata   map[string]string
	OccurredAt time.Time
}

func (c ProcessWebhookCommand) Key() string { return processWebhookKey }

type ProcessWebhookResult struct {
	Processed bool `json:"processed"`
	Duplicate bool `json:"duplicate"`
}

type ProcessWebhookHandler struct {
	UoWFactory uow.UoWFactory
	Gateway    policies.PaymentGateway
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *ProcessWebhookHandler) Handle(ctx context.Context, cmd ProcessWebhookCommand) (*ProcessWebhookResult, error) {
	switch cmd.EventType {
	case EventWaitingForCapture:
		return h.capture(ctx, cmd)
	case EventPaymentSucceeded, EventPaymentCanceled, EventRefundSucceeded:
		return h.settle(ctx, cmd)
	default:
		if h.Logger != nil {
			h.Logger.Warn("ignoring unknown gateway event", "event", cmd.EventType, "payment_id", cmd.PaymentID)
		}
		return &ProcessWebhookResult{}, nil
	}
}

// capture confirms a held payment; the gateway answers with a separate
// payment.succeeded event once the capture settles.
func (h *ProcessWebhookHandler) capture(ctx context.Context, cmd ProcessWebhookCommand) (*ProcessWebhookResult, error) {
	if h.Gateway == nil {
		return nil, policies.ErrGatewayUnavailable
	}
	if _, err := h.Gateway.Capture(ctx, cmd.PaymentID); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("payment captured", "payment_id", cmd.PaymentID)
	}
	return &ProcessWebhookResult{Processed: true}, nil
}

func (h *ProcessWebhookHandler) settle(ctx context.Context, cmd ProcessWebhookCommand) (*ProcessWebhookResult, error) {
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

	booking, err := h.resolveBooking(ctx, unit, cmd)
	if err != nil {
		return nil, err
	}

	status, externalID, amount := ledgerRow(cmd)
	tx, err := domainpayment.NewTransaction(domainpayment.NewTransactionParams{
		ID:         domainpayment.TransactionID(uuid.NewString()),
		BookingID:  booking.ID,
		Status:     status,
		Amount:     amount,
		ExternalID: externalID,
		CreatedAt:  cmd.OccurredAt,
	})
	if err != nil {
		return nil, err
	}
	stored, created, err := unit.Transactions().GetOrCreate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if !created {
		if h.Logger != nil {
			h.Logger.Info("gateway event replayed", "event", cmd.EventType, "external_id", stored.ExternalID)
		}
		if managed {
			if err := unit.Commit(ctx); err != nil {
				return nil, err
			}
			committed = true
		}
		return &ProcessWebhookResult{Processed: true, Duplicate: true}, nil
	}

	now := time.Now().UTC()
	var tenant *domainuser.User
	switch cmd.EventType {
	case EventPaymentSucceeded:
		if err := booking.MarkPrepaid(cmd.Amount, now); err != nil {
			return nil, err
		}
		tenant, _ = unit.Users().ByID(ctx, domainuser.ID(booking.TenantID))
	case EventPaymentCanceled:
		booking.ClearPaymentRef(now)
	case EventRefundSucceeded:
		if err := booking.MarkRefunded(now); err != nil {
			return nil, err
		}
	}

	if err := unit.Bookings().Save(ctx, booking); err != nil {
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

	if cmd.EventType == EventPaymentSucceeded {
		h.notifyPrepaid(ctx, booking, tenant)
	}
	return &ProcessWebhookResult{Processed: true}, nil
}

func (h *ProcessWebhookHandler) resolveBooking(ctx context.Context, unit uow.UnitOfWork, cmd ProcessWebhookCommand) (*domainbooking.Booking, error) {
	booking, err := unit.Bookings().ByPaymentID(ctx, cmd.PaymentID)
	if err == nil {
		return booking, nil
	}
	if !errors.Is(err, domainbooking.ErrNotFound) {
		return nil, err
	}
	if id := cmd.Metadata["booking_id"]; id != "" {
		return unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
	}
	return nil, ErrBookingUnresolved
}

func (h *ProcessWebhookHandler) notifyPrepaid(ctx context.Context, booking *domainbooking.Booking, tenant *domainuser.User) {
	if h.Notifier == nil {
		return
	}
	amount := FormatAmount(booking.Prepayment.Amount)
	if tenant != nil {
		receipt := policies.ReceiptData{
			BookingID:   string(booking.ID),
			Amount:      amount,
			PaymentID:   booking.Prepayment.PaymentID,
			RecipientTo: tenant.Email,
		}
		if err := h.Notifier.SendReceipt(ctx, receipt); err != nil && h.Logger != nil {
			h.Logger.Warn("receipt delivery failed", "booking_id", booking.ID, "error", err)
		}
	}
	subject := fmt.Sprintf("Prepayment received for booking %s", booking.ID)
	body := fmt.Sprintf("Booking %s: prepayment %s collected (payment %s).", booking.ID, amount, booking.Prepayment.PaymentID)
	if err := h.Notifier.NotifyStaff(ctx, subject, body); err != nil && h.Logger != nil {
		h.Logger.Warn("staff notification failed", "booking_id", booking.ID, "error", err)
	}
}

func ledgerRow(cmd ProcessWebhookCommand) (domainpayment.TransactionStatus, string, money.Money) {
	amount := cmd.Amount
	// Cancellation notices may omit the amount; keep the row's currency
	// uniform with the rest of the ledger.
	if amount.Currency == "" {
		amount.Currency = "RUB"
	}
	switch cmd.EventType {
	case EventPaymentCanceled:
		return domainpayment.StatusCancelled, cmd.PaymentID, amount
	case EventRefundSucceeded:
		return domainpayment.StatusRefunded, cmd.RefundID, amount.Neg()
	default:
		return domainpayment.StatusSucceeded, cmd.PaymentID, amount
	}
}

// FormatAmount renders kopecks as a human readable sum.
func FormatAmount(m money.Money) string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, m.Currency)
}

var _ commands.Handler[ProcessWebhookCommand, *ProcessWebhookResult] = (*ProcessWebhookHandler)(nil)
