package policies

import (
	"context"
	"errors"

	"renta/internal/domain/shared/money"
)

var ErrGatewayUnavailable = errors.New("policies: payment gateway unavailable")

// CreateChargeParams describe a hosted-checkout payment to create.
// Metadata travels to the gateway and comes back in webhook events;
// booking routing relies on the booking_id key.
type CreateChargeParams struct {
	Amount      money.Money
	Description string
	ReturnURL   string
	Metadata    map[string]string
}

// Charge is the gateway's view of a created payment.
type Charge struct {
	ID              string
	Status          string
	ConfirmationURL string
	Paid            bool
	Amount          money.Money
	Metadata        map[string]string
}

// Refund is the gateway's acknowledgement of a refund request.
type Refund struct {
	ID     string
	Status string
	Amount money.Money
}

// PaymentGateway is the minimal hosted-checkout surface the service
// needs; the concrete client lives in infra.
type PaymentGateway interface {
	Create(ctx context.Context, params CreateChargeParams) (Charge, error)
	Capture(ctx context.Context, paymentID string) (Charge, error)
	CancelHold(ctx context.Context, paymentID string) (Charge, error)
	CreateRefund(ctx context.Context, paymentID string, amount money.Money) (Refund, error)
	Find(ctx context.Context, paymentID string) (Charge, error)
}
