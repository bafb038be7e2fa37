package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"renta/internal/domain/booking"
	"renta/internal/domain/shared/money"
)

var (
	ErrExternalIDRequired = errors.New("payment: external id required")
	ErrBookingRequired    = errors.New("payment: booking id required")
	ErrNotFound           = errors.New("payment: transaction not found")
)

type TransactionID string

type TransactionStatus string

const (
	StatusSucceeded TransactionStatus = "succeeded"
	StatusCancelled TransactionStatus = "cancelled"
	StatusRefunded  TransactionStatus = "refunded"
)

// Transaction is one append-only ledger row per gateway event. The
// ExternalID is unique across the ledger; redelivered webhooks collapse
// onto the existing row through GetOrCreate.
type Transaction struct {
	ID            TransactionID
	BookingID     booking.BookingID
	Status        TransactionStatus
	Amount        money.Money
	PaymentMethod string
	ExternalID    string
	CreatedAt     time.Time
}

type Repository interface {
	// GetOrCreate inserts the transaction unless a row with the same
	// ExternalID already exists. created reports whether the insert
	// happened; on a duplicate the stored row is returned untouched.
	GetOrCreate(ctx context.Context, tx Transaction) (stored Transaction, created bool, err error)
	ListByBooking(ctx context.Context, bookingID booking.BookingID) ([]Transaction, error)
	ListSince(ctx context.Context, since time.Time) ([]Transaction, error)
	SumByStatus(ctx context.Context, status TransactionStatus) (money.Money, error)
}

type NewTransactionParams struct {
	ID            TransactionID
	BookingID     booking.BookingID
	Status        TransactionStatus
	Amount        money.Money
	PaymentMethod string
	ExternalID    string
	CreatedAt     time.Time
}

func NewTransaction(params NewTransactionParams) (Transaction, error) {
	if strings.TrimSpace(params.ExternalID) == "" {
		return Transaction{}, ErrExternalIDRequired
	}
	if strings.TrimSpace(string(params.BookingID)) == "" {
		return Transaction{}, ErrBookingRequired
	}
	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	method := strings.TrimSpace(params.PaymentMethod)
	if method == "" {
		method = "yookassa"
	}
	return Transaction{
		ID:            params.ID,
		BookingID:     params.BookingID,
		Status:        params.Status,
		Amount:        params.Amount,
		PaymentMethod: method,
		ExternalID:    strings.TrimSpace(params.ExternalID),
		CreatedAt:     createdAt.UTC(),
	}, nil
}
