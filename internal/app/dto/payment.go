package dto

import (
	"time"

	domainpayment "renta/internal/domain/payment"
)

// Checkout is what the client needs to finish the prepayment: the
// gateway redirect plus the charged amount.
type Checkout struct {
	BookingID       string   `json:"booking_id"`
	PaymentID       string   `json:"payment_id"`
	ConfirmationURL string   `json:"confirmation_url"`
	Amount          MoneyDTO `json:"amount"`
}

type TransactionDTO struct {
	ID            string    `json:"id"`
	BookingID     string    `json:"booking_id"`
	Status        string    `json:"status"`
	Amount        MoneyDTO  `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	ExternalID    string    `json:"external_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type TransactionCollection struct {
	Items []TransactionDTO `json:"items"`
}

func MapTransaction(tx domainpayment.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:            string(tx.ID),
		BookingID:     string(tx.BookingID),
		Status:        string(tx.Status),
		Amount:        MapMoney(tx.Amount),
		PaymentMethod: tx.PaymentMethod,
		ExternalID:    tx.ExternalID,
		CreatedAt:     tx.CreatedAt,
	}
}

func MapTransactions(txs []domainpayment.Transaction) TransactionCollection {
	items := make([]TransactionDTO, 0, len(txs))
	for _, tx := range txs {
		items = append(items, MapTransaction(tx))
	}
	return TransactionCollection{Items: items}
}
