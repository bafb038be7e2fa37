package payment

import (
	"context"

	"renta/internal/app/dto"
	"renta/internal/app/handlers/support"
	"renta/internal/app/queries"
	"renta/internal/app/uow"
	domainbooking "renta/internal/domain/booking"
)

const bookingTransactionsKey = "payment.list_booking_transactions"

// BookingTransactionsQuery returns the ledger rows of one booking.
type BookingTransactionsQuery struct {
	BookingID string
	ActorID   string
	Staff     bool
}

func (q BookingTransactionsQuery) Key() string { return bookingTransactionsKey }

type BookingTransactionsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *BookingTransactionsHandler) Handle(ctx context.Context, q BookingTransactionsQuery) (dto.TransactionCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.TransactionCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.TransactionCollection{}, err
	}
	if !q.Staff && booking.TenantID != q.ActorID {
		return dto.TransactionCollection{}, ErrNotBookingOwner
	}

	txs, err := unit.Transactions().ListByBooking(ctx, booking.ID)
	if err != nil {
		return dto.TransactionCollection{}, err
	}
	return dto.MapTransactions(txs), nil
}

var _ queries.Handler[BookingTransactionsQuery, dto.TransactionCollection] = (*BookingTransactionsHandler)(nil)
