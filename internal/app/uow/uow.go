package uow

import (
	"context"

	domainaudit "renta/internal/domain/audit"
	domainbooking "renta/internal/domain/booking"
	domainfavorites "renta/internal/domain/favorites"
	domainpayment "renta/internal/domain/payment"
	domainreviews "renta/internal/domain/reviews"
	domainspaces "renta/internal/domain/spaces"
	domainuser "renta/internal/domain/user"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Spaces() domainspaces.Repository
	Bookings() domainbooking.Repository
	Transactions() domainpayment.Repository
	Reviews() domainreviews.Repository
	Favorites() domainfavorites.Repository
	Users() domainuser.Repository
	Audit() domainaudit.Log

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
