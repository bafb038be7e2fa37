package memory

import (
	"context"
	"errors"

	"renta/internal/app/uow"
	domainaudit "renta/internal/domain/audit"
	domainbooking "renta/internal/domain/booking"
	domainfavorites "renta/internal/domain/favorites"
	domainpayment "renta/internal/domain/payment"
	domainreviews "renta/internal/domain/reviews"
	domainspaces "renta/internal/domain/spaces"
	domainuser "renta/internal/domain/user"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	SpacesRepo       domainspaces.Repository
	BookingsRepo     domainbooking.Repository
	TransactionsRepo domainpayment.Repository
	ReviewsRepo      domainreviews.Repository
	FavoritesRepo    domainfavorites.Repository
	UsersRepo        domainuser.Repository
	AuditLog         domainaudit.Log
}

// NewFactory builds a factory with a fresh repository set.
func NewFactory() Factory {
	return Factory{
		SpacesRepo:       NewSpaceRepository(),
		BookingsRepo:     NewBookingRepository(),
		TransactionsRepo: NewTransactionRepository(),
		ReviewsRepo:      NewReviewRepository(),
		FavoritesRepo:    NewFavoriteRepository(),
		UsersRepo:        NewUserRepository(),
		AuditLog:         NewAuditLog(),
	}
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is
// provided but the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.SpacesRepo == nil || f.BookingsRepo == nil || f.TransactionsRepo == nil ||
		f.ReviewsRepo == nil || f.FavoritesRepo == nil || f.UsersRepo == nil || f.AuditLog == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{factory: f}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	factory Factory
}

func (u *Unit) Spaces() domainspaces.Repository        { return u.factory.SpacesRepo }
func (u *Unit) Bookings() domainbooking.Repository     { return u.factory.BookingsRepo }
func (u *Unit) Transactions() domainpayment.Repository { return u.factory.TransactionsRepo }
func (u *Unit) Reviews() domainreviews.Repository      { return u.factory.ReviewsRepo }
func (u *Unit) Favorites() domainfavorites.Repository  { return u.factory.FavoritesRepo }
func (u *Unit) Users() domainuser.Repository           { return u.factory.UsersRepo }
func (u *Unit) Audit() domainaudit.Log                 { return u.factory.AuditLog }

func (u *Unit) Commit(ctx context.Context) error   { return nil }
func (u *Unit) Rollback(ctx context.Context) error { return nil }

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
