package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"renta/internal/app/uow"
	domainaudit "renta/internal/domain/audit"
	domainbooking "renta/internal/domain/booking"
	domainfavorites "renta/internal/domain/favorites"
	domainpayment "renta/internal/domain/payment"
	domainreviews "renta/internal/domain/reviews"
	domainspaces "renta/internal/domain/spaces"
	domainuser "renta/internal/domain/user"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	SpacesRepo       domainspaces.Repository
	BookingsRepo     domainbooking.Repository
	TransactionsRepo domainpayment.Repository
	ReviewsRepo      domainreviews.Repository
	FavoritesRepo    domainfavorites.Repository
	UsersRepo        domainuser.Repository
	AuditLog         domainaudit.Log
}

// NewFactory builds a factory with the default repository set bound to db.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:               db,
		SpacesRepo:       NewSpaceRepository(db),
		BookingsRepo:     NewBookingRepository(db),
		TransactionsRepo: NewTransactionRepository(db),
		ReviewsRepo:      NewReviewRepository(db),
		FavoritesRepo:    NewFavoriteRepository(db),
		UsersRepo:        NewUserRepository(db),
		AuditLog:         NewAuditLog(db),
	}
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// EnsureIndexes creates the unique constraints the repositories rely on.
func (f Factory) EnsureIndexes(ctx context.Context) error {
	type indexed interface {
		EnsureIndexes(ctx context.Context) error
	}
	for _, repo := range []any{f.TransactionsRepo, f.ReviewsRepo, f.FavoritesRepo, f.UsersRepo} {
		if ix, ok := repo.(indexed); ok {
			if err := ix.EnsureIndexes(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{factory: f, session: session}, nil
}

type Unit struct {
	factory Factory
	session mongo.Session
}

func (u *Unit) Spaces() domainspaces.Repository        { return u.factory.SpacesRepo }
func (u *Unit) Bookings() domainbooking.Repository     { return u.factory.BookingsRepo }
func (u *Unit) Transactions() domainpayment.Repository { return u.factory.TransactionsRepo }
func (u *Unit) Reviews() domainreviews.Repository      { return u.factory.ReviewsRepo }
func (u *Unit) Favorites() domainfavorites.Repository  { return u.factory.FavoritesRepo }
func (u *Unit) Users() domainuser.Repository           { return u.factory.UsersRepo }
func (u *Unit) Audit() domainaudit.Log                 { return u.factory.AuditLog }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for
// downstream repositories.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
