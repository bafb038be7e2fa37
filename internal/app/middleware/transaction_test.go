package middleware

import (
	"context"
	"errors"
	"testing"

	"renta/internal/app/commands"
	"renta/internal/app/uow"
	domainaudit "renta/internal/domain/audit"
	domainbooking "renta/internal/domain/booking"
	domainfavorites "renta/internal/domain/favorites"
	domainpayment "renta/internal/domain/payment"
	domainreviews "renta/internal/domain/reviews"
	domainspaces "renta/internal/domain/spaces"
	domainuser "renta/internal/domain/user"
)

type stubUnit struct {
	committed  bool
	rolledBack bool
}

func (u *stubUnit) Spaces() domainspaces.Repository        { return nil }
func (u *stubUnit) Bookings() domainbooking.Repository     { return nil }
func (u *stubUnit) Transactions() domainpayment.Repository { return nil }
func (u *stubUnit) Reviews() domainreviews.Repository      { return nil }
func (u *stubUnit) Favorites() domainfavorites.Repository  { return nil }
func (u *stubUnit) Users() domainuser.Repository           { return nil }
func (u *stubUnit) Audit() domainaudit.Log                 { return nil }

func (u *stubUnit) Commit(ctx context.Context) error {
	u.committed = true
	return nil
}

func (u *stubUnit) Rollback(ctx context.Context) error {
	u.rolledBack = true
	return nil
}

type stubFactory struct {
	unit *stubUnit
}

func (f *stubFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	return f.unit, nil
}

type noopCommand struct{}

func (noopCommand) Key() string { return "test.noop" }

func TestTransactionCommitsOnSuccess(t *testing.T) {
	unit := &stubUnit{}
	inner := commands.NewInMemoryBus()
	sawUnit := false
	inner.RegisterRaw("test.noop", func(ctx context.Context, cmd commands.Command) (any, error) {
		_, sawUnit = uow.FromContext(ctx)
		return nil, nil
	})
	bus := ChainCommands(inner, Transaction(&stubFactory{unit: unit}, nil))

	if _, err := bus.Dispatch(context.Background(), noopCommand{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !sawUnit {
		t.Error("handler must see the unit of work in context")
	}
	if !unit.committed {
		t.Error("successful dispatch must commit")
	}
	if unit.rolledBack {
		t.Error("successful dispatch must not roll back")
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	unit := &stubUnit{}
	inner := commands.NewInMemoryBus()
	failure := errors.New("handler failed")
	inner.RegisterRaw("test.noop", func(ctx context.Context, cmd commands.Command) (any, error) {
		return nil, failure
	})
	bus := ChainCommands(inner, Transaction(&stubFactory{unit: unit}, nil))

	if _, err := bus.Dispatch(context.Background(), noopCommand{}); !errors.Is(err, failure) {
		t.Fatalf("dispatch: %v", err)
	}
	if unit.committed {
		t.Error("failed dispatch must not commit")
	}
	if !unit.rolledBack {
		t.Error("failed dispatch must roll back")
	}
}
