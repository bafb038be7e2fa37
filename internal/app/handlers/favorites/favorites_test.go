package favorites

import (
	"context"
	"errors"
	"testing"
	"time"

	"renta/internal/app/uow"
	domainspaces "renta/internal/domain/spaces"
	"renta/internal/infra/storage/memory"
)

func seedSpace(t *testing.T, factory memory.Factory, id domainspaces.SpaceID) {
	t.Helper()
	space, err := domainspaces.NewSpace(domainspaces.CreateParams{
		ID: id, Owner: "owner-1", Title: "Attic " + string(id), Category: "storage",
		Address: domainspaces.Address{Line1: "Sadovaya 8", City: "Tula"},
		AreaSqM: 12, Capacity: 1, Now: time.Now(),
	})
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	if err := factory.SpacesRepo.Save(context.Background(), space); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func unitContext(t *testing.T, factory memory.Factory) context.Context {
	t.Helper()
	unit, err := factory.Begin(context.Background(), uow.TxOptions{})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return uow.ContextWithUnitOfWork(context.Background(), unit)
}

func TestToggleFavorite(t *testing.T) {
	factory := memory.NewFactory()
	seedSpace(t, factory, "sp-1")
	handler := &ToggleFavoriteHandler{}
	ctx := unitContext(t, factory)

	result, err := handler.Handle(ctx, ToggleFavoriteCommand{UserID: "user-1", SpaceID: "sp-1"})
	if err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if !result.Favorite {
		t.Error("first toggle must add the favorite")
	}

	result, err = handler.Handle(ctx, ToggleFavoriteCommand{UserID: "user-1", SpaceID: "sp-1"})
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if result.Favorite {
		t.Error("second toggle must remove the favorite")
	}
}

func TestToggleFavoriteRequiresTransaction(t *testing.T) {
	handler := &ToggleFavoriteHandler{}
	if _, err := handler.Handle(context.Background(), ToggleFavoriteCommand{UserID: "u", SpaceID: "sp"}); !errors.Is(err, uow.ErrUnitOfWorkMissing) {
		t.Errorf("got %v", err)
	}
}

func TestToggleFavoriteUnknownSpace(t *testing.T) {
	factory := memory.NewFactory()
	handler := &ToggleFavoriteHandler{}
	ctx := unitContext(t, factory)
	if _, err := handler.Handle(ctx, ToggleFavoriteCommand{UserID: "u", SpaceID: "missing"}); !errors.Is(err, domainspaces.ErrNotFound) {
		t.Errorf("got %v", err)
	}
}

func TestListFavorites(t *testing.T) {
	factory := memory.NewFactory()
	seedSpace(t, factory, "sp-1")
	seedSpace(t, factory, "sp-2")
	toggle := &ToggleFavoriteHandler{}
	ctx := unitContext(t, factory)

	for _, spaceID := range []string{"sp-1", "sp-2"} {
		if _, err := toggle.Handle(ctx, ToggleFavoriteCommand{UserID: "user-1", SpaceID: spaceID}); err != nil {
			t.Fatalf("toggle %s: %v", spaceID, err)
		}
	}
	if _, err := toggle.Handle(ctx, ToggleFavoriteCommand{UserID: "user-2", SpaceID: "sp-1"}); err != nil {
		t.Fatalf("toggle for second user: %v", err)
	}

	lister := &ListFavoritesHandler{UoWFactory: factory}
	result, err := lister.Handle(context.Background(), ListFavoritesQuery{UserID: "user-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != 2 {
		t.Errorf("items: got %d, want 2", len(result.Items))
	}
}
