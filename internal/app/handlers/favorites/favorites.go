package favorites

import (
	"context"
	"log/slog"
	"time"

	"renta/internal/app/commands"
	"renta/internal/app/dto"
	"renta/internal/app/handlers/support"
	"renta/internal/app/queries"
	"renta/internal/app/uow"
	domainspaces "renta/internal/domain/spaces"
)

const (
	toggleFavoriteKey = "favorites.toggle"
	listFavoritesKey  = "favorites.list"
)

// ToggleFavoriteCommand adds the space to the user's favorites or
// removes it when already present.
type ToggleFavoriteCommand struct {
	UserID  string
	SpaceID string
}

func (c ToggleFavoriteCommand) Key() string { return toggleFavoriteKey }

type ToggleFavoriteHandler struct {
	Logger *slog.Logger
}

func (h *ToggleFavoriteHandler) Handle(ctx context.Context, cmd ToggleFavoriteCommand) (dto.FavoriteToggleResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.FavoriteToggleResult{}, uow.ErrUnitOfWorkMissing
	}

	space, err := unit.Spaces().ByID(ctx, domainspaces.SpaceID(cmd.SpaceID))
	if err != nil {
		return dto.FavoriteToggleResult{}, err
	}

	added, err := unit.Favorites().Toggle(ctx, cmd.UserID, space.ID, time.Now())
	if err != nil {
		return dto.FavoriteToggleResult{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("favorite toggled", "user_id", cmd.UserID, "space_id", space.ID, "favorite", added)
	}
	return dto.FavoriteToggleResult{SpaceID: string(space.ID), Favorite: added}, nil
}

// ListFavoritesQuery returns the user's saved spaces.
type ListFavoritesQuery struct {
	UserID string
}

func (q ListFavoritesQuery) Key() string { return listFavoritesKey }

type ListFavoritesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListFavoritesHandler) Handle(ctx context.Context, q ListFavoritesQuery) (dto.FavoriteCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.FavoriteCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	favorites, err := unit.Favorites().ListByUser(ctx, q.UserID)
	if err != nil {
		return dto.FavoriteCollection{}, err
	}

	items := make([]dto.FavoriteItem, 0, len(favorites))
	for _, fav := range favorites {
		space, err := unit.Spaces().ByID(ctx, fav.SpaceID)
		if err != nil {
			// Space may be gone; drop the stale entry from the view.
			continue
		}
		items = append(items, dto.FavoriteItem{Space: dto.MapSpaceCard(space), AddedAt: fav.AddedAt})
	}
	return dto.FavoriteCollection{Items: items}, nil
}

var _ commands.Handler[ToggleFavoriteCommand, dto.FavoriteToggleResult] = (*ToggleFavoriteHandler)(nil)
var _ queries.Handler[ListFavoritesQuery, dto.FavoriteCollection] = (*ListFavoritesHandler)(nil)
