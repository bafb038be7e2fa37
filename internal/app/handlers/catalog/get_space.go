package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"renta/internal/app/dto"
	"renta/internal/app/handlers/support"
	"renta/internal/app/queries"
	"renta/internal/app/uow"
	domainspaces "renta/internal/domain/spaces"
)

const getSpaceKey = "catalog.spaces.get"

// GetSpaceQuery resolves one space by id or slug and counts the view.
type GetSpaceQuery struct {
	IDOrSlug string
}

func (q GetSpaceQuery) Key() string { return getSpaceKey }

type GetSpaceHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *GetSpaceHandler) Handle(ctx context.Context, q GetSpaceQuery) (dto.SpaceDetail, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.SpaceDetail{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	key := strings.TrimSpace(q.IDOrSlug)
	space, err := unit.Spaces().ByID(ctx, domainspaces.SpaceID(key))
	if errors.Is(err, domainspaces.ErrNotFound) {
		space, err = unit.Spaces().BySlug(ctx, key)
	}
	if err != nil {
		return dto.SpaceDetail{}, err
	}

	if err := unit.Spaces().IncrementViews(ctx, space.ID); err != nil && h.Logger != nil {
		h.Logger.Warn("view counter update failed", "space_id", space.ID, "error", err)
	}
	detail := dto.MapSpaceDetail(space)
	detail.Views++
	return detail, nil
}

var _ queries.Handler[GetSpaceQuery, dto.SpaceDetail] = (*GetSpaceHandler)(nil)
