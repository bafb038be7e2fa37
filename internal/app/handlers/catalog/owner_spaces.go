package catalog

import (
	"context"

	"renta/internal/app/dto"
	"renta/internal/app/handlers/support"
	"renta/internal/app/queries"
	"renta/internal/app/uow"
	domainspaces "renta/internal/domain/spaces"
)

const ownerSpacesKey = "catalog.spaces.list_owner"

// OwnerSpacesQuery lists an owner's spaces in every state.
type OwnerSpacesQuery struct {
	OwnerID string
	Limit   int
	Offset  int
}

func (q OwnerSpacesQuery) Key() string { return ownerSpacesKey }

type OwnerSpacesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *OwnerSpacesHandler) Handle(ctx context.Context, q OwnerSpacesQuery) (dto.SpaceCatalog, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.SpaceCatalog{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	params := domainspaces.SearchParams{
		Owner:  domainspaces.OwnerID(q.OwnerID),
		Sort:   domainspaces.SortByNewest,
		Limit:  q.Limit,
		Offset: q.Offset,
	}.Normalized()

	result, err := unit.Spaces().Search(ctx, params)
	if err != nil {
		return dto.SpaceCatalog{}, err
	}
	return dto.MapSpaceCatalog(result, params.Limit, params.Offset), nil
}

var _ queries.Handler[OwnerSpacesQuery, dto.SpaceCatalog] = (*OwnerSpacesHandler)(nil)
