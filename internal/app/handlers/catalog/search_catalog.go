package catalog

import (
	"context"

	"renta/internal/app/dto"
	"renta/internal/app/handlers/support"
	"renta/internal/app/queries"
	"renta/internal/app/uow"
	domainspaces "renta/internal/domain/spaces"
)

const searchCatalogKey = "catalog.search"

// SearchCatalogQuery filters the public catalog. Only active spaces
// are visible to anonymous callers.
type SearchCatalogQuery struct {
	City         string
	Category     string
	PriceMin     int64
	PriceMax     int64
	MinArea      float64
	MinCapacity  int
	FeaturedOnly bool
	Sort         string
	Limit        int
	Offset       int
}

func (q SearchCatalogQuery) Key() string { return searchCatalogKey }

type SearchCatalogHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SearchCatalogHandler) Handle(ctx context.Context, q SearchCatalogQuery) (dto.SpaceCatalog, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.SpaceCatalog{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	params := domainspaces.SearchParams{
		City:         q.City,
		Category:     q.Category,
		PriceMin:     q.PriceMin,
		PriceMax:     q.PriceMax,
		MinArea:      q.MinArea,
		MinCapacity:  q.MinCapacity,
		FeaturedOnly: q.FeaturedOnly,
		OnlyActive:   true,
		Sort:         domainspaces.CatalogSort(q.Sort),
		Limit:        q.Limit,
		Offset:       q.Offset,
	}.Normalized()

	result, err := unit.Spaces().Search(ctx, params)
	if err != nil {
		return dto.SpaceCatalog{}, err
	}
	return dto.MapSpaceCatalog(result, params.Limit, params.Offset), nil
}

var _ queries.Handler[SearchCatalogQuery, dto.SpaceCatalog] = (*SearchCatalogHandler)(nil)
