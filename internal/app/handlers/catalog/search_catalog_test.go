package catalog

import (
	"context"
	"testing"
	"time"

	"renta/internal/domain/shared/money"
	domainspaces "renta/internal/domain/spaces"
	"renta/internal/infra/storage/memory"
)

type seedSpec struct {
	id       domainspaces.SpaceID
	city     string
	category string
	dayPrice int64
	area     float64
	capacity int
	featured bool
	rating   float64
	publish  bool
}

func seedCatalog(t *testing.T, factory memory.Factory, specs []seedSpec) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	for i, spec := range specs {
		space, err := domainspaces.NewSpace(domainspaces.CreateParams{
			ID:       spec.id,
			Owner:    "owner-1",
			Title:    "Space " + string(spec.id),
			Category: spec.category,
			Address:  domainspaces.Address{Line1: "Main 1", City: spec.city},
			AreaSqM:  spec.area,
			Capacity: spec.capacity,
			Now:      now.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("NewSpace %s: %v", spec.id, err)
		}
		if spec.dayPrice > 0 {
			if err := space.SetPrice("day", money.Must(spec.dayPrice, "RUB"), now); err != nil {
				t.Fatalf("SetPrice %s: %v", spec.id, err)
			}
		}
		space.Featured = spec.featured
		space.Rating = spec.rating
		if spec.publish {
			if err := space.Publish(now); err != nil {
				t.Fatalf("Publish %s: %v", spec.id, err)
			}
		}
		if err := factory.SpacesRepo.Save(ctx, space); err != nil {
			t.Fatalf("Save %s: %v", spec.id, err)
		}
	}
}

func defaultCatalog(t *testing.T) memory.Factory {
	t.Helper()
	factory := memory.NewFactory()
	seedCatalog(t, factory, []seedSpec{
		{id: "sp-cheap", city: "Moscow", category: "office", dayPrice: 50000, area: 20, capacity: 4, rating: 4.0, publish: true},
		{id: "sp-mid", city: "Moscow", category: "studio", dayPrice: 90000, area: 45, capacity: 8, featured: true, rating: 4.8, publish: true},
		{id: "sp-big", city: "Kazan", category: "office", dayPrice: 150000, area: 120, capacity: 30, rating: 3.5, publish: true},
		{id: "sp-draft", city: "Moscow", category: "office", dayPrice: 10000, area: 15, capacity: 2},
	})
	return factory
}

func TestSearchCatalogOnlyActive(t *testing.T) {
	handler := &SearchCatalogHandler{UoWFactory: defaultCatalog(t)}
	result, err := handler.Handle(context.Background(), SearchCatalogQuery{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.Total != 3 {
		t.Errorf("total: got %d, want 3 (drafts hidden)", result.Total)
	}
	for _, item := range result.Items {
		if item.ID == "sp-draft" {
			t.Error("draft space leaked into the public catalog")
		}
	}
}

func TestSearchCatalogFilters(t *testing.T) {
	handler := &SearchCatalogHandler{UoWFactory: defaultCatalog(t)}
	ctx := context.Background()

	cases := []struct {
		name  string
		query SearchCatalogQuery
		want  []string
	}{
		{"by city", SearchCatalogQuery{City: "Kazan"}, []string{"sp-big"}},
		{"by category", SearchCatalogQuery{Category: "studio"}, []string{"sp-mid"}},
		{"by price ceiling", SearchCatalogQuery{PriceMax: 60000}, []string{"sp-cheap"}},
		{"by price floor", SearchCatalogQuery{PriceMin: 100000}, []string{"sp-big"}},
		{"by min area", SearchCatalogQuery{MinArea: 100}, []string{"sp-big"}},
		{"by capacity", SearchCatalogQuery{MinCapacity: 8, City: "Moscow"}, []string{"sp-mid"}},
		{"featured only", SearchCatalogQuery{FeaturedOnly: true}, []string{"sp-mid"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := handler.Handle(ctx, tc.query)
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if len(result.Items) != len(tc.want) {
				t.Fatalf("items: got %d, want %d", len(result.Items), len(tc.want))
			}
			for i, id := range tc.want {
				if result.Items[i].ID != id {
					t.Errorf("item %d: got %s, want %s", i, result.Items[i].ID, id)
				}
			}
		})
	}
}

func TestSearchCatalogSorting(t *testing.T) {
	handler := &SearchCatalogHandler{UoWFactory: defaultCatalog(t)}
	ctx := context.Background()

	cases := []struct {
		sort string
		want []string
	}{
		{"price_asc", []string{"sp-cheap", "sp-mid", "sp-big"}},
		{"price_desc", []string{"sp-big", "sp-mid", "sp-cheap"}},
		{"rating_desc", []string{"sp-mid", "sp-cheap", "sp-big"}},
		{"newest", []string{"sp-big", "sp-mid", "sp-cheap"}},
		{"unknown falls back to price_asc", []string{"sp-cheap", "sp-mid", "sp-big"}},
	}
	for _, tc := range cases {
		t.Run(tc.sort, func(t *testing.T) {
			sort := tc.sort
			if sort == "unknown falls back to price_asc" {
				sort = "by_vibes"
			}
			result, err := handler.Handle(ctx, SearchCatalogQuery{Sort: sort})
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			got := make([]string, 0, len(result.Items))
			for _, item := range result.Items {
				got = append(got, item.ID)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("items: got %v, want %v", got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("order: got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestSearchCatalogPaging(t *testing.T) {
	handler := &SearchCatalogHandler{UoWFactory: defaultCatalog(t)}
	ctx := context.Background()

	result, err := handler.Handle(ctx, SearchCatalogQuery{Sort: "price_asc", Limit: 2})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(result.Items) != 2 || result.Total != 3 {
		t.Fatalf("first page: items %d, total %d", len(result.Items), result.Total)
	}

	result, err = handler.Handle(ctx, SearchCatalogQuery{Sort: "price_asc", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].ID != "sp-big" {
		t.Fatalf("second page: %+v", result.Items)
	}
	if result.Offset != 2 {
		t.Errorf("offset echoed: %d", result.Offset)
	}
}
