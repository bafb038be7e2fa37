package dto

import (
	"time"

	"renta/internal/domain/shared/money"
	domainspaces "renta/internal/domain/spaces"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type ImageDTO struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
	Primary bool   `json:"primary"`
}

type PriceDTO struct {
	PeriodCode string   `json:"period"`
	Amount     MoneyDTO `json:"amount"`
}

// SpaceCard is the compact catalog representation.
type SpaceCard struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	City        string    `json:"city"`
	AreaSqM     float64   `json:"area_sq_m"`
	Capacity    int       `json:"capacity"`
	Featured    bool      `json:"featured"`
	Rating      float64   `json:"rating"`
	Reviews     int       `json:"reviews"`
	MinPrice    *PriceDTO `json:"min_price,omitempty"`
	PrimaryURL  string    `json:"primary_image_url,omitempty"`
}

type SpaceCatalog struct {
	Items  []SpaceCard `json:"items"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// SpaceDetail is the full public representation of a space.
type SpaceDetail struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	State       string     `json:"state"`
	AddressLine string     `json:"address_line"`
	City        string     `json:"city"`
	Region      string     `json:"region,omitempty"`
	Country     string     `json:"country,omitempty"`
	Lat         float64    `json:"lat,omitempty"`
	Lon         float64    `json:"lon,omitempty"`
	AreaSqM     float64    `json:"area_sq_m"`
	Capacity    int        `json:"capacity"`
	Featured    bool       `json:"featured"`
	Views       int64      `json:"views"`
	Rating      float64    `json:"rating"`
	Reviews     int        `json:"reviews"`
	Images      []ImageDTO `json:"images"`
	Prices      []PriceDTO `json:"prices"`
	CreatedAt   time.Time  `json:"created_at"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency}
}

func MapSpaceCard(space *domainspaces.Space) SpaceCard {
	card := SpaceCard{
		ID:       string(space.ID),
		Slug:     space.Slug,
		Title:    space.Title,
		Category: space.Category,
		City:     space.Address.City,
		AreaSqM:  space.AreaSqM,
		Capacity: space.Capacity,
		Featured: space.Featured,
		Rating:   space.Rating,
		Reviews:  space.Reviews,
	}
	if price, ok := space.MinActivePrice(); ok {
		card.MinPrice = &PriceDTO{PeriodCode: price.PeriodCode, Amount: MapMoney(price.Amount)}
	}
	if img, ok := space.PrimaryImage(); ok {
		card.PrimaryURL = img.URL
	}
	return card
}

func MapSpaceCatalog(result domainspaces.SearchResult, limit, offset int) SpaceCatalog {
	items := make([]SpaceCard, 0, len(result.Items))
	for _, space := range result.Items {
		items = append(items, MapSpaceCard(space))
	}
	return SpaceCatalog{Items: items, Total: result.Total, Limit: limit, Offset: offset}
}

func MapSpaceDetail(space *domainspaces.Space) SpaceDetail {
	images := make([]ImageDTO, 0, len(space.Images))
	for _, img := range space.Images {
		images = append(images, ImageDTO{ID: img.ID, URL: img.URL, Caption: img.Caption, Primary: img.Primary})
	}
	prices := make([]PriceDTO, 0, len(space.Prices))
	for _, price := range space.Prices {
		if !price.Active {
			continue
		}
		prices = append(prices, PriceDTO{PeriodCode: price.PeriodCode, Amount: MapMoney(price.Amount)})
	}
	return SpaceDetail{
		ID:          string(space.ID),
		Slug:        space.Slug,
		Title:       space.Title,
		Description: space.Description,
		Category:    space.Category,
		State:       string(space.State),
		AddressLine: space.Address.Line1,
		City:        space.Address.City,
		Region:      space.Address.Region,
		Country:     space.Address.Country,
		Lat:         space.Address.Lat,
		Lon:         space.Address.Lon,
		AreaSqM:     space.AreaSqM,
		Capacity:    space.Capacity,
		Featured:    space.Featured,
		Views:       space.Views,
		Rating:      space.Rating,
		Reviews:     space.Reviews,
		Images:      images,
		Prices:      prices,
		CreatedAt:   space.CreatedAt,
	}
}
