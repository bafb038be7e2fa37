package dto

import "time"

type FavoriteItem struct {
	Space   SpaceCard `json:"space"`
	AddedAt time.Time `json:"added_at"`
}

type FavoriteCollection struct {
	Items []FavoriteItem `json:"items"`
}

type FavoriteToggleResult struct {
	SpaceID  string `json:"space_id"`
	Favorite bool   `json:"favorite"`
}
