package favorites

import (
	"context"
	"time"

	"renta/internal/domain/spaces"
)

// Favorite marks a space as saved by a user. (user, space) pairs are
// unique; Toggle in the repository adds or removes the entry.
type Favorite struct {
	UserID  string
	SpaceID spaces.SpaceID
	AddedAt time.Time
}

type Repository interface {
	// Toggle adds the pair when absent and removes it when present.
	// added reports the resulting membership.
	Toggle(ctx context.Context, userID string, spaceID spaces.SpaceID, now time.Time) (added bool, err error)
	ListByUser(ctx context.Context, userID string) ([]Favorite, error)
	Exists(ctx context.Context, userID string, spaceID spaces.SpaceID) (bool, error)
}
