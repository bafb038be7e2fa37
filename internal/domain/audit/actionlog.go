package audit

import (
	"context"
	"strings"
	"time"
)

// Action types mirrored by the admin journal.
type ActionType string

const (
	ActionCreate ActionType = "create"
	ActionUpdate ActionType = "update"
	ActionDelete ActionType = "delete"
	ActionLogin  ActionType = "login"
	ActionLogout ActionType = "logout"
	ActionOther  ActionType = "other"
)

// Entry is one append-only audit row describing an admin-visible
// mutation.
type Entry struct {
	ID         string
	ActorID    string
	Action     ActionType
	Entity     string
	EntityID   string
	Summary    string
	OccurredAt time.Time
}

type Log interface {
	Append(ctx context.Context, entry Entry) error
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}

// NewEntry normalizes fields and stamps the entry.
func NewEntry(id, actorID string, action ActionType, entity, entityID, summary string, at time.Time) Entry {
	if at.IsZero() {
		at = time.Now()
	}
	return Entry{
		ID:         id,
		ActorID:    strings.TrimSpace(actorID),
		Action:     action,
		Entity:     strings.TrimSpace(strings.ToLower(entity)),
		EntityID:   strings.TrimSpace(entityID),
		Summary:    strings.TrimSpace(summary),
		OccurredAt: at.UTC(),
	}
}
