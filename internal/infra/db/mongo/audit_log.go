package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainaudit "renta/internal/domain/audit"
)

// AuditLog is the append-only admin journal.
type AuditLog struct {
	col *mongo.Collection
}

func NewAuditLog(db *mongo.Database) *AuditLog {
	return &AuditLog{col: db.Collection("audit_log")}
}

func (l *AuditLog) Append(ctx context.Context, entry domainaudit.Entry) error {
	_, err := l.col.InsertOne(ctx, auditDocument{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		Action:     string(entry.Action),
		Entity:     entry.Entity,
		EntityID:   entry.EntityID,
		Summary:    entry.Summary,
		OccurredAt: entry.OccurredAt.UnixMilli(),
	})
	return err
}

func (l *AuditLog) ListRecent(ctx context.Context, limit int) ([]domainaudit.Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := l.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []domainaudit.Entry
	for cursor.Next(ctx) {
		var doc auditDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, domainaudit.Entry{
			ID:         doc.ID,
			ActorID:    doc.ActorID,
			Action:     domainaudit.ActionType(doc.Action),
			Entity:     doc.Entity,
			EntityID:   doc.EntityID,
			Summary:    doc.Summary,
			OccurredAt: timestampToTime(doc.OccurredAt),
		})
	}
	return out, cursor.Err()
}

type auditDocument struct {
	ID         string `bson:"_id"`
	ActorID    string `bson:"actor_id"`
	Action     string `bson:"action"`
	Entity     string `bson:"entity"`
	EntityID   string `bson:"entity_id"`
	Summary    string `bson:"summary,omitempty"`
	OccurredAt int64  `bson:"occurred_at"`
}
