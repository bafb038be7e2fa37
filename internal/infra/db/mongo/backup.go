package mongo

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"renta/internal/infra/storage/s3"
)

var backupCollections = []string{
	"agg_space",
	"agg_booking",
	"payment_transactions",
	"reviews",
	"favorites",
	"users",
	"audit_log",
}

// Backup dumps every aggregate collection into a gzip JSON-lines
// archive and ships it to object storage.
type Backup struct {
	DB       *mongo.Database
	Uploader s3.Uploader
	Logger   *slog.Logger
}

// Run produces one archive per invocation and returns its public URL.
func (b *Backup) Run(ctx context.Context) (string, error) {
	if b.DB == nil || b.Uploader == nil {
		return "", fmt.Errorf("backup: database and uploader are required")
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)

	for _, name := range backupCollections {
		count, err := b.dumpCollection(ctx, name, enc)
		if err != nil {
			gz.Close()
			return "", fmt.Errorf("backup: dump %s: %w", name, err)
		}
		if b.Logger != nil {
			b.Logger.Debug("collection dumped", "collection", name, "documents", count)
		}
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("backup: close archive: %w", err)
	}

	key := s3.BackupKey(time.Now())
	url, err := b.Uploader.Upload(ctx, key, &buf, "application/gzip")
	if err != nil {
		return "", fmt.Errorf("backup: upload: %w", err)
	}
	if b.Logger != nil {
		b.Logger.Info("backup uploaded", "key", key)
	}
	return url, nil
}

type backupLine struct {
	Collection string `json:"collection"`
	Document   bson.M `json:"document"`
}

func (b *Backup) dumpCollection(ctx context.Context, name string, enc *json.Encoder) (int, error) {
	cur, err := b.DB.Collection(name).Find(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	count := 0
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return count, err
		}
		if err := enc.Encode(backupLine{Collection: name, Document: doc}); err != nil {
			return count, err
		}
		count++
	}
	return count, cur.Err()
}
