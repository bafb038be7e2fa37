package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainfavorites "renta/internal/domain/favorites"
	domainspaces "renta/internal/domain/spaces"
)

type FavoriteRepository struct {
	col *mongo.Collection
}

func NewFavoriteRepository(db *mongo.Database) *FavoriteRepository {
	return &FavoriteRepository{col: db.Collection("favorites")}
}

// EnsureIndexes creates the unique (user, space) constraint.
func (r *FavoriteRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "space_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *FavoriteRepository) Toggle(ctx context.Context, userID string, spaceID domainspaces.SpaceID, now time.Time) (bool, error) {
	filter := bson.M{"user_id": userID, "space_id": string(spaceID)}
	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}
	doc := favoriteDocument{UserID: userID, SpaceID: string(spaceID), AddedAt: now.UTC().UnixMilli()}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		// Concurrent toggle inserted the pair first; treat as present.
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]domainfavorites.Favorite, error) {
	opts := options.Find().SetSort(bson.D{{Key: "added_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []domainfavorites.Favorite
	for cursor.Next(ctx) {
		var doc favoriteDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, domainfavorites.Favorite{
			UserID:  doc.UserID,
			SpaceID: domainspaces.SpaceID(doc.SpaceID),
			AddedAt: timestampToTime(doc.AddedAt),
		})
	}
	return out, cursor.Err()
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID string, spaceID domainspaces.SpaceID) (bool, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{"user_id": userID, "space_id": string(spaceID)})
	return count > 0, err
}

type favoriteDocument struct {
	UserID  string `bson:"user_id"`
	SpaceID string `bson:"space_id"`
	AddedAt int64  `bson:"added_at"`
}
