package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainreviews "renta/internal/domain/reviews"
	domainspaces "renta/internal/domain/spaces"
)

type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{col: db.Collection("reviews")}
}

// EnsureIndexes creates the unique (space, author) constraint.
func (r *ReviewRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "space_id", Value: 1}, {Key: "author_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *ReviewRepository) ByID(ctx context.Context, id domainreviews.ReviewID) (*domainreviews.Review, error) {
	var doc reviewDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreviews.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReviewRepository) BySpaceAuthor(ctx context.Context, spaceID domainspaces.SpaceID, authorID string) (*domainreviews.Review, error) {
	var doc reviewDocument
	filter := bson.M{"space_id": string(spaceID), "author_id": authorID}
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreviews.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReviewRepository) ListBySpace(ctx context.Context, spaceID domainspaces.SpaceID, approvedOnly bool, limit, offset int) ([]*domainreviews.Review, error) {
	filter := bson.M{"space_id": string(spaceID)}
	if approvedOnly {
		filter["approved"] = true
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	return r.list(ctx, filter, opts)
}

func (r *ReviewRepository) ListPending(ctx context.Context, limit int) ([]*domainreviews.Review, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))
	return r.list(ctx, bson.M{"moderated": false}, opts)
}

func (r *ReviewRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	doc := newReviewDocument(review)
	filter := bson.M{"_id": doc.ID}
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	if _, err := r.col.UpdateOne(ctx, filter, update, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainreviews.ErrAlreadyReviewed
		}
		return err
	}
	return nil
}

func (r *ReviewRepository) Count(ctx context.Context) (int, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{})
	return int(count), err
}

func (r *ReviewRepository) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainreviews.Review, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domainreviews.Review
	for cursor.Next(ctx) {
		var doc reviewDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type reviewDocument struct {
	ID        string `bson:"_id"`
	SpaceID   string `bson:"space_id"`
	AuthorID  string `bson:"author_id"`
	BookingID string `bson:"booking_id,omitempty"`
	Rating    int    `bson:"rating"`
	Comment   string `bson:"comment"`
	Approved  bool   `bson:"approved"`
	Moderated bool   `bson:"moderated"`
	CreatedAt int64  `bson:"created_at"`
}

func newReviewDocument(r *domainreviews.Review) reviewDocument {
	return reviewDocument{
		ID:        string(r.ID),
		SpaceID:   string(r.SpaceID),
		AuthorID:  r.AuthorID,
		BookingID: r.BookingID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Approved:  r.Approved,
		Moderated: r.Moderated,
		CreatedAt: r.CreatedAt.UnixMilli(),
	}
}

func (d reviewDocument) toAggregate() *domainreviews.Review {
	return &domainreviews.Review{
		ID:        domainreviews.ReviewID(d.ID),
		SpaceID:   domainspaces.SpaceID(d.SpaceID),
		AuthorID:  d.AuthorID,
		BookingID: d.BookingID,
		Rating:    d.Rating,
		Comment:   d.Comment,
		Approved:  d.Approved,
		Moderated: d.Moderated,
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}
