package mongo

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainspaces "renta/internal/domain/spaces"
)

type SpaceRepository struct {
	col *mongo.Collection
}

func NewSpaceRepository(db *mongo.Database) *SpaceRepository {
	return &SpaceRepository{col: db.Collection("agg_space")}
}

func (r *SpaceRepository) ByID(ctx context.Context, id domainspaces.SpaceID) (*domainspaces.Space, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *SpaceRepository) BySlug(ctx context.Context, slug string) (*domainspaces.Space, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *SpaceRepository) findOne(ctx context.Context, filter bson.M) (*domainspaces.Space, error) {
	var doc spaceDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainspaces.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *SpaceRepository) Save(ctx context.Context, s *domainspaces.Space) error {
	doc := newSpaceDocument(s)
	filter := bson.M{"_id": doc.ID, "version": s.Version}
	doc.Version = s.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	s.Version = doc.Version
	return nil
}

func (r *SpaceRepository) Search(ctx context.Context, params domainspaces.SearchParams) (domainspaces.SearchResult, error) {
	opts := params.Normalized()
	filter := bson.M{}
	if opts.OnlyActive {
		filter["state"] = string(domainspaces.SpaceActive)
	} else if len(opts.States) > 0 {
		states := make([]string, 0, len(opts.States))
		for _, state := range opts.States {
			states = append(states, string(state))
		}
		filter["state"] = bson.M{"$in": states}
	}
	if opts.Owner != "" {
		filter["owner"] = string(opts.Owner)
	}
	if opts.City != "" {
		filter["address.city_lower"] = opts.City
	}
	if opts.Category != "" {
		filter["category"] = opts.Category
	}
	if opts.MinArea > 0 {
		filter["area_sq_m"] = bson.M{"$gte": opts.MinArea}
	}
	if opts.MinCapacity > 0 {
		filter["capacity"] = bson.M{"$gte": opts.MinCapacity}
	}
	if opts.FeaturedOnly {
		filter["featured"] = true
	}
	priceFilter := bson.M{}
	if opts.PriceMin > 0 {
		priceFilter["$gte"] = opts.PriceMin
	}
	if opts.PriceMax > 0 {
		priceFilter["$lte"] = opts.PriceMax
	}
	if len(priceFilter) > 0 {
		filter["min_price"] = priceFilter
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainspaces.SearchResult{}, err
	}

	findOpts := options.Find().
		SetSort(sortSpec(opts.Sort)).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))
	cursor, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return domainspaces.SearchResult{}, err
	}
	defer cursor.Close(ctx)

	items := make([]*domainspaces.Space, 0, opts.Limit)
	for cursor.Next(ctx) {
		var doc spaceDocument
		if err := cursor.Decode(&doc); err != nil {
			return domainspaces.SearchResult{}, err
		}
		items = append(items, doc.toAggregate())
	}
	if err := cursor.Err(); err != nil {
		return domainspaces.SearchResult{}, err
	}
	return domainspaces.SearchResult{Items: items, Total: int(total)}, nil
}

func (r *SpaceRepository) IncrementViews(ctx context.Context, id domainspaces.SpaceID) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": string(id)}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainspaces.ErrNotFound
	}
	return nil
}

func (r *SpaceRepository) CountByState(ctx context.Context) (map[domainspaces.SpaceState]int, error) {
	cursor, err := r.col.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{"_id": "$state", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := make(map[domainspaces.SpaceState]int)
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[domainspaces.SpaceState(row.ID)] = row.Count
	}
	return counts, cursor.Err()
}

func sortSpec(sort domainspaces.CatalogSort) bson.D {
	switch sort {
	case domainspaces.SortByPriceDesc:
		return bson.D{{Key: "min_price", Value: -1}}
	case domainspaces.SortByRating:
		return bson.D{{Key: "rating", Value: -1}, {Key: "min_price", Value: 1}}
	case domainspaces.SortByNewest:
		return bson.D{{Key: "created_at", Value: -1}}
	default:
		return bson.D{{Key: "min_price", Value: 1}}
	}
}

type addressDocument struct {
	Line1     string  `bson:"line1"`
	City      string  `bson:"city"`
	CityLower string  `bson:"city_lower"`
	Region    string  `bson:"region,omitempty"`
	Country   string  `bson:"country,omitempty"`
	Lat       float64 `bson:"lat,omitempty"`
	Lon       float64 `bson:"lon,omitempty"`
}

type imageDocument struct {
	ID      string `bson:"id"`
	URL     string `bson:"url"`
	Caption string `bson:"caption,omitempty"`
	Primary bool   `bson:"primary"`
	AddedAt int64  `bson:"added_at"`
}

type priceDocument struct {
	PeriodCode string        `bson:"period_code"`
	Amount     moneyDocument `bson:"amount"`
	Active     bool          `bson:"active"`
	UpdatedAt  int64         `bson:"updated_at"`
}

type spaceDocument struct {
	ID          string          `bson:"_id"`
	Owner       string          `bson:"owner"`
	Title       string          `bson:"title"`
	Description string          `bson:"description,omitempty"`
	Slug        string          `bson:"slug"`
	Category    string          `bson:"category"`
	Address     addressDocument `bson:"address"`
	AreaSqM     float64         `bson:"area_sq_m"`
	Capacity    int             `bson:"capacity"`
	State       string          `bson:"state"`
	Featured    bool            `bson:"featured"`
	Views       int64           `bson:"views"`
	Images      []imageDocument `bson:"images,omitempty"`
	Prices      []priceDocument `bson:"prices,omitempty"`
	MinPrice    int64           `bson:"min_price"`
	Rating      float64         `bson:"rating"`
	Reviews     int             `bson:"reviews"`
	CreatedAt   int64           `bson:"created_at"`
	UpdatedAt   int64           `bson:"updated_at"`
	Version     int64           `bson:"version"`
}

func newSpaceDocument(s *domainspaces.Space) spaceDocument {
	images := make([]imageDocument, 0, len(s.Images))
	for _, img := range s.Images {
		images = append(images, imageDocument{
			ID:      img.ID,
			URL:     img.URL,
			Caption: img.Caption,
			Primary: img.Primary,
			AddedAt: img.AddedAt.UnixMilli(),
		})
	}
	prices := make([]priceDocument, 0, len(s.Prices))
	for _, price := range s.Prices {
		prices = append(prices, priceDocument{
			PeriodCode: price.PeriodCode,
			Amount:     newMoneyDocument(price.Amount),
			Active:     price.Active,
			UpdatedAt:  price.UpdatedAt.UnixMilli(),
		})
	}
	// min_price is denormalized for catalog filtering and sorting.
	var minPrice int64
	if price, ok := s.MinActivePrice(); ok {
		minPrice = price.Amount.Amount
	}
	return spaceDocument{
		ID:          string(s.ID),
		Owner:       string(s.Owner),
		Title:       s.Title,
		Description: s.Description,
		Slug:        s.Slug,
		Category:    s.Category,
		Address: addressDocument{
			Line1:     s.Address.Line1,
			City:      s.Address.City,
			CityLower: strings.ToLower(s.Address.City),
			Region:    s.Address.Region,
			Country:   s.Address.Country,
			Lat:       s.Address.Lat,
			Lon:       s.Address.Lon,
		},
		AreaSqM:   s.AreaSqM,
		Capacity:  s.Capacity,
		State:     string(s.State),
		Featured:  s.Featured,
		Views:     s.Views,
		Images:    images,
		Prices:    prices,
		MinPrice:  minPrice,
		Rating:    s.Rating,
		Reviews:   s.Reviews,
		CreatedAt: s.CreatedAt.UnixMilli(),
		UpdatedAt: s.UpdatedAt.UnixMilli(),
		Version:   s.Version,
	}
}

func (d spaceDocument) toAggregate() *domainspaces.Space {
	images := make([]domainspaces.Image, 0, len(d.Images))
	for _, img := range d.Images {
		images = append(images, domainspaces.Image{
			ID:      img.ID,
			URL:     img.URL,
			Caption: img.Caption,
			Primary: img.Primary,
			AddedAt: timestampToTime(img.AddedAt),
		})
	}
	prices := make([]domainspaces.Price, 0, len(d.Prices))
	for _, price := range d.Prices {
		prices = append(prices, domainspaces.Price{
			PeriodCode: price.PeriodCode,
			Amount:     price.Amount.toMoney(),
			Active:     price.Active,
			UpdatedAt:  timestampToTime(price.UpdatedAt),
		})
	}
	return &domainspaces.Space{
		ID:          domainspaces.SpaceID(d.ID),
		Owner:       domainspaces.OwnerID(d.Owner),
		Title:       d.Title,
		Description: d.Description,
		Slug:        d.Slug,
		Category:    d.Category,
		Address: domainspaces.Address{
			Line1:   d.Address.Line1,
			City:    d.Address.City,
			Region:  d.Address.Region,
			Country: d.Address.Country,
			Lat:     d.Address.Lat,
			Lon:     d.Address.Lon,
		},
		AreaSqM:   d.AreaSqM,
		Capacity:  d.Capacity,
		State:     domainspaces.SpaceState(d.State),
		Featured:  d.Featured,
		Views:     d.Views,
		Images:    images,
		Prices:    prices,
		Rating:    d.Rating,
		Reviews:   d.Reviews,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}
