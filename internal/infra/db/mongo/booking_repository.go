package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "renta/internal/domain/booking"
	"renta/internal/domain/shared/money"
	"renta/internal/domain/shared/timerange"
	domainspaces "renta/internal/domain/spaces"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
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
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"tenant_id": tenantID})
}

func (r *BookingRepository) ListBySpace(ctx context.Context, spaceID domainspaces.SpaceID, includeCancelled bool) ([]*domainbooking.Booking, error) {
	filter := bson.M{"space_id": string(spaceID)}
	if !includeCancelled {
		filter["state"] = bson.M{"$ne": string(domainbooking.StateCancelled)}
	}
	return r.list(ctx, filter)
}

// FindOverlapping matches the half-open interval test: a stored
// booking conflicts when it starts before the probe ends and ends
// after the probe starts. Only active states hold the slot.
func (r *BookingRepository) FindOverlapping(ctx context.Context, spaceID domainspaces.SpaceID, tr timerange.Range) ([]*domainbooking.Booking, error) {
	states := make([]string, 0, len(domainbooking.ActiveStates))
	for _, state := range domainbooking.ActiveStates {
		states = append(states, string(state))
	}
	filter := bson.M{
		"space_id":    string(spaceID),
		"state":       bson.M{"$in": states},
		"range.start": bson.M{"$lt": tr.End.UnixMilli()},
		"range.end":   bson.M{"$gt": tr.Start.UnixMilli()},
	}
	return r.list(ctx, filter)
}

func (r *BookingRepository) ByPaymentID(ctx context.Context, paymentID string) (*domainbooking.Booking, error) {
	if paymentID == "" {
		return nil, domainbooking.ErrNotFound
	}
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"prepayment.payment_id": paymentID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) CountByState(ctx context.Context) (map[domainbooking.State]int, error) {
	cursor, err := r.col.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{"_id": "$state", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := make(map[domainbooking.State]int)
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[domainbooking.State(row.ID)] = row.Count
	}
	return counts, cursor.Err()
}

func (r *BookingRepository) CountBySpace(ctx context.Context, states []domainbooking.State) (map[domainspaces.SpaceID]int, error) {
	raw := make([]string, 0, len(states))
	for _, state := range states {
		raw = append(raw, string(state))
	}
	cursor, err := r.col.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"state": bson.M{"$in": raw}}}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$space_id", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := make(map[domainspaces.SpaceID]int)
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[domainspaces.SpaceID(row.ID)] = row.Count
	}
	return counts, cursor.Err()
}

func (r *BookingRepository) SumTotals(ctx context.Context, states []domainbooking.State) (money.Money, error) {
	raw := make([]string, 0, len(states))
	for _, state := range states {
		raw = append(raw, string(state))
	}
	cursor, err := r.col.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"state": bson.M{"$in": raw}}}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$total.currency", "sum": bson.M{"$sum": "$total.amount"}}}},
	})
	if err != nil {
		return money.Money{}, err
	}
	defer cursor.Close(ctx)

	sum := money.Money{Currency: "RUB"}
	for cursor.Next(ctx) {
		var row struct {
			ID  string `bson:"_id"`
			Sum int64  `bson:"sum"`
		}
		if err := cursor.Decode(&row); err != nil {
			return money.Money{}, err
		}
		sum.Amount += row.Sum
		if row.ID != "" {
			sum.Currency = row.ID
		}
	}
	return sum, cursor.Err()
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

type prepaymentDocument struct {
	Paid      bool          `bson:"paid"`
	Amount    moneyDocument `bson:"amount"`
	PaymentID string        `bson:"payment_id"`
	PaidAt    int64         `bson:"paid_at"`
	Refunded  bool          `bson:"refunded"`
}

type bookingDocument struct {
	ID             string             `bson:"_id"`
	SpaceID        string             `bson:"space_id"`
	TenantID       string             `bson:"tenant_id"`
	PeriodCode     string             `bson:"period_code"`
	PeriodsCount   int                `bson:"periods_count"`
	Range          rangeDocument      `bson:"range"`
	PricePerPeriod moneyDocument      `bson:"price_per_period"`
	Total          moneyDocument      `bson:"total"`
	State          string             `bson:"state"`
	Comment        string             `bson:"comment,omitempty"`
	Prepayment     prepaymentDocument `bson:"prepayment"`
	CreatedAt      int64              `bson:"created_at"`
	UpdatedAt      int64              `bson:"updated_at"`
	Version        int64              `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:             string(b.ID),
		SpaceID:        string(b.SpaceID),
		TenantID:       b.TenantID,
		PeriodCode:     b.PeriodCode,
		PeriodsCount:   b.PeriodsCount,
		Range:          rangeDocument{Start: b.Range.Start.UnixMilli(), End: b.Range.End.UnixMilli()},
		PricePerPeriod: newMoneyDocument(b.PricePerPeriod),
		Total:          newMoneyDocument(b.Total),
		State:          string(b.State),
		Comment:        b.Comment,
		Prepayment: prepaymentDocument{
			Paid:      b.Prepayment.Paid,
			Amount:    newMoneyDocument(b.Prepayment.Amount),
			PaymentID: b.Prepayment.PaymentID,
			PaidAt:    b.Prepayment.PaidAt.UnixMilli(),
			Refunded:  b.Prepayment.Refunded,
		},
		CreatedAt: b.CreatedAt.UnixMilli(),
		UpdatedAt: b.UpdatedAt.UnixMilli(),
		Version:   b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:             domainbooking.BookingID(d.ID),
		SpaceID:        domainspaces.SpaceID(d.SpaceID),
		TenantID:       d.TenantID,
		PeriodCode:     d.PeriodCode,
		PeriodsCount:   d.PeriodsCount,
		Range:          timerange.Range{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		PricePerPeriod: d.PricePerPeriod.toMoney(),
		Total:          d.Total.toMoney(),
		State:          domainbooking.State(d.State),
		Comment:        d.Comment,
		Prepayment: domainbooking.Prepayment{
			Paid:      d.Prepayment.Paid,
			Amount:    d.Prepayment.Amount.toMoney(),
			PaymentID: d.Prepayment.PaymentID,
			PaidAt:    timestampToTime(d.Prepayment.PaidAt),
			Refunded:  d.Prepayment.Refunded,
		},
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
