package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "renta/internal/domain/booking"
	domainpayment "renta/internal/domain/payment"
	"renta/internal/domain/shared/money"
)

// TransactionRepository is the payment ledger. A unique index on
// external_id makes GetOrCreate safe under webhook redelivery.
type TransactionRepository struct {
	col *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{col: db.Collection("payment_transactions")}
}

// EnsureIndexes must be called once at startup.
func (r *TransactionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "external_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *TransactionRepository) GetOrCreate(ctx context.Context, tx domainpayment.Transaction) (domainpayment.Transaction, bool, error) {
	if tx.ExternalID == "" {
		return domainpayment.Transaction{}, false, domainpayment.ErrExternalIDRequired
	}
	doc := newTransactionDocument(tx)
	filter := bson.M{"external_id": doc.ExternalID}
	update := bson.M{"$setOnInsert": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return domainpayment.Transaction{}, false, err
	}
	created := err == nil && res.UpsertedCount > 0
	if created {
		return tx, true, nil
	}

	var stored transactionDocument
	if err := r.col.FindOne(ctx, filter).Decode(&stored); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainpayment.Transaction{}, false, domainpayment.ErrNotFound
		}
		return domainpayment.Transaction{}, false, err
	}
	return stored.toTransaction(), false, nil
}

func (r *TransactionRepository) ListByBooking(ctx context.Context, bookingID domainbooking.BookingID) ([]domainpayment.Transaction, error) {
	return r.list(ctx, bson.M{"booking_id": string(bookingID)})
}

func (r *TransactionRepository) ListSince(ctx context.Context, since time.Time) ([]domainpayment.Transaction, error) {
	return r.list(ctx, bson.M{"created_at": bson.M{"$gte": since.UnixMilli()}})
}

func (r *TransactionRepository) SumByStatus(ctx context.Context, status domainpayment.TransactionStatus) (money.Money, error) {
	cursor, err := r.col.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"status": string(status)}}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$amount.currency", "sum": bson.M{"$sum": "$amount.amount"}}}},
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

func (r *TransactionRepository) list(ctx context.Context, filter bson.M) ([]domainpayment.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []domainpayment.Transaction
	for cursor.Next(ctx) {
		var doc transactionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toTransaction())
	}
	return out, cursor.Err()
}

type transactionDocument struct {
	ID            string        `bson:"_id"`
	BookingID     string        `bson:"booking_id"`
	Status        string        `bson:"status"`
	Amount        moneyDocument `bson:"amount"`
	PaymentMethod string        `bson:"payment_method"`
	ExternalID    string        `bson:"external_id"`
	CreatedAt     int64         `bson:"created_at"`
}

func newTransactionDocument(tx domainpayment.Transaction) transactionDocument {
	return transactionDocument{
		ID:            string(tx.ID),
		BookingID:     string(tx.BookingID),
		Status:        string(tx.Status),
		Amount:        newMoneyDocument(tx.Amount),
		PaymentMethod: tx.PaymentMethod,
		ExternalID:    tx.ExternalID,
		CreatedAt:     tx.CreatedAt.UnixMilli(),
	}
}

func (d transactionDocument) toTransaction() domainpayment.Transaction {
	return domainpayment.Transaction{
		ID:            domainpayment.TransactionID(d.ID),
		BookingID:     domainbooking.BookingID(d.BookingID),
		Status:        domainpayment.TransactionStatus(d.Status),
		Amount:        d.Amount.toMoney(),
		PaymentMethod: d.PaymentMethod,
		ExternalID:    d.ExternalID,
		CreatedAt:     timestampToTime(d.CreatedAt),
	}
}
