package repository

import (
	"context"
	"time"

	"github.com/developia-II/mercaplaza-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment models.Payment) (models.Payment, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Payment, error)
	ListByOrder(ctx context.Context, orderID primitive.ObjectID) ([]models.Payment, error)
	// ListConfirmedByVendor is the dispersion ledger read: every confirmed
	// payment attributed to the vendor, oldest first.
	ListConfirmedByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.Payment, error)
	ConfirmByOrder(ctx context.Context, orderID primitive.ObjectID, providerRef, providerResponse string) (int64, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) error
}

type MongoPaymentRepository struct {
	DB *mongo.Database
}

func NewPaymentRepository(db *mongo.Database) PaymentRepository {
	return &MongoPaymentRepository{DB: db}
}

func (r *MongoPaymentRepository) Create(ctx context.Context, payment models.Payment) (models.Payment, error) {
	collection := r.DB.Collection("payments")

	payment.ID = primitive.NewObjectID()
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = time.Now()

	if _, err := collection.InsertOne(ctx, payment); err != nil {
		return models.Payment{}, err
	}
	return payment, nil
}

func (r *MongoPaymentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.Payment, error) {
	collection := r.DB.Collection("payments")
	var payment models.Payment
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&payment)
	return payment, err
}

func (r *MongoPaymentRepository) ListByOrder(ctx context.Context, orderID primitive.ObjectID) ([]models.Payment, error) {
	collection := r.DB.Collection("payments")
	cursor, err := collection.Find(ctx, bson.M{"orderId": orderID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var payments []models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *MongoPaymentRepository) ListConfirmedByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.Payment, error) {
	collection := r.DB.Collection("payments")
	filter := bson.M{"vendorId": vendorID, "status": models.PaymentConfirmed}
	opts := options.Find().SetSort(bson.M{"createdAt": 1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var payments []models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// ConfirmByOrder flips every pending payment of an order to confirmed once
// the provider reports success. Already-confirmed rows are left untouched.
func (r *MongoPaymentRepository) ConfirmByOrder(ctx context.Context, orderID primitive.ObjectID, providerRef, providerResponse string) (int64, error) {
	collection := r.DB.Collection("payments")
	res, err := collection.UpdateMany(ctx,
		bson.M{"orderId": orderID, "status": models.PaymentPending},
		bson.M{"$set": bson.M{
			"status":           models.PaymentConfirmed,
			"providerRef":      providerRef,
			"providerResponse": providerResponse,
			"updatedAt":        time.Now(),
		}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoPaymentRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) error {
	collection := r.DB.Collection("payments")
	res, err := collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
