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

type PayoutRepository interface {
	Create(ctx context.Context, payout models.VendorPayout) (models.VendorPayout, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.VendorPayout, error)
	List(ctx context.Context, filter models.PayoutFilter) ([]models.VendorPayout, error)
	ListByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.VendorPayout, error)
	ListPending(ctx context.Context, limit int64) ([]models.VendorPayout, error)
	// ListByVendorInStatuses feeds the dispersed-total side of the balance
	// computation (processing + completed payouts).
	ListByVendorInStatuses(ctx context.Context, vendorID primitive.ObjectID, statuses []models.PayoutStatus) ([]models.VendorPayout, error)

	// The Mark* methods are conditional single-document transitions: each one
	// matches on the expected current status, so a stale caller loses the
	// race and sees ok=false instead of clobbering a newer state.
	MarkProcessing(ctx context.Context, id primitive.ObjectID) (bool, error)
	MarkCompleted(ctx context.Context, id primitive.ObjectID, providerRef, providerResponse string, processedAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id primitive.ObjectID, errMessage string) (bool, error)
	MarkCancelled(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type MongoPayoutRepository struct {
	DB *mongo.Database
}

func NewPayoutRepository(db *mongo.Database) PayoutRepository {
	return &MongoPayoutRepository{DB: db}
}

func (r *MongoPayoutRepository) Create(ctx context.Context, payout models.VendorPayout) (models.VendorPayout, error) {
	collection := r.DB.Collection("vendorPayouts")

	payout.ID = primitive.NewObjectID()
	payout.CreatedAt = time.Now()
	payout.UpdatedAt = time.Now()

	if _, err := collection.InsertOne(ctx, payout); err != nil {
		return models.VendorPayout{}, err
	}
	return payout, nil
}

func (r *MongoPayoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.VendorPayout, error) {
	collection := r.DB.Collection("vendorPayouts")
	var payout models.VendorPayout
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&payout)
	return payout, err
}

func (r *MongoPayoutRepository) List(ctx context.Context, filter models.PayoutFilter) ([]models.VendorPayout, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if !filter.VendorID.IsZero() {
		query["vendorId"] = filter.VendorID
	}
	return r.find(ctx, query, options.Find().SetSort(bson.M{"createdAt": -1}))
}

func (r *MongoPayoutRepository) ListByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.VendorPayout, error) {
	return r.find(ctx, bson.M{"vendorId": vendorID}, options.Find().SetSort(bson.M{"createdAt": -1}))
}

func (r *MongoPayoutRepository) ListPending(ctx context.Context, limit int64) ([]models.VendorPayout, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": 1}).SetLimit(limit)
	return r.find(ctx, bson.M{"status": models.PayoutPending}, opts)
}

func (r *MongoPayoutRepository) ListByVendorInStatuses(ctx context.Context, vendorID primitive.ObjectID, statuses []models.PayoutStatus) ([]models.VendorPayout, error) {
	query := bson.M{
		"vendorId": vendorID,
		"status":   bson.M{"$in": statuses},
	}
	return r.find(ctx, query, options.Find())
}

func (r *MongoPayoutRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.VendorPayout, error) {
	collection := r.DB.Collection("vendorPayouts")
	cursor, err := collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var payouts []models.VendorPayout
	if err := cursor.All(ctx, &payouts); err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *MongoPayoutRepository) MarkProcessing(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return r.transition(ctx,
		bson.M{"_id": id, "status": models.PayoutPending},
		bson.M{"status": models.PayoutProcessing})
}

func (r *MongoPayoutRepository) MarkCompleted(ctx context.Context, id primitive.ObjectID, providerRef, providerResponse string, processedAt time.Time) (bool, error) {
	return r.transition(ctx,
		bson.M{"_id": id, "status": models.PayoutProcessing},
		bson.M{
			"status":            models.PayoutCompleted,
			"providerReference": providerRef,
			"providerResponse":  providerResponse,
			"processedAt":       processedAt,
		})
}

func (r *MongoPayoutRepository) MarkFailed(ctx context.Context, id primitive.ObjectID, errMessage string) (bool, error) {
	return r.transition(ctx,
		bson.M{"_id": id, "status": models.PayoutProcessing},
		bson.M{
			"status":       models.PayoutFailed,
			"errorMessage": errMessage,
		})
}

func (r *MongoPayoutRepository) MarkCancelled(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return r.transition(ctx,
		bson.M{"_id": id, "status": models.PayoutPending},
		bson.M{"status": models.PayoutCancelled})
}

func (r *MongoPayoutRepository) transition(ctx context.Context, filter, set bson.M) (bool, error) {
	collection := r.DB.Collection("vendorPayouts")
	set["updatedAt"] = time.Now()

	res, err := collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
