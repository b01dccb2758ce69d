package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/developia-II/mercaplaza-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProductRepository interface {
	FetchProductsPublic(ctx context.Context, filter bson.M, limit, skip int64) ([]models.Product, int64, error)
	GetProduct(ctx context.Context, filter bson.M) (models.Product, error)
	CreateProduct(ctx context.Context, product models.Product) (models.Product, error)
	GetVendorProducts(ctx context.Context, vendorID primitive.ObjectID, limit, skip int64) ([]models.Product, int64, error)
	UpdateProduct(ctx context.Context, filter bson.M, update models.UpdateProductInput) (bool, error)
	DeleteProduct(ctx context.Context, productID, vendorID primitive.ObjectID) error
}

type MongoProductRepository struct {
	DB *mongo.Database
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &MongoProductRepository{DB: db}
}

func (r *MongoProductRepository) FetchProductsPublic(ctx context.Context, filter bson.M, limit, skip int64) ([]models.Product, int64, error) {
	collection := r.DB.Collection("products")
	opts := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.M{"createdAt": -1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *MongoProductRepository) GetProduct(ctx context.Context, filter bson.M) (models.Product, error) {
	collection := r.DB.Collection("products")
	var product models.Product
	if err := collection.FindOne(ctx, filter).Decode(&product); err != nil {
		return models.Product{}, err
	}
	return product, nil
}

func (r *MongoProductRepository) CreateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	collection := r.DB.Collection("products")

	product.ID = primitive.NewObjectID()
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()
	if product.Status == "" {
		product.Status = models.ProductStatusActive
	}

	if _, err := collection.InsertOne(ctx, product); err != nil {
		return models.Product{}, err
	}
	return product, nil
}

func (r *MongoProductRepository) GetVendorProducts(ctx context.Context, vendorID primitive.ObjectID, limit, skip int64) ([]models.Product, int64, error) {
	collection := r.DB.Collection("products")
	filter := bson.M{"vendorId": vendorID}
	opts := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.M{"createdAt": -1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *MongoProductRepository) UpdateProduct(ctx context.Context, filter bson.M, input models.UpdateProductInput) (bool, error) {
	collection := r.DB.Collection("products")
	input.UpdatedAt = time.Now()

	result, err := collection.UpdateOne(ctx, filter, bson.M{"$set": input})
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

func (r *MongoProductRepository) DeleteProduct(ctx context.Context, productID, vendorID primitive.ObjectID) error {
	collection := r.DB.Collection("products")
	res, err := collection.DeleteOne(ctx, bson.M{"_id": productID, "vendorId": vendorID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("product not found or unauthorized")
	}
	return nil
}
