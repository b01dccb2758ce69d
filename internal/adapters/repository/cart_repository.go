package repository

import (
	"context"
	"time"

	"github.com/developia-II/mercaplaza-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type CartRepository interface {
	AddToCart(ctx context.Context, userID primitive.ObjectID, item models.CartItem) error
	RemoveFromCart(ctx context.Context, userID, productID primitive.ObjectID) error
	GetCart(ctx context.Context, userID primitive.ObjectID) (models.Cart, error)
	UpdateQuantity(ctx context.Context, userID, productID primitive.ObjectID, quantity int) error
	ClearCart(ctx context.Context, userID primitive.ObjectID) error
}

type MongoCartRepository struct {
	DB *mongo.Database
}

func NewCartRepository(db *mongo.Database) CartRepository {
	return &MongoCartRepository{DB: db}
}

func (r *MongoCartRepository) AddToCart(ctx context.Context, userID primitive.ObjectID, item models.CartItem) error {
	collection := r.DB.Collection("carts")
	filter := bson.M{"userId": userID}

	var cart models.Cart
	err := collection.FindOne(ctx, filter).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		cart = models.Cart{
			UserID:    userID,
			Items:     []models.CartItem{item},
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		_, err = collection.InsertOne(ctx, cart)
		return err
	} else if err != nil {
		return err
	}

	// Merge with an existing line for the same product
	found := false
	for i, existing := range cart.Items {
		if existing.ProductID == item.ProductID {
			cart.Items[i].Quantity += item.Quantity
			cart.Items[i].Name = item.Name
			cart.Items[i].Price = item.Price
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, item)
	}

	cart.UpdatedAt = time.Now()
	_, err = collection.ReplaceOne(ctx, filter, cart)
	return err
}

func (r *MongoCartRepository) RemoveFromCart(ctx context.Context, userID, productID primitive.ObjectID) error {
	collection := r.DB.Collection("carts")
	update := bson.M{
		"$pull": bson.M{"items": bson.M{"productId": productID}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	_, err := collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	return err
}

func (r *MongoCartRepository) GetCart(ctx context.Context, userID primitive.ObjectID) (models.Cart, error) {
	collection := r.DB.Collection("carts")
	var cart models.Cart
	err := collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
		}
		return models.Cart{}, err
	}
	return cart, nil
}

func (r *MongoCartRepository) UpdateQuantity(ctx context.Context, userID, productID primitive.ObjectID, quantity int) error {
	collection := r.DB.Collection("carts")
	filter := bson.M{"userId": userID, "items.productId": productID}
	update := bson.M{
		"$set": bson.M{
			"items.$.quantity": quantity,
			"updatedAt":        time.Now(),
		},
	}
	_, err := collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *MongoCartRepository) ClearCart(ctx context.Context, userID primitive.ObjectID) error {
	collection := r.DB.Collection("carts")
	update := bson.M{
		"$set": bson.M{
			"items":     []models.CartItem{},
			"updatedAt": time.Now(),
		},
	}
	_, err := collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	return err
}
