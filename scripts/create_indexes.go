package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Run this script once to create database indexes
// Usage: go run scripts/create_indexes.go
func main() {
	_ = godotenv.Load()

	// Increase timeout for cloud connection (Atlas is slower than localhost)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		log.Fatal("❌ MONGODB_URI is not set")
	}
	clientOptions := options.Client().ApplyURI(mongoURI).SetServerSelectionTimeout(30 * time.Second)

	log.Println("🔄 Connecting to MongoDB...")
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatalf("❌ Failed to create client: %v", err)
	}
	defer client.Disconnect(ctx)

	log.Println("🔄 Verifying connection...")
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v\nCheck your connection string and network access", err)
	}
	log.Println("✅ Connected to MongoDB successfully!")

	dbName := os.Getenv("MONGODB_DATABASE")
	if dbName == "" {
		dbName = "mercaplaza"
	}
	db := client.Database(dbName)

	createIndex(ctx, db, "users", mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("idx_email").SetUnique(true),
	})

	createIndex(ctx, db, "products", mongo.IndexModel{
		Keys: bson.D{
			{Key: "vendorId", Value: 1},
			{Key: "createdAt", Value: -1},
		},
		Options: options.Index().SetName("idx_vendor_products_date"),
	})
	createIndex(ctx, db, "products", mongo.IndexModel{
		Keys:    bson.D{{Key: "status", Value: 1}},
		Options: options.Index().SetName("idx_status"),
	})

	createIndex(ctx, db, "orders", mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "createdAt", Value: -1},
		},
		Options: options.Index().SetName("idx_user_orders_date"),
	})
	createIndex(ctx, db, "orders", mongo.IndexModel{
		Keys:    bson.D{{Key: "items.vendorId", Value: 1}},
		Options: options.Index().SetName("idx_order_vendors"),
	})

	// Payments are read per vendor filtered by status when balances are
	// computed, so the compound index covers the hot query.
	createIndex(ctx, db, "payments", mongo.IndexModel{
		Keys: bson.D{
			{Key: "vendorId", Value: 1},
			{Key: "status", Value: 1},
			{Key: "createdAt", Value: 1},
		},
		Options: options.Index().SetName("idx_vendor_payments_status"),
	})
	createIndex(ctx, db, "payments", mongo.IndexModel{
		Keys:    bson.D{{Key: "orderId", Value: 1}},
		Options: options.Index().SetName("idx_payment_order"),
	})

	createIndex(ctx, db, "vendorPayouts", mongo.IndexModel{
		Keys: bson.D{
			{Key: "vendorId", Value: 1},
			{Key: "status", Value: 1},
		},
		Options: options.Index().SetName("idx_vendor_payouts_status"),
	})
	createIndex(ctx, db, "vendorPayouts", mongo.IndexModel{
		Keys:    bson.D{{Key: "reference", Value: 1}},
		Options: options.Index().SetName("idx_payout_reference").SetUnique(true),
	})
	createIndex(ctx, db, "vendorPayouts", mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "createdAt", Value: 1},
		},
		Options: options.Index().SetName("idx_pending_payouts"),
	})

	createIndex(ctx, db, "bankAccounts", mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "isActive", Value: -1},
		},
		Options: options.Index().SetName("idx_user_bank_accounts"),
	})

	createIndex(ctx, db, "carts", mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetName("idx_cart_user").SetUnique(true),
	})

	log.Println("\n🎉 All indexes created successfully!")
}

func createIndex(ctx context.Context, db *mongo.Database, collection string, model mongo.IndexModel) {
	name := "<unnamed>"
	if model.Options != nil && model.Options.Name != nil {
		name = *model.Options.Name
	}

	_, err := db.Collection(collection).Indexes().CreateOne(ctx, model)
	if err != nil {
		log.Printf("Failed to create %s on %s: %v", name, collection, err)
		return
	}
	log.Printf("✅ Created index: %s on %s", name, collection)
}
