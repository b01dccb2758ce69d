package repository

import (
	"context"
	"time"

	"github.com/developia-II/mercaplaza-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DispersionConfigID is the fixed document id of the single config row.
const DispersionConfigID = "dispersion-config"

// Defaults applied when the config row is lazily created on first read.
const (
	DefaultDispersalFrequencyDays = 7
	DefaultAdminCommissionPercent = 10.0
	DefaultMinimumPayout          = 50000.0
)

type DispersionConfigRepository interface {
	GetOrCreate(ctx context.Context) (models.DispersionConfig, error)
	Update(ctx context.Context, input models.UpdateDispersionConfigInput) (models.DispersionConfig, error)
	// RecordDispersalRun is the scheduler's bookkeeping write. It only
	// succeeds if lastDispersalAt still equals prevLast, so two overlapping
	// ticks cannot both claim the same cycle.
	RecordDispersalRun(ctx context.Context, prevLast *time.Time, runAt, next time.Time) (bool, error)
}

type MongoDispersionConfigRepository struct {
	DB *mongo.Database
}

func NewDispersionConfigRepository(db *mongo.Database) DispersionConfigRepository {
	return &MongoDispersionConfigRepository{DB: db}
}

func (r *MongoDispersionConfigRepository) GetOrCreate(ctx context.Context) (models.DispersionConfig, error) {
	collection := r.DB.Collection("dispersionConfig")

	update := bson.M{"$setOnInsert": bson.M{
		"adminCommissionPercent": DefaultAdminCommissionPercent,
		"minimumPayout":          DefaultMinimumPayout,
		"dispersalFrequencyDays": DefaultDispersalFrequencyDays,
		"isAutoDispersalOn":      true,
		"createdAt":              time.Now(),
		"updatedAt":              time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var config models.DispersionConfig
	err := collection.FindOneAndUpdate(ctx, bson.M{"_id": DispersionConfigID}, update, opts).Decode(&config)
	if err != nil {
		return models.DispersionConfig{}, err
	}
	return config, nil
}

func (r *MongoDispersionConfigRepository) Update(ctx context.Context, input models.UpdateDispersionConfigInput) (models.DispersionConfig, error) {
	if _, err := r.GetOrCreate(ctx); err != nil {
		return models.DispersionConfig{}, err
	}

	set := bson.M{"updatedAt": time.Now()}
	if input.AdminCommissionPercent != nil {
		set["adminCommissionPercent"] = *input.AdminCommissionPercent
	}
	if input.MinimumPayout != nil {
		set["minimumPayout"] = *input.MinimumPayout
	}
	if input.DispersalFrequencyDays != nil {
		set["dispersalFrequencyDays"] = *input.DispersalFrequencyDays
	}
	if input.IsAutoDispersalOn != nil {
		set["isAutoDispersalOn"] = *input.IsAutoDispersalOn
	}

	collection := r.DB.Collection("dispersionConfig")
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var config models.DispersionConfig
	err := collection.FindOneAndUpdate(ctx, bson.M{"_id": DispersionConfigID}, bson.M{"$set": set}, opts).Decode(&config)
	if err != nil {
		return models.DispersionConfig{}, err
	}
	return config, nil
}

func (r *MongoDispersionConfigRepository) RecordDispersalRun(ctx context.Context, prevLast *time.Time, runAt, next time.Time) (bool, error) {
	collection := r.DB.Collection("dispersionConfig")

	filter := bson.M{"_id": DispersionConfigID}
	if prevLast == nil {
		filter["lastDispersalAt"] = bson.M{"$exists": false}
	} else {
		filter["lastDispersalAt"] = *prevLast
	}

	res, err := collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"lastDispersalAt": runAt,
		"nextDispersalAt": next,
		"updatedAt":       time.Now(),
	}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
