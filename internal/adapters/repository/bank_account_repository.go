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

type BankAccountRepository interface {
	Create(ctx context.Context, account models.BankAccount) (models.BankAccount, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.BankAccount, error)
	// GetActive returns the vendor's single active account, or nil if none.
	GetActive(ctx context.Context, userID primitive.ObjectID) (*models.BankAccount, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.BankAccount, error)
	List(ctx context.Context, filter bson.M) ([]models.BankAccount, error)
	SetActive(ctx context.Context, id, userID primitive.ObjectID) error
	SetVerification(ctx context.Context, id primitive.ObjectID, verified bool) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type MongoBankAccountRepository struct {
	DB *mongo.Database
}

func NewBankAccountRepository(db *mongo.Database) BankAccountRepository {
	return &MongoBankAccountRepository{DB: db}
}

// Create inserts a new account. When the account is created active, every
// other account of the same vendor is deactivated in the same session so the
// one-active-account guarantee holds.
func (r *MongoBankAccountRepository) Create(ctx context.Context, account models.BankAccount) (models.BankAccount, error) {
	account.ID = primitive.NewObjectID()
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()

	session, err := r.DB.Client().StartSession()
	if err != nil {
		return models.BankAccount{}, err
	}
	defer session.EndSession(ctx)

	callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
		collection := r.DB.Collection("bankAccounts")

		if account.IsActive {
			_, err := collection.UpdateMany(sessCtx,
				bson.M{"userId": account.UserID},
				bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}})
			if err != nil {
				return nil, err
			}
		}

		if _, err := collection.InsertOne(sessCtx, account); err != nil {
			return nil, err
		}
		return account, nil
	}

	result, err := session.WithTransaction(ctx, callback)
	if err != nil {
		return models.BankAccount{}, err
	}
	return result.(models.BankAccount), nil
}

func (r *MongoBankAccountRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.BankAccount, error) {
	collection := r.DB.Collection("bankAccounts")
	var account models.BankAccount
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&account)
	return account, err
}

func (r *MongoBankAccountRepository) GetActive(ctx context.Context, userID primitive.ObjectID) (*models.BankAccount, error) {
	collection := r.DB.Collection("bankAccounts")
	var account models.BankAccount
	err := collection.FindOne(ctx, bson.M{"userId": userID, "isActive": true}).Decode(&account)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *MongoBankAccountRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.BankAccount, error) {
	collection := r.DB.Collection("bankAccounts")
	opts := options.Find().SetSort(bson.D{{Key: "isActive", Value: -1}, {Key: "createdAt", Value: -1}})

	cursor, err := collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accounts []models.BankAccount
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *MongoBankAccountRepository) List(ctx context.Context, filter bson.M) ([]models.BankAccount, error) {
	collection := r.DB.Collection("bankAccounts")
	opts := options.Find().SetSort(bson.M{"createdAt": -1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accounts []models.BankAccount
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// SetActive marks one account active and all of the vendor's others inactive.
func (r *MongoBankAccountRepository) SetActive(ctx context.Context, id, userID primitive.ObjectID) error {
	session, err := r.DB.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
		collection := r.DB.Collection("bankAccounts")

		_, err := collection.UpdateMany(sessCtx,
			bson.M{"userId": userID, "_id": bson.M{"$ne": id}},
			bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}})
		if err != nil {
			return nil, err
		}

		res, err := collection.UpdateOne(sessCtx,
			bson.M{"_id": id, "userId": userID},
			bson.M{"$set": bson.M{"isActive": true, "updatedAt": time.Now()}})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, mongo.ErrNoDocuments
		}
		return nil, nil
	}

	_, err = session.WithTransaction(ctx, callback)
	return err
}

func (r *MongoBankAccountRepository) SetVerification(ctx context.Context, id primitive.ObjectID, verified bool) error {
	collection := r.DB.Collection("bankAccounts")
	res, err := collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isVerified": verified, "updatedAt": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoBankAccountRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	collection := r.DB.Collection("bankAccounts")
	res, err := collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
