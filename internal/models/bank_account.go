package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AccountType string

const (
	AccountTypeSavings  AccountType = "savings"
	AccountTypeChecking AccountType = "checking"
)

// BankAccount is a vendor's registered payout destination. At most one
// account per vendor is active at a time; activating one deactivates the rest.
type BankAccount struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `json:"userId" bson:"userId"`

	BankName       string      `json:"bankName" bson:"bankName" validate:"required"`
	AccountType    AccountType `json:"accountType" bson:"accountType"`
	AccountNumber  string      `json:"accountNumber" bson:"accountNumber" validate:"required"`
	HolderName     string      `json:"holderName" bson:"holderName" validate:"required"`
	HolderDocument string      `json:"holderDocument" bson:"holderDocument"`
	DocumentType   string      `json:"documentType" bson:"documentType"` // CC, CE, NIT, PP

	// Account id at the transfer provider, set once the vendor completes
	// provider onboarding. Required before transfers can be executed.
	ProviderAccountID string `json:"providerAccountId,omitempty" bson:"providerAccountId,omitempty"`

	IsVerified bool `json:"isVerified" bson:"isVerified"`
	IsActive   bool `json:"isActive" bson:"isActive"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type CreateBankAccountInput struct {
	BankName          string      `json:"bankName" binding:"required"`
	AccountType       AccountType `json:"accountType" binding:"required"`
	AccountNumber     string      `json:"accountNumber" binding:"required"`
	HolderName        string      `json:"holderName" binding:"required"`
	HolderDocument    string      `json:"holderDocument" binding:"required"`
	DocumentType      string      `json:"documentType"`
	ProviderAccountID string      `json:"providerAccountId"`
	IsActive          *bool       `json:"isActive"`
}
