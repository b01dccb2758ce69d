package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentFailed    PaymentStatus = "failed"
)

type PaymentMethod string

const (
	PaymentMethodGateway  PaymentMethod = "gateway"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

// Payment records one vendor's share of an order. Multi-vendor orders are
// split into one payment row per vendor at intent creation so the dispersion
// ledger can attribute confirmed sales per seller.
type Payment struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID  primitive.ObjectID `json:"orderId" bson:"orderId"`
	VendorID primitive.ObjectID `json:"vendorId" bson:"vendorId"`

	Amount   float64       `json:"amount" bson:"amount"`
	Currency string        `json:"currency" bson:"currency"`
	Method   PaymentMethod `json:"method" bson:"method"`
	Status   PaymentStatus `json:"status" bson:"status"`

	Provider         string `json:"provider" bson:"provider"`
	ProviderRef      string `json:"providerRef,omitempty" bson:"providerRef,omitempty"`
	ProviderResponse string `json:"-" bson:"providerResponse,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
