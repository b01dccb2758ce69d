package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
	StatusRefunded  OrderStatus = "refunded"
)

type OrderItem struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	VendorID  primitive.ObjectID `json:"vendorId" bson:"vendorId"`
	Name      string             `json:"name" bson:"name"`
	Price     float64            `json:"price" bson:"price"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	Subtotal  float64            `json:"subtotal" bson:"subtotal"`
}

type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber string             `json:"orderNumber" bson:"orderNumber"` // e.g., MP-100234
	UserID      primitive.ObjectID `json:"userId" bson:"userId"`
	Items       []OrderItem        `json:"items" bson:"items"`

	Subtotal    float64 `json:"subtotal" bson:"subtotal"`
	ShippingFee float64 `json:"shippingFee" bson:"shippingFee"`
	Tax         float64 `json:"tax" bson:"tax"`
	Total       float64 `json:"total" bson:"total"`

	Status        OrderStatus `json:"status" bson:"status"`
	PaymentStatus string      `json:"paymentStatus" bson:"paymentStatus"`
	PaymentMethod string      `json:"paymentMethod" bson:"paymentMethod"`

	ShippingAddress string `json:"shippingAddress" bson:"shippingAddress"`
	TrackingNumber  string `json:"trackingNumber" bson:"trackingNumber"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type PlaceOrderInput struct {
	ShippingAddress string `json:"shippingAddress" binding:"required"`
	PaymentMethod   string `json:"paymentMethod" binding:"required"`
}

// VendorSubtotal groups an order's items by the vendor that sold them,
// used to split the inbound payment into per-vendor ledger rows.
func (o Order) VendorSubtotals() map[primitive.ObjectID]float64 {
	totals := make(map[primitive.ObjectID]float64)
	for _, item := range o.Items {
		totals[item.VendorID] += item.Subtotal
	}
	return totals
}
