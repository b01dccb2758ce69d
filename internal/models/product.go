package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

type Product struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VendorID primitive.ObjectID `json:"vendorId" bson:"vendorId"`

	Name        string `json:"name" bson:"name" validate:"required"`
	Description string `json:"description" bson:"description"`

	Price float64 `json:"price" bson:"price" validate:"required,gt=0"`
	Stock int     `json:"stock" bson:"stock" validate:"gte=0"`

	Images []string      `json:"images" bson:"images"`
	Status ProductStatus `json:"status" bson:"status"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type UpdateProductInput struct {
	Name        string        `json:"name" bson:"name,omitempty"`
	Description string        `json:"description" bson:"description,omitempty"`
	Price       float64       `json:"price" bson:"price,omitempty"`
	Stock       *int          `json:"stock" bson:"stock,omitempty"`
	Images      []string      `json:"images" bson:"images,omitempty"`
	Status      ProductStatus `json:"status" bson:"status,omitempty"`
	UpdatedAt   time.Time     `json:"-" bson:"updatedAt"`
}
