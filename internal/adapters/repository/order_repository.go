package repository

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/developia-II/mercaplaza-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderRepository interface {
	PlaceOrder(ctx context.Context, userID primitive.ObjectID, input models.PlaceOrderInput, cart models.Cart) (models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	GetOrderById(ctx context.Context, orderID primitive.ObjectID) (models.Order, error)
	GetOrdersByVendorID(ctx context.Context, vendorID primitive.ObjectID) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus, trackingNumber string) error
	MarkPaid(ctx context.Context, orderID primitive.ObjectID) error
}

type MongoOrderRepository struct {
	DB *mongo.Database
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &MongoOrderRepository{DB: db}
}

// PlaceOrder converts the cart into an order, reserving stock atomically per
// product and rolling back reservations already made if any item fails.
func (r *MongoOrderRepository) PlaceOrder(ctx context.Context, userID primitive.ObjectID, input models.PlaceOrderInput, cart models.Cart) (models.Order, error) {
	if len(cart.Items) == 0 {
		return models.Order{}, fmt.Errorf("cart is empty")
	}

	productColl := r.DB.Collection("products")
	orderColl := r.DB.Collection("orders")
	cartColl := r.DB.Collection("carts")

	var orderItems []models.OrderItem
	var subtotal float64
	var reserved []struct {
		ID  primitive.ObjectID
		Qty int
	}

	rollback := func() {
		for _, p := range reserved {
			productColl.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$inc": bson.M{"stock": p.Qty}})
		}
	}

	for _, item := range cart.Items {
		var product models.Product
		if err := productColl.FindOne(ctx, bson.M{"_id": item.ProductID}).Decode(&product); err != nil {
			rollback()
			return models.Order{}, fmt.Errorf("product %s not found", item.Name)
		}

		// Stock check and decrement in one conditional update
		filter := bson.M{
			"_id":   item.ProductID,
			"stock": bson.M{"$gte": item.Quantity},
		}
		update := bson.M{
			"$inc": bson.M{"stock": -item.Quantity},
			"$set": bson.M{"updatedAt": time.Now()},
		}

		res, err := productColl.UpdateOne(ctx, filter, update)
		if err != nil {
			rollback()
			return models.Order{}, err
		}
		if res.ModifiedCount == 0 {
			rollback()
			return models.Order{}, fmt.Errorf("insufficient stock for %s", item.Name)
		}

		reserved = append(reserved, struct {
			ID  primitive.ObjectID
			Qty int
		}{item.ProductID, item.Quantity})

		itemSubtotal := product.Price * float64(item.Quantity)
		orderItems = append(orderItems, models.OrderItem{
			ProductID: item.ProductID,
			VendorID:  product.VendorID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  item.Quantity,
			Subtotal:  itemSubtotal,
		})
		subtotal += itemSubtotal
	}

	shippingFee := 25.0
	if subtotal > 500 {
		shippingFee = 0
	}
	tax := subtotal * 0.05
	total := subtotal + shippingFee + tax

	orderNumber := fmt.Sprintf("MP-%d%d", time.Now().Unix()%100000, rand.Intn(900)+100)
	order := models.Order{
		ID:              primitive.NewObjectID(),
		OrderNumber:     orderNumber,
		UserID:          userID,
		Items:           orderItems,
		Subtotal:        subtotal,
		ShippingFee:     shippingFee,
		Tax:             tax,
		Total:           total,
		Status:          models.StatusPending,
		PaymentStatus:   "pending",
		PaymentMethod:   input.PaymentMethod,
		ShippingAddress: input.ShippingAddress,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	if _, err := orderColl.InsertOne(ctx, order); err != nil {
		rollback()
		return models.Order{}, err
	}

	// Clearing the cart is best-effort; the order already exists
	_, _ = cartColl.UpdateOne(ctx, bson.M{"userId": userID},
		bson.M{"$set": bson.M{"items": []models.CartItem{}, "updatedAt": time.Now()}})

	return order, nil
}

func (r *MongoOrderRepository) GetOrdersByUserID(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	collection := r.DB.Collection("orders")
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *MongoOrderRepository) GetOrderById(ctx context.Context, orderID primitive.ObjectID) (models.Order, error) {
	collection := r.DB.Collection("orders")
	var order models.Order
	err := collection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	return order, err
}

func (r *MongoOrderRepository) GetOrdersByVendorID(ctx context.Context, vendorID primitive.ObjectID) ([]models.Order, error) {
	collection := r.DB.Collection("orders")
	// Orders where at least one item belongs to this vendor
	cursor, err := collection.Find(ctx, bson.M{"items.vendorId": vendorID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *MongoOrderRepository) UpdateOrderStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus, trackingNumber string) error {
	collection := r.DB.Collection("orders")

	updateData := bson.M{
		"status":    status,
		"updatedAt": time.Now(),
	}
	if trackingNumber != "" {
		updateData["trackingNumber"] = trackingNumber
	}

	_, err := collection.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": updateData})
	return err
}

func (r *MongoOrderRepository) MarkPaid(ctx context.Context, orderID primitive.ObjectID) error {
	collection := r.DB.Collection("orders")
	_, err := collection.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{
			"status":        models.StatusPaid,
			"paymentStatus": "paid",
			"updatedAt":     time.Now(),
		}})
	return err
}
