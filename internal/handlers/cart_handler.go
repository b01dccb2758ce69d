package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/developia-II/mercaplaza-backend/internal/adapters/repository"
	"github.com/developia-II/mercaplaza-backend/internal/models"
	"github.com/developia-II/mercaplaza-backend/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type CartHandler struct {
	Repo        repository.CartRepository
	ProductRepo repository.ProductRepository
}

func NewCartHandler(db *mongo.Database) *CartHandler {
	return &CartHandler{
		Repo:        repository.NewCartRepository(db),
		ProductRepo: repository.NewProductRepository(db),
	}
}

func (h *CartHandler) AddToCart(c *gin.Context) {
	userID, ok := vendorIDFromContext(c)
	if !ok {
		return
	}

	var input models.AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	productID, err := primitive.ObjectIDFromHex(input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid product ID"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	// Snapshot name/price/vendor from the live product
	product, err := h.ProductRepo.GetProduct(ctx, bson.M{"_id": productID, "status": models.ProductStatusActive})
	if err != nil {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Product not available"))
		return
	}

	item := models.CartItem{
		ProductID: product.ID,
		VendorID:  product.VendorID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  input.Quantity,
	}

	if err := h.Repo.AddToCart(ctx, userID, item); err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to add to cart"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Item added to cart", nil))
}

func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := vendorIDFromContext(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	cart, err := h.Repo.GetCart(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch cart"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Cart fetched", gin.H{"cart": cart}))
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	userID, ok := vendorIDFromContext(c)
	if !ok {
		return
	}

	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid product ID"))
		return
	}

	var input struct {
		Quantity int `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Quantity must be positive"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.Repo.UpdateQuantity(ctx, userID, productID, input.Quantity); err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to update quantity"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Quantity updated", nil))
}

func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	userID, ok := vendorIDFromContext(c)
	if !ok {
		return
	}

	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid product ID"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.Repo.RemoveFromCart(ctx, userID, productID); err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to remove item"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Item removed", nil))
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, ok := vendorIDFromContext(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.Repo.ClearCart(ctx, userID); err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to clear cart"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Cart cleared", nil))
}
