package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/developia-II/mercaplaza-backend/internal/adapters/repository"
	"github.com/developia-II/mercaplaza-backend/internal/models"
	"github.com/developia-II/mercaplaza-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var productValidator = validator.New()

type ProductHandler struct {
	Repo repository.ProductRepository
}

func NewProductHandler(db *mongo.Database) *ProductHandler {
	return &ProductHandler{Repo: repository.NewProductRepository(db)}
}

func (h *ProductHandler) FetchProductsPublic(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{"status": models.ProductStatusActive}
	products, total, err := h.Repo.FetchProductsPublic(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch products"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Products fetched", gin.H{
		"products": products,
		"total":    total,
		"page":     page,
		"limit":    limit,
	}))
}

func (h *ProductHandler) GetProductById(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid product ID"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	product, err := h.Repo.GetProduct(ctx, bson.M{"_id": productID})
	if err != nil {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Product not found"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Product fetched", gin.H{"product": product}))
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	vendorID, ok := vendorIDFromContext(c)
	if !ok {
		return
	}

	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid json body"))
		return
	}
	if err := productValidator.Struct(product); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
		return
	}

	product.VendorID = vendorID

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	created, err := h.Repo.CreateProduct(ctx, product)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create product"))
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Product created", gin.H{"product": created}))
}

func (h *ProductHandler) GetVendorProducts(c *gin.Context) {
	vendorID, ok := vendorIDFromContext(c)
	if !ok {
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	products, total, err := h.Repo.GetVendorProducts(ctx, vendorID, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch products"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Products fetched", gin.H{
		"products": products,
		"total":    total,
	}))
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	vendorID, ok := vendorIDFromContext(c)
	if !ok {
		return
	}

	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid product ID"))
		return
	}

	var input models.UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid json body"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	matched, err := h.Repo.UpdateProduct(ctx, bson.M{"_id": productID, "vendorId": vendorID}, input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to update product"))
		return
	}
	if !matched {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Product not found"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Product updated", nil))
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	vendorID, ok := vendorIDFromContext(c)
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

	if err := h.Repo.DeleteProduct(ctx, productID, vendorID); err != nil {
		c.JSON(http.StatusNotFound, utils.ErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Product deleted", nil))
}

// vendorIDFromContext pulls the authenticated user's id out of the gin
// context set by the auth middleware. Writes the error response itself.
func vendorIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	userIdStr, exists := c.Get("userId")
	if !exists {
		c.JSON(http.StatusUnauthorized, utils.ErrorResponse("Not authenticated"))
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(userIdStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid user ID"))
		return primitive.NilObjectID, false
	}
	return id, true
}
