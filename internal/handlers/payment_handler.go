package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/developia-II/mercaplaza-backend/internal/adapters/repository"
	"github.com/developia-II/mercaplaza-backend/internal/models"
	"github.com/developia-II/mercaplaza-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type PaymentHandler struct {
	OrderRepo   repository.OrderRepository
	PaymentRepo repository.PaymentRepository
}

func NewPaymentHandler(db *mongo.Database) *PaymentHandler {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	return &PaymentHandler{
		OrderRepo:   repository.NewOrderRepository(db),
		PaymentRepo: repository.NewPaymentRepository(db),
	}
}

// CreatePaymentIntent opens a gateway payment for an order. The order total
// is split into one pending payment row per vendor so confirmed sales can be
// attributed per seller when payouts are computed.
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	var req struct {
		OrderID string `json:"orderId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request"))
		return
	}

	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid order ID"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	order, err := h.OrderRepo.GetOrderById(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Order not found"))
		return
	}

	for vendorID, subtotal := range order.VendorSubtotals() {
		_, err := h.PaymentRepo.Create(ctx, models.Payment{
			OrderID:  orderID,
			VendorID: vendorID,
			Amount:   subtotal,
			Currency: "cop",
			Method:   models.PaymentMethodGateway,
			Status:   models.PaymentPending,
			Provider: "stripe",
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to record payment"))
			return
		}
	}

	amount := int64(order.Total * 100)
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(string(stripe.CurrencyCOP)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"orderId": req.OrderID,
		},
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse(fmt.Sprintf("Stripe error: %v", err)))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment intent created", gin.H{
		"clientSecret": pi.ClientSecret,
	}))
}

// HandleWebhook processes asynchronous events from Stripe
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, utils.ErrorResponse("Error reading request body"))
		return
	}

	endpointSecret := strings.TrimSpace(os.Getenv("STRIPE_WEBHOOK_SECRET"))

	// Fallback check: if somehow secret is missing, try loading env again
	if endpointSecret == "" {
		_ = godotenv.Load()
		endpointSecret = strings.TrimSpace(os.Getenv("STRIPE_WEBHOOK_SECRET"))
	}

	signature := c.GetHeader("Stripe-Signature")

	event, err := webhook.ConstructEventWithOptions(payload, signature, endpointSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid signature"))
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Error parsing webhook JSON"))
			return
		}

		orderID, err := primitive.ObjectIDFromHex(pi.Metadata["orderId"])
		if err != nil {
			// Return 200 so Stripe doesn't retry invalid data
			c.JSON(http.StatusOK, gin.H{"success": true})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		// The confirmed payment rows are what the dispersion ledger reads
		if _, err := h.PaymentRepo.ConfirmByOrder(ctx, orderID, pi.ID, string(event.Data.Raw)); err != nil {
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to confirm payments"))
			return
		}
		if err := h.OrderRepo.MarkPaid(ctx, orderID); err != nil {
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to update order"))
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})

	default:
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
