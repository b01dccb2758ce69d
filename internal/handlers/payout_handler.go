package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/developia-II/mercaplaza-backend/internal/models"
	"github.com/developia-II/mercaplaza-backend/internal/services/payout"
	"github.com/developia-II/mercaplaza-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var configValidator = validator.New()

type PayoutHandler struct {
	Service   payout.Service
	Scheduler *payout.Scheduler
}

func NewPayoutHandler(svc payout.Service, scheduler *payout.Scheduler) *PayoutHandler {
	return &PayoutHandler{Service: svc, Scheduler: scheduler}
}

// payoutStatusCode maps service errors onto HTTP status codes.
func payoutStatusCode(err error) int {
	switch {
	case errors.Is(err, payout.ErrVendorNotFound), errors.Is(err, payout.ErrPayoutNotFound):
		return http.StatusNotFound
	case errors.Is(err, payout.ErrInvalidRole),
		errors.Is(err, payout.ErrBelowMinimum),
		errors.Is(err, payout.ErrNoBankAccount),
		errors.Is(err, payout.ErrUnverifiedAccount):
		return http.StatusBadRequest
	case errors.Is(err, payout.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, payout.ErrTransferFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *PayoutHandler) GetDispersionConfig(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	config, err := h.Service.GetOrCreateConfig(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch dispersion config"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Dispersion config fetched", config))
}

func (h *PayoutHandler) UpdateDispersionConfig(c *gin.Context) {
	var input models.UpdateDispersionConfigInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid config data"))
		return
	}
	if err := configValidator.Struct(input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid config data: "+err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	config, err := h.Service.UpdateConfig(ctx, input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to update dispersion config"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Dispersion config updated", config))
}

// GetMyBalance returns the authenticated seller's available balance.
func (h *PayoutHandler) GetMyBalance(c *gin.Context) {
	vendorID, ok := vendorIDFromContext(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	balance, err := h.Service.CalculateBalance(ctx, vendorID)
	if err != nil {
		c.JSON(payoutStatusCode(err), utils.ErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Balance fetched", balance))
}

func (h *PayoutHandler) GetVendorBalance(c *gin.Context) {
	vendorID, err := primitive.ObjectIDFromHex(c.Param("vendorId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid vendor ID"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	balance, err := h.Service.CalculateBalance(ctx, vendorID)
	if err != nil {
		c.JSON(payoutStatusCode(err), utils.ErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Balance fetched", balance))
}

func (h *PayoutHandler) GetAllBalances(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	balances, err := h.Service.GetAllBalances(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to calculate balances"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Balances fetched", balances))
}

// CreatePayout creates a pending payout for one vendor's full available balance.
func (h *PayoutHandler) CreatePayout(c *gin.Context) {
	var req struct {
		VendorID string `json:"vendorId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request"))
		return
	}

	vendorID, err := primitive.ObjectIDFromHex(req.VendorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid vendor ID"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	created, err := h.Service.CreatePayout(ctx, vendorID)
	if err != nil {
		c.JSON(payoutStatusCode(err), utils.ErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Payout created", created))
}

// CreateMultiplePayouts creates payouts for the given vendors, or for every
// eligible vendor when no IDs are supplied.
func (h *PayoutHandler) CreateMultiplePayouts(c *gin.Context) {
	var req struct {
		VendorIDs []string `json:"vendorIds"`
	}
	// An empty body is allowed: it means "all eligible vendors".
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request"))
			return
		}
	}

	var vendorIDs []primitive.ObjectID
	for _, raw := range req.VendorIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid vendor ID: "+raw))
			return
		}
		vendorIDs = append(vendorIDs, id)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	result, err := h.Service.CreateMultiplePayouts(ctx, vendorIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create payouts"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Bulk payout finished", result))
}

// ExecutePayout sends a pending payout to the transfer provider.
func (h *PayoutHandler) ExecutePayout(c *gin.Context) {
	payoutID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid payout ID"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	executed, err := h.Service.ExecutePayoutTransfer(ctx, payoutID)
	if err != nil {
		c.JSON(payoutStatusCode(err), utils.ErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payout executed", executed))
}

// CancelPayout cancels a payout that has not started processing.
func (h *PayoutHandler) CancelPayout(c *gin.Context) {
	payoutID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid payout ID"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	cancelled, err := h.Service.CancelPayout(ctx, payoutID)
	if err != nil {
		c.JSON(payoutStatusCode(err), utils.ErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payout cancelled", cancelled))
}

func (h *PayoutHandler) ListPayouts(c *gin.Context) {
	var filter models.PayoutFilter

	if status := c.Query("status"); status != "" {
		filter.Status = models.PayoutStatus(status)
	}
	if vendorParam := c.Query("vendorId"); vendorParam != "" {
		vendorID, err := primitive.ObjectIDFromHex(vendorParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid vendor ID"))
			return
		}
		filter.VendorID = vendorID
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	payouts, err := h.Service.ListPayouts(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch payouts"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payouts fetched", payouts))
}

// GetMyPayouts returns the authenticated seller's payout history.
func (h *PayoutHandler) GetMyPayouts(c *gin.Context) {
	vendorID, ok := vendorIDFromContext(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	payouts, err := h.Service.GetVendorPayouts(ctx, vendorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch payouts"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payouts fetched", payouts))
}

// RunDispersalCycle triggers the scheduled dispersion check immediately.
func (h *PayoutHandler) RunDispersalCycle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	if err := h.Scheduler.RunDispersalCycle(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Dispersal cycle failed"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Dispersal cycle triggered", nil))
}
