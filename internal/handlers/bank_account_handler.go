package handlers

import (
	"context"
	"errors"
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

type BankAccountHandler struct {
	Repo repository.BankAccountRepository
}

func NewBankAccountHandler(db *mongo.Database) *BankAccountHandler {
	return &BankAccountHandler{Repo: repository.NewBankAccountRepository(db)}
}

// CreateBankAccount registers a bank account for the authenticated seller.
// The first account a seller creates becomes active automatically.
func (h *BankAccountHandler) CreateBankAccount(c *gin.Context) {
	userID, ok := vendorIDFromContext(c)
	if !ok {
		return
	}

	var input models.CreateBankAccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid bank account data"))
		return
	}

	if input.AccountType != models.AccountTypeSavings && input.AccountType != models.AccountTypeChecking {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Account type must be savings or checking"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	existing, err := h.Repo.ListByUser(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch bank accounts"))
		return
	}

	active := len(existing) == 0
	if input.IsActive != nil {
		active = *input.IsActive || active
	}

	account := models.BankAccount{
		UserID:            userID,
		BankName:          input.BankName,
		AccountType:       input.AccountType,
		AccountNumber:     input.AccountNumber,
		HolderName:        input.HolderName,
		HolderDocument:    input.HolderDocument,
		DocumentType:      input.DocumentType,
		ProviderAccountID: input.ProviderAccountID,
		IsActive:          active,
	}

	created, err := h.Repo.Create(ctx, account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create bank account"))
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Bank account created", created))
}

func (h *BankAccountHandler) GetMyBankAccounts(c *gin.Context) {
	userID, ok := vendorIDFromContext(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	accounts, err := h.Repo.ListByUser(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch bank accounts"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Bank accounts fetched", accounts))
}

// SetActiveBankAccount makes the given account the seller's payout
// destination, deactivating any previously active one.
func (h *BankAccountHandler) SetActiveBankAccount(c *gin.Context) {
	userID, ok := vendorIDFromContext(c)
	if !ok {
		return
	}

	accountID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid account ID"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.Repo.SetActive(ctx, accountID, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Bank account not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to update bank account"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Bank account activated", nil))
}

func (h *BankAccountHandler) DeleteBankAccount(c *gin.Context) {
	userID, ok := vendorIDFromContext(c)
	if !ok {
		return
	}

	accountID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid account ID"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	account, err := h.Repo.GetByID(ctx, accountID)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Bank account not found"))
		return
	}
	if account.UserID != userID {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("You can only delete your own bank accounts"))
		return
	}

	if err := h.Repo.Delete(ctx, accountID); err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to delete bank account"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Bank account deleted", nil))
}

// ListBankAccounts lets admins browse registered accounts, optionally by user.
func (h *BankAccountHandler) ListBankAccounts(c *gin.Context) {
	filter := bson.M{}
	if userParam := c.Query("userId"); userParam != "" {
		userID, err := primitive.ObjectIDFromHex(userParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid user ID"))
			return
		}
		filter["userId"] = userID
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	accounts, err := h.Repo.List(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch bank accounts"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Bank accounts fetched", accounts))
}

// VerifyBankAccount marks an account as verified so it can receive payouts.
func (h *BankAccountHandler) VerifyBankAccount(c *gin.Context) {
	accountID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid account ID"))
		return
	}

	var req struct {
		Verified *bool `json:"verified" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.Repo.SetVerification(ctx, accountID, *req.Verified); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Bank account not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to update bank account"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Bank account verification updated", nil))
}
