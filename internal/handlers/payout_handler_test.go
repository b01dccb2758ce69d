package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/developia-II/mercaplaza-backend/internal/models"
	"github.com/developia-II/mercaplaza-backend/internal/services/payout"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubPayoutService struct {
	balance       models.VendorBalance
	balanceErr    error
	created       models.VendorPayout
	createErr     error
	executed      models.VendorPayout
	executeErr    error
	cancelErr     error
	listed        []models.VendorPayout
	lastFilter    models.PayoutFilter
	lastVendorID  primitive.ObjectID
	lastVendorIDs []primitive.ObjectID
}

func (s *stubPayoutService) GetOrCreateConfig(ctx context.Context) (models.DispersionConfig, error) {
	return models.DispersionConfig{ID: "dispersion-config", AdminCommissionPercent: 10}, nil
}

func (s *stubPayoutService) UpdateConfig(ctx context.Context, input models.UpdateDispersionConfigInput) (models.DispersionConfig, error) {
	config := models.DispersionConfig{ID: "dispersion-config", AdminCommissionPercent: 10}
	if input.AdminCommissionPercent != nil {
		config.AdminCommissionPercent = *input.AdminCommissionPercent
	}
	return config, nil
}

func (s *stubPayoutService) CalculateBalance(ctx context.Context, vendorID primitive.ObjectID) (models.VendorBalance, error) {
	s.lastVendorID = vendorID
	return s.balance, s.balanceErr
}

func (s *stubPayoutService) GetAllBalances(ctx context.Context) ([]models.VendorBalance, error) {
	return []models.VendorBalance{s.balance}, nil
}

func (s *stubPayoutService) CreatePayout(ctx context.Context, vendorID primitive.ObjectID) (models.VendorPayout, error) {
	s.lastVendorID = vendorID
	return s.created, s.createErr
}

func (s *stubPayoutService) CreateMultiplePayouts(ctx context.Context, vendorIDs []primitive.ObjectID) (models.BulkPayoutResult, error) {
	s.lastVendorIDs = vendorIDs
	return models.BulkPayoutResult{Total: len(vendorIDs)}, nil
}

func (s *stubPayoutService) ExecutePayoutTransfer(ctx context.Context, payoutID primitive.ObjectID) (models.VendorPayout, error) {
	return s.executed, s.executeErr
}

func (s *stubPayoutService) CancelPayout(ctx context.Context, payoutID primitive.ObjectID) (models.VendorPayout, error) {
	return models.VendorPayout{Status: models.PayoutCancelled}, s.cancelErr
}

func (s *stubPayoutService) ListPayouts(ctx context.Context, filter models.PayoutFilter) ([]models.VendorPayout, error) {
	s.lastFilter = filter
	return s.listed, nil
}

func (s *stubPayoutService) GetVendorPayouts(ctx context.Context, vendorID primitive.ObjectID) ([]models.VendorPayout, error) {
	s.lastVendorID = vendorID
	return s.listed, nil
}

func performRequest(t *testing.T, handler gin.HandlerFunc, method, path, body string, params ...gin.Param) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = params

	handler(c)
	return w
}

func TestPayoutStatusCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{payout.ErrVendorNotFound, http.StatusNotFound},
		{payout.ErrPayoutNotFound, http.StatusNotFound},
		{payout.ErrInvalidRole, http.StatusBadRequest},
		{payout.ErrBelowMinimum, http.StatusBadRequest},
		{payout.ErrNoBankAccount, http.StatusBadRequest},
		{payout.ErrUnverifiedAccount, http.StatusBadRequest},
		{payout.ErrInvalidState, http.StatusConflict},
		{payout.ErrTransferFailed, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, payoutStatusCode(tc.err), tc.err.Error())
	}
}

func TestPayoutStatusCodeUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("%w: available 10.00, minimum 50000.00", payout.ErrBelowMinimum)
	assert.Equal(t, http.StatusBadRequest, payoutStatusCode(wrapped))
}

func TestCreatePayoutHandler(t *testing.T) {
	vendorID := primitive.NewObjectID()
	stub := &stubPayoutService{
		created: models.VendorPayout{VendorID: vendorID, NetAmount: 90000, Status: models.PayoutPending},
	}
	h := NewPayoutHandler(stub, nil)

	w := performRequest(t, h.CreatePayout, http.MethodPost, "/api/v1/vendor-payouts",
		`{"vendorId":"`+vendorID.Hex()+`"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, vendorID, stub.lastVendorID)
	assert.Contains(t, w.Body.String(), "90000")
}

func TestCreatePayoutHandlerRejectsBadID(t *testing.T) {
	h := NewPayoutHandler(&stubPayoutService{}, nil)

	w := performRequest(t, h.CreatePayout, http.MethodPost, "/api/v1/vendor-payouts",
		`{"vendorId":"not-an-id"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePayoutHandlerMapsServiceError(t *testing.T) {
	stub := &stubPayoutService{
		createErr: fmt.Errorf("%w: vendor x", payout.ErrNoBankAccount),
	}
	h := NewPayoutHandler(stub, nil)

	w := performRequest(t, h.CreatePayout, http.MethodPost, "/api/v1/vendor-payouts",
		`{"vendorId":"`+primitive.NewObjectID().Hex()+`"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecutePayoutHandlerConflictOnReplay(t *testing.T) {
	stub := &stubPayoutService{
		executeErr: fmt.Errorf("%w: payout x is completed", payout.ErrInvalidState),
	}
	h := NewPayoutHandler(stub, nil)

	w := performRequest(t, h.ExecutePayout, http.MethodPost, "/api/v1/vendor-payouts/execute",
		"", gin.Param{Key: "id", Value: primitive.NewObjectID().Hex()})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListPayoutsHandlerParsesFilter(t *testing.T) {
	vendorID := primitive.NewObjectID()
	stub := &stubPayoutService{}
	h := NewPayoutHandler(stub, nil)

	w := performRequest(t, h.ListPayouts, http.MethodGet,
		"/api/v1/vendor-payouts?status=completed&vendorId="+vendorID.Hex(), "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.PayoutCompleted, stub.lastFilter.Status)
	assert.Equal(t, vendorID, stub.lastFilter.VendorID)
}

func TestCreateMultiplePayoutsHandlerEmptyBodyMeansAll(t *testing.T) {
	stub := &stubPayoutService{}
	h := NewPayoutHandler(stub, nil)

	w := performRequest(t, h.CreateMultiplePayouts, http.MethodPost, "/api/v1/vendor-payouts/bulk", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, stub.lastVendorIDs)
}

func TestUpdateDispersionConfigRejectsOutOfRange(t *testing.T) {
	h := NewPayoutHandler(&stubPayoutService{}, nil)

	w := performRequest(t, h.UpdateDispersionConfig, http.MethodPatch,
		"/api/v1/vendor-payouts/config", `{"adminCommissionPercent":150}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(t, h.UpdateDispersionConfig, http.MethodPatch,
		"/api/v1/vendor-payouts/config", `{"adminCommissionPercent":15,"dispersalFrequencyDays":14}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetMyBalanceHandlerRequiresAuthContext(t *testing.T) {
	h := NewPayoutHandler(&stubPayoutService{}, nil)

	// No userId in the gin context: the auth middleware never ran.
	w := performRequest(t, h.GetMyBalance, http.MethodGet, "/api/v1/vendor-payouts/my-balance", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
