package payout

import (
	"context"
	"sync"
	"testing"

	"github.com/developia-II/mercaplaza-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testEnv struct {
	users    *fakeUserRepo
	payments *fakePaymentRepo
	accounts *fakeBankAccountRepo
	payouts  *fakePayoutRepo
	config   *fakeConfigRepo
	provider *fakeTransferProvider
	svc      Service
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:    newFakeUserRepo(),
		payments: newFakePaymentRepo(),
		accounts: newFakeBankAccountRepo(),
		payouts:  newFakePayoutRepo(),
		config:   newFakeConfigRepo(),
		provider: &fakeTransferProvider{},
	}
	env.svc = NewService(env.users, env.payments, env.accounts, env.payouts, env.config, env.provider)
	return env
}

// addSeller seeds a seller with confirmed sales and an active verified account.
func (env *testEnv) addSeller(t *testing.T, name string, sales ...float64) primitive.ObjectID {
	t.Helper()
	ctx := context.Background()

	user, err := env.users.Create(ctx, models.User{
		Username: name,
		Email:    name + "@example.com",
		Role:     models.RoleSeller,
	})
	require.NoError(t, err)

	for _, amount := range sales {
		_, err := env.payments.Create(ctx, models.Payment{
			OrderID:  primitive.NewObjectID(),
			VendorID: user.ID,
			Amount:   amount,
			Currency: "cop",
			Method:   models.PaymentMethodGateway,
			Status:   models.PaymentConfirmed,
		})
		require.NoError(t, err)
	}

	_, err = env.accounts.Create(ctx, models.BankAccount{
		UserID:            user.ID,
		BankName:          "Bancolombia",
		AccountType:       models.AccountTypeSavings,
		AccountNumber:     "12345678",
		HolderName:        name,
		ProviderAccountID: "acct_" + name,
		IsVerified:        true,
		IsActive:          true,
	})
	require.NoError(t, err)

	return user.ID
}

func TestCalculateBalanceFirstDispersion(t *testing.T) {
	env := newTestEnv()
	vendorID := env.addSeller(t, "mariana", 60000, 40000)

	balance, err := env.svc.CalculateBalance(context.Background(), vendorID)
	require.NoError(t, err)

	assert.Equal(t, 100000.0, balance.TotalSales)
	assert.Equal(t, 10000.0, balance.AdminCommission)
	assert.Equal(t, 90000.0, balance.AvailableBalance)
	assert.Equal(t, 0.0, balance.TotalDispersed)
	assert.True(t, balance.HasVerifiedBank)
}

func TestCalculateBalanceVendorNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.CalculateBalance(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrVendorNotFound)
}

func TestCalculateBalanceRejectsAdmin(t *testing.T) {
	env := newTestEnv()
	admin, err := env.users.Create(context.Background(), models.User{
		Username: "root", Email: "root@example.com", Role: models.RoleAdmin,
	})
	require.NoError(t, err)

	_, err = env.svc.CalculateBalance(context.Background(), admin.ID)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestCalculateBalanceBuyerIsZero(t *testing.T) {
	env := newTestEnv()
	buyer, err := env.users.Create(context.Background(), models.User{
		Username: "carlos", Email: "carlos@example.com", Role: models.RoleBuyer,
	})
	require.NoError(t, err)

	balance, err := env.svc.CalculateBalance(context.Background(), buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance.AvailableBalance)
}

func TestBalanceNettingAgainstDispersedPayouts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	vendorID := env.addSeller(t, "mariana", 100000)

	payout, err := env.svc.CreatePayout(ctx, vendorID)
	require.NoError(t, err)
	assert.Equal(t, 90000.0, payout.NetAmount)

	// Pending payouts do not net: the funds have not left yet.
	balance, err := env.svc.CalculateBalance(ctx, vendorID)
	require.NoError(t, err)
	assert.Equal(t, 90000.0, balance.AvailableBalance)

	_, err = env.svc.ExecutePayoutTransfer(ctx, payout.ID)
	require.NoError(t, err)

	balance, err = env.svc.CalculateBalance(ctx, vendorID)
	require.NoError(t, err)
	assert.Equal(t, 90000.0, balance.TotalDispersed)
	assert.Equal(t, 0.0, balance.AvailableBalance)
}

func TestBalanceExcludesFailedPayouts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	vendorID := env.addSeller(t, "mariana", 100000)

	payout, err := env.svc.CreatePayout(ctx, vendorID)
	require.NoError(t, err)

	env.provider.rejectAll = true
	_, err = env.svc.ExecutePayoutTransfer(ctx, payout.ID)
	assert.ErrorIs(t, err, ErrTransferFailed)

	// The failed payout never moved money, so the balance is restored.
	balance, err := env.svc.CalculateBalance(ctx, vendorID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance.TotalDispersed)
	assert.Equal(t, 90000.0, balance.AvailableBalance)
}

func TestBalanceNeverNegative(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	vendorID := env.addSeller(t, "mariana", 100000)

	payout, err := env.svc.CreatePayout(ctx, vendorID)
	require.NoError(t, err)
	_, err = env.svc.ExecutePayoutTransfer(ctx, payout.ID)
	require.NoError(t, err)

	// Raising the commission after the payout shrinks what the ledger says
	// the vendor earned below what was already dispersed.
	pct := 50.0
	_, err = env.svc.UpdateConfig(ctx, models.UpdateDispersionConfigInput{AdminCommissionPercent: &pct})
	require.NoError(t, err)

	balance, err := env.svc.CalculateBalance(ctx, vendorID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance.AvailableBalance)
}

func TestCreatePayoutAmountsAndSnapshot(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	vendorID := env.addSeller(t, "mariana", 100000)

	payout, err := env.svc.CreatePayout(ctx, vendorID)
	require.NoError(t, err)

	assert.Equal(t, models.PayoutPending, payout.Status)
	assert.InDelta(t, 100000.0, payout.GrossAmount, 1e-6)
	assert.InDelta(t, 10000.0, payout.AdminCommissionAmount, 1e-6)
	assert.Equal(t, 90000.0, payout.NetAmount)
	assert.Len(t, payout.SettledPaymentIDs, 1)
	assert.Contains(t, payout.Reference, "PO-")
	assert.Equal(t, "Bancolombia", payout.BankAccount.BankName)
	assert.Equal(t, "acct_mariana", payout.BankAccount.ProviderAccountID)
}

func TestCreatePayoutBelowMinimum(t *testing.T) {
	env := newTestEnv()
	vendorID := env.addSeller(t, "mariana", 30000) // nets 27000, minimum 50000

	_, err := env.svc.CreatePayout(context.Background(), vendorID)
	assert.ErrorIs(t, err, ErrBelowMinimum)
}

func TestCreatePayoutRequiresBankAccount(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.users.Create(ctx, models.User{
		Username: "mariana", Email: "mariana@example.com", Role: models.RoleSeller,
	})
	require.NoError(t, err)
	_, err = env.payments.Create(ctx, models.Payment{
		VendorID: user.ID, Amount: 100000, Status: models.PaymentConfirmed,
	})
	require.NoError(t, err)

	_, err = env.svc.CreatePayout(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNoBankAccount)

	account, err := env.accounts.Create(ctx, models.BankAccount{
		UserID: user.ID, BankName: "Davivienda", IsActive: true, IsVerified: false,
	})
	require.NoError(t, err)

	_, err = env.svc.CreatePayout(ctx, user.ID)
	assert.ErrorIs(t, err, ErrUnverifiedAccount)

	require.NoError(t, env.accounts.SetVerification(ctx, account.ID, true))
	_, err = env.svc.CreatePayout(ctx, user.ID)
	assert.NoError(t, err)
}

func TestCreatePayoutFreezesCommissionRate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	vendorID := env.addSeller(t, "mariana", 100000)

	payout, err := env.svc.CreatePayout(ctx, vendorID)
	require.NoError(t, err)

	// A later config change must not alter amounts already frozen.
	pct := 25.0
	_, err = env.svc.UpdateConfig(ctx, models.UpdateDispersionConfigInput{AdminCommissionPercent: &pct})
	require.NoError(t, err)

	stored, err := env.payouts.GetByID(ctx, payout.ID)
	require.NoError(t, err)
	assert.Equal(t, 90000.0, stored.NetAmount)
	assert.InDelta(t, 10000.0, stored.AdminCommissionAmount, 1e-6)
}

func TestCreatePayoutCountsPendingAsReserved(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	vendorID := env.addSeller(t, "mariana", 100000)

	_, err := env.svc.CreatePayout(ctx, vendorID)
	require.NoError(t, err)

	// The full balance is reserved by the pending payout even though the
	// displayed balance has not moved yet.
	_, err = env.svc.CreatePayout(ctx, vendorID)
	assert.ErrorIs(t, err, ErrBelowMinimum)

	// New confirmed sales above the reservation free up a second payout.
	_, err = env.payments.Create(ctx, models.Payment{
		VendorID: vendorID, Amount: 80000, Status: models.PaymentConfirmed,
	})
	require.NoError(t, err)

	second, err := env.svc.CreatePayout(ctx, vendorID)
	require.NoError(t, err)
	assert.Equal(t, 72000.0, second.NetAmount)
}

func TestConcurrentCreatePayoutSingleWinner(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	vendorID := env.addSeller(t, "mariana", 100000)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.CreatePayout(ctx, vendorID)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrBelowMinimum)
		}
	}
	assert.Equal(t, 1, succeeded)

	created, err := env.payouts.ListByVendor(ctx, vendorID)
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestExecutePayoutTransferIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	vendorID := env.addSeller(t, "mariana", 100000)

	payout, err := env.svc.CreatePayout(ctx, vendorID)
	require.NoError(t, err)

	executed, err := env.svc.ExecutePayoutTransfer(ctx, payout.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutCompleted, executed.Status)
	assert.Equal(t, "tr_"+payout.Reference, executed.ProviderReference)
	require.NotNil(t, executed.ProcessedAt)

	// A second execution must not reach the provider again.
	_, err = env.svc.ExecutePayoutTransfer(ctx, payout.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, env.provider.callCount())
}

func TestExecutePayoutTransferNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.ExecutePayoutTransfer(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrPayoutNotFound)
}

func TestExecutePayoutTransferProviderError(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	vendorID := env.addSeller(t, "mariana", 100000)

	payout, err := env.svc.CreatePayout(ctx, vendorID)
	require.NoError(t, err)

	env.provider.err = errMockRepo
	_, err = env.svc.ExecutePayoutTransfer(ctx, payout.ID)
	assert.ErrorIs(t, err, ErrTransferFailed)

	stored, err := env.payouts.GetByID(ctx, payout.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutFailed, stored.Status)
	assert.Equal(t, errMockRepo.Error(), stored.ErrorMessage)
}

func TestCancelPayout(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	vendorID := env.addSeller(t, "mariana", 100000)

	payout, err := env.svc.CreatePayout(ctx, vendorID)
	require.NoError(t, err)

	cancelled, err := env.svc.CancelPayout(ctx, payout.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutCancelled, cancelled.Status)

	// Cancellation releases the funds for a new payout.
	balance, err := env.svc.CalculateBalance(ctx, vendorID)
	require.NoError(t, err)
	assert.Equal(t, 90000.0, balance.AvailableBalance)
}

func TestCancelPayoutOnlyWhilePending(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	vendorID := env.addSeller(t, "mariana", 100000)

	payout, err := env.svc.CreatePayout(ctx, vendorID)
	require.NoError(t, err)
	_, err = env.svc.ExecutePayoutTransfer(ctx, payout.ID)
	require.NoError(t, err)

	_, err = env.svc.CancelPayout(ctx, payout.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = env.svc.CancelPayout(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrPayoutNotFound)
}

func TestGetAllBalancesSkipsBrokenVendor(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	goodID := env.addSeller(t, "mariana", 100000)
	brokenID := env.addSeller(t, "zoe", 50000)

	env.payments.listErr[brokenID] = errMockRepo

	balances, err := env.svc.GetAllBalances(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, goodID, balances[0].VendorID)
}

func TestCreateMultiplePayoutsEligibilityFilter(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	eligible := env.addSeller(t, "mariana", 100000)
	env.addSeller(t, "nico", 30000)

	// Seller with sales but an unverified account.
	unverified, err := env.users.Create(ctx, models.User{
		Username: "olga", Email: "olga@example.com", Role: models.RoleSeller,
	})
	require.NoError(t, err)
	_, err = env.payments.Create(ctx, models.Payment{
		VendorID: unverified.ID, Amount: 200000, Status: models.PaymentConfirmed,
	})
	require.NoError(t, err)
	_, err = env.accounts.Create(ctx, models.BankAccount{
		UserID: unverified.ID, BankName: "Davivienda", IsActive: true, IsVerified: false,
	})
	require.NoError(t, err)

	result, err := env.svc.CreateMultiplePayouts(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, eligible, result.Outcomes[0].VendorID)
	require.NotNil(t, result.Outcomes[0].Payout)
	assert.Equal(t, 90000.0, result.Outcomes[0].Payout.NetAmount)
}

func TestCreateMultiplePayoutsHonorsRequestedVendors(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first := env.addSeller(t, "mariana", 100000)
	second := env.addSeller(t, "nico", 200000)

	result, err := env.svc.CreateMultiplePayouts(ctx, []primitive.ObjectID{second})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, second, result.Outcomes[0].VendorID)

	payouts, err := env.payouts.ListByVendor(ctx, first)
	require.NoError(t, err)
	assert.Empty(t, payouts)
}

func TestCommissionRateClamped(t *testing.T) {
	cases := []struct {
		name    string
		percent float64
		want    float64
	}{
		{"negative", -5, 0},
		{"zero", 0, 0},
		{"normal", 10, 0.1},
		{"full", 100, 1},
		{"above full", 150, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := models.DispersionConfig{AdminCommissionPercent: tc.percent}
			assert.Equal(t, tc.want, config.CommissionRate())
		})
	}
}

func TestPayoutStatusTerminal(t *testing.T) {
	assert.False(t, models.PayoutPending.Terminal())
	assert.False(t, models.PayoutProcessing.Terminal())
	assert.True(t, models.PayoutCompleted.Terminal())
	assert.True(t, models.PayoutFailed.Terminal())
	assert.True(t, models.PayoutCancelled.Terminal())
}
