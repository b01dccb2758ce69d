// Package payout implements the marketplace fund-dispersion core: vendor
// balance calculation, payout creation and execution, and the dispersion
// scheduler that drives both on a timer.
package payout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/developia-II/mercaplaza-backend/internal/adapters/repository"
	"github.com/developia-II/mercaplaza-backend/internal/adapters/transfer"
	"github.com/developia-II/mercaplaza-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Service interface {
	GetOrCreateConfig(ctx context.Context) (models.DispersionConfig, error)
	UpdateConfig(ctx context.Context, input models.UpdateDispersionConfigInput) (models.DispersionConfig, error)

	CalculateBalance(ctx context.Context, vendorID primitive.ObjectID) (models.VendorBalance, error)
	GetAllBalances(ctx context.Context) ([]models.VendorBalance, error)

	CreatePayout(ctx context.Context, vendorID primitive.ObjectID) (models.VendorPayout, error)
	CreateMultiplePayouts(ctx context.Context, vendorIDs []primitive.ObjectID) (models.BulkPayoutResult, error)
	ExecutePayoutTransfer(ctx context.Context, payoutID primitive.ObjectID) (models.VendorPayout, error)
	CancelPayout(ctx context.Context, payoutID primitive.ObjectID) (models.VendorPayout, error)

	ListPayouts(ctx context.Context, filter models.PayoutFilter) ([]models.VendorPayout, error)
	GetVendorPayouts(ctx context.Context, vendorID primitive.ObjectID) ([]models.VendorPayout, error)
}

type service struct {
	users    repository.UserRepository
	payments repository.PaymentRepository
	accounts repository.BankAccountRepository
	payouts  repository.PayoutRepository
	config   repository.DispersionConfigRepository
	provider transfer.Provider

	// Payout creation is serialized per vendor: the balance read and the
	// payout insert are not one atomic operation, so two concurrent creates
	// for the same vendor could otherwise both see the same balance and
	// over-commit funds.
	mu          sync.Mutex
	vendorLocks map[primitive.ObjectID]*sync.Mutex
}

func NewService(
	users repository.UserRepository,
	payments repository.PaymentRepository,
	accounts repository.BankAccountRepository,
	payouts repository.PayoutRepository,
	config repository.DispersionConfigRepository,
	provider transfer.Provider,
) Service {
	return &service{
		users:       users,
		payments:    payments,
		accounts:    accounts,
		payouts:     payouts,
		config:      config,
		provider:    provider,
		vendorLocks: make(map[primitive.ObjectID]*sync.Mutex),
	}
}

func (s *service) vendorLock(vendorID primitive.ObjectID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.vendorLocks[vendorID]
	if !ok {
		lock = &sync.Mutex{}
		s.vendorLocks[vendorID] = lock
	}
	return lock
}

func (s *service) GetOrCreateConfig(ctx context.Context) (models.DispersionConfig, error) {
	return s.config.GetOrCreate(ctx)
}

func (s *service) UpdateConfig(ctx context.Context, input models.UpdateDispersionConfigInput) (models.DispersionConfig, error) {
	return s.config.Update(ctx, input)
}

func (s *service) CalculateBalance(ctx context.Context, vendorID primitive.ObjectID) (models.VendorBalance, error) {
	balance, _, _, err := s.computeBalance(ctx, vendorID)
	return balance, err
}

// computeBalance derives the vendor's balance from the payment ledger and the
// payout history. Read-only; also returns the confirmed payment ids and the
// config so CreatePayout can snapshot both without re-reading.
func (s *service) computeBalance(ctx context.Context, vendorID primitive.ObjectID) (models.VendorBalance, []primitive.ObjectID, models.DispersionConfig, error) {
	var zero models.VendorBalance

	vendor, err := s.users.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, nil, models.DispersionConfig{}, fmt.Errorf("%w: %s", ErrVendorNotFound, vendorID.Hex())
		}
		return zero, nil, models.DispersionConfig{}, err
	}

	// Buyers may look at their (zero) balance; only sellers accrue sales.
	if vendor.Role != models.RoleSeller && vendor.Role != models.RoleBuyer {
		return zero, nil, models.DispersionConfig{}, fmt.Errorf("%w: role %q", ErrInvalidRole, vendor.Role)
	}

	config, err := s.config.GetOrCreate(ctx)
	if err != nil {
		return zero, nil, models.DispersionConfig{}, err
	}

	payments, err := s.payments.ListConfirmedByVendor(ctx, vendorID)
	if err != nil {
		return zero, nil, models.DispersionConfig{}, err
	}

	var totalSales float64
	paymentIDs := make([]primitive.ObjectID, 0, len(payments))
	for _, p := range payments {
		totalSales += p.Amount
		paymentIDs = append(paymentIDs, p.ID)
	}

	// Failed payouts do not count as dispersed; the funds never left.
	dispersed, err := s.payouts.ListByVendorInStatuses(ctx, vendorID,
		[]models.PayoutStatus{models.PayoutProcessing, models.PayoutCompleted})
	if err != nil {
		return zero, nil, models.DispersionConfig{}, err
	}

	var totalDispersed float64
	for _, p := range dispersed {
		totalDispersed += p.NetAmount
	}

	adminCommission := totalSales * config.CommissionRate()
	available := totalSales - adminCommission - totalDispersed
	if available < 0 {
		available = 0
	}

	account, err := s.accounts.GetActive(ctx, vendorID)
	if err != nil {
		return zero, nil, models.DispersionConfig{}, err
	}

	balance := models.VendorBalance{
		VendorID:          vendorID,
		VendorName:        vendor.Username,
		VendorEmail:       vendor.Email,
		TotalSales:        totalSales,
		AdminCommission:   adminCommission,
		AvailableBalance:  available,
		TotalDispersed:    totalDispersed,
		ActiveBankAccount: account,
		HasVerifiedBank:   account != nil && account.IsVerified,
	}
	return balance, paymentIDs, config, nil
}

func (s *service) GetAllBalances(ctx context.Context) ([]models.VendorBalance, error) {
	sellers, err := s.users.ListByRole(ctx, models.RoleSeller)
	if err != nil {
		return nil, err
	}

	balances := make([]models.VendorBalance, 0, len(sellers))
	for _, seller := range sellers {
		balance, err := s.CalculateBalance(ctx, seller.ID)
		if err != nil {
			// One broken vendor must not hide everyone else's balance
			logrus.WithFields(logrus.Fields{
				"vendorId": seller.ID.Hex(),
				"error":    err.Error(),
			}).Warn("Skipping vendor balance")
			continue
		}
		balances = append(balances, balance)
	}
	return balances, nil
}

func (s *service) CreatePayout(ctx context.Context, vendorID primitive.ObjectID) (models.VendorPayout, error) {
	lock := s.vendorLock(vendorID)
	lock.Lock()
	defer lock.Unlock()

	balance, paymentIDs, config, err := s.computeBalance(ctx, vendorID)
	if err != nil {
		return models.VendorPayout{}, err
	}

	// Pending payouts are not dispersed yet, so they do not appear in
	// TotalDispersed. They are still reservations against the same funds:
	// creation subtracts them so repeated creates cannot over-commit the
	// balance before execution catches up.
	pending, err := s.payouts.ListByVendorInStatuses(ctx, vendorID,
		[]models.PayoutStatus{models.PayoutPending})
	if err != nil {
		return models.VendorPayout{}, err
	}
	available := balance.AvailableBalance
	for _, p := range pending {
		available -= p.NetAmount
	}
	if available < 0 {
		available = 0
	}

	if available < config.MinimumPayout {
		return models.VendorPayout{}, fmt.Errorf("%w: available %.2f, minimum %.2f",
			ErrBelowMinimum, available, config.MinimumPayout)
	}
	if balance.ActiveBankAccount == nil {
		return models.VendorPayout{}, fmt.Errorf("%w: vendor %s", ErrNoBankAccount, vendorID.Hex())
	}
	if !balance.HasVerifiedBank {
		return models.VendorPayout{}, fmt.Errorf("%w: account %s", ErrUnverifiedAccount, balance.ActiveBankAccount.ID.Hex())
	}

	// The commission rate is frozen here: the net equals the available
	// balance exactly, and the gross is reconstructed from it.
	rate := config.CommissionRate()
	netAmount := available
	grossAmount := netAmount
	if rate < 1 {
		grossAmount = netAmount / (1 - rate)
	}
	commissionAmount := grossAmount * rate

	account := balance.ActiveBankAccount
	payout := models.VendorPayout{
		VendorID:              vendorID,
		Reference:             "PO-" + uuid.NewString(),
		GrossAmount:           grossAmount,
		AdminCommissionAmount: commissionAmount,
		NetAmount:             netAmount,
		Status:                models.PayoutPending,
		SettledPaymentIDs:     paymentIDs,
		BankAccount: models.BankAccountSnapshot{
			AccountID:         account.ID,
			BankName:          account.BankName,
			AccountType:       account.AccountType,
			AccountNumber:     account.AccountNumber,
			HolderName:        account.HolderName,
			HolderDocument:    account.HolderDocument,
			ProviderAccountID: account.ProviderAccountID,
			IsVerified:        account.IsVerified,
		},
	}

	created, err := s.payouts.Create(ctx, payout)
	if err != nil {
		return models.VendorPayout{}, err
	}

	logrus.WithFields(logrus.Fields{
		"payoutId":  created.ID.Hex(),
		"vendorId":  vendorID.Hex(),
		"netAmount": created.NetAmount,
	}).Info("Payout created")
	return created, nil
}

func (s *service) CreateMultiplePayouts(ctx context.Context, vendorIDs []primitive.ObjectID) (models.BulkPayoutResult, error) {
	config, err := s.config.GetOrCreate(ctx)
	if err != nil {
		return models.BulkPayoutResult{}, err
	}

	balances, err := s.GetAllBalances(ctx)
	if err != nil {
		return models.BulkPayoutResult{}, err
	}

	requested := make(map[primitive.ObjectID]bool, len(vendorIDs))
	for _, id := range vendorIDs {
		requested[id] = true
	}

	var eligible []models.VendorBalance
	for _, balance := range balances {
		if len(vendorIDs) > 0 && !requested[balance.VendorID] {
			continue
		}
		if balance.AvailableBalance < config.MinimumPayout {
			continue
		}
		if balance.ActiveBankAccount == nil || !balance.HasVerifiedBank {
			continue
		}
		eligible = append(eligible, balance)
	}

	result := models.BulkPayoutResult{Total: len(eligible)}
	for _, balance := range eligible {
		outcome := models.PayoutOutcome{VendorID: balance.VendorID}

		payout, err := s.CreatePayout(ctx, balance.VendorID)
		if err != nil {
			// Capture and move on; one vendor's failure must not block the rest
			outcome.Error = err.Error()
			result.Failed++
		} else {
			outcome.Payout = &payout
			result.Successful++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result, nil
}

func (s *service) ExecutePayoutTransfer(ctx context.Context, payoutID primitive.ObjectID) (models.VendorPayout, error) {
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.VendorPayout{}, fmt.Errorf("%w: %s", ErrPayoutNotFound, payoutID.Hex())
		}
		return models.VendorPayout{}, err
	}

	// Claiming the payout is a conditional pending->processing flip; losing
	// the race (or retrying a finished payout) fails here without touching
	// the record. This is the idempotency guard.
	claimed, err := s.payouts.MarkProcessing(ctx, payoutID)
	if err != nil {
		return models.VendorPayout{}, err
	}
	if !claimed {
		return models.VendorPayout{}, fmt.Errorf("%w: payout %s is %s", ErrInvalidState, payoutID.Hex(), payout.Status)
	}

	res, err := s.provider.Transfer(ctx, transfer.Request{
		Reference:   payout.Reference,
		Amount:      payout.NetAmount,
		Currency:    "cop",
		Destination: payout.BankAccount,
		Description: fmt.Sprintf("Marketplace payout %s", payout.Reference),
	})
	if err != nil || !res.Success {
		msg := "transfer rejected by provider"
		if err != nil {
			msg = err.Error()
		}
		if _, markErr := s.payouts.MarkFailed(ctx, payoutID, msg); markErr != nil {
			logrus.WithField("payoutId", payoutID.Hex()).WithError(markErr).
				Error("Failed to record payout failure")
		}
		return models.VendorPayout{}, fmt.Errorf("%w: %s", ErrTransferFailed, msg)
	}

	if _, err := s.payouts.MarkCompleted(ctx, payoutID, res.Reference, res.Raw, time.Now()); err != nil {
		return models.VendorPayout{}, err
	}

	logrus.WithFields(logrus.Fields{
		"payoutId":    payoutID.Hex(),
		"providerRef": res.Reference,
	}).Info("Payout transfer completed")

	return s.payouts.GetByID(ctx, payoutID)
}

func (s *service) CancelPayout(ctx context.Context, payoutID primitive.ObjectID) (models.VendorPayout, error) {
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.VendorPayout{}, fmt.Errorf("%w: %s", ErrPayoutNotFound, payoutID.Hex())
		}
		return models.VendorPayout{}, err
	}

	cancelled, err := s.payouts.MarkCancelled(ctx, payoutID)
	if err != nil {
		return models.VendorPayout{}, err
	}
	if !cancelled {
		return models.VendorPayout{}, fmt.Errorf("%w: payout %s is %s", ErrInvalidState, payoutID.Hex(), payout.Status)
	}

	return s.payouts.GetByID(ctx, payoutID)
}

func (s *service) ListPayouts(ctx context.Context, filter models.PayoutFilter) ([]models.VendorPayout, error) {
	return s.payouts.List(ctx, filter)
}

func (s *service) GetVendorPayouts(ctx context.Context, vendorID primitive.ObjectID) ([]models.VendorPayout, error) {
	return s.payouts.ListByVendor(ctx, vendorID)
}
