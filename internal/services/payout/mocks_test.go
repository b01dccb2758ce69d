package payout

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/developia-II/mercaplaza-backend/internal/adapters/repository"
	"github.com/developia-II/mercaplaza-backend/internal/adapters/transfer"
	"github.com/developia-II/mercaplaza-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var errMockRepo = errors.New("mock repository error")

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[primitive.ObjectID]models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return user, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments []models.Payment
	// listErr makes ListConfirmedByVendor fail for the given vendor.
	listErr map[primitive.ObjectID]error
}

func newFakePaymentRepo(payments ...models.Payment) *fakePaymentRepo {
	r := &fakePaymentRepo{listErr: make(map[primitive.ObjectID]error)}
	for _, p := range payments {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		r.payments = append(r.payments, p)
	}
	return r
}

func (r *fakePaymentRepo) Create(ctx context.Context, payment models.Payment) (models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment.ID = primitive.NewObjectID()
	r.payments = append(r.payments, payment)
	return payment, nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Payment{}, mongo.ErrNoDocuments
}

func (r *fakePaymentRepo) ListByOrder(ctx context.Context, orderID primitive.ObjectID) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Payment
	for _, p := range r.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) ListConfirmedByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.listErr[vendorID]; err != nil {
		return nil, err
	}
	var out []models.Payment
	for _, p := range r.payments {
		if p.VendorID == vendorID && p.Status == models.PaymentConfirmed {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) ConfirmByOrder(ctx context.Context, orderID primitive.ObjectID, providerRef, providerResponse string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i, p := range r.payments {
		if p.OrderID == orderID && p.Status == models.PaymentPending {
			r.payments[i].Status = models.PaymentConfirmed
			r.payments[i].ProviderRef = providerRef
			r.payments[i].ProviderResponse = providerResponse
			n++
		}
	}
	return n, nil
}

func (r *fakePaymentRepo) SetStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.payments {
		if p.ID == id {
			r.payments[i].Status = status
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

type fakeBankAccountRepo struct {
	mu       sync.Mutex
	accounts map[primitive.ObjectID]models.BankAccount
}

func newFakeBankAccountRepo(accounts ...models.BankAccount) *fakeBankAccountRepo {
	r := &fakeBankAccountRepo{accounts: make(map[primitive.ObjectID]models.BankAccount)}
	for _, a := range accounts {
		if a.ID.IsZero() {
			a.ID = primitive.NewObjectID()
		}
		r.accounts[a.ID] = a
	}
	return r
}

func (r *fakeBankAccountRepo) Create(ctx context.Context, account models.BankAccount) (models.BankAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account.ID = primitive.NewObjectID()
	r.accounts[account.ID] = account
	return account, nil
}

func (r *fakeBankAccountRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.BankAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return models.BankAccount{}, mongo.ErrNoDocuments
	}
	return account, nil
}

func (r *fakeBankAccountRepo) GetActive(ctx context.Context, userID primitive.ObjectID) (*models.BankAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.UserID == userID && a.IsActive {
			account := a
			return &account, nil
		}
	}
	return nil, nil
}

func (r *fakeBankAccountRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.BankAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.BankAccount
	for _, a := range r.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeBankAccountRepo) List(ctx context.Context, filter bson.M) ([]models.BankAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.BankAccount, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeBankAccountRepo) SetActive(ctx context.Context, id, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return mongo.ErrNoDocuments
	}
	for aid, a := range r.accounts {
		if a.UserID == userID {
			a.IsActive = aid == id
			r.accounts[aid] = a
		}
	}
	return nil
}

func (r *fakeBankAccountRepo) SetVerification(ctx context.Context, id primitive.ObjectID, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	account.IsVerified = verified
	r.accounts[id] = account
	return nil
}

func (r *fakeBankAccountRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id)
	return nil
}

type fakePayoutRepo struct {
	mu      sync.Mutex
	payouts map[primitive.ObjectID]models.VendorPayout
	seq     int
}

func newFakePayoutRepo() *fakePayoutRepo {
	return &fakePayoutRepo{payouts: make(map[primitive.ObjectID]models.VendorPayout)}
}

func (r *fakePayoutRepo) Create(ctx context.Context, payout models.VendorPayout) (models.VendorPayout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payout.ID = primitive.NewObjectID()
	r.seq++
	payout.CreatedAt = time.Unix(int64(r.seq), 0)
	payout.UpdatedAt = payout.CreatedAt
	r.payouts[payout.ID] = payout
	return payout, nil
}

func (r *fakePayoutRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.VendorPayout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payout, ok := r.payouts[id]
	if !ok {
		return models.VendorPayout{}, mongo.ErrNoDocuments
	}
	return payout, nil
}

func (r *fakePayoutRepo) List(ctx context.Context, filter models.PayoutFilter) ([]models.VendorPayout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.VendorPayout
	for _, p := range r.payouts {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if !filter.VendorID.IsZero() && p.VendorID != filter.VendorID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePayoutRepo) ListByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.VendorPayout, error) {
	return r.List(ctx, models.PayoutFilter{VendorID: vendorID})
}

func (r *fakePayoutRepo) ListPending(ctx context.Context, limit int64) ([]models.VendorPayout, error) {
	pending, err := r.List(ctx, models.PayoutFilter{Status: models.PayoutPending})
	if err != nil {
		return nil, err
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	if int64(len(pending)) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r *fakePayoutRepo) ListByVendorInStatuses(ctx context.Context, vendorID primitive.ObjectID, statuses []models.PayoutStatus) ([]models.VendorPayout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.VendorPayout
	for _, p := range r.payouts {
		if p.VendorID != vendorID {
			continue
		}
		for _, s := range statuses {
			if p.Status == s {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (r *fakePayoutRepo) transition(id primitive.ObjectID, from, to models.PayoutStatus, mutate func(*models.VendorPayout)) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payout, ok := r.payouts[id]
	if !ok || payout.Status != from {
		return false, nil
	}
	payout.Status = to
	if mutate != nil {
		mutate(&payout)
	}
	payout.UpdatedAt = time.Now()
	r.payouts[id] = payout
	return true, nil
}

func (r *fakePayoutRepo) MarkProcessing(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return r.transition(id, models.PayoutPending, models.PayoutProcessing, nil)
}

func (r *fakePayoutRepo) MarkCompleted(ctx context.Context, id primitive.ObjectID, providerRef, providerResponse string, processedAt time.Time) (bool, error) {
	return r.transition(id, models.PayoutProcessing, models.PayoutCompleted, func(p *models.VendorPayout) {
		p.ProviderReference = providerRef
		p.ProviderResponse = providerResponse
		p.ProcessedAt = &processedAt
	})
}

func (r *fakePayoutRepo) MarkFailed(ctx context.Context, id primitive.ObjectID, errMessage string) (bool, error) {
	return r.transition(id, models.PayoutProcessing, models.PayoutFailed, func(p *models.VendorPayout) {
		p.ErrorMessage = errMessage
	})
}

func (r *fakePayoutRepo) MarkCancelled(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return r.transition(id, models.PayoutPending, models.PayoutCancelled, nil)
}

type fakeConfigRepo struct {
	mu     sync.Mutex
	config models.DispersionConfig
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{
		config: models.DispersionConfig{
			ID:                     repository.DispersionConfigID,
			AdminCommissionPercent: repository.DefaultAdminCommissionPercent,
			MinimumPayout:          repository.DefaultMinimumPayout,
			DispersalFrequencyDays: repository.DefaultDispersalFrequencyDays,
			IsAutoDispersalOn:      true,
		},
	}
}

func (r *fakeConfigRepo) GetOrCreate(ctx context.Context) (models.DispersionConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.config, nil
}

func (r *fakeConfigRepo) Update(ctx context.Context, input models.UpdateDispersionConfigInput) (models.DispersionConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if input.AdminCommissionPercent != nil {
		r.config.AdminCommissionPercent = *input.AdminCommissionPercent
	}
	if input.MinimumPayout != nil {
		r.config.MinimumPayout = *input.MinimumPayout
	}
	if input.DispersalFrequencyDays != nil {
		r.config.DispersalFrequencyDays = *input.DispersalFrequencyDays
	}
	if input.IsAutoDispersalOn != nil {
		r.config.IsAutoDispersalOn = *input.IsAutoDispersalOn
	}
	return r.config, nil
}

func (r *fakeConfigRepo) RecordDispersalRun(ctx context.Context, prevLast *time.Time, runAt, next time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.config.LastDispersalAt
	switch {
	case prevLast == nil && current != nil:
		return false, nil
	case prevLast != nil && (current == nil || !current.Equal(*prevLast)):
		return false, nil
	}
	r.config.LastDispersalAt = &runAt
	r.config.NextDispersalAt = &next
	return true, nil
}

type fakeTransferProvider struct {
	mu        sync.Mutex
	calls     []transfer.Request
	err       error
	rejectAll bool
}

func (p *fakeTransferProvider) Transfer(ctx context.Context, req transfer.Request) (transfer.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, req)
	if p.err != nil {
		return transfer.Result{}, p.err
	}
	if p.rejectAll {
		return transfer.Result{Success: false}, nil
	}
	return transfer.Result{Success: true, Reference: "tr_" + req.Reference, Raw: `{"status":"paid"}`}, nil
}

func (p *fakeTransferProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}
