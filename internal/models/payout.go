package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
	PayoutCancelled  PayoutStatus = "cancelled"
)

// Terminal reports whether a payout in this status can never change again.
func (s PayoutStatus) Terminal() bool {
	return s == PayoutCompleted || s == PayoutFailed || s == PayoutCancelled
}

// BankAccountSnapshot is the immutable copy of the destination account frozen
// into a payout at creation time, so edits to the live account cannot change
// where an in-flight payout lands.
type BankAccountSnapshot struct {
	AccountID         primitive.ObjectID `json:"accountId" bson:"accountId"`
	BankName          string             `json:"bankName" bson:"bankName"`
	AccountType       AccountType        `json:"accountType" bson:"accountType"`
	AccountNumber     string             `json:"accountNumber" bson:"accountNumber"`
	HolderName        string             `json:"holderName" bson:"holderName"`
	HolderDocument    string             `json:"holderDocument" bson:"holderDocument"`
	ProviderAccountID string             `json:"providerAccountId" bson:"providerAccountId"`
	IsVerified        bool               `json:"isVerified" bson:"isVerified"`
}

// VendorPayout is a dispersion of commission-netted funds to a vendor.
// Status transitions are owned exclusively by the payout service:
// pending -> processing -> completed|failed, pending -> cancelled.
type VendorPayout struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VendorID primitive.ObjectID `json:"vendorId" bson:"vendorId"`

	// Reference doubles as the idempotency key sent to the transfer provider.
	Reference string `json:"reference" bson:"reference"`

	GrossAmount           float64 `json:"grossAmount" bson:"grossAmount"`
	AdminCommissionAmount float64 `json:"adminCommissionAmount" bson:"adminCommissionAmount"`
	NetAmount             float64 `json:"netAmount" bson:"netAmount"`

	Status PayoutStatus `json:"status" bson:"status"`

	// SettledPaymentIDs is an audit snapshot of the confirmed payments this
	// payout accounted for. Balance netting is done by amount, not by these
	// ids, so the snapshot is informational rather than a dedup key.
	SettledPaymentIDs []primitive.ObjectID `json:"settledPaymentIds" bson:"settledPaymentIds"`
	BankAccount       BankAccountSnapshot  `json:"bankAccount" bson:"bankAccount"`

	ProviderReference string     `json:"providerReference,omitempty" bson:"providerReference,omitempty"`
	ProviderResponse  string     `json:"-" bson:"providerResponse,omitempty"`
	ErrorMessage      string     `json:"errorMessage,omitempty" bson:"errorMessage,omitempty"`
	ProcessedAt       *time.Time `json:"processedAt,omitempty" bson:"processedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DispersionConfig is the single-row marketplace dispersion configuration.
// The fixed document id enforces single-row semantics in storage.
type DispersionConfig struct {
	ID                     string     `json:"id" bson:"_id"`
	AdminCommissionPercent float64    `json:"adminCommissionPercent" bson:"adminCommissionPercent"`
	MinimumPayout          float64    `json:"minimumPayout" bson:"minimumPayout"`
	DispersalFrequencyDays int        `json:"dispersalFrequencyDays" bson:"dispersalFrequencyDays"`
	IsAutoDispersalOn      bool       `json:"isAutoDispersalOn" bson:"isAutoDispersalOn"`
	LastDispersalAt        *time.Time `json:"lastDispersalAt,omitempty" bson:"lastDispersalAt,omitempty"`
	NextDispersalAt        *time.Time `json:"nextDispersalAt,omitempty" bson:"nextDispersalAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// CommissionRate returns the admin commission as a fraction in [0,1].
// The stored percent is clamped defensively before use.
func (c DispersionConfig) CommissionRate() float64 {
	pct := c.AdminCommissionPercent
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct / 100
}

type UpdateDispersionConfigInput struct {
	AdminCommissionPercent *float64 `json:"adminCommissionPercent" validate:"omitempty,gte=0,lte=100"`
	MinimumPayout          *float64 `json:"minimumPayout" validate:"omitempty,gte=0"`
	DispersalFrequencyDays *int     `json:"dispersalFrequencyDays" validate:"omitempty,gte=1,lte=365"`
	IsAutoDispersalOn      *bool    `json:"isAutoDispersalOn"`
}

// VendorBalance is the read-only view of what a vendor can currently be paid.
type VendorBalance struct {
	VendorID    primitive.ObjectID `json:"vendorId"`
	VendorName  string             `json:"vendorName"`
	VendorEmail string             `json:"vendorEmail"`

	TotalSales       float64 `json:"totalSales"`
	AdminCommission  float64 `json:"adminCommission"`
	AvailableBalance float64 `json:"availableBalance"`
	TotalDispersed   float64 `json:"totalDispersed"`

	ActiveBankAccount *BankAccount `json:"activeBankAccount,omitempty"`
	HasVerifiedBank   bool         `json:"hasVerifiedBankAccount"`
}

// PayoutFilter narrows payout listings; zero values mean "any".
type PayoutFilter struct {
	Status   PayoutStatus
	VendorID primitive.ObjectID
}

// PayoutOutcome is one vendor's result inside a bulk dispersion run.
type PayoutOutcome struct {
	VendorID primitive.ObjectID `json:"vendorId"`
	Payout   *VendorPayout      `json:"payout,omitempty"`
	Error    string             `json:"error,omitempty"`
}

type BulkPayoutResult struct {
	Total      int             `json:"total"`
	Successful int             `json:"successful"`
	Failed     int             `json:"failed"`
	Outcomes   []PayoutOutcome `json:"outcomes"`
}
