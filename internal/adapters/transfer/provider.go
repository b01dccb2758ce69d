// Package transfer abstracts the outbound funds-transfer provider used to
// pay vendors. The provider is treated as at-least-once risky: a call may
// fail after the transfer partially succeeded, which is why callers keep the
// payout in an intermediate processing state around the call.
package transfer

import (
	"context"

	"github.com/developia-II/mercaplaza-backend/internal/models"
)

type Request struct {
	// Reference is the caller's idempotency key for this transfer.
	Reference   string
	Amount      float64
	Currency    string
	Destination models.BankAccountSnapshot
	Description string
}

type Result struct {
	Success   bool
	Reference string // provider-side transfer id
	Raw       string // raw provider response, stored for audit
}

type Provider interface {
	Transfer(ctx context.Context, req Request) (Result, error)
}
