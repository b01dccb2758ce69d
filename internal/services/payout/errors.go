package payout

import "errors"

// Failures surfaced to callers of the payout service. Handlers map these to
// HTTP statuses with errors.Is, so wrapped context stays intact.
var (
	ErrVendorNotFound    = errors.New("vendor not found")
	ErrPayoutNotFound    = errors.New("payout not found")
	ErrInvalidRole       = errors.New("user role cannot hold a balance")
	ErrBelowMinimum      = errors.New("available balance is below the minimum payout")
	ErrNoBankAccount     = errors.New("vendor has no active bank account")
	ErrUnverifiedAccount = errors.New("vendor bank account is not verified")
	ErrInvalidState      = errors.New("payout status does not allow this operation")
	ErrTransferFailed    = errors.New("funds transfer failed")
)
