package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
	stripetransfer "github.com/stripe/stripe-go/v81/transfer"
)

// StripeProvider sends funds to a vendor's connected Stripe account.
// The payout reference is forwarded as the idempotency key, so retrying a
// transfer that already went through does not move money twice.
type StripeProvider struct {
	Currency string
}

func NewStripeProvider(currency string) *StripeProvider {
	if currency == "" {
		currency = "cop"
	}
	return &StripeProvider{Currency: strings.ToLower(currency)}
}

func (p *StripeProvider) Transfer(ctx context.Context, req Request) (Result, error) {
	if req.Destination.ProviderAccountID == "" {
		return Result{}, fmt.Errorf("bank account %s has no provider account id", req.Destination.AccountID.Hex())
	}

	amount := int64(req.Amount * 100)

	params := &stripe.TransferParams{
		Amount:        stripe.Int64(amount),
		Currency:      stripe.String(p.Currency),
		Destination:   stripe.String(req.Destination.ProviderAccountID),
		TransferGroup: stripe.String(req.Reference),
		Description:   stripe.String(req.Description),
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.Reference)

	t, err := stripetransfer.New(params)
	if err != nil {
		return Result{}, err
	}

	raw, _ := json.Marshal(t)
	return Result{
		Success:   true,
		Reference: t.ID,
		Raw:       string(raw),
	}, nil
}
