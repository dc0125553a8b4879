// Package payment describes the external payment processor as seen by checkout.
package payment

import (
	"context"
	"errors"
)

// ErrDeclined marks a terminal rejection by the processor (4xx); retrying
// with the same parameters cannot succeed.
var ErrDeclined = errors.New("payment intent declined")

type IntentParams struct {
	AmountMinor    int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Gateway creates payment intents. Calls with the same IdempotencyKey must
// yield the same intent.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, params IntentParams) (*Intent, error)
}
