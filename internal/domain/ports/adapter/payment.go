package adapter

import (
	"context"
	"encoding/json"
)

// CreatePaymentParams is everything the provider needs for a redirect
// payment. The idempotence key makes provider-side retries of the same
// logical request collapse to one provider resource.
type CreatePaymentParams struct {
	IdempotenceKey string
	AmountKopeck   int64
	Currency       string
	Description    string
	Metadata       map[string]string
}

// ProviderPayment is the provider's view of a payment, shared by create and
// fetch responses.
type ProviderPayment struct {
	ID              string
	Status          string
	ConfirmationURL string
	Raw             json.RawMessage
}

// PaymentGateway talks to the external payment processor. Calls are bounded
// by the client's timeout and must never be made while holding a row lock.
type PaymentGateway interface {
	Name() string
	CreatePayment(ctx context.Context, params CreatePaymentParams) (*ProviderPayment, error)
	GetPayment(ctx context.Context, providerPaymentID string) (*ProviderPayment, error)
}
