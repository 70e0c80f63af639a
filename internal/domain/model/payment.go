package model

import (
	"encoding/json"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // created locally; provider may or may not know about it yet
	PaymentStatusSucceeded PaymentStatus = "succeeded" // provider reported success; subscription granted
	PaymentStatusCanceled  PaymentStatus = "canceled"  // provider reported cancellation
)

// IsTerminal reports whether the status can never change again.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusCanceled
}

// Provider status strings we act on. Anything else means "not decided yet".
const (
	ProviderStatusPending   = "pending"
	ProviderStatusSucceeded = "succeeded"
	ProviderStatusCanceled  = "canceled"
)

// Payment records one attempt to collect money for a plan via YooKassa.
type Payment struct {
	ID                string        // UUID
	UserID            string        // UUID
	Plan              Plan          // which plan the user intends to buy
	Provider          string        // always "yookassa" for now
	ProviderPaymentID *string       // provider-assigned id; nil until the create call returns, unique once set
	IdempotenceKey    string        // generated once at creation, never reused
	Status            PaymentStatus // see constants above
	AmountKopeck      int64         // RUB minor units, integer to avoid float errors
	Currency          string
	ConfirmationURL   *string         // where the user completes the payment; nil until the provider responds
	RawPayload        json.RawMessage // last raw provider object, kept for audit/debug
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Decision is the outcome of the payment state machine for one observation
// of a provider status.
type Decision int

const (
	// DecisionNoop covers idempotent re-delivery of terminal statuses and
	// provider statuses that carry no terminal verdict yet.
	DecisionNoop Decision = iota
	DecisionSucceed
	DecisionCancel
)

// Decide is the pure transition function of the payment state machine.
// It never errors: an unrecognized provider status is "not decided yet",
// not a fault, and a payment already in a terminal state stays there no
// matter what the provider re-delivers.
func Decide(current PaymentStatus, providerStatus string) Decision {
	if current.IsTerminal() {
		return DecisionNoop
	}
	switch providerStatus {
	case ProviderStatusSucceeded:
		return DecisionSucceed
	case ProviderStatusCanceled:
		return DecisionCancel
	default:
		return DecisionNoop
	}
}
