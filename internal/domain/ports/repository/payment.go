package repository

import (
	"context"
	"encoding/json"

	"hmk-docs-backend/internal/domain/model"
)

// PaymentRepository is the port for payment records.
//
// FindByProviderPaymentID acquires a row lock (SELECT ... FOR UPDATE) when
// called with a live Tx; that lock is the unit of mutual exclusion for the
// succeed transition. No broader lock is ever taken.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// FindByUserAndID scopes the lookup to the owning user.
	FindByUserAndID(ctx context.Context, tx Tx, userID, id string) (*model.Payment, error)
	FindByProviderPaymentID(ctx context.Context, tx Tx, providerPaymentID string) (*model.Payment, error)
	// SetProviderResult stores the provider id, confirmation URL and raw
	// payload returned by the gateway create call.
	SetProviderResult(ctx context.Context, tx Tx, id, providerPaymentID, confirmationURL string, raw json.RawMessage) error
	// UpdateStatusIfPending flips the status only when the row is still
	// pending, reporting whether a row actually changed.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, raw json.RawMessage) (bool, error)
	// ListPendingWithProvider returns up to limit pending payments that
	// already have a provider payment id, oldest first.
	ListPendingWithProvider(ctx context.Context, tx Tx, limit int) ([]*model.Payment, error)
}
