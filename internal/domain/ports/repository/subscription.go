package repository

import (
	"context"
	"time"

	"hmk-docs-backend/internal/domain/model"
)

// SubscriptionRepository is the port for subscription rows.
type SubscriptionRepository interface {
	// Save inserts a subscription row. Rows are append-only; there is no
	// update path besides ExpireOutdated.
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	// FindCurrentActive returns the user's ACTIVE row with ends_at > now,
	// most recent ends_at first, or ErrNotFound.
	FindCurrentActive(ctx context.Context, tx Tx, userID string, now time.Time) (*model.Subscription, error)
	// ExpireOutdated flips every ACTIVE row with ends_at <= now to EXPIRED
	// and reports the number of rows changed.
	ExpireOutdated(ctx context.Context, tx Tx, now time.Time) (int64, error)
}
