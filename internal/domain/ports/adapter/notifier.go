package adapter

import (
	"context"
	"time"
)

// Notifier is the best-effort side channel. Callers invoke it only after
// commit, log failures and never propagate them; implementations must not
// be given a chance to roll anything back.
type Notifier interface {
	Welcome(ctx context.Context, email string) error
	PaymentCreated(ctx context.Context, email, confirmationURL string) error
	PaymentSucceeded(ctx context.Context, email string, accessUntil time.Time) error
	PaymentCanceled(ctx context.Context, email string) error
}
