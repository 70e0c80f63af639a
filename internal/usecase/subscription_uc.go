// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hmk-docs-backend/internal/domain"
	"hmk-docs-backend/internal/domain/model"
	"hmk-docs-backend/internal/domain/ports/repository"
	"hmk-docs-backend/internal/infra/metrics"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type SubscriptionStatus struct {
	Active bool       `json:"active"`
	EndsAt *time.Time `json:"ends_at"`
}

type SubscriptionUseCase interface {
	// ActivateFromPayment inserts the subscription row for a successful
	// payment. It MUST be called inside the payment-success transaction:
	// the tx handle ties the insert to the payment's SUCCEEDED write.
	ActivateFromPayment(ctx context.Context, tx repository.Tx, userID string, plan model.Plan, paymentID string) (*model.Subscription, error)
	// Grant creates a subscription with no originating payment (seed or
	// manual/out-of-band grants).
	Grant(ctx context.Context, userID string, plan model.Plan) (*model.Subscription, error)
	// Status reports whether the user currently has access and until when.
	Status(ctx context.Context, userID string) (SubscriptionStatus, error)
	HasActiveAccess(ctx context.Context, userID string) (bool, error)
	// ExpireOutdated flips every elapsed ACTIVE row to EXPIRED and returns
	// the count. Zero is not an error.
	ExpireOutdated(ctx context.Context) (int64, error)
}

type subscriptionUC struct {
	subs repository.SubscriptionRepository
	log  *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, logger *zerolog.Logger) *subscriptionUC {
	subLog := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{subs: subs, log: &subLog}
}

// ActivateFromPayment computes the new validity window and persists it.
// Stacking rule: if the user has a current ACTIVE row ending in the future,
// the new window starts at that row's ends_at; otherwise it starts now. The
// prior row is left untouched — subscriptions are append-only and "current
// access" is always derived from the latest non-expired row.
func (uc *subscriptionUC) ActivateFromPayment(ctx context.Context, tx repository.Tx, userID string, plan model.Plan, paymentID string) (*model.Subscription, error) {
	sub, err := uc.activate(ctx, tx, userID, plan, &paymentID)
	if err != nil {
		return nil, err
	}
	metrics.IncSubscriptionActivated(string(plan))
	return sub, nil
}

func (uc *subscriptionUC) Grant(ctx context.Context, userID string, plan model.Plan) (*model.Subscription, error) {
	return uc.activate(ctx, repository.NoTx, userID, plan, nil)
}

func (uc *subscriptionUC) activate(ctx context.Context, tx repository.Tx, userID string, plan model.Plan, paymentID *string) (*model.Subscription, error) {
	if !plan.Valid() {
		return nil, domain.ErrUnsupportedPlan
	}
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}

	now := time.Now()
	startsAt := now
	current, err := uc.subs.FindCurrentActive(ctx, tx, userID, now)
	switch {
	case err == nil:
		startsAt = current.EndsAt
	case errors.Is(err, domain.ErrNotFound):
		// no active row, window starts now
	default:
		return nil, err
	}

	sub := &model.Subscription{
		ID:        uuid.NewString(),
		UserID:    userID,
		Plan:      plan,
		Status:    model.SubscriptionStatusActive,
		StartsAt:  startsAt,
		EndsAt:    startsAt.Add(plan.Duration()),
		PaymentID: paymentID,
		CreatedAt: now,
	}
	if err := uc.subs.Save(ctx, tx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (uc *subscriptionUC) Status(ctx context.Context, userID string) (SubscriptionStatus, error) {
	current, err := uc.subs.FindCurrentActive(ctx, repository.NoTx, userID, time.Now())
	if errors.Is(err, domain.ErrNotFound) {
		return SubscriptionStatus{Active: false}, nil
	}
	if err != nil {
		return SubscriptionStatus{}, err
	}
	return SubscriptionStatus{Active: true, EndsAt: &current.EndsAt}, nil
}

func (uc *subscriptionUC) HasActiveAccess(ctx context.Context, userID string) (bool, error) {
	status, err := uc.Status(ctx, userID)
	if err != nil {
		return false, err
	}
	return status.Active, nil
}

func (uc *subscriptionUC) ExpireOutdated(ctx context.Context) (int64, error) {
	n, err := uc.subs.ExpireOutdated(ctx, repository.NoTx, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.AddSubscriptionsExpired(n)
	}
	return n, nil
}
