// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"hmk-docs-backend/internal/domain"
	"hmk-docs-backend/internal/domain/model"
	"hmk-docs-backend/internal/domain/ports/adapter"
	"hmk-docs-backend/internal/domain/ports/repository"
	"hmk-docs-backend/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// WebhookEvent is the validated form of an inbound provider notification.
type WebhookEvent struct {
	ProviderPaymentID string
	Status            string
	Raw               json.RawMessage
}

// webhookPayload mirrors the YooKassa notification envelope.
type webhookPayload struct {
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"object"`
}

// ParseWebhookEvent validates the loosely-typed provider payload before any
// business logic runs. A payload without object.id is a client error.
func ParseWebhookEvent(body []byte) (WebhookEvent, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: malformed webhook payload", domain.ErrInvalidArgument)
	}
	if p.Object.ID == "" {
		return WebhookEvent{}, fmt.Errorf("%w: webhook payload missing object.id", domain.ErrInvalidArgument)
	}
	var raw json.RawMessage
	var envelope struct {
		Object json.RawMessage `json:"object"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		raw = envelope.Object
	}
	return WebhookEvent{ProviderPaymentID: p.Object.ID, Status: p.Object.Status, Raw: raw}, nil
}

type PaymentUseCase interface {
	// Create inserts a PENDING payment, registers it with the provider
	// using a fresh idempotence key, and returns the record including the
	// confirmation URL.
	Create(ctx context.Context, userID string, plan model.Plan) (*model.Payment, error)
	// GetUserPayment fetches a payment scoped to its owner.
	GetUserPayment(ctx context.Context, userID, paymentID string) (*model.Payment, error)
	// HandleWebhook drives the state machine from a provider push.
	HandleWebhook(ctx context.Context, evt WebhookEvent) error
	// ReconcilePending drives the state machine from a poll sweep and
	// returns the number of payments it checked.
	ReconcilePending(ctx context.Context) (int, error)
}

type paymentUC struct {
	payments   repository.PaymentRepository
	users      repository.UserRepository
	subUC      SubscriptionUseCase
	gateway    adapter.PaymentGateway
	notifier   adapter.Notifier
	tm         repository.TransactionManager
	batchLimit int
	log        *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	users repository.UserRepository,
	subUC SubscriptionUseCase,
	gateway adapter.PaymentGateway,
	notifier adapter.Notifier,
	tm repository.TransactionManager,
	batchLimit int,
	logger *zerolog.Logger,
) *paymentUC {
	if batchLimit <= 0 {
		batchLimit = 100
	}
	payLog := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{
		payments:   payments,
		users:      users,
		subUC:      subUC,
		gateway:    gateway,
		notifier:   notifier,
		tm:         tm,
		batchLimit: batchLimit,
		log:        &payLog,
	}
}

func (u *paymentUC) Create(ctx context.Context, userID string, plan model.Plan) (*model.Payment, error) {
	if !plan.Valid() {
		return nil, domain.ErrUnsupportedPlan
	}
	user, err := u.users.FindByID(ctx, repository.NoTx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	p := &model.Payment{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		Plan:           plan,
		Provider:       u.gateway.Name(),
		IdempotenceKey: uuid.NewString(),
		Status:         model.PaymentStatusPending,
		AmountKopeck:   plan.PriceKopeck(),
		Currency:       model.Currency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.payments.Save(ctx, repository.NoTx, p); err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentStatusPending))

	created, err := u.gateway.CreatePayment(ctx, adapter.CreatePaymentParams{
		IdempotenceKey: p.IdempotenceKey,
		AmountKopeck:   p.AmountKopeck,
		Currency:       p.Currency,
		Description:    fmt.Sprintf("HMK Docs %s access", plan),
		Metadata: map[string]string{
			"local_payment_id": p.ID,
			"user_id":          user.ID,
			"plan":             string(plan),
		},
	})
	if err != nil {
		// The row stays PENDING with no provider id. The poll sweep skips
		// such rows, so nothing retries the create automatically and no
		// duplicate provider-side payment can appear.
		u.log.Error().Err(err).Str("payment_id", p.ID).Msg("provider create failed; payment left pending without provider id")
		return nil, err
	}

	if err := u.payments.SetProviderResult(ctx, repository.NoTx, p.ID, created.ID, created.ConfirmationURL, created.Raw); err != nil {
		return nil, err
	}
	p.ProviderPaymentID = &created.ID
	p.ConfirmationURL = &created.ConfirmationURL
	p.RawPayload = created.Raw

	if created.ConfirmationURL != "" {
		u.notify(ctx, "payment created", func(email string) error {
			return u.notifier.PaymentCreated(ctx, email, created.ConfirmationURL)
		}, user.Email)
	}
	return p, nil
}

func (u *paymentUC) GetUserPayment(ctx context.Context, userID, paymentID string) (*model.Payment, error) {
	return u.payments.FindByUserAndID(ctx, repository.NoTx, userID, paymentID)
}

func (u *paymentUC) HandleWebhook(ctx context.Context, evt WebhookEvent) error {
	if evt.ProviderPaymentID == "" {
		return fmt.Errorf("%w: webhook event missing provider payment id", domain.ErrInvalidArgument)
	}
	return u.processProviderPayment(ctx, evt.ProviderPaymentID, evt.Status, evt.Raw, "webhook")
}

func (u *paymentUC) ReconcilePending(ctx context.Context) (int, error) {
	pending, err := u.payments.ListPendingWithProvider(ctx, repository.NoTx, u.batchLimit)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	checked := 0
	for _, p := range pending {
		if p.ProviderPaymentID == nil {
			continue
		}
		// Per-item gateway failures are logged and skipped; the row stays
		// PENDING for the next sweep. The fetch happens outside any
		// transaction, before this item's critical section.
		provider, err := u.gateway.GetPayment(ctx, *p.ProviderPaymentID)
		if err != nil {
			u.log.Warn().Err(err).Str("payment_id", p.ID).Msg("poll fetch failed; skipping item")
			continue
		}
		if err := u.processProviderPayment(ctx, provider.ID, provider.Status, provider.Raw, "poll"); err != nil {
			u.log.Warn().Err(err).Str("payment_id", p.ID).Msg("poll reconcile failed; skipping item")
			continue
		}
		checked++
	}
	return checked, nil
}

// processProviderPayment is the single convergence point for the webhook and
// poll paths: one (providerPaymentID, providerStatus, raw) tuple in, at most
// one terminal transition out.
func (u *paymentUC) processProviderPayment(ctx context.Context, providerPaymentID, providerStatus string, raw json.RawMessage, source string) error {
	metrics.IncProviderStatus(providerStatus, source)

	p, err := u.payments.FindByProviderPaymentID(ctx, repository.NoTx, providerPaymentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Stale event or a payment we never created. Not a fault.
			u.log.Warn().Str("provider_payment_id", providerPaymentID).Str("source", source).Msg("payment for provider id not found; ignoring event")
			return nil
		}
		return err
	}

	switch model.Decide(p.Status, providerStatus) {
	case model.DecisionSucceed:
		return u.completePayment(ctx, providerPaymentID, raw)
	case model.DecisionCancel:
		return u.cancelPayment(ctx, p, raw)
	default:
		return nil
	}
}

// completePayment performs the terminal success transition as one atomic
// unit: lock the payment row, re-check the status under the lock, mark
// SUCCEEDED and activate the subscription, then commit. If the re-check
// finds the row already terminal the other trigger source won the race and
// this call commits nothing — that is the at-most-once guarantee. No
// network call happens while the lock is held.
func (u *paymentUC) completePayment(ctx context.Context, providerPaymentID string, raw json.RawMessage) error {
	var (
		completed *model.Payment
		activated *model.Subscription
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		locked, err := u.payments.FindByProviderPaymentID(ctx, tx, providerPaymentID)
		if err != nil {
			return err
		}
		if locked.Status != model.PaymentStatusPending {
			return nil // the other path won; commit nothing further
		}
		ok, err := u.payments.UpdateStatusIfPending(ctx, tx, locked.ID, model.PaymentStatusSucceeded, raw)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		sub, err := u.subUC.ActivateFromPayment(ctx, tx, locked.UserID, locked.Plan, locked.ID)
		if err != nil {
			return err // rolls back the SUCCEEDED write too
		}
		completed = locked
		activated = sub
		return nil
	})
	if err != nil {
		return err
	}
	if completed == nil {
		return nil
	}

	metrics.IncPayment(string(model.PaymentStatusSucceeded))
	metrics.AddPaymentRevenue(completed.Currency, completed.AmountKopeck)
	u.log.Info().
		Str("payment_id", completed.ID).
		Str("subscription_id", activated.ID).
		Time("ends_at", activated.EndsAt).
		Msg("payment succeeded; subscription activated")

	endsAt := activated.EndsAt
	u.notifyUser(ctx, completed.UserID, "payment succeeded", func(email string) error {
		return u.notifier.PaymentSucceeded(ctx, email, endsAt)
	})
	return nil
}

// cancelPayment marks the payment CANCELED. Cancellation does not fan out
// into another aggregate, so the conditional update is enough — no lock.
func (u *paymentUC) cancelPayment(ctx context.Context, p *model.Payment, raw json.RawMessage) error {
	ok, err := u.payments.UpdateStatusIfPending(ctx, repository.NoTx, p.ID, model.PaymentStatusCanceled, raw)
	if err != nil {
		return err
	}
	if !ok {
		return nil // already terminal
	}

	metrics.IncPayment(string(model.PaymentStatusCanceled))
	u.log.Info().Str("payment_id", p.ID).Msg("payment canceled")

	u.notifyUser(ctx, p.UserID, "payment canceled", func(email string) error {
		return u.notifier.PaymentCanceled(ctx, email)
	})
	return nil
}

// notifyUser resolves the user's email and sends a best-effort notification.
func (u *paymentUC) notifyUser(ctx context.Context, userID, what string, send func(email string) error) {
	user, err := u.users.FindByID(ctx, repository.NoTx, userID)
	if err != nil {
		u.log.Warn().Err(err).Str("user_id", userID).Msgf("%s notification skipped: user lookup failed", what)
		return
	}
	u.notify(ctx, what, send, user.Email)
}

// notify runs a notification send, swallowing and logging any failure. A
// failed notification never rolls back or retries the transaction it trails.
func (u *paymentUC) notify(_ context.Context, what string, send func(email string) error, email string) {
	if err := send(email); err != nil {
		u.log.Warn().Err(err).Msgf("%s notification failed", what)
	}
}
