//go:build !integration

// File: internal/infra/web/mock_test.go
package web

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hmk-docs-backend/internal/domain"
	"hmk-docs-backend/internal/domain/model"
	"hmk-docs-backend/internal/domain/ports/repository"
	"hmk-docs-backend/internal/infra/redis"
	"hmk-docs-backend/internal/usecase"
)

// mockAuthUC scripts authentication for handler tests. VerifyAccessToken
// accepts any token of the form "token-<userID>".
type mockAuthUC struct {
	RegisterFunc func(ctx context.Context, email, password string) (usecase.TokenPair, error)
	LoginFunc    func(ctx context.Context, email, password string) (usecase.TokenPair, error)
	RefreshFunc  func(ctx context.Context, refreshToken string) (usecase.TokenPair, error)
	logoutCalls  []string
	mu           sync.Mutex
}

var _ usecase.AuthUseCase = (*mockAuthUC)(nil)

func (m *mockAuthUC) Register(ctx context.Context, email, password string) (usecase.TokenPair, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password)
	}
	return usecase.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (m *mockAuthUC) Login(ctx context.Context, email, password string) (usecase.TokenPair, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return usecase.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (m *mockAuthUC) Refresh(ctx context.Context, refreshToken string) (usecase.TokenPair, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return usecase.TokenPair{AccessToken: "access2", RefreshToken: "refresh2"}, nil
}

func (m *mockAuthUC) Logout(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutCalls = append(m.logoutCalls, userID)
	return nil
}

func (m *mockAuthUC) VerifyAccessToken(tokenString string) (string, error) {
	const prefix = "token-"
	if len(tokenString) > len(prefix) && tokenString[:len(prefix)] == prefix {
		return tokenString[len(prefix):], nil
	}
	return "", domain.ErrInvalidToken
}

type mockPayUC struct {
	CreateFunc        func(ctx context.Context, userID string, plan model.Plan) (*model.Payment, error)
	GetFunc           func(ctx context.Context, userID, paymentID string) (*model.Payment, error)
	HandleWebhookFunc func(ctx context.Context, evt usecase.WebhookEvent) error
	mu                sync.Mutex
	webhookEvents     []usecase.WebhookEvent
}

var _ usecase.PaymentUseCase = (*mockPayUC)(nil)

func (m *mockPayUC) Create(ctx context.Context, userID string, plan model.Plan) (*model.Payment, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, plan)
	}
	url := "https://provider.example/confirm/1"
	return &model.Payment{
		ID:              "pay-1",
		UserID:          userID,
		Plan:            plan,
		Provider:        "yookassa",
		Status:          model.PaymentStatusPending,
		AmountKopeck:    plan.PriceKopeck(),
		Currency:        model.Currency,
		ConfirmationURL: &url,
		CreatedAt:       time.Now(),
	}, nil
}

func (m *mockPayUC) GetUserPayment(ctx context.Context, userID, paymentID string) (*model.Payment, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, paymentID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockPayUC) HandleWebhook(ctx context.Context, evt usecase.WebhookEvent) error {
	m.mu.Lock()
	m.webhookEvents = append(m.webhookEvents, evt)
	m.mu.Unlock()
	if m.HandleWebhookFunc != nil {
		return m.HandleWebhookFunc(ctx, evt)
	}
	return nil
}

func (m *mockPayUC) ReconcilePending(ctx context.Context) (int, error) { return 0, nil }

func (m *mockPayUC) webhookCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.webhookEvents)
}

type mockSubUC struct {
	StatusFunc func(ctx context.Context, userID string) (usecase.SubscriptionStatus, error)
}

var _ usecase.SubscriptionUseCase = (*mockSubUC)(nil)

func (m *mockSubUC) ActivateFromPayment(ctx context.Context, tx repository.Tx, userID string, plan model.Plan, paymentID string) (*model.Subscription, error) {
	return nil, nil
}

func (m *mockSubUC) Grant(ctx context.Context, userID string, plan model.Plan) (*model.Subscription, error) {
	return nil, nil
}

func (m *mockSubUC) Status(ctx context.Context, userID string) (usecase.SubscriptionStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, userID)
	}
	return usecase.SubscriptionStatus{}, nil
}

func (m *mockSubUC) HasActiveAccess(ctx context.Context, userID string) (bool, error) {
	return false, nil
}

func (m *mockSubUC) ExpireOutdated(ctx context.Context) (int64, error) { return 0, nil }

// memRedis backs the rate limiter in tests.
type memRedis struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newMemRedis() *memRedis { return &memRedis{counts: make(map[string]int64)} }

func (m *memRedis) Ping(ctx context.Context) error { return nil }
func (m *memRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (m *memRedis) Get(ctx context.Context, key string) (string, error) { return "", nil }

func (m *memRedis) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memRedis) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (m *memRedis) Del(ctx context.Context, keys ...string) error { return nil }
func (m *memRedis) Close() error                                  { return nil }

type serverMocks struct {
	auth *mockAuthUC
	pay  *mockPayUC
	sub  *mockSubUC
}

func newTestServer() (*Server, serverMocks) {
	mocks := serverMocks{auth: &mockAuthUC{}, pay: &mockPayUC{}, sub: &mockSubUC{}}
	log := zerolog.Nop()
	s := NewServer(mocks.auth, mocks.pay, mocks.sub, redis.NewRateLimiter(newMemRedis()), 0, &log)
	return s, mocks
}
