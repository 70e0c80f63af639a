// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"hmk-docs-backend/internal/domain"
	"hmk-docs-backend/internal/domain/model"
	"hmk-docs-backend/internal/domain/ports/adapter"
	"hmk-docs-backend/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memPaymentRepo is a small in-memory implementation used by unit tests.
type memPaymentRepo struct {
	mu      sync.Mutex
	store   map[string]*model.Payment // by internal id
	saveErr error                     // used by tests to simulate save failures
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) FindByUserAndID(ctx context.Context, tx repository.Tx, userID, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok || p.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) FindByProviderPaymentID(ctx context.Context, tx repository.Tx, providerPaymentID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.ProviderPaymentID != nil && *p.ProviderPaymentID == providerPaymentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymentRepo) SetProviderResult(ctx context.Context, tx repository.Tx, id, providerPaymentID, confirmationURL string, raw json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.ProviderPaymentID = &providerPaymentID
	p.ConfirmationURL = &confirmationURL
	p.RawPayload = raw
	p.UpdatedAt = time.Now()
	return nil
}

func (m *memPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, raw json.RawMessage) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	if raw != nil {
		p.RawPayload = raw
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPaymentRepo) ListPendingWithProvider(ctx context.Context, tx repository.Tx, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.ProviderPaymentID != nil {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// memSubRepo provides in-memory subscriptions for tests.
type memSubRepo struct {
	mu      sync.Mutex
	store   map[string]*model.Subscription
	saveErr error
}

func newMemSubRepo() *memSubRepo {
	return &memSubRepo{store: make(map[string]*model.Subscription)}
}

func (m *memSubRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *memSubRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSubRepo) FindCurrentActive(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.Subscription
	for _, s := range m.store {
		if s.UserID != userID || !s.CoversAccess(now) {
			continue
		}
		if best == nil || s.EndsAt.After(best.EndsAt) {
			best = s
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *memSubRepo) ExpireOutdated(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusActive && !s.EndsAt.After(now) {
			s.Status = model.SubscriptionStatusExpired
			n++
		}
	}
	return n, nil
}

// all returns a snapshot of every stored row, for assertions.
func (m *memSubRepo) all() []*model.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Subscription, 0, len(m.store))
	for _, s := range m.store {
		cp := *s
		out = append(out, &cp)
	}
	return out
}

// memUserRepo stores users by id with an email index.
type memUserRepo struct {
	mu    sync.Mutex
	store map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// memTokenRepo stores refresh tokens.
type memTokenRepo struct {
	mu    sync.Mutex
	store map[string]*model.RefreshToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{store: make(map[string]*model.RefreshToken)}
}

func (m *memTokenRepo) Save(ctx context.Context, tx repository.Tx, t *model.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *memTokenRepo) FindLatestActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.RefreshToken
	for _, t := range m.store {
		if t.UserID != userID || t.RevokedAt != nil {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memTokenRepo) Revoke(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (m *memTokenRepo) RevokeAllForUser(ctx context.Context, tx repository.Tx, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.store {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

// txParticipant lets the mock transaction manager roll a repo back.
type txParticipant interface {
	snapshot() func()
}

func (m *memPaymentRepo) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]*model.Payment, len(m.store))
	for k, v := range m.store {
		cp := *v
		saved[k] = &cp
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.store = saved
	}
}

func (m *memSubRepo) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]*model.Subscription, len(m.store))
	for k, v := range m.store {
		cp := *v
		saved[k] = &cp
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.store = saved
	}
}

// mockTxManager serializes transactions with a mutex, mirroring the mutual
// exclusion the row lock provides in Postgres, and restores participant
// snapshots when fn fails so rollback semantics hold.
type mockTxManager struct {
	mu           sync.Mutex
	beginErr     error
	participants []txParticipant
}

func newMockTxManager(participants ...txParticipant) *mockTxManager {
	return &mockTxManager{participants: participants}
}

type fakeTx struct{}

func (m *mockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.beginErr != nil {
		return m.beginErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	restores := make([]func(), 0, len(m.participants))
	for _, p := range m.participants {
		restores = append(restores, p.snapshot())
	}
	if err := fn(ctx, fakeTx{}); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// MockPaymentGateway lets tests script the provider.
type MockPaymentGateway struct {
	mu                sync.Mutex
	CreatePaymentFunc func(ctx context.Context, params adapter.CreatePaymentParams) (*adapter.ProviderPayment, error)
	GetPaymentFunc    func(ctx context.Context, providerPaymentID string) (*adapter.ProviderPayment, error)
	createCalls       []adapter.CreatePaymentParams
}

func (g *MockPaymentGateway) Name() string { return "yookassa" }

func (g *MockPaymentGateway) CreatePayment(ctx context.Context, params adapter.CreatePaymentParams) (*adapter.ProviderPayment, error) {
	g.mu.Lock()
	g.createCalls = append(g.createCalls, params)
	g.mu.Unlock()
	if g.CreatePaymentFunc != nil {
		return g.CreatePaymentFunc(ctx, params)
	}
	return &adapter.ProviderPayment{
		ID:              "prov-" + params.IdempotenceKey,
		Status:          model.ProviderStatusPending,
		ConfirmationURL: "https://provider.example/confirm/" + params.IdempotenceKey,
		Raw:             json.RawMessage(`{"status":"pending"}`),
	}, nil
}

func (g *MockPaymentGateway) GetPayment(ctx context.Context, providerPaymentID string) (*adapter.ProviderPayment, error) {
	if g.GetPaymentFunc != nil {
		return g.GetPaymentFunc(ctx, providerPaymentID)
	}
	return &adapter.ProviderPayment{ID: providerPaymentID, Status: model.ProviderStatusPending}, nil
}

// MockNotifier records best-effort notifications.
type MockNotifier struct {
	mu        sync.Mutex
	failWith  error
	welcome   []string
	created   []string
	succeeded []string
	canceled  []string
}

func (n *MockNotifier) Welcome(ctx context.Context, email string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcome = append(n.welcome, email)
	return n.failWith
}

func (n *MockNotifier) PaymentCreated(ctx context.Context, email, confirmationURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, email)
	return n.failWith
}

func (n *MockNotifier) PaymentSucceeded(ctx context.Context, email string, accessUntil time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.succeeded = append(n.succeeded, email)
	return n.failWith
}

func (n *MockNotifier) PaymentCanceled(ctx context.Context, email string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.canceled = append(n.canceled, email)
	return n.failWith
}

func (n *MockNotifier) succeededCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.succeeded)
}

func (n *MockNotifier) canceledCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.canceled)
}
