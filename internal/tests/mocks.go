package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"payhub/internal/domain"
	"payhub/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK PAYMENT INTENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentIntentRepository is a mock implementation of PaymentIntentRepository.
type MockPaymentIntentRepository struct {
	mu      sync.RWMutex
	intents map[string]*domain.PaymentIntent

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error

	// UpdateStatusErrorFor fails UpdateStatus only for the given intent ID.
	UpdateStatusErrorFor map[string]error
}

// NewMockPaymentIntentRepository creates a new mock payment intent repository.
func NewMockPaymentIntentRepository() *MockPaymentIntentRepository {
	return &MockPaymentIntentRepository{
		intents:              make(map[string]*domain.PaymentIntent),
		UpdateStatusErrorFor: make(map[string]error),
	}
}

// AddIntent adds a payment intent to the mock repository.
func (m *MockPaymentIntentRepository) AddIntent(intent *domain.PaymentIntent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[intent.ID] = intent
}

func (m *MockPaymentIntentRepository) Create(ctx context.Context, intent *domain.PaymentIntent) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[intent.ID] = intent
	return nil
}

func (m *MockPaymentIntentRepository) GetByID(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	intent, ok := m.intents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *intent
	return &copy, nil
}

func (m *MockPaymentIntentRepository) UpdateStatus(ctx context.Context, id string, from, to domain.PaymentIntentStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.UpdateStatusErrorFor[id]; ok {
		return err
	}
	intent, ok := m.intents[id]
	if !ok || intent.Status != from {
		return repository.ErrStaleEntity
	}
	intent.Status = to
	return nil
}

func (m *MockPaymentIntentRepository) ListExpiredPending(ctx context.Context, now time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for _, intent := range m.intents {
		if intent.Status == domain.PaymentIntentStatusPending && !intent.ExpiresAt.After(now) {
			ids = append(ids, intent.ID)
		}
	}
	return ids, nil
}

// GetIntent returns an intent for test assertions.
func (m *MockPaymentIntentRepository) GetIntent(id string) *domain.PaymentIntent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.intents[id]
}

// ──────────────────────────────────────────────
// MOCK TRANSACTION REPOSITORY
// ──────────────────────────────────────────────

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu  sync.RWMutex
	txs map[string]*domain.Transaction

	CreateCallCount int32
	CreateError     error
}

// NewMockTransactionRepository creates a new mock transaction repository.
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		txs: make(map[string]*domain.Transaction),
	}
}

// AddTransaction adds a transaction to the mock repository.
func (m *MockTransactionRepository) AddTransaction(tx *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[tx.ID] = tx
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[tx.ID] = tx
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.txs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *tx
	return &copy, nil
}

func (m *MockTransactionRepository) ListByPaymentIntent(ctx context.Context, paymentIntentID string) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Transaction
	for _, tx := range m.txs {
		if tx.PaymentIntentID == paymentIntentID {
			copy := *tx
			result = append(result, &copy)
		}
	}
	return result, nil
}

// GetTransaction returns a transaction for test assertions.
func (m *MockTransactionRepository) GetTransaction(id string) *domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.txs[id]
}

// CountTransactions returns the number of stored transactions.
func (m *MockTransactionRepository) CountTransactions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txs)
}

// FindRefundTransaction returns the refund ledger entry whose parent is
// the given transaction, or nil.
func (m *MockTransactionRepository) FindRefundTransaction(parentID string) *domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, tx := range m.txs {
		if tx.ParentTransactionID == parentID {
			return tx
		}
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK REFUND REPOSITORY
// ──────────────────────────────────────────────

// MockRefundRepository is a mock implementation of RefundRepository.
// SumApprovedAmount resolves each refund's payment intent through the
// shared transaction repository, mirroring the SQL join.
type MockRefundRepository struct {
	mu      sync.RWMutex
	refunds map[string]*domain.Refund
	txs     *MockTransactionRepository

	CreateCallCount       int32
	MarkApprovedCallCount int32
	SumCallCount          int32

	CreateError       error
	MarkApprovedError error
	MarkRejectedError error
	SumError          error
}

// NewMockRefundRepository creates a new mock refund repository.
func NewMockRefundRepository(txs *MockTransactionRepository) *MockRefundRepository {
	return &MockRefundRepository{
		refunds: make(map[string]*domain.Refund),
		txs:     txs,
	}
}

// AddRefund adds a refund to the mock repository.
func (m *MockRefundRepository) AddRefund(refund *domain.Refund) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds[refund.ID] = refund
}

func (m *MockRefundRepository) Create(ctx context.Context, refund *domain.Refund) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds[refund.ID] = refund
	return nil
}

func (m *MockRefundRepository) GetByID(ctx context.Context, id string) (*domain.Refund, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	refund, ok := m.refunds[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *refund
	return &copy, nil
}

func (m *MockRefundRepository) MarkApproved(ctx context.Context, id, adminID string, at time.Time) error {
	atomic.AddInt32(&m.MarkApprovedCallCount, 1)
	if m.MarkApprovedError != nil {
		return m.MarkApprovedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	refund, ok := m.refunds[id]
	if !ok || refund.Status != domain.RefundStatusPending {
		return repository.ErrStaleEntity
	}
	refund.Status = domain.RefundStatusApproved
	refund.ResolvedBy = adminID
	refund.ApprovedAt = &at
	return nil
}

func (m *MockRefundRepository) MarkRejected(ctx context.Context, id, reason, adminID string, at time.Time) error {
	if m.MarkRejectedError != nil {
		return m.MarkRejectedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	refund, ok := m.refunds[id]
	if !ok || refund.Status != domain.RefundStatusPending {
		return repository.ErrStaleEntity
	}
	refund.Status = domain.RefundStatusRejected
	refund.RejectedReason = reason
	refund.ResolvedBy = adminID
	refund.RejectedAt = &at
	return nil
}

func (m *MockRefundRepository) SumApprovedAmount(ctx context.Context, paymentIntentID string) (decimal.Decimal, error) {
	atomic.AddInt32(&m.SumCallCount, 1)
	if m.SumError != nil {
		return decimal.Zero, m.SumError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, refund := range m.refunds {
		if refund.Status != domain.RefundStatusApproved {
			continue
		}
		tx := m.txs.GetTransaction(refund.TransactionID)
		if tx != nil && tx.PaymentIntentID == paymentIntentID {
			sum = sum.Add(refund.Amount)
		}
	}
	return sum, nil
}

// GetRefund returns a refund for test assertions.
func (m *MockRefundRepository) GetRefund(id string) *domain.Refund {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refunds[id]
}

// ──────────────────────────────────────────────
// MOCK MERCHANT REPOSITORY
// ──────────────────────────────────────────────

// MockMerchantRepository is a mock implementation of MerchantRepository.
type MockMerchantRepository struct {
	mu        sync.RWMutex
	merchants map[string]*domain.Merchant
}

// NewMockMerchantRepository creates a new mock merchant repository.
func NewMockMerchantRepository() *MockMerchantRepository {
	return &MockMerchantRepository{
		merchants: make(map[string]*domain.Merchant),
	}
}

// AddMerchant adds a merchant to the mock repository.
func (m *MockMerchantRepository) AddMerchant(merchant *domain.Merchant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merchants[merchant.ID] = merchant
}

func (m *MockMerchantRepository) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	merchant, ok := m.merchants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *merchant
	return &copy, nil
}

func (m *MockMerchantRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, merchant := range m.merchants {
		if merchant.APIKey == apiKey {
			copy := *merchant
			return &copy, nil
		}
	}
	return nil, nil
}

// ──────────────────────────────────────────────
// MOCK UNIT OF WORK
// ──────────────────────────────────────────────

// MockUnitOfWork runs the transactional function directly against the
// shared mocks. It provides no rollback; tests that inject write errors
// assert on the surfaced error, not on partial-state cleanup.
type MockUnitOfWork struct {
	Intents     *MockPaymentIntentRepository
	Txs         *MockTransactionRepository
	RefundsRepo *MockRefundRepository

	WithinTxCallCount int32
	BeginError        error
}

// NewMockUnitOfWork creates a new mock unit of work over shared mocks.
func NewMockUnitOfWork(intents *MockPaymentIntentRepository, txs *MockTransactionRepository, refunds *MockRefundRepository) *MockUnitOfWork {
	return &MockUnitOfWork{Intents: intents, Txs: txs, RefundsRepo: refunds}
}

func (m *MockUnitOfWork) WithinTx(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	atomic.AddInt32(&m.WithinTxCallCount, 1)
	if m.BeginError != nil {
		return m.BeginError
	}
	return fn(m)
}

func (m *MockUnitOfWork) PaymentIntents() repository.PaymentIntentRepository { return m.Intents }
func (m *MockUnitOfWork) Transactions() repository.TransactionRepository    { return m.Txs }
func (m *MockUnitOfWork) Refunds() repository.RefundRepository              { return m.RefundsRepo }

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-process implementation of the lock store with
// real mutual exclusion, so concurrency tests exercise the same
// acquire/release discipline as the Redis-backed store.
type MockLockStore struct {
	mu    sync.Mutex
	held  map[string]bool
	fails int32

	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{held: make(map[string]bool)}
}

func (m *MockLockStore) AcquireIntentLock(ctx context.Context, paymentIntentID string, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[paymentIntentID] {
		atomic.AddInt32(&m.fails, 1)
		return false, nil
	}
	m.held[paymentIntentID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseIntentLock(ctx context.Context, paymentIntentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, paymentIntentID)
	return nil
}

// ContendedCount returns how many acquire attempts found the lock held.
func (m *MockLockStore) ContendedCount() int32 {
	return atomic.LoadInt32(&m.fails)
}

// ──────────────────────────────────────────────
// MOCK EVENT PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher captures published events for assertions.
type MockPublisher struct {
	mu     sync.Mutex
	events []domain.Event

	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, event domain.Event) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a snapshot of the captured events.
func (m *MockPublisher) Events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Event(nil), m.events...)
}

// LastEvent returns the most recently captured event, or nil.
func (m *MockPublisher) LastEvent() *domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return nil
	}
	event := m.events[len(m.events)-1]
	return &event
}
