// Package mocks provides hand-rolled fakes for the usecase ports.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/transactor/internal/domain"
)

// MockAccountGateway is a mock implementation of AccountGateway backed by
// an in-memory account map. Each *Func field overrides one method.
type MockAccountGateway struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account

	FetchFunc         func(ctx context.Context, accountID string) (*domain.Account, error)
	ApplyDeltaFunc    func(ctx context.Context, accountID string, delta decimal.Decimal, expectedVersion int64) (*domain.Account, error)
	NumberExistsFunc  func(ctx context.Context, accountNumber string) (bool, error)
	CreateAccountFunc func(ctx context.Context, account *domain.Account) (*domain.Account, error)
}

func NewMockAccountGateway() *MockAccountGateway {
	return &MockAccountGateway{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed stores a copy of the account in the in-memory map.
func (m *MockAccountGateway) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *account
	m.accounts[account.ID] = &cp
}

// Snapshot returns a copy of the stored account, or nil.
func (m *MockAccountGateway) Snapshot(accountID string) *domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[accountID]; ok {
		cp := *acc
		return &cp
	}
	return nil
}

func (m *MockAccountGateway) Fetch(ctx context.Context, accountID string) (*domain.Account, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, accountID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[accountID]; ok {
		cp := *acc
		return &cp, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountGateway) ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal, expectedVersion int64) (*domain.Account, error) {
	if m.ApplyDeltaFunc != nil {
		return m.ApplyDeltaFunc(ctx, accountID, delta, expectedVersion)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[accountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if acc.Version != expectedVersion {
		return nil, domain.ErrVersionConflict
	}
	acc.Balance = acc.Balance.Add(delta)
	acc.Version++
	cp := *acc
	return &cp, nil
}

func (m *MockAccountGateway) NumberExists(ctx context.Context, accountNumber string) (bool, error) {
	if m.NumberExistsFunc != nil {
		return m.NumberExistsFunc(ctx, accountNumber)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if acc.AccountNumber == accountNumber {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockAccountGateway) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *account
	if cp.ID == "" {
		cp.ID = "acc-" + cp.AccountNumber
	}
	m.accounts[cp.ID] = &cp
	out := cp
	return &out, nil
}

// MockLedgerRepository is an in-memory mock of LedgerRepository.
type MockLedgerRepository struct {
	mu           sync.Mutex
	transactions map[string]*domain.Transaction
	byReference  map[string]*domain.Transaction

	CreateFunc         func(ctx context.Context, txn *domain.Transaction) error
	GetByIDFunc        func(ctx context.Context, id string) (*domain.Transaction, error)
	GetByReferenceFunc func(ctx context.Context, ref string) (*domain.Transaction, error)
	ListByAccountFunc  func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	ListBetweenFunc    func(ctx context.Context, from, to time.Time, limit, offset int) ([]*domain.Transaction, error)
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{
		transactions: make(map[string]*domain.Transaction),
		byReference:  make(map[string]*domain.Transaction),
	}
}

// All returns every stored transaction.
func (m *MockLedgerRepository) All() []*domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Transaction
	for _, txn := range m.transactions {
		out = append(out, txn)
	}
	return out
}

func (m *MockLedgerRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn.ReferenceNumber != "" {
		if _, ok := m.byReference[txn.ReferenceNumber]; ok {
			return domain.ErrDuplicateReference
		}
		m.byReference[txn.ReferenceNumber] = txn
	}
	m.transactions[txn.ID] = txn
	return nil
}

func (m *MockLedgerRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn, ok := m.transactions[id]; ok {
		return txn, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockLedgerRepository) GetByReference(ctx context.Context, ref string) (*domain.Transaction, error) {
	if m.GetByReferenceFunc != nil {
		return m.GetByReferenceFunc(ctx, ref)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn, ok := m.byReference[ref]; ok {
		return txn, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockLedgerRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Transaction
	for _, txn := range m.transactions {
		if txn.AccountID == accountID || (txn.RelatedAccountID != nil && *txn.RelatedAccountID == accountID) {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (m *MockLedgerRepository) ListBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListBetweenFunc != nil {
		return m.ListBetweenFunc(ctx, from, to, limit, offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Transaction
	for _, txn := range m.transactions {
		if !txn.TransactionDate.Before(from) && !txn.TransactionDate.After(to) {
			out = append(out, txn)
		}
	}
	return out, nil
}

// MockNotificationPort records notifications.
type MockNotificationPort struct {
	mu            sync.Mutex
	notifications []domain.Notification

	NotifyFunc func(ctx context.Context, notification domain.Notification) error
}

func NewMockNotificationPort() *MockNotificationPort {
	return &MockNotificationPort{}
}

func (m *MockNotificationPort) Notify(ctx context.Context, notification domain.Notification) error {
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, notification)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, notification)
	return nil
}

// Sent returns all recorded notifications.
func (m *MockNotificationPort) Sent() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

// MockEventPublisher records published events.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []domain.TransactionCompletedEvent

	PublishFunc func(ctx context.Context, event domain.TransactionCompletedEvent) error
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.TransactionCompletedEvent) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Published returns all recorded events.
func (m *MockEventPublisher) Published() []domain.TransactionCompletedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TransactionCompletedEvent, len(m.events))
	copy(out, m.events)
	return out
}

// MockIDGenerator returns sequential IDs with a fixed prefix.
type MockIDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator(prefix string) *MockIDGenerator {
	return &MockIDGenerator{prefix: prefix}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return m.prefix + "-" + itoa(m.counter)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
