// Package memory provides an in-memory ledger store for local development
// and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/corebank/transactor/internal/domain"
)

// LedgerRepository implements usecase.LedgerRepository with in-process maps.
type LedgerRepository struct {
	mu          sync.RWMutex
	byID        map[string]*domain.Transaction
	byReference map[string]*domain.Transaction
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		byID:        make(map[string]*domain.Transaction),
		byReference: make(map[string]*domain.Transaction),
	}
}

func (r *LedgerRepository) Create(_ context.Context, txn *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byReference[txn.ReferenceNumber]; exists {
		return domain.ErrDuplicateReference
	}

	stored := *txn
	r.byID[stored.ID] = &stored
	r.byReference[stored.ReferenceNumber] = &stored

	return nil
}

func (r *LedgerRepository) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	txn, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	copied := *txn

	return &copied, nil
}

func (r *LedgerRepository) GetByReference(_ context.Context, referenceNumber string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	txn, ok := r.byReference[referenceNumber]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	copied := *txn

	return &copied, nil
}

func (r *LedgerRepository) ListByAccount(_ context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Transaction

	for _, txn := range r.byID {
		if txn.AccountID == accountID ||
			(txn.RelatedAccountID != nil && *txn.RelatedAccountID == accountID) {
			copied := *txn
			matched = append(matched, &copied)
		}
	}

	return paginate(matched, limit, offset), nil
}

func (r *LedgerRepository) ListBetween(_ context.Context, from, to time.Time, limit, offset int) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Transaction

	for _, txn := range r.byID {
		if !txn.TransactionDate.Before(from) && !txn.TransactionDate.After(to) {
			copied := *txn
			matched = append(matched, &copied)
		}
	}

	return paginate(matched, limit, offset), nil
}

func paginate(transactions []*domain.Transaction, limit, offset int) []*domain.Transaction {
	sort.Slice(transactions, func(i, j int) bool {
		return transactions[i].TransactionDate.After(transactions[j].TransactionDate)
	})

	if offset >= len(transactions) {
		return nil
	}

	transactions = transactions[offset:]
	if limit > 0 && limit < len(transactions) {
		transactions = transactions[:limit]
	}

	return transactions
}
