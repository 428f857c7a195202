package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/transactor/internal/domain"
)

// AccountGateway is the typed client to the remote account service.
// Implementations own the retry/fallback policy for transient failures
// and must report failure with the tagged domain errors: callers
// distinguish ErrAccountNotFound from ErrVersionConflict from
// ErrServiceUnavailable.
type AccountGateway interface {
	// Fetch returns the current snapshot of an account.
	Fetch(ctx context.Context, accountID string) (*domain.Account, error)
	// ApplyDelta conditionally applies a signed balance delta. The remote
	// store commits only if the account's version still equals
	// expectedVersion, atomically incrementing version and balance
	// together; otherwise ErrVersionConflict is returned.
	ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal, expectedVersion int64) (*domain.Account, error)
	// NumberExists reports whether an account number is already taken.
	NumberExists(ctx context.Context, accountNumber string) (bool, error)
	// CreateAccount opens a new account at the account service.
	CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error)
}

// LedgerRepository is the append-only store of completed money movements.
type LedgerRepository interface {
	Create(ctx context.Context, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByReference(ctx context.Context, referenceNumber string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	ListBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]*domain.Transaction, error)
}

// NotificationPort delivers best-effort customer notifications. Errors
// are for the caller to log; they never roll back a transaction.
type NotificationPort interface {
	Notify(ctx context.Context, notification domain.Notification) error
}

// EventPublisher publishes completed-transaction events to an external
// stream. Best effort; failures never affect the committed transaction.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.TransactionCompletedEvent) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage for the HTTP layer.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
