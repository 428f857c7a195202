package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies the kind of money movement.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
)

// TransactionStatus is the terminal status of a ledger row.
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "PENDING"
	TransactionStatusSuccess TransactionStatus = "SUCCESS"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

// DescriptionManualReconciliation marks a ledger row written when a
// transfer was debited but could be neither credited nor compensated.
// Rows carrying it require operator attention before the books balance.
const DescriptionManualReconciliation = "FAILED_TRANSFER_REQUIRES_MANUAL_RECONCILIATION"

// Transaction is an append-only record of a completed money movement.
// A row is written only after the balance mutation(s) it describes are
// confirmed, and is never updated afterwards. ReferenceNumber is the
// caller-supplied idempotency token that suppresses replays.
type Transaction struct {
	ID               string
	AccountID        string
	RelatedAccountID *string
	Amount           decimal.Decimal
	Type             TransactionType
	Status           TransactionStatus
	Description      string
	ReferenceNumber  string
	BalanceAfter     decimal.Decimal
	TransactionDate  time.Time
}

// Validate checks structural invariants of a ledger row before persisting.
func (t *Transaction) Validate() error {
	if t.AccountID == "" {
		return ErrMissingAccountID
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if t.Type == TransactionTypeTransfer && t.RelatedAccountID == nil {
		return ErrMissingRelatedAccount
	}

	return nil
}
