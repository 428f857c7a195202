package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies a bank account.
type AccountType string

// Account types mirrored from the account service.
const (
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeCurrent  AccountType = "CURRENT"
	AccountTypeChecking AccountType = "CHECKING"
)

// Account is a snapshot of an account owned by the remote account service.
// Version is the optimistic-concurrency counter checked by conditional
// balance updates; a snapshot is only valid for a write at that version.
type Account struct {
	ID            string
	CustomerID    string
	AccountNumber string
	AccountType   AccountType
	Balance       decimal.Decimal
	Active        bool
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ValidateDelta checks whether a signed balance delta may be applied to
// this snapshot. Inactive accounts reject all mutation; negative deltas
// must not take the balance below zero.
func (a *Account) ValidateDelta(delta decimal.Decimal) error {
	if !a.Active {
		return ErrAccountInactive
	}

	if delta.IsNegative() && a.Balance.Add(delta).IsNegative() {
		return ErrInsufficientBalance
	}

	return nil
}

// ApplyDelta returns the balance after applying delta.
func (a *Account) ApplyDelta(delta decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(delta)
}
