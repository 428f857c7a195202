package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Account errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountInactive     = errors.New("account is inactive")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Transaction errors
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrSameAccount           = errors.New("cannot transfer to same account")
	ErrMissingAccountID      = errors.New("account id is required")
	ErrMissingCustomerID     = errors.New("customer id is required")
	ErrMissingRelatedAccount = errors.New("transfer requires a related account")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrInvalidDateRange      = errors.New("invalid date range")
	ErrDuplicateReference    = errors.New("reference number already recorded")

	// Remote/concurrency errors
	ErrVersionConflict       = errors.New("account version conflict")
	ErrConcurrencyExhausted  = errors.New("too many concurrent balance updates, retry later")
	ErrServiceUnavailable    = errors.New("remote service unavailable")
	ErrAllocationExhausted   = errors.New("account number allocation attempts exhausted")
	ErrNotificationQueueFull = errors.New("notification queue full")
)

// ConsistencyError reports a transfer that was debited but could be
// neither credited nor compensated. It is not safe to blindly retry;
// the referenced accounts need manual reconciliation.
type ConsistencyError struct {
	SenderID        string
	ReceiverID      string
	Amount          decimal.Decimal
	CreditErr       error
	CompensationErr error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf(
		"transfer of %s from account %s to account %s requires manual reconciliation: credit failed (%v), compensation failed (%v)",
		e.Amount, e.SenderID, e.ReceiverID, e.CreditErr, e.CompensationErr,
	)
}

func (e *ConsistencyError) Unwrap() error {
	return e.CompensationErr
}
