package domain

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrAmountTooLarge         = fmt.Errorf("%w: amount exceeds maximum allowed", ErrInvalidAmount)
	ErrInvalidAccountNumber   = fmt.Errorf("account number must be <year><8 digits>")
	ErrReferenceNumberTooLong = fmt.Errorf("reference number exceeds maximum length")
)

// Validation constants
const (
	MaxTransactionAmount     = "1000000000000" // 1 trillion
	MaxReferenceNumberLength = 100
)

var accountNumberPattern = regexp.MustCompile(`^\d{4}\d{8}$`)

// ValidateAmount validates a deposit/withdraw/transfer amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxTransactionAmount)
	if amount.GreaterThan(maxAmount) {
		return ErrAmountTooLarge
	}

	return nil
}

// ValidateAccountNumber validates the <year><8 random digits> format
// produced by the allocator.
func ValidateAccountNumber(number string) error {
	if !accountNumberPattern.MatchString(number) {
		return ErrInvalidAccountNumber
	}

	return nil
}

// ValidateReferenceNumber validates a caller-supplied idempotency token.
func ValidateReferenceNumber(ref string) error {
	if len(ref) > MaxReferenceNumberLength {
		return ErrReferenceNumberTooLong
	}

	return nil
}

// ValidatePagination clamps pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
