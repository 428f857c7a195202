package usecase

import "time"

const (
	// DefaultMutateAttempts bounds the optimistic retry loop on version
	// conflicts before failing with ErrConcurrencyExhausted.
	DefaultMutateAttempts = 3

	// DefaultAllocatorAttempts bounds account-number generation retries
	// on collision before failing with ErrAllocationExhausted.
	DefaultAllocatorAttempts = 10

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
