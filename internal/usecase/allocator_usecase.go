package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/corebank/transactor/internal/domain"
)

// AllocatorUseCase generates externally-unique account numbers with the
// optimistic generate-and-verify pattern: build a candidate, check it
// against the account store, retry with a fresh suffix on collision.
// Collisions are astronomically unlikely but not impossible; the bound
// turns a theoretical infinite loop into an observable failure.
type AllocatorUseCase struct {
	gateway     AccountGateway
	maxAttempts int
	now         func() time.Time
	randDigits  func() int
	logger      zerolog.Logger
}

// NewAllocatorUseCase creates an AllocatorUseCase. maxAttempts <= 0 uses
// the default bound.
func NewAllocatorUseCase(gateway AccountGateway, maxAttempts int, logger zerolog.Logger) *AllocatorUseCase {
	if maxAttempts <= 0 {
		maxAttempts = DefaultAllocatorAttempts
	}

	return &AllocatorUseCase{
		gateway:     gateway,
		maxAttempts: maxAttempts,
		now:         time.Now,
		randDigits:  func() int { return rand.IntN(100000000) },
		logger:      logger,
	}
}

// Allocate returns an unused account number of the form <year><8 digits>.
func (uc *AllocatorUseCase) Allocate(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= uc.maxAttempts; attempt++ {
		candidate := fmt.Sprintf("%d%08d", uc.now().Year(), uc.randDigits())

		taken, err := uc.gateway.NumberExists(ctx, candidate)
		if err != nil {
			return "", err
		}

		if !taken {
			return candidate, nil
		}

		uc.logger.Warn().
			Str("candidate", candidate).
			Int("attempt", attempt).
			Msg("account number collision, retrying with fresh suffix")
	}

	return "", domain.ErrAllocationExhausted
}
