package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/corebank/transactor/internal/domain"
)

// BalanceMutator applies a signed delta to one remote account through the
// optimistic fetch/validate/conditional-write loop. A version conflict
// means a concurrent writer won the race; the loop re-fetches and retries
// with backoff up to a bounded number of attempts. This is what makes
// concurrent mutations of one account safe without a distributed lock:
// the account's true state lives in a separate service, so no in-process
// lock could prevent interleaving.
type BalanceMutator struct {
	gateway         AccountGateway
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	logger          zerolog.Logger
}

// BalanceMutatorConfig overrides retry policy. Zero values use defaults.
type BalanceMutatorConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// NewBalanceMutator creates a BalanceMutator with default retry policy.
func NewBalanceMutator(gateway AccountGateway, logger zerolog.Logger) *BalanceMutator {
	return NewBalanceMutatorWithConfig(gateway, BalanceMutatorConfig{}, logger)
}

// NewBalanceMutatorWithConfig creates a BalanceMutator with explicit policy.
func NewBalanceMutatorWithConfig(gateway AccountGateway, cfg BalanceMutatorConfig, logger zerolog.Logger) *BalanceMutator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMutateAttempts
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 25 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 500 * time.Millisecond
	}

	return &BalanceMutator{
		gateway:         gateway,
		maxAttempts:     cfg.MaxAttempts,
		initialInterval: cfg.InitialInterval,
		maxInterval:     cfg.MaxInterval,
		logger:          logger,
	}
}

// Mutate applies delta to the account and returns the post-mutation
// snapshot. The insufficient-balance check always runs against the
// snapshot whose version is used in the conditional write, so a stale
// read can never let a negative balance commit.
func (m *BalanceMutator) Mutate(ctx context.Context, accountID string, delta decimal.Decimal) (*domain.Account, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.initialInterval
	b.MaxInterval = m.maxInterval

	var updated *domain.Account

	attempts := 0

	err := backoff.Retry(func() error {
		attempts++

		account, err := m.gateway.Fetch(ctx, accountID)
		if err != nil {
			return backoff.Permanent(err)
		}

		if err := account.ValidateDelta(delta); err != nil {
			return backoff.Permanent(err)
		}

		result, err := m.gateway.ApplyDelta(ctx, accountID, delta, account.Version)
		if err == nil {
			updated = result
			return nil
		}

		if !errors.Is(err, domain.ErrVersionConflict) {
			return backoff.Permanent(err)
		}

		if attempts >= m.maxAttempts {
			return backoff.Permanent(domain.ErrConcurrencyExhausted)
		}

		m.logger.Warn().
			Str("account_id", accountID).
			Int64("expected_version", account.Version).
			Int("attempt", attempts).
			Msg("version conflict on balance update, retrying")

		return err
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return nil, err
	}

	return updated, nil
}
