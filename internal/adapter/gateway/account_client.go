// Package gateway implements the typed HTTP client to the remote account
// service. It owns the retry/fallback policy: transient failures on reads
// are retried with backoff, every failure is reported as a tagged domain
// error, and nothing is ever silently returned as null or zero.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/corebank/transactor/internal/domain"
	"github.com/corebank/transactor/internal/infrastructure/metrics"
)

// AccountClient talks to the account service over HTTP+JSON.
type AccountClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	logger     zerolog.Logger
}

// Config holds AccountClient settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// NewAccountClient creates a new AccountClient.
func NewAccountClient(cfg Config, logger zerolog.Logger) *AccountClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}

	return &AccountClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
}

type accountPayload struct {
	ID            string             `json:"id"`
	CustomerID    string             `json:"customer_id"`
	AccountNumber string             `json:"account_number"`
	AccountType   domain.AccountType `json:"account_type"`
	Balance       decimal.Decimal    `json:"balance"`
	Active        bool               `json:"active"`
	Version       int64              `json:"version"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func (p *accountPayload) toDomain() *domain.Account {
	return &domain.Account{
		ID:            p.ID,
		CustomerID:    p.CustomerID,
		AccountNumber: p.AccountNumber,
		AccountType:   p.AccountType,
		Balance:       p.Balance,
		Active:        p.Active,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

type updateBalanceRequest struct {
	ExpectedVersion int64           `json:"expected_version"`
	Delta           decimal.Decimal `json:"delta"`
}

// Fetch returns the current snapshot of an account. Transient failures
// are retried; the read is idempotent.
func (c *AccountClient) Fetch(ctx context.Context, accountID string) (*domain.Account, error) {
	var account *domain.Account

	err := c.retryTransient(ctx, func() error {
		payload, status, err := c.get(ctx, "/api/v1/accounts/"+accountID)
		if err != nil {
			return err
		}

		switch status {
		case http.StatusOK:
			account = payload.toDomain()
			return nil
		case http.StatusNotFound:
			return backoff.Permanent(domain.ErrAccountNotFound)
		default:
			return fmt.Errorf("%w: account service returned status %d", domain.ErrServiceUnavailable, status)
		}
	})
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("fetch", "error").Inc()
		return nil, err
	}

	metrics.GatewayRequests.WithLabelValues("fetch", "ok").Inc()

	return account, nil
}

// ApplyDelta conditionally applies a signed balance delta. Never retried
// here: after an ambiguous network failure the write may have committed,
// and only the caller's version-conditioned loop can tell.
func (c *AccountClient) ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal, expectedVersion int64) (*domain.Account, error) {
	body, err := json.Marshal(updateBalanceRequest{ExpectedVersion: expectedVersion, Delta: delta})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/v1/accounts/"+accountID+"/balance", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("apply_delta", "error").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload accountPayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			metrics.GatewayRequests.WithLabelValues("apply_delta", "error").Inc()
			return nil, fmt.Errorf("%w: decoding account: %v", domain.ErrServiceUnavailable, err)
		}

		metrics.GatewayRequests.WithLabelValues("apply_delta", "ok").Inc()

		return payload.toDomain(), nil
	case http.StatusConflict:
		metrics.GatewayRequests.WithLabelValues("apply_delta", "conflict").Inc()
		return nil, domain.ErrVersionConflict
	case http.StatusNotFound:
		metrics.GatewayRequests.WithLabelValues("apply_delta", "not_found").Inc()
		return nil, domain.ErrAccountNotFound
	default:
		metrics.GatewayRequests.WithLabelValues("apply_delta", "error").Inc()
		return nil, fmt.Errorf("%w: account service returned status %d", domain.ErrServiceUnavailable, resp.StatusCode)
	}
}

// NumberExists reports whether an account number is already taken.
func (c *AccountClient) NumberExists(ctx context.Context, accountNumber string) (bool, error) {
	var exists bool

	err := c.retryTransient(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/accounts/number/"+accountNumber, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		switch resp.StatusCode {
		case http.StatusOK:
			exists = true
			return nil
		case http.StatusNotFound:
			exists = false
			return nil
		default:
			return fmt.Errorf("%w: account service returned status %d", domain.ErrServiceUnavailable, resp.StatusCode)
		}
	})
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("number_exists", "error").Inc()
		return false, err
	}

	metrics.GatewayRequests.WithLabelValues("number_exists", "ok").Inc()

	return exists, nil
}

// CreateAccount opens a new account at the account service.
func (c *AccountClient) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	body, err := json.Marshal(accountPayload{
		CustomerID:    account.CustomerID,
		AccountNumber: account.AccountNumber,
		AccountType:   account.AccountType,
		Balance:       account.Balance,
		Active:        account.Active,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/accounts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("create_account", "error").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		metrics.GatewayRequests.WithLabelValues("create_account", "error").Inc()
		return nil, fmt.Errorf("%w: account service returned status %d", domain.ErrServiceUnavailable, resp.StatusCode)
	}

	var payload accountPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.GatewayRequests.WithLabelValues("create_account", "error").Inc()
		return nil, fmt.Errorf("%w: decoding account: %v", domain.ErrServiceUnavailable, err)
	}

	metrics.GatewayRequests.WithLabelValues("create_account", "ok").Inc()

	return payload.toDomain(), nil
}

func (c *AccountClient) get(ctx context.Context, path string) (*accountPayload, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, backoff.Permanent(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	var payload accountPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: decoding account: %v", domain.ErrServiceUnavailable, err)
	}

	return &payload, resp.StatusCode, nil
}

func (c *AccountClient) retryTransient(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 1 * time.Second

	retries := 0

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return err
		}

		if !errors.Is(err, domain.ErrServiceUnavailable) {
			return backoff.Permanent(err)
		}

		retries++
		if retries > c.maxRetries {
			return backoff.Permanent(err)
		}

		c.logger.Warn().
			Err(err).
			Int("retry", retries).
			Msg("transient account service error, retrying")

		return err
	}, backoff.WithContext(b, ctx))
}
