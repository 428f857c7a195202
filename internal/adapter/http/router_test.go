package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/corebank/transactor/internal/adapter/http/handler"
	apimiddleware "github.com/corebank/transactor/internal/adapter/http/middleware"
	"github.com/corebank/transactor/internal/domain"
	"github.com/corebank/transactor/internal/usecase"
	"github.com/corebank/transactor/internal/usecase/mocks"
)

type routerFixture struct {
	gateway *mocks.MockAccountGateway
	ledger  *mocks.MockLedgerRepository
	router  http.Handler
}

func newRouterFixture(opts ...func(*RouterConfig)) *routerFixture {
	gateway := mocks.NewMockAccountGateway()
	ledger := mocks.NewMockLedgerRepository()
	notifier := mocks.NewMockNotificationPort()
	events := mocks.NewMockEventPublisher()
	logger := zerolog.Nop()

	mutator := usecase.NewBalanceMutatorWithConfig(gateway, usecase.BalanceMutatorConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}, logger)

	transactionUC := usecase.NewTransactionUseCase(mutator, ledger, notifier, events,
		mocks.NewMockIDGenerator("txn"), mocks.NewMockIDGenerator("ref"), logger)
	transferUC := usecase.NewTransferUseCase(gateway, mutator, ledger, notifier, events,
		mocks.NewMockIDGenerator("txn"), mocks.NewMockIDGenerator("ref"), logger)
	allocatorUC := usecase.NewAllocatorUseCase(gateway, 10, logger)
	accountUC := usecase.NewAccountUseCase(gateway, allocatorUC, notifier, logger)

	cfg := RouterConfig{
		TransactionHandler: handler.NewTransactionHandler(transactionUC, transferUC),
		AccountHandler:     handler.NewAccountHandler(accountUC),
		HealthHandler:      handler.NewHealthHandler(nil, nil),
		Logger:             logger,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &routerFixture{
		gateway: gateway,
		ledger:  ledger,
		router:  NewRouter(cfg),
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		json.Unmarshal(rec.Body.Bytes(), &env)
	}

	return rec, env
}

func TestRouter_HealthEndpoint(t *testing.T) {
	f := newRouterFixture()

	rec, _ := doJSON(t, f.router, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_Deposit(t *testing.T) {
	f := newRouterFixture()
	f.gateway.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(100), Active: true, Version: 1})

	rec, env := doJSON(t, f.router, http.MethodPost, "/api/v1/transactions/deposit",
		`{"account_id":"acc-1","amount":"50"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !env.Success {
		t.Error("expected success envelope")
	}

	var data struct {
		BalanceAfter decimal.Decimal `json:"balance_after"`
		Type         string          `json:"type"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("invalid data payload: %v", err)
	}
	if !data.BalanceAfter.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected balance_after 150, got %s", data.BalanceAfter)
	}
	if data.Type != "DEPOSIT" {
		t.Errorf("expected DEPOSIT, got %s", data.Type)
	}
}

func TestRouter_WithdrawErrors(t *testing.T) {
	f := newRouterFixture()
	f.gateway.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(20), Active: true, Version: 1})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"insufficient balance", `{"account_id":"acc-1","amount":"50"}`, http.StatusConflict},
		{"unknown account", `{"account_id":"missing","amount":"50"}`, http.StatusNotFound},
		{"zero amount", `{"account_id":"acc-1","amount":"0"}`, http.StatusBadRequest},
		{"malformed body", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doJSON(t, f.router, http.MethodPost, "/api/v1/transactions/withdraw", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if env.Success {
				t.Error("expected failure envelope")
			}
		})
	}
}

func TestRouter_Transfer(t *testing.T) {
	f := newRouterFixture()
	f.gateway.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(100), Active: true, Version: 1})
	f.gateway.Seed(&domain.Account{ID: "acc-2", Balance: decimal.NewFromInt(50), Active: true, Version: 1})

	rec, _ := doJSON(t, f.router, http.MethodPost, "/api/v1/transactions/transfer",
		`{"from_account_id":"acc-1","to_account_id":"acc-2","amount":"30"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if got := f.gateway.Snapshot("acc-1").Balance; !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("expected sender balance 70, got %s", got)
	}
	if got := f.gateway.Snapshot("acc-2").Balance; !got.Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected receiver balance 80, got %s", got)
	}

	t.Run("same account rejected", func(t *testing.T) {
		rec, _ := doJSON(t, f.router, http.MethodPost, "/api/v1/transactions/transfer",
			`{"from_account_id":"acc-1","to_account_id":"acc-1","amount":"30"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestRouter_ReplayedMovementReturns200(t *testing.T) {
	f := newRouterFixture()
	f.gateway.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(100), Active: true, Version: 1})

	body := `{"account_id":"acc-1","amount":"50","reference_number":"ref-http-1"}`

	rec, _ := doJSON(t, f.router, http.MethodPost, "/api/v1/transactions/deposit", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for first submission, got %d", rec.Code)
	}

	rec, env := doJSON(t, f.router, http.MethodPost, "/api/v1/transactions/deposit", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for replay, got %d", rec.Code)
	}

	var data struct {
		Replayed bool `json:"replayed"`
	}
	json.Unmarshal(env.Data, &data)
	if !data.Replayed {
		t.Error("expected replayed flag in response")
	}
}

func TestRouter_GetTransaction(t *testing.T) {
	f := newRouterFixture()
	f.ledger.Create(context.Background(), &domain.Transaction{
		ID:              "txn-1",
		AccountID:       "acc-1",
		Amount:          decimal.NewFromInt(10),
		Type:            domain.TransactionTypeDeposit,
		Status:          domain.TransactionStatusSuccess,
		ReferenceNumber: "ref-1",
		TransactionDate: time.Now().UTC(),
	})

	rec, _ := doJSON(t, f.router, http.MethodGet, "/api/v1/transactions/txn-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec, _ = doJSON(t, f.router, http.MethodGet, "/api/v1/transactions/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRouter_OpenAccount(t *testing.T) {
	f := newRouterFixture()

	rec, env := doJSON(t, f.router, http.MethodPost, "/api/v1/accounts",
		`{"customer_id":"cust-1","account_type":"SAVINGS","balance":"500"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var data struct {
		AccountNumber string `json:"account_number"`
		Active        bool   `json:"active"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("invalid data payload: %v", err)
	}
	if err := domain.ValidateAccountNumber(data.AccountNumber); err != nil {
		t.Errorf("expected allocated account number, got %q", data.AccountNumber)
	}
	if !data.Active {
		t.Error("expected active account")
	}
}

func TestRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	f := newRouterFixture(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	})
	f.gateway.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(100), Active: true, Version: 1})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/deposit",
		strings.NewReader(`{"account_id":"acc-1","amount":"50"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	f.router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatal("expected idempotency store to be consulted")
	}
}

func TestRouter_RegistersKeyRoutes(t *testing.T) {
	f := newRouterFixture()

	chiRoutes, ok := f.router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Router")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"POST /api/v1/transactions/deposit",
		"POST /api/v1/transactions/withdraw",
		"POST /api/v1/transactions/transfer",
		"GET /api/v1/transactions/{id}",
		"POST /api/v1/accounts/",
		"GET /api/v1/accounts/{id}/transactions",
		"GET /health",
		"GET /ready",
	}
	for _, route := range expected {
		if !seen[route] {
			t.Errorf("expected route %q to be registered", route)
		}
	}
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}
