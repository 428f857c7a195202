package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/corebank/transactor/internal/domain"
	"github.com/corebank/transactor/internal/usecase"
	"github.com/corebank/transactor/internal/usecase/mocks"
)

type movementFixture struct {
	gateway  *mocks.MockAccountGateway
	ledger   *mocks.MockLedgerRepository
	notifier *mocks.MockNotificationPort
	events   *mocks.MockEventPublisher
	uc       *usecase.TransactionUseCase
}

func newMovementFixture() *movementFixture {
	gateway := mocks.NewMockAccountGateway()
	ledger := mocks.NewMockLedgerRepository()
	notifier := mocks.NewMockNotificationPort()
	events := mocks.NewMockEventPublisher()

	mutator := newTestMutator(gateway, 3)
	uc := usecase.NewTransactionUseCase(
		mutator, ledger, notifier, events,
		mocks.NewMockIDGenerator("txn"),
		mocks.NewMockIDGenerator("ref"),
		zerolog.Nop(),
	)

	return &movementFixture{
		gateway:  gateway,
		ledger:   ledger,
		notifier: notifier,
		events:   events,
		uc:       uc,
	}
}

func TestTransactionUseCase_Deposit(t *testing.T) {
	f := newMovementFixture()
	f.gateway.Seed(&domain.Account{
		ID: "acc-1", CustomerID: "cust-1", AccountNumber: "202612345678",
		Balance: decimal.NewFromInt(100), Active: true, Version: 1,
	})

	result, err := f.uc.Deposit(context.Background(), usecase.MoneyMovementInput{
		AccountID: "acc-1",
		Amount:    decimal.NewFromInt(50),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Balance.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected balance 150, got %s", result.Balance)
	}
	if result.Replayed {
		t.Error("fresh deposit must not be marked replayed")
	}
	if result.Transaction.Type != domain.TransactionTypeDeposit {
		t.Errorf("expected DEPOSIT, got %s", result.Transaction.Type)
	}
	if result.Transaction.Status != domain.TransactionStatusSuccess {
		t.Errorf("expected SUCCESS, got %s", result.Transaction.Status)
	}
	if result.Transaction.ReferenceNumber == "" {
		t.Error("expected generated reference number")
	}

	if len(f.ledger.All()) != 1 {
		t.Errorf("expected 1 ledger row, got %d", len(f.ledger.All()))
	}
	if len(f.notifier.Sent()) != 1 {
		t.Errorf("expected 1 notification, got %d", len(f.notifier.Sent()))
	}
	if len(f.events.Published()) != 1 {
		t.Errorf("expected 1 event, got %d", len(f.events.Published()))
	}
}

func TestTransactionUseCase_Withdraw(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newMovementFixture()
		f.gateway.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(100), Active: true, Version: 1})

		result, err := f.uc.Withdraw(context.Background(), usecase.MoneyMovementInput{
			AccountID: "acc-1",
			Amount:    decimal.NewFromInt(30),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Balance.Equal(decimal.NewFromInt(70)) {
			t.Errorf("expected balance 70, got %s", result.Balance)
		}
	})

	t.Run("insufficient balance leaves no trace", func(t *testing.T) {
		f := newMovementFixture()
		f.gateway.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(20), Active: true, Version: 1})

		_, err := f.uc.Withdraw(context.Background(), usecase.MoneyMovementInput{
			AccountID: "acc-1",
			Amount:    decimal.NewFromInt(30),
		})
		if !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got %v", err)
		}

		if got := f.gateway.Snapshot("acc-1").Balance; !got.Equal(decimal.NewFromInt(20)) {
			t.Errorf("expected untouched balance 20, got %s", got)
		}
		if len(f.ledger.All()) != 0 {
			t.Errorf("expected no ledger rows, got %d", len(f.ledger.All()))
		}
		if len(f.notifier.Sent()) != 0 {
			t.Errorf("expected no notifications, got %d", len(f.notifier.Sent()))
		}
	})
}

func TestTransactionUseCase_Validation(t *testing.T) {
	f := newMovementFixture()

	tests := []struct {
		name    string
		input   usecase.MoneyMovementInput
		wantErr error
	}{
		{
			name:    "missing account",
			input:   usecase.MoneyMovementInput{Amount: decimal.NewFromInt(10)},
			wantErr: domain.ErrMissingAccountID,
		},
		{
			name:    "zero amount",
			input:   usecase.MoneyMovementInput{AccountID: "acc-1", Amount: decimal.Zero},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			input:   usecase.MoneyMovementInput{AccountID: "acc-1", Amount: decimal.NewFromInt(-10)},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Deposit(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTransactionUseCase_Replay(t *testing.T) {
	f := newMovementFixture()
	f.gateway.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(100), Active: true, Version: 1})

	input := usecase.MoneyMovementInput{
		AccountID:       "acc-1",
		Amount:          decimal.NewFromInt(50),
		ReferenceNumber: "ref-once",
	}

	first, err := f.uc.Deposit(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := f.uc.Deposit(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}

	if !second.Replayed {
		t.Error("expected replay to be flagged")
	}
	if second.Transaction.ID != first.Transaction.ID {
		t.Errorf("expected same transaction, got %s and %s", first.Transaction.ID, second.Transaction.ID)
	}
	if !second.Balance.Equal(first.Balance) {
		t.Errorf("expected replayed balance %s, got %s", first.Balance, second.Balance)
	}

	// the balance moved exactly once
	if got := f.gateway.Snapshot("acc-1").Balance; !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected balance 150 after replay, got %s", got)
	}
	if len(f.ledger.All()) != 1 {
		t.Errorf("expected 1 ledger row after replay, got %d", len(f.ledger.All()))
	}
}

func TestTransactionUseCase_DuplicateReferenceRace(t *testing.T) {
	// A concurrent submission commits the same reference between the
	// replay check and the ledger write; the recorded row wins.
	f := newMovementFixture()
	f.gateway.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(100), Active: true, Version: 1})

	recorded := &domain.Transaction{
		ID:              "txn-other",
		AccountID:       "acc-1",
		Amount:          decimal.NewFromInt(50),
		Type:            domain.TransactionTypeDeposit,
		Status:          domain.TransactionStatusSuccess,
		ReferenceNumber: "ref-race",
		BalanceAfter:    decimal.NewFromInt(150),
		TransactionDate: time.Now().UTC(),
	}

	misses := 1
	f.ledger.GetByReferenceFunc = func(ctx context.Context, ref string) (*domain.Transaction, error) {
		if misses > 0 {
			misses--
			return nil, domain.ErrTransactionNotFound
		}
		return recorded, nil
	}
	f.ledger.CreateFunc = func(ctx context.Context, txn *domain.Transaction) error {
		return domain.ErrDuplicateReference
	}

	result, err := f.uc.Deposit(context.Background(), usecase.MoneyMovementInput{
		AccountID:       "acc-1",
		Amount:          decimal.NewFromInt(50),
		ReferenceNumber: "ref-race",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Replayed {
		t.Error("expected race loser to return the recorded row as replayed")
	}
	if result.Transaction.ID != "txn-other" {
		t.Errorf("expected recorded transaction txn-other, got %s", result.Transaction.ID)
	}

	// The losing request must not leave its own delta applied: the
	// winner's row already accounts for the deposit.
	if got := f.gateway.Snapshot("acc-1").Balance; !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected loser's delta reversed, balance 100, got %s", got)
	}
}

func TestTransactionUseCase_DuplicateReferenceReversalFailure(t *testing.T) {
	f := newMovementFixture()
	f.gateway.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(100), Active: true, Version: 1})

	f.ledger.GetByReferenceFunc = func(ctx context.Context, ref string) (*domain.Transaction, error) {
		return nil, domain.ErrTransactionNotFound
	}
	f.ledger.CreateFunc = func(ctx context.Context, txn *domain.Transaction) error {
		return domain.ErrDuplicateReference
	}

	// First mutation (the deposit) succeeds, the reversal attempt fails.
	calls := 0
	f.gateway.ApplyDeltaFunc = func(ctx context.Context, accountID string, delta decimal.Decimal, expectedVersion int64) (*domain.Account, error) {
		calls++
		if calls == 1 {
			acc := f.gateway.Snapshot(accountID)
			acc.Balance = acc.Balance.Add(delta)
			acc.Version++
			f.gateway.Seed(acc)
			return acc, nil
		}
		return nil, domain.ErrServiceUnavailable
	}

	_, err := f.uc.Deposit(context.Background(), usecase.MoneyMovementInput{
		AccountID:       "acc-1",
		Amount:          decimal.NewFromInt(50),
		ReferenceNumber: "ref-race",
	})
	if err == nil {
		t.Fatal("expected error when reversal fails")
	}
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected reversal failure to surface, got %v", err)
	}
}

func TestTransactionUseCase_LedgerFailureSurfaces(t *testing.T) {
	f := newMovementFixture()
	f.gateway.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(100), Active: true, Version: 1})

	storeErr := errors.New("ledger unavailable")
	f.ledger.CreateFunc = func(ctx context.Context, txn *domain.Transaction) error {
		return storeErr
	}

	_, err := f.uc.Deposit(context.Background(), usecase.MoneyMovementInput{
		AccountID: "acc-1",
		Amount:    decimal.NewFromInt(50),
	})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected ledger error to surface, got %v", err)
	}
	if len(f.notifier.Sent()) != 0 {
		t.Error("expected no notification when the ledger write failed")
	}
}

func TestTransactionUseCase_Queries(t *testing.T) {
	f := newMovementFixture()
	f.gateway.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(1000), Active: true, Version: 1})

	for i := 0; i < 3; i++ {
		if _, err := f.uc.Deposit(context.Background(), usecase.MoneyMovementInput{
			AccountID: "acc-1",
			Amount:    decimal.NewFromInt(10),
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	t.Run("get by id", func(t *testing.T) {
		all := f.ledger.All()
		txn, err := f.uc.GetTransaction(context.Background(), all[0].ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if txn.ID != all[0].ID {
			t.Errorf("expected %s, got %s", all[0].ID, txn.ID)
		}
	})

	t.Run("get unknown id", func(t *testing.T) {
		_, err := f.uc.GetTransaction(context.Background(), "missing")
		if !errors.Is(err, domain.ErrTransactionNotFound) {
			t.Fatalf("expected ErrTransactionNotFound, got %v", err)
		}
	})

	t.Run("list by account", func(t *testing.T) {
		transactions, err := f.uc.ListTransactionsByAccount(context.Background(), usecase.ListByAccountInput{AccountID: "acc-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(transactions) != 3 {
			t.Errorf("expected 3 transactions, got %d", len(transactions))
		}
	})

	t.Run("list by account requires account", func(t *testing.T) {
		_, err := f.uc.ListTransactionsByAccount(context.Background(), usecase.ListByAccountInput{})
		if !errors.Is(err, domain.ErrMissingAccountID) {
			t.Fatalf("expected ErrMissingAccountID, got %v", err)
		}
	})

	t.Run("list between rejects inverted range", func(t *testing.T) {
		now := time.Now()
		_, err := f.uc.ListTransactionsBetween(context.Background(), usecase.ListBetweenInput{
			From: now,
			To:   now.Add(-time.Hour),
		})
		if !errors.Is(err, domain.ErrInvalidDateRange) {
			t.Fatalf("expected ErrInvalidDateRange, got %v", err)
		}
	})

	t.Run("list between", func(t *testing.T) {
		transactions, err := f.uc.ListTransactionsBetween(context.Background(), usecase.ListBetweenInput{
			From: time.Now().Add(-time.Hour),
			To:   time.Now().Add(time.Hour),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(transactions) != 3 {
			t.Errorf("expected 3 transactions, got %d", len(transactions))
		}
	})
}
