package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/corebank/transactor/internal/domain"
)

// TransactionUseCase handles the single-account entry points: deposit and
// withdraw, plus ledger queries. Both money operations are one mutator
// call, one ledger row, and best-effort notification.
type TransactionUseCase struct {
	mutator  *BalanceMutator
	ledger   LedgerRepository
	notifier NotificationPort
	events   EventPublisher
	idGen    IDGenerator
	refGen   IDGenerator
	logger   zerolog.Logger
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	mutator *BalanceMutator,
	ledger LedgerRepository,
	notifier NotificationPort,
	events EventPublisher,
	idGen IDGenerator,
	refGen IDGenerator,
	logger zerolog.Logger,
) *TransactionUseCase {
	return &TransactionUseCase{
		mutator:  mutator,
		ledger:   ledger,
		notifier: notifier,
		events:   events,
		idGen:    idGen,
		refGen:   refGen,
		logger:   logger,
	}
}

// MoneyMovementInput is the input for deposits and withdrawals.
type MoneyMovementInput struct {
	AccountID       string
	Amount          decimal.Decimal
	ReferenceNumber string
}

// TransactionResult is returned by all money operations. Balance is the
// post-operation balance of the primary account; Replayed marks a
// suppressed duplicate submission of the same reference number.
type TransactionResult struct {
	Transaction *domain.Transaction
	Balance     decimal.Decimal
	Replayed    bool
}

// Deposit credits an account.
func (uc *TransactionUseCase) Deposit(ctx context.Context, input MoneyMovementInput) (*TransactionResult, error) {
	return uc.execute(ctx, input, domain.TransactionTypeDeposit)
}

// Withdraw debits an account.
func (uc *TransactionUseCase) Withdraw(ctx context.Context, input MoneyMovementInput) (*TransactionResult, error) {
	return uc.execute(ctx, input, domain.TransactionTypeWithdrawal)
}

func (uc *TransactionUseCase) execute(ctx context.Context, input MoneyMovementInput, txType domain.TransactionType) (*TransactionResult, error) {
	if input.AccountID == "" {
		return nil, domain.ErrMissingAccountID
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	ref := input.ReferenceNumber
	if ref == "" {
		ref = uc.refGen.Generate()
	} else {
		if err := domain.ValidateReferenceNumber(ref); err != nil {
			return nil, err
		}

		if result, err := uc.replay(ctx, ref); result != nil || err != nil {
			return result, err
		}
	}

	delta := input.Amount
	if txType == domain.TransactionTypeWithdrawal {
		delta = input.Amount.Neg()
	}

	account, err := uc.mutator.Mutate(ctx, input.AccountID, delta)
	if err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		ID:              uc.idGen.Generate(),
		AccountID:       account.ID,
		Amount:          input.Amount,
		Type:            txType,
		Status:          domain.TransactionStatusSuccess,
		ReferenceNumber: ref,
		BalanceAfter:    account.Balance,
		TransactionDate: time.Now().UTC(),
	}

	if err := uc.record(ctx, txn, account); err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			// A concurrent submission with the same reference committed
			// first; its ledger row is the authoritative outcome. This
			// attempt already moved the balance, so undo it before
			// reporting the replay.
			if rbErr := uc.reverse(ctx, input.AccountID, delta); rbErr != nil {
				return nil, rbErr
			}

			return uc.replay(ctx, ref)
		}

		return nil, err
	}

	uc.notifyMovement(ctx, account, txn)
	uc.publish(ctx, txn)

	return &TransactionResult{Transaction: txn, Balance: account.Balance}, nil
}

// reverse undoes the balance delta of a movement that lost the ledger
// race to a concurrent submission with the same reference number. The
// winner's row already accounts for one application of the delta.
func (uc *TransactionUseCase) reverse(ctx context.Context, accountID string, delta decimal.Decimal) error {
	if _, err := uc.mutator.Mutate(context.WithoutCancel(ctx), accountID, delta.Neg()); err != nil {
		uc.logger.Error().
			Err(err).
			Str("account_id", accountID).
			Str("delta", delta.String()).
			Msg("duplicate reference detected but reversal failed")

		return fmt.Errorf("duplicate reference detected but reversal failed: %w", err)
	}

	return nil
}

// replay returns the recorded result for a reference number, or (nil, nil)
// when the reference has not been seen before.
func (uc *TransactionUseCase) replay(ctx context.Context, ref string) (*TransactionResult, error) {
	existing, err := uc.ledger.GetByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, nil
		}

		return nil, err
	}

	uc.logger.Info().
		Str("reference_number", ref).
		Str("transaction_id", existing.ID).
		Msg("duplicate reference number, returning recorded transaction")

	return &TransactionResult{Transaction: existing, Balance: existing.BalanceAfter, Replayed: true}, nil
}

func (uc *TransactionUseCase) record(ctx context.Context, txn *domain.Transaction, account *domain.Account) error {
	if err := txn.Validate(); err != nil {
		return err
	}

	if err := uc.ledger.Create(ctx, txn); err != nil {
		if !errors.Is(err, domain.ErrDuplicateReference) {
			// The balance already moved; without the ledger row the
			// movement is invisible to replay checks, so log enough
			// state for an operator to reconcile.
			uc.logger.Error().
				Err(err).
				Str("account_id", account.ID).
				Str("reference_number", txn.ReferenceNumber).
				Str("amount", txn.Amount.String()).
				Str("type", string(txn.Type)).
				Str("balance_after", account.Balance.String()).
				Msg("balance applied but ledger record failed")
		}

		return err
	}

	return nil
}

func (uc *TransactionUseCase) notifyMovement(ctx context.Context, account *domain.Account, txn *domain.Transaction) {
	var title, message string

	switch txn.Type {
	case domain.TransactionTypeDeposit:
		title = "Deposit Successful"
		message = fmt.Sprintf("An amount of %s was deposited to account %s. Available balance: %s.",
			txn.Amount, account.AccountNumber, account.Balance)
	case domain.TransactionTypeWithdrawal:
		title = "Withdrawal Successful"
		message = fmt.Sprintf("An amount of %s was withdrawn from account %s. Available balance: %s.",
			txn.Amount, account.AccountNumber, account.Balance)
	default:
		return
	}

	uc.notify(ctx, domain.Notification{
		CustomerID: account.CustomerID,
		Title:      title,
		Message:    message,
		Type:       domain.NotificationTypeTransaction,
	})
}

func (uc *TransactionUseCase) notify(ctx context.Context, notification domain.Notification) {
	if err := uc.notifier.Notify(ctx, notification); err != nil {
		uc.logger.Warn().
			Err(err).
			Str("customer_id", notification.CustomerID).
			Str("title", notification.Title).
			Msg("failed to enqueue notification")
	}
}

func (uc *TransactionUseCase) publish(ctx context.Context, txn *domain.Transaction) {
	if uc.events == nil {
		return
	}

	event := domain.TransactionCompletedEvent{
		TransactionID:    txn.ID,
		AccountID:        txn.AccountID,
		RelatedAccountID: txn.RelatedAccountID,
		Amount:           txn.Amount,
		Type:             txn.Type,
		ReferenceNumber:  txn.ReferenceNumber,
		OccurredAt:       txn.TransactionDate,
	}

	if err := uc.events.Publish(ctx, event); err != nil {
		uc.logger.Warn().
			Err(err).
			Str("transaction_id", txn.ID).
			Msg("failed to publish transaction event")
	}
}

// GetTransaction retrieves one ledger row by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.ledger.GetByID(ctx, id)
}

// ListByAccountInput is the input for listing an account's transactions.
type ListByAccountInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListTransactionsByAccount lists ledger rows touching an account.
func (uc *TransactionUseCase) ListTransactionsByAccount(ctx context.Context, input ListByAccountInput) ([]*domain.Transaction, error) {
	if input.AccountID == "" {
		return nil, domain.ErrMissingAccountID
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.ledger.ListByAccount(ctx, input.AccountID, limit, offset)
}

// ListBetweenInput is the input for date-range listing.
type ListBetweenInput struct {
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// ListTransactionsBetween lists ledger rows within a date range.
func (uc *TransactionUseCase) ListTransactionsBetween(ctx context.Context, input ListBetweenInput) ([]*domain.Transaction, error) {
	if input.To.Before(input.From) {
		return nil, domain.ErrInvalidDateRange
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.ledger.ListBetween(ctx, input.From, input.To, limit, offset)
}
