package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/corebank/transactor/internal/domain"
	"github.com/corebank/transactor/internal/infrastructure/metrics"
)

// TransferUseCase coordinates the two-account transfer saga: validate both
// parties, debit the sender, credit the receiver, compensate on partial
// failure, record, notify. The sender is always debited before the
// receiver is credited, so the only reachable inconsistency is "receiver
// never got credited", which compensation reverses.
type TransferUseCase struct {
	gateway  AccountGateway
	mutator  *BalanceMutator
	ledger   LedgerRepository
	notifier NotificationPort
	events   EventPublisher
	idGen    IDGenerator
	refGen   IDGenerator
	logger   zerolog.Logger
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	gateway AccountGateway,
	mutator *BalanceMutator,
	ledger LedgerRepository,
	notifier NotificationPort,
	events EventPublisher,
	idGen IDGenerator,
	refGen IDGenerator,
	logger zerolog.Logger,
) *TransferUseCase {
	return &TransferUseCase{
		gateway:  gateway,
		mutator:  mutator,
		ledger:   ledger,
		notifier: notifier,
		events:   events,
		idGen:    idGen,
		refGen:   refGen,
		logger:   logger,
	}
}

// TransferInput is the input for a transfer.
type TransferInput struct {
	FromAccountID   string
	ToAccountID     string
	Amount          decimal.Decimal
	ReferenceNumber string
}

// Transfer moves Amount from the sender to the receiver.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*TransactionResult, error) {
	state := domain.TransferStateInitiated

	logger := uc.logger.With().
		Str("from_account_id", input.FromAccountID).
		Str("to_account_id", input.ToAccountID).
		Str("amount", input.Amount.String()).
		Logger()

	if input.FromAccountID == "" || input.ToAccountID == "" {
		return nil, domain.ErrMissingAccountID
	}

	if input.FromAccountID == input.ToAccountID {
		return nil, domain.ErrSameAccount
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

		if result, err := uc.replayTransfer(ctx, ref); result != nil || err != nil {
			return result, err
		}
	}

	// Validate both parties before touching money. The mutator re-checks
	// against the snapshot it writes with, so these fetches only fail
	// fast; they are not the authoritative balance check.
	sender, err := uc.gateway.Fetch(ctx, input.FromAccountID)
	if err != nil {
		return nil, err
	}

	if err := sender.ValidateDelta(input.Amount.Neg()); err != nil {
		return nil, err
	}

	state = domain.TransferStateSenderChecked
	logger.Debug().Str("state", string(state)).Msg("transfer state")

	receiver, err := uc.gateway.Fetch(ctx, input.ToAccountID)
	if err != nil {
		return nil, err
	}

	if !receiver.Active {
		return nil, domain.ErrAccountInactive
	}

	state = domain.TransferStateReceiverChecked
	logger.Debug().Str("state", string(state)).Msg("transfer state")

	senderBefore := sender.Balance
	receiverBefore := receiver.Balance

	debited, err := uc.mutator.Mutate(ctx, input.FromAccountID, input.Amount.Neg())
	if err != nil {
		return nil, err
	}

	state = domain.TransferStateDebited
	logger.Debug().Str("state", string(state)).Msg("transfer state")

	// Past this point the saga is committed: it runs to COMPLETE or a
	// compensation outcome even if the caller goes away.
	sagaCtx := context.WithoutCancel(ctx)

	credited, err := uc.mutator.Mutate(sagaCtx, input.ToAccountID, input.Amount)
	if err != nil {
		return nil, uc.compensate(sagaCtx, logger, input, debited, receiverBefore, err)
	}

	state = domain.TransferStateCredited
	logger.Debug().Str("state", string(state)).Msg("transfer state")

	relatedID := input.ToAccountID
	txn := &domain.Transaction{
		ID:               uc.idGen.Generate(),
		AccountID:        input.FromAccountID,
		RelatedAccountID: &relatedID,
		Amount:           input.Amount,
		Type:             domain.TransactionTypeTransfer,
		Status:           domain.TransactionStatusSuccess,
		ReferenceNumber:  ref,
		BalanceAfter:     debited.Balance,
		TransactionDate:  time.Now().UTC(),
	}

	if err := txn.Validate(); err != nil {
		return nil, err
	}

	if err := uc.ledger.Create(sagaCtx, txn); err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			// A concurrent submission with the same reference won the
			// ledger race; its row is the authoritative outcome. Both
			// legs of this attempt already moved money, so undo them
			// before reporting the replay.
			if rbErr := uc.reverseLegs(sagaCtx, logger, input); rbErr != nil {
				return nil, rbErr
			}

			return uc.replayTransfer(sagaCtx, ref)
		}

		logger.Error().
			Err(err).
			Str("reference_number", ref).
			Str("sender_balance_before", senderBefore.String()).
			Str("sender_balance_after", debited.Balance.String()).
			Str("receiver_balance_after", credited.Balance.String()).
			Msg("both legs applied but ledger record failed")

		return nil, err
	}

	state = domain.TransferStateRecorded
	logger.Debug().Str("state", string(state)).Msg("transfer state")

	uc.notifyTransfer(sagaCtx, debited, credited, input.Amount)
	uc.publishTransfer(sagaCtx, txn)

	state = domain.TransferStateComplete
	logger.Info().
		Str("state", string(state)).
		Str("transaction_id", txn.ID).
		Msg("transfer complete")

	return &TransactionResult{Transaction: txn, Balance: debited.Balance}, nil
}

// compensate restores the debited funds after a failed credit leg. If the
// compensation itself fails, the inconsistency is never dropped silently:
// a manual-reconciliation ledger row is written and a ConsistencyError is
// surfaced to the caller. This is the single most important failure path
// in the system.
func (uc *TransferUseCase) compensate(
	ctx context.Context,
	logger zerolog.Logger,
	input TransferInput,
	debited *domain.Account,
	receiverBefore decimal.Decimal,
	creditErr error,
) error {
	logger.Warn().
		Err(creditErr).
		Str("state", string(domain.TransferStateCompensating)).
		Msg("credit leg failed after debit, compensating sender")

	restored, compErr := uc.mutator.Mutate(ctx, input.FromAccountID, input.Amount)
	if compErr == nil {
		metrics.TransfersCompensated.Inc()
		logger.Info().
			Str("state", string(domain.TransferStateCompensated)).
			Str("sender_balance", restored.Balance.String()).
			Msg("sender compensated after failed credit")

		// The failed attempt is surfaced as the credit leg's error so the
		// caller can retry the whole transfer with the same reference.
		return fmt.Errorf("transfer credit failed, sender compensated: %w", creditErr)
	}

	logger.Error().
		Str("state", string(domain.TransferStateCompensatedFail)).
		AnErr("credit_error", creditErr).
		AnErr("compensation_error", compErr).
		Str("sender_balance_before_debit", debited.Balance.Add(input.Amount).String()).
		Str("sender_balance_now", debited.Balance.String()).
		Str("receiver_balance_before", receiverBefore.String()).
		Msg("compensation failed, accounts require manual reconciliation")

	metrics.ReconciliationRequired.Inc()
	uc.recordReconciliation(ctx, input)

	return &domain.ConsistencyError{
		SenderID:        input.FromAccountID,
		ReceiverID:      input.ToAccountID,
		Amount:          input.Amount,
		CreditErr:       creditErr,
		CompensationErr: compErr,
	}
}

// reverseLegs undoes both legs of a transfer that lost the ledger race to
// a concurrent submission with the same reference number. The winner's
// row already accounts for one application of the amount. A failed
// reversal leaves the accounts inconsistent and takes the same manual
// reconciliation exit as a failed compensation.
func (uc *TransferUseCase) reverseLegs(ctx context.Context, logger zerolog.Logger, input TransferInput) error {
	if _, err := uc.mutator.Mutate(ctx, input.ToAccountID, input.Amount.Neg()); err != nil {
		return uc.reversalFailed(ctx, logger, input, fmt.Errorf("credit reversal failed: %w", err))
	}

	if _, err := uc.mutator.Mutate(ctx, input.FromAccountID, input.Amount); err != nil {
		return uc.reversalFailed(ctx, logger, input, fmt.Errorf("debit reversal failed: %w", err))
	}

	return nil
}

func (uc *TransferUseCase) reversalFailed(ctx context.Context, logger zerolog.Logger, input TransferInput, reversalErr error) error {
	logger.Error().
		Err(reversalErr).
		Msg("duplicate reference reversal failed, accounts require manual reconciliation")

	metrics.ReconciliationRequired.Inc()
	uc.recordReconciliation(ctx, input)

	return &domain.ConsistencyError{
		SenderID:        input.FromAccountID,
		ReceiverID:      input.ToAccountID,
		Amount:          input.Amount,
		CreditErr:       domain.ErrDuplicateReference,
		CompensationErr: reversalErr,
	}
}

// recordReconciliation writes the FAILED ledger row that flags stuck funds
// for an operator. Best effort on purpose: the ConsistencyError is
// surfaced regardless, and the error log above carries the full state.
func (uc *TransferUseCase) recordReconciliation(ctx context.Context, input TransferInput) {
	relatedID := input.ToAccountID
	txn := &domain.Transaction{
		ID:               uc.idGen.Generate(),
		AccountID:        input.FromAccountID,
		RelatedAccountID: &relatedID,
		Amount:           input.Amount,
		Type:             domain.TransactionTypeTransfer,
		Status:           domain.TransactionStatusFailed,
		Description:      domain.DescriptionManualReconciliation,
		ReferenceNumber:  uc.refGen.Generate(),
		TransactionDate:  time.Now().UTC(),
	}

	if err := uc.ledger.Create(ctx, txn); err != nil {
		uc.logger.Error().
			Err(err).
			Str("from_account_id", input.FromAccountID).
			Str("to_account_id", input.ToAccountID).
			Str("amount", input.Amount.String()).
			Msg("failed to record manual reconciliation entry")
	}
}

func (uc *TransferUseCase) replayTransfer(ctx context.Context, ref string) (*TransactionResult, error) {
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
		Msg("duplicate reference number, returning recorded transfer")

	return &TransactionResult{Transaction: existing, Balance: existing.BalanceAfter, Replayed: true}, nil
}

func (uc *TransferUseCase) notifyTransfer(ctx context.Context, sender, receiver *domain.Account, amount decimal.Decimal) {
	notifications := []domain.Notification{
		{
			CustomerID: sender.CustomerID,
			Title:      "Transfer Sent",
			Message: fmt.Sprintf("An amount of %s was transferred from account %s to account %s. Available balance: %s.",
				amount, sender.AccountNumber, receiver.AccountNumber, sender.Balance),
			Type: domain.NotificationTypeTransaction,
		},
		{
			CustomerID: receiver.CustomerID,
			Title:      "Transfer Received",
			Message: fmt.Sprintf("An amount of %s was credited to account %s. Available balance: %s.",
				amount, receiver.AccountNumber, receiver.Balance),
			Type: domain.NotificationTypeTransaction,
		},
	}

	for _, n := range notifications {
		if err := uc.notifier.Notify(ctx, n); err != nil {
			uc.logger.Warn().
				Err(err).
				Str("customer_id", n.CustomerID).
				Str("title", n.Title).
				Msg("failed to enqueue notification")
		}
	}
}

func (uc *TransferUseCase) publishTransfer(ctx context.Context, txn *domain.Transaction) {
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
