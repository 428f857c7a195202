package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/corebank/transactor/internal/domain"
)

// AccountUseCase opens accounts at the remote account service, pairing
// the number allocator with the gateway's create call.
type AccountUseCase struct {
	gateway   AccountGateway
	allocator *AllocatorUseCase
	notifier  NotificationPort
	logger    zerolog.Logger
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(gateway AccountGateway, allocator *AllocatorUseCase, notifier NotificationPort, logger zerolog.Logger) *AccountUseCase {
	return &AccountUseCase{
		gateway:   gateway,
		allocator: allocator,
		notifier:  notifier,
		logger:    logger,
	}
}

// OpenAccountInput is the input for opening an account.
type OpenAccountInput struct {
	CustomerID  string
	AccountType domain.AccountType
	Balance     decimal.Decimal
}

// OpenAccount allocates an account number and creates the account.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	if input.CustomerID == "" {
		return nil, domain.ErrMissingCustomerID
	}

	if input.Balance.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	number, err := uc.allocator.Allocate(ctx)
	if err != nil {
		return nil, err
	}

	created, err := uc.gateway.CreateAccount(ctx, &domain.Account{
		CustomerID:    input.CustomerID,
		AccountNumber: number,
		AccountType:   input.AccountType,
		Balance:       input.Balance,
		Active:        true,
	})
	if err != nil {
		return nil, err
	}

	if err := uc.notifier.Notify(ctx, domain.Notification{
		CustomerID: created.CustomerID,
		Title:      "Welcome to Our Platform!",
		Message: fmt.Sprintf("Your account has been successfully created. Your account number: %s. Your balance: %s.",
			created.AccountNumber, created.Balance),
		Type: domain.NotificationTypeAccount,
	}); err != nil {
		uc.logger.Warn().
			Err(err).
			Str("customer_id", created.CustomerID).
			Msg("failed to enqueue welcome notification")
	}

	return created, nil
}
