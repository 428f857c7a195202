package dto

import (
	"github.com/shopspring/decimal"

	"github.com/corebank/transactor/internal/domain"
	"github.com/corebank/transactor/internal/usecase"
)

// MoneyMovementRequest represents a deposit or withdrawal request.
type MoneyMovementRequest struct {
	AccountID       string          `json:"account_id"`
	Amount          decimal.Decimal `json:"amount"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *MoneyMovementRequest) ToUseCaseInput() usecase.MoneyMovementInput {
	return usecase.MoneyMovementInput{
		AccountID:       r.AccountID,
		Amount:          r.Amount,
		ReferenceNumber: r.ReferenceNumber,
	}
}

// TransferRequest represents a request to move money between accounts.
type TransferRequest struct {
	FromAccountID   string          `json:"from_account_id"`
	ToAccountID     string          `json:"to_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *TransferRequest) ToUseCaseInput() usecase.TransferInput {
	return usecase.TransferInput{
		FromAccountID:   r.FromAccountID,
		ToAccountID:     r.ToAccountID,
		Amount:          r.Amount,
		ReferenceNumber: r.ReferenceNumber,
	}
}

// OpenAccountRequest represents a request to open an account.
type OpenAccountRequest struct {
	CustomerID  string          `json:"customer_id"`
	AccountType string          `json:"account_type"`
	Balance     decimal.Decimal `json:"balance"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput() usecase.OpenAccountInput {
	return usecase.OpenAccountInput{
		CustomerID:  r.CustomerID,
		AccountType: domain.AccountType(r.AccountType),
		Balance:     r.Balance,
	}
}
