package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/transactor/internal/domain"
	"github.com/corebank/transactor/internal/usecase"
)

// Envelope is the uniform response wrapper for all API endpoints.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// TransactionResponse represents a ledger row in API responses.
type TransactionResponse struct {
	ID               string          `json:"id"`
	AccountID        string          `json:"account_id"`
	RelatedAccountID *string         `json:"related_account_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Type             string          `json:"type"`
	Status           string          `json:"status"`
	Description      string          `json:"description,omitempty"`
	ReferenceNumber  string          `json:"reference_number"`
	BalanceAfter     decimal.Decimal `json:"balance_after"`
	TransactionDate  time.Time       `json:"transaction_date"`
	Replayed         bool            `json:"replayed,omitempty"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:               t.ID,
		AccountID:        t.AccountID,
		RelatedAccountID: t.RelatedAccountID,
		Amount:           t.Amount,
		Type:             string(t.Type),
		Status:           string(t.Status),
		Description:      t.Description,
		ReferenceNumber:  t.ReferenceNumber,
		BalanceAfter:     t.BalanceAfter,
		TransactionDate:  t.TransactionDate,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ResultFromUseCase converts a money-movement result to a response.
func ResultFromUseCase(res *usecase.TransactionResult) *TransactionResponse {
	resp := TransactionFromDomain(res.Transaction)
	resp.BalanceAfter = res.Balance
	resp.Replayed = res.Replayed
	return resp
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id"`
	AccountNumber string          `json:"account_number"`
	AccountType   string          `json:"account_type"`
	Balance       decimal.Decimal `json:"balance"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		CustomerID:    a.CustomerID,
		AccountNumber: a.AccountNumber,
		AccountType:   string(a.AccountType),
		Balance:       a.Balance,
		Active:        a.Active,
		CreatedAt:     a.CreatedAt,
	}
}
