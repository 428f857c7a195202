package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventTypeTransactionCompleted is the topic/type for completed movements.
const EventTypeTransactionCompleted = "transaction.completed"

// TransactionCompletedEvent is published after a movement is recorded.
type TransactionCompletedEvent struct {
	TransactionID    string          `json:"transaction_id"`
	AccountID        string          `json:"account_id"`
	RelatedAccountID *string         `json:"related_account_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Type             TransactionType `json:"type"`
	ReferenceNumber  string          `json:"reference_number"`
	OccurredAt       time.Time       `json:"occurred_at"`
}
