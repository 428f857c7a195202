package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/corebank/transactor/internal/adapter/http/dto"
	"github.com/corebank/transactor/internal/infrastructure/metrics"
	"github.com/corebank/transactor/internal/usecase"
)

// TransactionHandler handles money-movement HTTP requests.
type TransactionHandler struct {
	transactionUC *usecase.TransactionUseCase
	transferUC    *usecase.TransferUseCase
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC *usecase.TransactionUseCase, transferUC *usecase.TransferUseCase) *TransactionHandler {
	return &TransactionHandler{
		transactionUC: transactionUC,
		transferUC:    transferUC,
	}
}

// Deposit credits an account.
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.MoneyMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.transactionUC.Deposit(r.Context(), req.ToUseCaseInput())
	if err != nil {
		metrics.TransactionsProcessed.WithLabelValues("deposit", "failure").Inc()
		writeError(w, mapDomainError(err), err.Error())

		return
	}

	metrics.TransactionsProcessed.WithLabelValues("deposit", outcomeLabel(result)).Inc()
	writeSuccess(w, movementStatus(result), "deposit completed", dto.ResultFromUseCase(result))
}

// Withdraw debits an account.
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req dto.MoneyMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.transactionUC.Withdraw(r.Context(), req.ToUseCaseInput())
	if err != nil {
		metrics.TransactionsProcessed.WithLabelValues("withdrawal", "failure").Inc()
		writeError(w, mapDomainError(err), err.Error())

		return
	}

	metrics.TransactionsProcessed.WithLabelValues("withdrawal", outcomeLabel(result)).Inc()
	writeSuccess(w, movementStatus(result), "withdrawal completed", dto.ResultFromUseCase(result))
}

// Transfer moves money between two accounts.
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.transferUC.Transfer(r.Context(), req.ToUseCaseInput())
	if err != nil {
		metrics.TransactionsProcessed.WithLabelValues("transfer", "failure").Inc()
		writeError(w, mapDomainError(err), err.Error())

		return
	}

	metrics.TransactionsProcessed.WithLabelValues("transfer", outcomeLabel(result)).Inc()
	writeSuccess(w, movementStatus(result), "transfer completed", dto.ResultFromUseCase(result))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID")
		return
	}

	txn, err := h.transactionUC.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), err.Error())
		return
	}

	writeSuccess(w, http.StatusOK, "transaction retrieved", dto.TransactionFromDomain(txn))
}

// ListByAccount lists transactions touching an account.
func (h *TransactionHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID")
		return
	}

	transactions, err := h.transactionUC.ListTransactionsByAccount(r.Context(), usecase.ListByAccountInput{
		AccountID: accountID,
		Limit:     parseIntQuery(r, "limit", 0),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), err.Error())
		return
	}

	writeSuccess(w, http.StatusOK, "transactions retrieved", dto.TransactionsFromDomain(transactions))
}

// ListBetween lists transactions within a date range.
func (h *TransactionHandler) ListBetween(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeQuery(r, "from", time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date")
		return
	}

	to, err := parseTimeQuery(r, "to", time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	transactions, err := h.transactionUC.ListTransactionsBetween(r.Context(), usecase.ListBetweenInput{
		From:   from,
		To:     to,
		Limit:  parseIntQuery(r, "limit", 0),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), err.Error())
		return
	}

	writeSuccess(w, http.StatusOK, "transactions retrieved", dto.TransactionsFromDomain(transactions))
}

func parseTimeQuery(r *http.Request, key string, defaultValue time.Time) (time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue, nil
	}
	return time.Parse(time.RFC3339, val)
}

// movementStatus maps a result to its HTTP status: 201 for a newly
// recorded movement, 200 for a replayed one.
func movementStatus(result *usecase.TransactionResult) int {
	if result.Replayed {
		return http.StatusOK
	}
	return http.StatusCreated
}

func outcomeLabel(result *usecase.TransactionResult) string {
	if result.Replayed {
		return "replayed"
	}
	return "success"
}
