package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/corebank/transactor/internal/adapter/http/dto"
	"github.com/corebank/transactor/internal/domain"
)

// writeSuccess writes an enveloped success response.
func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// writeError writes an enveloped error response.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.Envelope{
		Success: false,
		Message: message,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	var consistencyErr *domain.ConsistencyError
	if errors.As(err, &consistencyErr) {
		return http.StatusInternalServerError
	}

	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrServiceUnavailable),
		errors.Is(err, domain.ErrConcurrencyExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrAccountInactive),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrMissingAccountID),
		errors.Is(err, domain.ErrMissingCustomerID),
		errors.Is(err, domain.ErrMissingRelatedAccount),
		errors.Is(err, domain.ErrInvalidDateRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
