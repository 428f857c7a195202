package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/corebank/transactor/internal/adapter/http/dto"
	"github.com/corebank/transactor/internal/domain"
	"github.com/corebank/transactor/internal/usecase"
)

// AccountHandler handles account HTTP requests.
type AccountHandler struct {
	accountUC *usecase.AccountUseCase
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC *usecase.AccountUseCase) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Open creates a new account with a freshly allocated account number.
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.accountUC.OpenAccount(r.Context(), req.ToUseCaseInput())
	if err != nil {
		if errors.Is(err, domain.ErrAllocationExhausted) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}

		writeError(w, mapDomainError(err), err.Error())

		return
	}

	writeSuccess(w, http.StatusCreated, "account opened", dto.AccountFromDomain(account))
}
