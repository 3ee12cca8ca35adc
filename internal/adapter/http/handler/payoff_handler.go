package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bnp/financing/internal/adapter/http/dto"
	"github.com/bnp/financing/internal/domain"
	"github.com/bnp/financing/internal/usecase"
)

// PayoffService defines the behavior needed by PayoffHandler.
type PayoffService interface {
	ComputeEarlyPayoff(ctx context.Context, loanID string, throughInstallmentNumber int) (*domain.EarlyPayoffRecord, error)
	ApplyEarlyPayoff(ctx context.Context, input usecase.ApplyEarlyPayoffInput) (*domain.Loan, error)
}

// PayoffHandler handles early-payoff HTTP requests.
type PayoffHandler struct {
	payoffUC PayoffService
}

// NewPayoffHandler creates a new PayoffHandler.
func NewPayoffHandler(payoffUC PayoffService) *PayoffHandler {
	return &PayoffHandler{payoffUC: payoffUC}
}

// Quote computes a settlement preview without mutating the loan.
func (h *PayoffHandler) Quote(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "id")
	through := parseIntQuery(r, "through", 0)
	if through < 1 {
		writeError(w, http.StatusBadRequest, "missing or invalid through parameter", "")
		return
	}

	record, err := h.payoffUC.ComputeEarlyPayoff(r.Context(), loanID, through)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to quote payoff", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EarlyPayoffFromDomain(record))
}

// Apply commits an early payoff.
func (h *PayoffHandler) Apply(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "id")

	var req dto.ApplyEarlyPayoffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	loan, err := h.payoffUC.ApplyEarlyPayoff(r.Context(), req.ToUseCaseInput(loanID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to apply payoff", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}
