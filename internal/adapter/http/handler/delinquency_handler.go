package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bnp/financing/internal/adapter/http/dto"
	"github.com/bnp/financing/internal/usecase"
)

// DelinquencyService defines the behavior needed by DelinquencyHandler.
type DelinquencyService interface {
	SweepDelinquencies(ctx context.Context, asOf time.Time) (*usecase.SweepResult, error)
}

// DelinquencyHandler triggers delinquency sweeps over the portfolio.
type DelinquencyHandler struct {
	delinquencyUC DelinquencyService
}

// NewDelinquencyHandler creates a new DelinquencyHandler.
func NewDelinquencyHandler(delinquencyUC DelinquencyService) *DelinquencyHandler {
	return &DelinquencyHandler{delinquencyUC: delinquencyUC}
}

// Sweep marks every installment past due as of the requested date.
func (h *DelinquencyHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().UTC()

	if r.ContentLength > 0 {
		var req dto.SweepDelinquenciesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
		if !req.AsOf.IsZero() {
			asOf = req.AsOf.Time
		}
	}

	result, err := h.delinquencyUC.SweepDelinquencies(r.Context(), asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sweep failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SweepFromResult(result, asOf))
}
