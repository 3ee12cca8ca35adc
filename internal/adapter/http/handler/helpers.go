package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/bnp/financing/internal/adapter/http/dto"
	"github.com/bnp/financing/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrLoanNotFound),
		errors.Is(err, domain.ErrInstallmentNotFound),
		errors.Is(err, domain.ErrBeneficiaryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLoanClosed),
		errors.Is(err, domain.ErrAlreadyPaid),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNotOverdue),
		errors.Is(err, domain.ErrNotDelinquent),
		errors.Is(err, domain.ErrNothingToSettle):
		return http.StatusConflict
	case errors.Is(err, domain.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidPrincipal),
		errors.Is(err, domain.ErrInvalidInterestRate),
		errors.Is(err, domain.ErrInvalidInstallmentCount),
		errors.Is(err, domain.ErrInvalidInstallmentNumber),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidReceiptRef):
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
