package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bnp/financing/internal/adapter/http/dto"
	"github.com/bnp/financing/internal/domain"
	"github.com/bnp/financing/internal/usecase"
)

// PaymentService defines the behavior needed by PaymentHandler.
type PaymentService interface {
	RecordPayment(ctx context.Context, input usecase.RecordPaymentInput) (*domain.Loan, error)
	MarkDelinquent(ctx context.Context, input usecase.MarkDelinquentInput) (*domain.Loan, error)
	MarkInLitigation(ctx context.Context, input usecase.MarkInLitigationInput) (*domain.Loan, error)
}

// PaymentHandler handles installment-level HTTP requests.
type PaymentHandler struct {
	paymentUC PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentUC PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentUC: paymentUC}
}

// RecordPayment books a payment against an installment.
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "id")

	var req dto.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input := req.ToUseCaseInput(loanID)
	if input.PaymentDate.IsZero() {
		input.PaymentDate = time.Now().UTC()
	}

	loan, err := h.paymentUC.RecordPayment(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to record payment", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// MarkDelinquent flags an overdue installment.
func (h *PaymentHandler) MarkDelinquent(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "id")
	number, err := installmentNumber(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid installment number", err.Error())
		return
	}

	var req dto.MarkDelinquentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	asOf := req.AsOf.Time
	if req.AsOf.IsZero() {
		asOf = time.Now().UTC()
	}

	loan, err := h.paymentUC.MarkDelinquent(r.Context(), usecase.MarkDelinquentInput{
		LoanID:            loanID,
		InstallmentNumber: number,
		AsOf:              asOf,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to mark delinquent", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// MarkInLitigation escalates a delinquent installment into legal action.
func (h *PaymentHandler) MarkInLitigation(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "id")
	number, err := installmentNumber(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid installment number", err.Error())
		return
	}

	var req dto.MarkInLitigationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	loan, err := h.paymentUC.MarkInLitigation(r.Context(), usecase.MarkInLitigationInput{
		LoanID:            loanID,
		InstallmentNumber: number,
		Notes:             req.Notes,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to mark in litigation", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

func installmentNumber(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "number"))
}
