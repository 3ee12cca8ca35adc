package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bnp/financing/internal/adapter/http/dto"
	"github.com/bnp/financing/internal/domain"
	"github.com/bnp/financing/internal/usecase"
)

// LoanService defines the behavior needed by LoanHandler.
type LoanService interface {
	OriginateLoan(ctx context.Context, input usecase.OriginateLoanInput) (*domain.Loan, error)
	GetLoan(ctx context.Context, id string) (*domain.Loan, error)
	ListLoans(ctx context.Context, input usecase.ListLoansInput) ([]*domain.Loan, error)
	ListInstallments(ctx context.Context, loanID string) ([]domain.Installment, error)
	ActivateLoan(ctx context.Context, id string) (*domain.Loan, error)
	NormalizeLoan(ctx context.Context, id string) (*domain.Loan, error)
	CancelLoan(ctx context.Context, id string, withRefund bool) (*domain.Loan, error)
	CheckScheduleConsistency(ctx context.Context) (*usecase.ConsistencyReport, error)
}

// LoanHandler handles loan-related HTTP requests.
type LoanHandler struct {
	loanUC LoanService
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanUC LoanService) *LoanHandler {
	return &LoanHandler{loanUC: loanUC}
}

// Originate creates a new loan with its amortization schedule.
func (h *LoanHandler) Originate(w http.ResponseWriter, r *http.Request) {
	var req dto.OriginateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.FirstDueDate.IsZero() {
		writeError(w, http.StatusBadRequest, "missing first_due_date", "")
		return
	}

	loan, err := h.loanUC.OriginateLoan(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to originate loan", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.LoanFromDomain(loan))
}

// Get retrieves a loan by ID.
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing loan ID", "")
		return
	}

	loan, err := h.loanUC.GetLoan(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get loan", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// List lists loans.
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	loans, err := h.loanUC.ListLoans(r.Context(), usecase.ListLoansInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list loans", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListLoansResponse{
		Loans: dto.LoansFromDomain(loans),
		Total: int64(len(loans)),
	})
}

// ListInstallments returns the full schedule of a loan.
func (h *LoanHandler) ListInstallments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing loan ID", "")
		return
	}

	installments, err := h.loanUC.ListInstallments(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list installments", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListInstallmentsResponse{
		LoanID:       id,
		Installments: dto.InstallmentsFromDomain(installments, time.Now().UTC()),
	})
}

// Activate moves a pending loan into repayment.
func (h *LoanHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	loan, err := h.loanUC.ActivateLoan(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to activate loan", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// Normalize records that a loan has been brought fully current.
func (h *LoanHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	loan, err := h.loanUC.NormalizeLoan(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to normalize loan", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// Cancel terminates the loan on contract cancellation.
func (h *LoanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.CancelLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	loan, err := h.loanUC.CancelLoan(r.Context(), id, req.WithRefund)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to cancel loan", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// CheckConsistency verifies amortization invariants across all loans.
func (h *LoanHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.loanUC.CheckScheduleConsistency(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "consistency check failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromReport(report))
}
