package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bnp/financing/internal/domain"
	"github.com/bnp/financing/internal/usecase"
)

// LoanResponse represents a loan in API responses.
type LoanResponse struct {
	ID                     string               `json:"id"`
	BeneficiaryID          string               `json:"beneficiary_id"`
	BeneficiaryName        string               `json:"beneficiary_name"`
	FinancedPrincipalCents int64                `json:"financed_principal_cents"`
	AnnualInterestRate     decimal.Decimal      `json:"annual_interest_rate"`
	TotalInterestCents     int64                `json:"total_interest_cents"`
	InstallmentCount       int                  `json:"installment_count"`
	Status                 string               `json:"status"`
	OutstandingCents       int64                `json:"outstanding_principal_cents"`
	NextUnpaidDueDate      *Date                `json:"next_unpaid_due_date,omitempty"`
	EarlyPayoff            *EarlyPayoffResponse `json:"early_payoff,omitempty"`
	Version                int64                `json:"version"`
	CreatedAt              time.Time            `json:"created_at"`
	UpdatedAt              time.Time            `json:"updated_at"`
}

// LoanFromDomain converts a domain loan to a response.
func LoanFromDomain(l *domain.Loan) *LoanResponse {
	resp := &LoanResponse{
		ID:                     l.ID,
		BeneficiaryID:          l.Beneficiary.ID,
		BeneficiaryName:        l.Beneficiary.DisplayName,
		FinancedPrincipalCents: domain.Cents(l.FinancedPrincipal),
		AnnualInterestRate:     l.AnnualInterestRate,
		TotalInterestCents:     domain.Cents(l.TotalInterest),
		InstallmentCount:       l.InstallmentCount,
		Status:                 string(l.Status),
		OutstandingCents:       domain.Cents(l.OutstandingPrincipal()),
		Version:                l.Version,
		CreatedAt:              l.CreatedAt,
		UpdatedAt:              l.UpdatedAt,
	}
	if next := l.NextUnpaidDueDate(); next != nil {
		d := NewDate(*next)
		resp.NextUnpaidDueDate = &d
	}
	if l.EarlyPayoff != nil {
		resp.EarlyPayoff = EarlyPayoffFromDomain(l.EarlyPayoff)
	}

	return resp
}

// LoansFromDomain converts domain loans to responses.
func LoansFromDomain(loans []*domain.Loan) []*LoanResponse {
	result := make([]*LoanResponse, len(loans))
	for i, l := range loans {
		result[i] = LoanFromDomain(l)
	}
	return result
}

// ListLoansResponse represents a paginated loan listing.
type ListLoansResponse struct {
	Loans []*LoanResponse `json:"loans"`
	Total int64           `json:"total"`
}

// InstallmentResponse represents an installment in API responses.
type InstallmentResponse struct {
	Number                int        `json:"number"`
	PrincipalPortionCents int64      `json:"principal_portion_cents"`
	InterestPortionCents  int64      `json:"interest_portion_cents"`
	AmountDueCents        int64      `json:"amount_due_cents"`
	DueDate               Date       `json:"due_date"`
	State                 string     `json:"state"`
	MarkedDelinquentAt    *Date      `json:"marked_delinquent_at,omitempty"`
	AccruedMoratoryCents  int64      `json:"accrued_moratory_cents"`
	PaidAt                *time.Time `json:"paid_at,omitempty"`
	PrincipalPaidCents    int64      `json:"principal_paid_cents"`
	InterestPaidCents     int64      `json:"interest_paid_cents"`
	MoratoryPaidCents     int64      `json:"moratory_paid_cents"`
	TotalPaidCents        int64      `json:"total_paid_cents"`
	ReceiptRef            string     `json:"receipt_ref,omitempty"`
	LitigationNotes       string     `json:"litigation_notes,omitempty"`
}

// InstallmentFromDomain converts a domain installment to a response. Accrued
// moratory interest is quoted as of now.
func InstallmentFromDomain(inst *domain.Installment, asOf time.Time) *InstallmentResponse {
	resp := &InstallmentResponse{
		Number:                inst.Number,
		PrincipalPortionCents: domain.Cents(inst.PrincipalPortion),
		InterestPortionCents:  domain.Cents(inst.InterestPortion),
		AmountDueCents:        domain.Cents(inst.AmountDue()),
		DueDate:               NewDate(inst.DueDate),
		State:                 string(inst.State),
		AccruedMoratoryCents:  domain.Cents(inst.AccruedMoratoryInterest(asOf)),
		PrincipalPaidCents:    domain.Cents(inst.PrincipalPaid),
		InterestPaidCents:     domain.Cents(inst.InterestPaid),
		MoratoryPaidCents:     domain.Cents(inst.MoratoryPaid),
		TotalPaidCents:        domain.Cents(inst.TotalPaid),
		ReceiptRef:            inst.ReceiptRef,
		LitigationNotes:       inst.LitigationNotes,
		PaidAt:                inst.PaidAt,
	}
	if inst.MarkedDelinquentAt != nil {
		d := NewDate(*inst.MarkedDelinquentAt)
		resp.MarkedDelinquentAt = &d
	}

	return resp
}

// ListInstallmentsResponse represents a loan's full schedule.
type ListInstallmentsResponse struct {
	LoanID       string                 `json:"loan_id"`
	Installments []*InstallmentResponse `json:"installments"`
}

// InstallmentsFromDomain converts a schedule to responses.
func InstallmentsFromDomain(installments []domain.Installment, asOf time.Time) []*InstallmentResponse {
	result := make([]*InstallmentResponse, len(installments))
	for i := range installments {
		result[i] = InstallmentFromDomain(&installments[i], asOf)
	}
	return result
}

// EarlyPayoffResponse represents an early-payoff quote or applied settlement.
type EarlyPayoffResponse struct {
	ThroughInstallmentNumber int        `json:"through_installment_number"`
	PrincipalRemainingCents  int64      `json:"principal_remaining_cents"`
	InterestChargedCents     int64      `json:"interest_charged_cents"`
	InterestForgivenCents    int64      `json:"interest_forgiven_cents"`
	FinalAmountDueCents      int64      `json:"final_amount_due_cents"`
	TotalPreviouslyPaidCents int64      `json:"total_previously_paid_cents"`
	ForgivenessClamped       bool       `json:"forgiveness_clamped,omitempty"`
	ReceiptRef               string     `json:"receipt_ref,omitempty"`
	Notes                    string     `json:"notes,omitempty"`
	AppliedAt                *time.Time `json:"applied_at,omitempty"`
}

// EarlyPayoffFromDomain converts a payoff record to a response.
func EarlyPayoffFromDomain(r *domain.EarlyPayoffRecord) *EarlyPayoffResponse {
	resp := &EarlyPayoffResponse{
		ThroughInstallmentNumber: r.ThroughInstallmentNumber,
		PrincipalRemainingCents:  domain.Cents(r.PrincipalRemaining),
		InterestChargedCents:     domain.Cents(r.InterestCharged),
		InterestForgivenCents:    domain.Cents(r.InterestForgiven),
		FinalAmountDueCents:      domain.Cents(r.FinalAmountDue),
		TotalPreviouslyPaidCents: domain.Cents(r.TotalPreviouslyPaid),
		ForgivenessClamped:       r.ForgivenessClamped,
		ReceiptRef:               r.ReceiptRef,
		Notes:                    r.Notes,
	}
	if !r.AppliedAt.IsZero() {
		appliedAt := r.AppliedAt
		resp.AppliedAt = &appliedAt
	}

	return resp
}

// SweepResponse represents the outcome of a delinquency sweep.
type SweepResponse struct {
	AsOf               Date     `json:"as_of"`
	LoansExamined      int      `json:"loans_examined"`
	InstallmentsMarked int      `json:"installments_marked"`
	FailedLoans        []string `json:"failed_loans,omitempty"`
}

// SweepFromResult converts a sweep result to a response.
func SweepFromResult(result *usecase.SweepResult, asOf time.Time) *SweepResponse {
	return &SweepResponse{
		AsOf:               NewDate(asOf),
		LoansExamined:      result.LoansExamined,
		InstallmentsMarked: result.InstallmentsMarked,
		FailedLoans:        result.FailedLoans,
	}
}

// ConsistencyResponse represents a schedule consistency sweep.
type ConsistencyResponse struct {
	Consistent        bool      `json:"consistent"`
	LoansChecked      int       `json:"loans_checked"`
	InconsistentLoans []string  `json:"inconsistent_loans,omitempty"`
	CheckedAt         time.Time `json:"checked_at"`
}

// ConsistencyFromReport converts a consistency report to a response.
func ConsistencyFromReport(report *usecase.ConsistencyReport) *ConsistencyResponse {
	return &ConsistencyResponse{
		Consistent:        report.Consistent(),
		LoansChecked:      report.LoansChecked,
		InconsistentLoans: report.InconsistentLoans,
		CheckedAt:         report.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
