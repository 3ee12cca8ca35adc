package dto

import (
	"github.com/shopspring/decimal"

	"github.com/bnp/financing/internal/domain"
	"github.com/bnp/financing/internal/usecase"
)

// OriginateLoanRequest represents a request to originate a financed
// down-payment loan. Monetary amounts are integer cents.
type OriginateLoanRequest struct {
	BeneficiaryID          string          `json:"beneficiary_id"`
	FinancedPrincipalCents int64           `json:"financed_principal_cents"`
	AnnualInterestRate     decimal.Decimal `json:"annual_interest_rate"`
	InstallmentCount       int             `json:"installment_count"`
	FirstDueDate           Date            `json:"first_due_date"`
}

// ToUseCaseInput converts to use case input.
func (r *OriginateLoanRequest) ToUseCaseInput() usecase.OriginateLoanInput {
	return usecase.OriginateLoanInput{
		BeneficiaryID:      r.BeneficiaryID,
		FinancedPrincipal:  domain.MoneyFromCents(r.FinancedPrincipalCents),
		AnnualInterestRate: r.AnnualInterestRate,
		InstallmentCount:   r.InstallmentCount,
		FirstDueDate:       r.FirstDueDate.Time,
	}
}

// PaymentSplitRequest overrides the principal/interest attribution of a
// payment.
type PaymentSplitRequest struct {
	PrincipalCents int64 `json:"principal_cents"`
	InterestCents  int64 `json:"interest_cents"`
}

// RecordPaymentRequest represents a request to record an installment payment.
type RecordPaymentRequest struct {
	InstallmentNumber int                  `json:"installment_number"`
	AmountPaidCents   int64                `json:"amount_paid_cents"`
	Split             *PaymentSplitRequest `json:"split,omitempty"`
	ReceiptRef        string               `json:"receipt_ref"`
	PaymentDate       Date                 `json:"payment_date"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordPaymentRequest) ToUseCaseInput(loanID string) usecase.RecordPaymentInput {
	input := usecase.RecordPaymentInput{
		LoanID:            loanID,
		InstallmentNumber: r.InstallmentNumber,
		AmountPaid:        domain.MoneyFromCents(r.AmountPaidCents),
		ReceiptRef:        r.ReceiptRef,
		PaymentDate:       r.PaymentDate.Time,
	}
	if r.Split != nil {
		input.Split = &domain.PaymentSplit{
			Principal: domain.MoneyFromCents(r.Split.PrincipalCents),
			Interest:  domain.MoneyFromCents(r.Split.InterestCents),
		}
	}

	return input
}

// MarkDelinquentRequest represents a request to flag an overdue installment.
type MarkDelinquentRequest struct {
	AsOf Date `json:"as_of"`
}

// MarkInLitigationRequest represents a request to escalate a delinquent
// installment into legal action.
type MarkInLitigationRequest struct {
	Notes string `json:"notes"`
}

// CancelLoanRequest represents a request to cancel a loan.
type CancelLoanRequest struct {
	WithRefund bool `json:"with_refund"`
}

// ApplyEarlyPayoffRequest represents a request to settle the loan through an
// installment number.
type ApplyEarlyPayoffRequest struct {
	ThroughInstallmentNumber int    `json:"through_installment_number"`
	ReceiptRef               string `json:"receipt_ref"`
	Notes                    string `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ApplyEarlyPayoffRequest) ToUseCaseInput(loanID string) usecase.ApplyEarlyPayoffInput {
	return usecase.ApplyEarlyPayoffInput{
		LoanID:                   loanID,
		ThroughInstallmentNumber: r.ThroughInstallmentNumber,
		ReceiptRef:               r.ReceiptRef,
		Notes:                    r.Notes,
	}
}

// SweepDelinquenciesRequest represents a request to run a delinquency sweep.
// AsOf defaults to today when absent.
type SweepDelinquenciesRequest struct {
	AsOf Date `json:"as_of"`
}
