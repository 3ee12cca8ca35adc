package domain

import "time"

// Event types
const (
	EventTypeLoanOriginated        = "loan.originated"
	EventTypeLoanActivated         = "loan.activated"
	EventTypeLoanNormalized        = "loan.normalized"
	EventTypeLoanCancelled         = "loan.cancelled"
	EventTypeLoanLiquidated        = "loan.liquidated"
	EventTypeInstallmentPaid       = "installment.paid"
	EventTypeInstallmentDelinquent = "installment.delinquent"
	EventTypeInstallmentLitigation = "installment.litigation"
	EventTypeEarlyPayoffApplied    = "loan.payoff_applied"
)

// Aggregate types
const (
	AggregateTypeLoan = "loan"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// LoanOriginatedEvent payload
type LoanOriginatedEvent struct {
	LoanID                 string `json:"loan_id"`
	BeneficiaryID          string `json:"beneficiary_id"`
	FinancedPrincipalCents int64  `json:"financed_principal_cents"`
	TotalInterestCents     int64  `json:"total_interest_cents"`
	InstallmentCount       int    `json:"installment_count"`
	FirstDueDate           string `json:"first_due_date"`
}

// InstallmentPaidEvent payload
type InstallmentPaidEvent struct {
	LoanID            string `json:"loan_id"`
	InstallmentNumber int    `json:"installment_number"`
	TotalPaidCents    int64  `json:"total_paid_cents"`
	MoratoryPaidCents int64  `json:"moratory_paid_cents"`
	ReceiptRef        string `json:"receipt_ref"`
	LoanStatus        string `json:"loan_status"`
}

// InstallmentDelinquentEvent payload
type InstallmentDelinquentEvent struct {
	LoanID            string `json:"loan_id"`
	InstallmentNumber int    `json:"installment_number"`
	MarkedAt          string `json:"marked_at"`
}

// InstallmentLitigationEvent payload
type InstallmentLitigationEvent struct {
	LoanID            string `json:"loan_id"`
	InstallmentNumber int    `json:"installment_number"`
}

// EarlyPayoffAppliedEvent payload
type EarlyPayoffAppliedEvent struct {
	LoanID                string `json:"loan_id"`
	ThroughInstallment    int    `json:"through_installment"`
	FinalAmountDueCents   int64  `json:"final_amount_due_cents"`
	InterestForgivenCents int64  `json:"interest_forgiven_cents"`
	ReceiptRef            string `json:"receipt_ref"`
	LoanStatus            string `json:"loan_status"`
}

// LoanStatusChangedEvent payload, used for activation, normalization and
// cancellation transitions.
type LoanStatusChangedEvent struct {
	LoanID string `json:"loan_id"`
	Status string `json:"status"`
}
