package domain

import "errors"

var (
	// Lookup errors
	ErrLoanNotFound        = errors.New("loan not found")
	ErrInstallmentNotFound = errors.New("installment not found")
	ErrBeneficiaryNotFound = errors.New("beneficiary not found")

	// Mutation errors
	ErrLoanClosed        = errors.New("loan is in a terminal status")
	ErrAlreadyPaid       = errors.New("installment is already paid")
	ErrNothingToSettle   = errors.New("no pending installments to settle")
	ErrNotOverdue        = errors.New("installment is not past its due date")
	ErrNotDelinquent     = errors.New("installment is not delinquent")
	ErrInvalidTransition = errors.New("invalid status transition")

	// Validation errors
	ErrInvalidPrincipal         = errors.New("financed principal must be positive")
	ErrInvalidInterestRate      = errors.New("interest rate must not be negative")
	ErrInvalidInstallmentCount  = errors.New("installment count must be at least 1")
	ErrInvalidInstallmentNumber = errors.New("installment number out of range")
	ErrInvalidAmount            = errors.New("amount must be positive")
	ErrInvalidReceiptRef        = errors.New("invalid receipt reference")

	// Persistence errors
	ErrConcurrentModification = errors.New("loan was modified concurrently, reload and retry")
	ErrScheduleInconsistent   = errors.New("installment schedule does not sum to origination totals")
)
