package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EarlyPayoffRecord captures a liquidación anticipada: settling every
// installment through a chosen number before the schedule completes, with
// partial forgiveness of unearned interest. Stored for audit and immutable
// once applied.
type EarlyPayoffRecord struct {
	ThroughInstallmentNumber int

	PrincipalRemaining  decimal.Decimal
	InterestCharged     decimal.Decimal
	InterestForgiven    decimal.Decimal
	FinalAmountDue      decimal.Decimal
	TotalPreviouslyPaid decimal.Decimal

	// ForgivenessClamped flags the pathological case where charged plus
	// already-paid interest exceeds the frozen total. The forgiven amount
	// is floored at zero but the condition is surfaced, not hidden.
	ForgivenessClamped bool

	ReceiptRef string
	Notes      string
	AppliedAt  time.Time
}

// ComputeEarlyPayoff quotes the settlement needed to close the loan through
// the given installment number. Read-only: callers may preview concurrently
// and commit later via Loan.ApplyEarlyPayoff.
//
// The interest charged is throughInstallmentNumber percent of the original
// financed principal. That "1% per elapsed installment" rule is the
// program's business rule, not an amortization formula, and is kept as-is.
func ComputeEarlyPayoff(l *Loan, throughInstallmentNumber int) (*EarlyPayoffRecord, error) {
	if throughInstallmentNumber < 1 || throughInstallmentNumber > l.InstallmentCount {
		return nil, ErrInvalidInstallmentNumber
	}

	principalRemaining := decimal.Zero
	interestAlreadyPaid := decimal.Zero
	totalPreviouslyPaid := decimal.Zero
	pending := 0

	for i := range l.Installments {
		inst := &l.Installments[i]
		if inst.Number > throughInstallmentNumber {
			continue
		}

		if inst.State == InstallmentPaid {
			interestAlreadyPaid = interestAlreadyPaid.Add(inst.InterestPaid)
			totalPreviouslyPaid = totalPreviouslyPaid.
				Add(inst.PrincipalPaid).
				Add(inst.InterestPaid).
				Add(inst.MoratoryPaid)
			continue
		}

		pending++
		principalRemaining = principalRemaining.Add(inst.PrincipalPortion)
	}

	if pending == 0 {
		return nil, ErrNothingToSettle
	}

	interestCharged := PercentOf(l.FinancedPrincipal, decimal.NewFromInt(int64(throughInstallmentNumber)))

	interestForgiven := l.TotalInterest.Sub(interestAlreadyPaid).Sub(interestCharged)
	clamped := false
	if interestForgiven.IsNegative() {
		interestForgiven = decimal.Zero
		clamped = true
	}

	return &EarlyPayoffRecord{
		ThroughInstallmentNumber: throughInstallmentNumber,
		PrincipalRemaining:       principalRemaining,
		InterestCharged:          interestCharged,
		InterestForgiven:         interestForgiven,
		FinalAmountDue:           principalRemaining.Add(interestCharged).Sub(interestAlreadyPaid),
		TotalPreviouslyPaid:      totalPreviouslyPaid,
		ForgivenessClamped:       clamped,
	}, nil
}

// ApplyEarlyPayoff commits an early payoff. The record is recomputed from the
// loan's current state rather than trusted from a caller-held preview, then
// every unpaid installment through the chosen number is booked Paid at face
// value. The forgiveness lives in the loan-level record, not per installment.
//
// A payoff through an intermediate installment leaves later installments
// pending and the loan Active; paying through the last one liquidates it.
func (l *Loan) ApplyEarlyPayoff(throughInstallmentNumber int, receiptRef, notes string, now time.Time) (*EarlyPayoffRecord, error) {
	if l.IsClosed() {
		return nil, ErrLoanClosed
	}

	record, err := ComputeEarlyPayoff(l, throughInstallmentNumber)
	if err != nil {
		return nil, err
	}

	record.ReceiptRef = receiptRef
	record.Notes = notes
	record.AppliedAt = now

	for i := range l.Installments {
		inst := &l.Installments[i]
		if inst.Number > throughInstallmentNumber || inst.State == InstallmentPaid {
			continue
		}

		paidAt := now
		inst.PrincipalPaid = inst.PrincipalPortion
		inst.InterestPaid = inst.InterestPortion
		inst.MoratoryPaid = decimal.Zero
		inst.TotalPaid = inst.AmountDue()
		inst.ReceiptRef = receiptRef
		inst.PaidAt = &paidAt
		inst.State = InstallmentPaid
	}

	l.EarlyPayoff = record
	l.recomputeStatus()

	return record, nil
}
