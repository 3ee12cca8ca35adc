package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the overall status of a financed down-payment loan.
type LoanStatus string

const (
	LoanPending             LoanStatus = "pending"
	LoanActive              LoanStatus = "active"
	LoanNormalized          LoanStatus = "normalized"
	LoanLiquidated          LoanStatus = "liquidated"
	LoanCancelledWithRefund LoanStatus = "cancelled_with_refund"
	LoanCancelledNoRefund   LoanStatus = "cancelled_no_refund"
	LoanLitigation          LoanStatus = "litigation"
)

// Loan is the aggregate root for a financed down-payment: the schedule plus
// its full payment ledger, treated as one unit of consistency and
// persistence. All mutation goes through the methods below; each method
// validates every precondition before touching state so a failed operation
// leaves the aggregate untouched.
type Loan struct {
	ID                 string
	Beneficiary        BeneficiaryRef
	FinancedPrincipal  decimal.Decimal
	AnnualInterestRate decimal.Decimal

	// TotalInterest is computed once at origination and frozen. Late
	// payments accrue moratory interest separately; they never reopen
	// this figure.
	TotalInterest decimal.Decimal

	InstallmentCount int
	Installments     []Installment
	Status           LoanStatus
	EarlyPayoff      *EarlyPayoffRecord

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsClosed reports whether the loan is in a terminal status. No installment
// mutation is permitted on a closed loan.
func (l *Loan) IsClosed() bool {
	switch l.Status {
	case LoanLiquidated, LoanCancelledWithRefund, LoanCancelledNoRefund, LoanLitigation:
		return true
	}

	return false
}

// Installment returns the installment with the given 1-based number.
func (l *Loan) Installment(number int) (*Installment, error) {
	if number < 1 || number > len(l.Installments) {
		return nil, ErrInstallmentNotFound
	}

	return &l.Installments[number-1], nil
}

// PaymentSplit overrides the default principal/interest attribution of a
// payment. When nil, the installment's own scheduled portions are booked.
type PaymentSplit struct {
	Principal decimal.Decimal
	Interest  decimal.Decimal
}

// RecordPayment books a payment against an installment and settles it. The
// schedule does not track partial installments: the installment transitions
// to Paid even when amountPaid does not cover amountDue plus accrued
// moratory interest, with TotalPaid recording what was actually received.
func (l *Loan) RecordPayment(number int, amountPaid decimal.Decimal, split *PaymentSplit, receiptRef string, paymentDate time.Time) (*Installment, error) {
	if l.IsClosed() {
		return nil, ErrLoanClosed
	}

	inst, err := l.Installment(number)
	if err != nil {
		return nil, err
	}

	if inst.State == InstallmentPaid {
		return nil, ErrAlreadyPaid
	}

	principalPaid := inst.PrincipalPortion
	interestPaid := inst.InterestPortion
	if split != nil {
		principalPaid = split.Principal
		interestPaid = split.Interest
	}

	paidAt := paymentDate
	inst.MoratoryPaid = inst.AccruedMoratoryInterest(paymentDate)
	inst.PrincipalPaid = principalPaid
	inst.InterestPaid = interestPaid
	inst.TotalPaid = amountPaid
	inst.ReceiptRef = receiptRef
	inst.PaidAt = &paidAt
	inst.State = InstallmentPaid

	l.recomputeStatus()

	return inst, nil
}

// MarkDelinquent flags an installment as overdue as of the given date and
// starts moratory accrual. Re-marking an already-delinquent installment is a
// no-op; the original MarkedDelinquentAt is never overwritten.
func (l *Loan) MarkDelinquent(number int, asOf time.Time) error {
	if l.IsClosed() {
		return ErrLoanClosed
	}

	inst, err := l.Installment(number)
	if err != nil {
		return err
	}

	if inst.State == InstallmentDelinquent {
		return nil
	}

	if inst.State != InstallmentAwaitingPayment {
		return ErrInvalidTransition
	}

	if !asOf.After(inst.DueDate) {
		return ErrNotOverdue
	}

	markedAt := asOf
	inst.MarkedDelinquentAt = &markedAt
	inst.State = InstallmentDelinquent

	l.recomputeStatus()

	return nil
}

// MarkInLitigation escalates a delinquent installment into legal action. The
// loan status becomes Litigation and stays there: litigation is sticky and
// only resolved outside the engine.
func (l *Loan) MarkInLitigation(number int, notes string) error {
	if l.IsClosed() {
		return ErrLoanClosed
	}

	inst, err := l.Installment(number)
	if err != nil {
		return err
	}

	if inst.State != InstallmentDelinquent {
		return ErrNotDelinquent
	}

	inst.State = InstallmentInLitigation
	inst.LitigationNotes = notes

	l.recomputeStatus()

	return nil
}

// Activate moves an originated loan into repayment, typically once the
// beneficiary's own down-payment share is confirmed.
func (l *Loan) Activate() error {
	if l.Status != LoanPending {
		return ErrInvalidTransition
	}

	l.Status = LoanActive

	return nil
}

// Normalize records that a loan which had delinquent installments has been
// brought fully current. It is an explicit administrative step, not an
// automatic reconciliation.
func (l *Loan) Normalize() error {
	if l.Status != LoanActive {
		return ErrInvalidTransition
	}

	for i := range l.Installments {
		switch l.Installments[i].State {
		case InstallmentDelinquent, InstallmentInLitigation:
			return ErrInvalidTransition
		}
	}

	l.Status = LoanNormalized

	return nil
}

// Cancel terminates the loan on contract cancellation. The refund decision
// is made by the contract workflow, not derived from installment state.
func (l *Loan) Cancel(withRefund bool) error {
	if l.IsClosed() {
		return ErrLoanClosed
	}

	if withRefund {
		l.Status = LoanCancelledWithRefund
	} else {
		l.Status = LoanCancelledNoRefund
	}

	return nil
}

// recomputeStatus derives the loan status from installment states. Invoked
// deterministically at the end of every installment mutation: all paid wins,
// then sticky litigation, otherwise the current status stands.
func (l *Loan) recomputeStatus() {
	allPaid := true
	litigation := false

	for i := range l.Installments {
		switch l.Installments[i].State {
		case InstallmentPaid:
		case InstallmentInLitigation:
			litigation = true
			allPaid = false
		default:
			allPaid = false
		}
	}

	if allPaid {
		l.Status = LoanLiquidated
		return
	}

	if litigation {
		l.Status = LoanLitigation
	}
}

// NextUnpaidDueDate returns the earliest due date among installments still
// awaiting payment, or nil when none remain. Persisted alongside the
// aggregate so delinquency sweeps can find overdue loans without unpacking
// schedules.
func (l *Loan) NextUnpaidDueDate() *time.Time {
	var next *time.Time
	for i := range l.Installments {
		if l.Installments[i].State != InstallmentAwaitingPayment {
			continue
		}
		due := l.Installments[i].DueDate
		if next == nil || due.Before(*next) {
			next = &due
		}
	}

	return next
}

// OutstandingPrincipal sums the principal portions of unpaid installments.
func (l *Loan) OutstandingPrincipal() decimal.Decimal {
	total := decimal.Zero
	for i := range l.Installments {
		if l.Installments[i].State != InstallmentPaid {
			total = total.Add(l.Installments[i].PrincipalPortion)
		}
	}

	return total
}

// CheckScheduleInvariants verifies that the schedule still sums back to the
// frozen origination figures.
func (l *Loan) CheckScheduleInvariants() error {
	principal := decimal.Zero
	interest := decimal.Zero
	for i := range l.Installments {
		principal = principal.Add(l.Installments[i].PrincipalPortion)
		interest = interest.Add(l.Installments[i].InterestPortion)
	}

	if !principal.Equal(l.FinancedPrincipal) || !interest.Equal(l.TotalInterest) {
		return ErrScheduleInconsistent
	}

	return nil
}
