package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentState is the lifecycle state of a single installment.
type InstallmentState string

const (
	InstallmentAwaitingPayment InstallmentState = "awaiting_payment"
	InstallmentPaid            InstallmentState = "paid"
	InstallmentDelinquent      InstallmentState = "delinquent"
	InstallmentInLitigation    InstallmentState = "in_litigation"
)

// DefaultMoratoryRate is the monthly penalty rate (percent) fixed on every
// installment at origination.
var DefaultMoratoryRate = decimal.NewFromInt(3)

// Installment is one scheduled repayment of a loan. Installments are value
// objects owned exclusively by their Loan aggregate: they are created at
// origination, addressed by 1-based number, and never deleted.
type Installment struct {
	Number           int
	PrincipalPortion decimal.Decimal
	InterestPortion  decimal.Decimal
	DueDate          time.Time
	State            InstallmentState

	// MarkedDelinquentAt is set exactly once on the transition into
	// Delinquent and anchors moratory-day counting. Accrual deliberately
	// starts when the installment is flagged late, not at the due date.
	MarkedDelinquentAt *time.Time
	MoratoryRate       decimal.Decimal

	PaidAt          *time.Time
	PrincipalPaid   decimal.Decimal
	InterestPaid    decimal.Decimal
	MoratoryPaid    decimal.Decimal
	TotalPaid       decimal.Decimal
	ReceiptRef      string
	LitigationNotes string
}

// AmountDue is the scheduled amount for this installment. Moratory interest
// is an overdue add-on and is never part of AmountDue.
func (i *Installment) AmountDue() decimal.Decimal {
	return i.PrincipalPortion.Add(i.InterestPortion)
}

// AccruedMoratoryInterest returns the penalty interest accrued up to asOf.
// It is a derived value recomputed on demand, never persisted incrementally:
// amountDue * moratoryRate/100 prorated by elapsed days over a 30-day month.
// Returns zero for any installment that is not Delinquent.
func (i *Installment) AccruedMoratoryInterest(asOf time.Time) decimal.Decimal {
	if i.State != InstallmentDelinquent || i.MarkedDelinquentAt == nil {
		return decimal.Zero
	}

	days := daysOverdue(*i.MarkedDelinquentAt, asOf)
	if days <= 0 {
		return decimal.Zero
	}

	monthly := i.AmountDue().Mul(i.MoratoryRate).Div(hundred)

	return RoundCents(monthly.Mul(decimal.NewFromInt(days)).Div(thirty))
}

// daysOverdue counts whole days from the delinquency mark to asOf, rounding
// partial days up and clamping at zero.
func daysOverdue(markedAt, asOf time.Time) int64 {
	diff := asOf.Sub(markedAt)
	if diff <= 0 {
		return 0
	}

	return int64(math.Ceil(diff.Hours() / 24))
}
