package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanLoan builds a loan aggregate with its full amortization schedule.
//
// Interest is flat: totalInterest = principal * annualRate / 100, frozen at
// origination and divided equally across installments together with the
// principal. The rounding remainder of each split lands on the last
// installment so the schedule sums match the totals exactly.
//
// Pure construction: no ID, no version, no side effects. The loan starts
// Pending and is activated by an explicit external trigger.
func PlanLoan(beneficiary BeneficiaryRef, financedPrincipal, annualInterestRate decimal.Decimal, installmentCount int, firstDueDate time.Time) (*Loan, error) {
	if financedPrincipal.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidPrincipal
	}

	if annualInterestRate.IsNegative() {
		return nil, ErrInvalidInterestRate
	}

	if installmentCount < 1 {
		return nil, ErrInvalidInstallmentCount
	}

	totalInterest := PercentOf(financedPrincipal, annualInterestRate)
	principals := SplitEven(financedPrincipal, installmentCount)
	interests := SplitEven(totalInterest, installmentCount)

	installments := make([]Installment, installmentCount)
	for k := 0; k < installmentCount; k++ {
		installments[k] = Installment{
			Number:           k + 1,
			PrincipalPortion: principals[k],
			InterestPortion:  interests[k],
			DueDate:          AddMonthsClamped(firstDueDate, k),
			State:            InstallmentAwaitingPayment,
			MoratoryRate:     DefaultMoratoryRate,
		}
	}

	return &Loan{
		Beneficiary:        beneficiary,
		FinancedPrincipal:  financedPrincipal,
		AnnualInterestRate: annualInterestRate,
		TotalInterest:      totalInterest,
		InstallmentCount:   installmentCount,
		Installments:       installments,
		Status:             LoanPending,
	}, nil
}

// AddMonthsClamped steps t forward by calendar months, preserving the day of
// month. When the day does not exist in the target month the date clamps to
// that month's last valid day (Jan 31 + 1 month = Feb 29 in a leap year).
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()

	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}

	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}
