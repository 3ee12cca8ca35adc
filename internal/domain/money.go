package domain

import "github.com/shopspring/decimal"

// Monetary values are decimal amounts denominated in minor currency units
// (cents). Keeping amounts integral in cents avoids floating-point drift
// when a schedule is split and re-summed many times.

var (
	hundred = decimal.NewFromInt(100)
	thirty  = decimal.NewFromInt(30)
)

// MoneyFromCents builds a monetary amount from integer cents.
func MoneyFromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents)
}

// Cents returns the amount as integer cents.
func Cents(amount decimal.Decimal) int64 {
	return amount.IntPart()
}

// RoundCents rounds an amount to a whole number of cents using banker's
// rounding.
func RoundCents(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundBank(0)
}

// PercentOf returns rate% of amount, rounded to a whole cent.
func PercentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return RoundCents(amount.Mul(rate).Div(hundred))
}

// SplitEven divides total into n equal cent shares. The division remainder
// goes to the last share so the shares always sum back to total exactly.
func SplitEven(total decimal.Decimal, n int) []decimal.Decimal {
	shares := make([]decimal.Decimal, n)
	if n == 0 {
		return shares
	}

	base := total.Div(decimal.NewFromInt(int64(n))).Floor()
	running := decimal.Zero
	for i := 0; i < n-1; i++ {
		shares[i] = base
		running = running.Add(base)
	}
	shares[n-1] = total.Sub(running)

	return shares
}
