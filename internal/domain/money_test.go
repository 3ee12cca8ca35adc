package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSplitEven_SumsBackExactly(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		n     int
	}{
		{"single share", 600000, 1},
		{"even split", 600000, 6},
		{"remainder of one", 100001, 2},
		{"remainder of two", 100000, 3},
		{"twelve shares", 42000, 12},
		{"awkward divisor", 999999, 37},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.NewFromInt(tt.total)
			shares := SplitEven(total, tt.n)

			if len(shares) != tt.n {
				t.Fatalf("expected %d shares, got %d", tt.n, len(shares))
			}

			sum := decimal.Zero
			for _, s := range shares {
				sum = sum.Add(s)
			}

			if !sum.Equal(total) {
				t.Errorf("shares sum to %s, want %s", sum, total)
			}

			// all shares except the last are the floor of the even split
			base := total.Div(decimal.NewFromInt(int64(tt.n))).Floor()
			for i := 0; i < tt.n-1; i++ {
				if !shares[i].Equal(base) {
					t.Errorf("share %d = %s, want %s", i, shares[i], base)
				}
			}
		})
	}
}

func TestSplitEven_RemainderGoesToLast(t *testing.T) {
	shares := SplitEven(decimal.NewFromInt(100), 3)

	if !shares[0].Equal(decimal.NewFromInt(33)) || !shares[1].Equal(decimal.NewFromInt(33)) {
		t.Errorf("leading shares = %s, %s, want 33, 33", shares[0], shares[1])
	}

	if !shares[2].Equal(decimal.NewFromInt(34)) {
		t.Errorf("last share = %s, want 34", shares[2])
	}
}

func TestPercentOf(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		rate     string
		expected int64
	}{
		{"seven percent", 600000, "7", 42000},
		{"zero rate", 600000, "0", 0},
		{"fractional rate rounds to cent", 10000, "3.333", 333},
		{"one percent", 600000, "1", 6000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, _ := decimal.NewFromString(tt.rate)
			got := PercentOf(decimal.NewFromInt(tt.amount), rate)

			if !got.Equal(decimal.NewFromInt(tt.expected)) {
				t.Errorf("PercentOf(%d, %s) = %s, want %d", tt.amount, tt.rate, got, tt.expected)
			}
		})
	}
}

func TestMoneyCentsRoundTrip(t *testing.T) {
	amount := MoneyFromCents(107000)

	if Cents(amount) != 107000 {
		t.Errorf("expected 107000 cents, got %d", Cents(amount))
	}
}
