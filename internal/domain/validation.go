package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation limits. Amounts are cents.
const (
	MaxInstallmentCount = 120
	MaxReceiptRefLength = 128
	MaxNotesLength      = 2048
	MaxPrincipalCents   = "100000000000" // 1 billion in major units
	MaxInterestRate     = "100"
)

// ValidatePrincipal validates a financed principal amount.
func ValidatePrincipal(principal decimal.Decimal) error {
	if principal.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidPrincipal
	}

	max, _ := decimal.NewFromString(MaxPrincipalCents)
	if principal.GreaterThan(max) {
		return fmt.Errorf("%w: maximum principal is %s cents", ErrInvalidPrincipal, MaxPrincipalCents)
	}

	return nil
}

// ValidateInterestRate validates a flat annual interest rate percentage.
func ValidateInterestRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return ErrInvalidInterestRate
	}

	max, _ := decimal.NewFromString(MaxInterestRate)
	if rate.GreaterThan(max) {
		return fmt.Errorf("%w: maximum rate is %s%%", ErrInvalidInterestRate, MaxInterestRate)
	}

	return nil
}

// ValidateInstallmentCount validates the number of installments.
func ValidateInstallmentCount(count int) error {
	if count < 1 {
		return ErrInvalidInstallmentCount
	}

	if count > MaxInstallmentCount {
		return fmt.Errorf("%w: maximum is %d installments", ErrInvalidInstallmentCount, MaxInstallmentCount)
	}

	return nil
}

// ValidateReceiptRef validates an opaque receipt reference.
func ValidateReceiptRef(ref string) error {
	ref = strings.TrimSpace(ref)

	if ref == "" {
		return fmt.Errorf("%w: cannot be empty", ErrInvalidReceiptRef)
	}

	if len(ref) > MaxReceiptRefLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidReceiptRef, MaxReceiptRefLength)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const maxPageSize = 1000
	const defaultPageSize = 50

	if limit <= 0 {
		limit = defaultPageSize
	}

	if limit > maxPageSize {
		limit = maxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
