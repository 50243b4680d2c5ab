package types

import "github.com/shopspring/decimal"

// Epsilon is the tolerance for money comparisons. Amounts are 2-decimal
// fixed, so two values closer than a cent are the same value.
var Epsilon = decimal.NewFromFloat(0.01)

// WithinEpsilon reports whether a and b differ by less than one cent.
func WithinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Epsilon)
}

// IsZeroAmount reports whether v nets to zero at cent precision.
func IsZeroAmount(v decimal.Decimal) bool {
	return v.Abs().LessThanOrEqual(Epsilon)
}

// Round2 normalizes v to the 2-decimal fixed representation the ledger
// persists.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}
