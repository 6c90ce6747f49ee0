package costing

import "github.com/shopspring/decimal"

// RoundUp rounds v up to the next multiple of step. A non-positive step leaves v as is.
func RoundUp(v, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return v
	}
	return v.Div(step).Ceil().Mul(step)
}

// Display rounds a monetary figure to cents for presentation. Sums are kept exact
// until this point.
func Display(v decimal.Decimal) float64 {
	return v.Round(2).InexactFloat64()
}
