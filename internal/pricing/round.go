package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Round2 rounds half away from zero to two decimals. Non-finite values are
// returned unchanged so callers can reject them.
func Round2(v float64) float64 {
	if !finite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Sum adds money values without accumulating binary drift.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		if !finite(v) {
			return math.Inf(1)
		}
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}

// Percent returns rate percent of amount, rounded to cents.
func Percent(amount, rate float64) float64 {
	if !finite(amount) || !finite(rate) {
		return math.Inf(1)
	}
	p := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate)).Div(decimal.NewFromInt(100))
	return p.Round(2).InexactFloat64()
}
