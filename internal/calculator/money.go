package calculator

import (
	"math"

	"github.com/shopspring/decimal"
)

// RoundCents rounds v to two decimal places, half away from zero.
func RoundCents(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// WholeCents reports whether v is a whole number of cents, allowing for float noise.
func WholeCents(v float64) bool {
	return math.Abs(v-RoundCents(v)) < 1e-9
}

// cents converts v to a whole number of cents.
func cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Shift(2).Round(0)
}

// fromCents converts whole cents back to a float amount.
func fromCents(c decimal.Decimal) float64 {
	f, _ := c.Shift(-2).Float64()
	return f
}
