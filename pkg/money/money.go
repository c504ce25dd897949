// Package money does line and cart arithmetic in decimal so totals do not
// pick up binary floating-point noise.
package money

import "github.com/shopspring/decimal"

// Subtotal is price × quantity rounded to cents.
func Subtotal(price float64, quantity int) float64 {
	v, _ := decimal.NewFromFloat(price).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2).
		Float64()
	return v
}

// Sum adds amounts and rounds the result to cents.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	v, _ := total.Round(2).Float64()
	return v
}
