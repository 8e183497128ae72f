// Package pricing derives sale prices and normalizes product variant input.
package pricing

import "github.com/shopspring/decimal"

var (
	hundred  = decimal.NewFromInt(100)
	minPrice = decimal.NewFromInt(1)
)

// SalePrice returns original × (1 − discount/100), never below 1. The result
// is not rounded; the price columns are unscaled NUMERIC.
func SalePrice(original, discountPercent float64) float64 {
	op := decimal.NewFromFloat(original)
	dp := decimal.NewFromFloat(discountPercent)

	sale := op.Sub(op.Mul(dp).Div(hundred))
	return decimal.Max(sale, minPrice).InexactFloat64()
}
