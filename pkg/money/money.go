// Package money holds the rounding rules shared by every monetary
// computation. All amounts are shopspring decimals; floats never enter.
package money

import "github.com/shopspring/decimal"

// Places is the number of decimal places amounts are stored with.
const Places = 2

var hundred = decimal.NewFromInt(100)

// Round rounds half away from zero to two places (half-up for positive amounts).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Tax computes round(subtotal * ratePercent / 100, 2).
func Tax(subtotal, ratePercent decimal.Decimal) decimal.Decimal {
	return Round(subtotal.Mul(ratePercent).Div(hundred))
}

// LineTotal is unitPrice * qty, rounded.
func LineTotal(unitPrice decimal.Decimal, qty int) decimal.Decimal {
	return Round(unitPrice.Mul(decimal.NewFromInt(int64(qty))))
}

// Sum adds every value.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
