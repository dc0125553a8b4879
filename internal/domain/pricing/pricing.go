// Package pricing turns an order subtotal and a tax percentage into the
// amounts stored on an adoption order. All results are rounded half away from
// zero to two decimal places.
package pricing

import "github.com/shopspring/decimal"

const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

type Totals struct {
	Subtotal      float64
	TaxPercent    float64
	TaxAmount     float64
	ProcessingFee float64
	ShippingFee   float64
	Total         float64
}

// CalculateTotals returns the tax amount and the taxed total for subtotal.
// Fees are not included; see WithFees.
func CalculateTotals(subtotal, taxPercent float64) Totals {
	sub := Round(subtotal)
	tax := sub.Mul(decimal.NewFromFloat(taxPercent)).Div(hundred).Round(moneyPlaces)
	total := sub.Add(tax).Round(moneyPlaces)

	return Totals{
		Subtotal:   sub.InexactFloat64(),
		TaxPercent: taxPercent,
		TaxAmount:  tax.InexactFloat64(),
		Total:      total.InexactFloat64(),
	}
}

// WithFees adds the fixed per-order fees to an already taxed total.
func WithFees(t Totals, processingFee, shippingFee float64) Totals {
	total := decimal.NewFromFloat(t.Total).
		Add(decimal.NewFromFloat(processingFee)).
		Add(decimal.NewFromFloat(shippingFee)).
		Round(moneyPlaces)

	t.ProcessingFee = processingFee
	t.ShippingFee = shippingFee
	t.Total = total.InexactFloat64()
	return t
}

// Sum adds prices and rounds the result to cents.
func Sum(prices ...float64) float64 {
	acc := decimal.Zero
	for _, p := range prices {
		acc = acc.Add(decimal.NewFromFloat(p))
	}
	return acc.Round(moneyPlaces).InexactFloat64()
}

// MinorUnits converts an amount to the smallest currency unit, e.g. cents.
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(hundred).Round(0).IntPart()
}

func Round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(moneyPlaces)
}
