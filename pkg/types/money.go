package types

import "github.com/shopspring/decimal"

// Money renders an amount with exactly two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// MoneyPtr renders an optional amount; nil stays nil.
func MoneyPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := Money(*d)
	return &s
}
