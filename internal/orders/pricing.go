package orders

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Charges are the amounts added to or taken off an order's subtotal.
type Charges struct {
	Tax          decimal.Decimal
	ShippingCost decimal.Decimal
	Discount     decimal.Decimal
}

// Pricing derives order charges from the subtotal. Callers never supply
// charges; a zero Pricing charges nothing.
type Pricing struct {
	TaxRate          decimal.Decimal
	FlatShipping     decimal.Decimal
	FreeShippingOver decimal.Decimal
}

// Charges returns tax rounded to cents and the shipping cost, which is waived
// once the subtotal reaches FreeShippingOver (when set).
func (p Pricing) Charges(subtotal decimal.Decimal) Charges {
	shipping := p.FlatShipping
	if p.FreeShippingOver.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeShippingOver) {
		shipping = decimal.Zero
	}
	return Charges{
		Tax:          subtotal.Mul(p.TaxRate).Round(2),
		ShippingCost: shipping,
		Discount:     decimal.Zero,
	}
}

func (p Pricing) validate() error {
	for name, amount := range map[string]decimal.Decimal{
		"tax rate":           p.TaxRate,
		"flat shipping":      p.FlatShipping,
		"free shipping over": p.FreeShippingOver,
	} {
		if amount.IsNegative() {
			return fmt.Errorf("order pricing %s must not be negative", name)
		}
	}
	return nil
}
