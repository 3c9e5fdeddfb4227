// Package tax computes per-line tax amounts for cart and order display.
package tax

import (
	"github.com/mercaly/storefront/internal/models"
)

// ComputeLineTax returns the tax amount for one cart line.
//
// A per-product rule applies only when it exists with Value > 0; otherwise the
// store-wide default percentage is used. Flat rules charge Value per unit and
// ignore the price. Inputs are taken as given with no validation; this is a
// display aggregate, not a ledger.
func ComputeLineTax(price float64, quantity int, rule *models.TaxRule, defaultPercentage float64) float64 {
	if rule != nil && rule.Value > 0 {
		switch rule.Type {
		case models.TaxFlat:
			return rule.Value * float64(quantity)
		case models.TaxPercentage:
			return price * float64(quantity) * rule.Value / 100
		}
	}
	return price * float64(quantity) * defaultPercentage / 100
}

// Totals aggregates a cart's subtotal, tax and grand total for display.
// Each line's unit price follows CartItem.UnitPrice and its tax rule comes
// from the product snapshot when present.
func Totals(items []models.CartItem, defaultPercentage float64) (subtotal, taxTotal, total float64) {
	for _, it := range items {
		price := it.UnitPrice()
		var rule *models.TaxRule
		if it.Product != nil {
			rule = it.Product.Tax
		}
		subtotal += price * float64(it.Quantity)
		taxTotal += ComputeLineTax(price, it.Quantity, rule, defaultPercentage)
	}
	return subtotal, taxTotal, subtotal + taxTotal
}
