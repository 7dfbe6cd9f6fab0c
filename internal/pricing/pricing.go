// Package pricing turns line items into prices and cart totals. Every
// function here is pure.
package pricing

import (
	"slices"

	"github.com/shopspring/decimal"

	"storefront-core/internal/model"
)

var hundred = decimal.NewFromInt(100)

// EffectiveUnitPrice applies the item's discount to its unit price. The
// result never drops below zero and never exceeds the unit price.
func EffectiveUnitPrice(item model.LineItem) decimal.Decimal {
	price := item.UnitPrice
	if price.IsNegative() {
		price = decimal.Zero
	}
	d := item.DiscountAmount
	if !d.IsPositive() {
		return price
	}

	var eff decimal.Decimal
	switch item.DiscountType {
	case model.DiscountPercentage:
		eff = price.Sub(price.Mul(d).Div(hundred))
	case model.DiscountFlat:
		eff = price.Sub(d)
	default:
		return price
	}
	if eff.IsNegative() {
		return decimal.Zero
	}
	return eff
}

// LineTotal is the effective unit price times the quantity.
func LineTotal(item model.LineItem) decimal.Decimal {
	return EffectiveUnitPrice(item).Mul(decimal.NewFromInt(int64(max(item.Quantity, 0))))
}

func CartSubtotal(items []model.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(LineTotal(it))
	}
	return total
}

// PrescriptionRequired reports whether any item needs a prescription.
func PrescriptionRequired(items []model.LineItem) bool {
	return slices.ContainsFunc(items, func(it model.LineItem) bool {
		return it.RequiresPrescription
	})
}

// Summarize derives the cart summary. Shipping always comes from the cart
// pricing service and is passed in as is.
func Summarize(items []model.LineItem, shipping decimal.Decimal) model.CartSummary {
	subtotal := CartSubtotal(items)
	return model.CartSummary{
		Subtotal:             subtotal,
		ShippingFee:          shipping,
		GrandTotal:           subtotal.Add(shipping),
		PrescriptionRequired: PrescriptionRequired(items),
	}
}
