package pricing

import "storefront-core/internal/model"

// QuantityCeiling is the largest quantity the item may be set to:
// min(maxQuantity, stock on hand). Out of stock items have a ceiling of 0.
// A non-positive stock count is treated as unknown and does not limit.
func QuantityCeiling(item model.LineItem) int {
	if !item.InStock {
		return 0
	}
	ceiling := item.MaxQuantity
	if ceiling < 1 {
		ceiling = model.DefaultMaxQuantity
	}
	if item.Stock > 0 {
		ceiling = min(ceiling, item.Stock)
	}
	return ceiling
}

// AdjustQuantity returns target if it lies in [1, QuantityCeiling(item)].
// Anything else is a no-op: the current quantity comes back with false.
func AdjustQuantity(item model.LineItem, target int) (int, bool) {
	if target < 1 || target > QuantityCeiling(item) {
		return item.Quantity, false
	}
	return target, true
}
