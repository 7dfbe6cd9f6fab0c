// Package cart is the injectable cart state container. A Cart belongs to
// one owner and is not safe for concurrent use.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"storefront-core/internal/model"
	"storefront-core/internal/pricing"
)

// Cart holds ordered line items. Every mutation bumps the revision so that
// price quotes for an older cart can be recognised and dropped.
type Cart struct {
	items     []model.LineItem
	rev       uint64
	shipping  decimal.Decimal
	quotedRev uint64
	quoted    bool
}

func New() *Cart {
	return &Cart{}
}

// FromProduct builds a line item for p.
func FromProduct(p model.Product, qty int) model.LineItem {
	maxQty := p.MaxQuantity
	if maxQty < 1 {
		maxQty = model.DefaultMaxQuantity
	}
	return model.LineItem{
		ProductID:            p.ID,
		Name:                 p.Name,
		UnitPrice:            p.Price,
		DiscountAmount:       p.Discount,
		DiscountType:         p.DiscountType,
		Quantity:             qty,
		RequiresPrescription: p.RequiresPrescription,
		InStock:              p.InStock,
		Stock:                p.Stock,
		MaxQuantity:          maxQty,
	}
}

// Add puts item in the cart, or adds its quantity to the existing line for
// the same product. Quantities outside the allowed range leave the cart
// untouched and return false.
func (c *Cart) Add(item model.LineItem) bool {
	if i := c.index(item.ProductID); i >= 0 {
		return c.setAt(i, c.items[i].Quantity+item.Quantity)
	}
	if _, ok := pricing.AdjustQuantity(item, item.Quantity); !ok {
		return false
	}
	c.items = append(c.items, item)
	c.rev++
	return true
}

func (c *Cart) SetQuantity(productID string, qty int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	return c.setAt(i, qty)
}

func (c *Cart) Increment(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	return c.setAt(i, c.items[i].Quantity+1)
}

// Decrement lowers the quantity by one. It never removes the line.
func (c *Cart) Decrement(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	return c.setAt(i, c.items[i].Quantity-1)
}

func (c *Cart) Remove(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	c.rev++
	return true
}

func (c *Cart) Clear() {
	if len(c.items) == 0 {
		return
	}
	c.items = nil
	c.rev++
}

func (c *Cart) Len() int { return len(c.items) }

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []model.LineItem {
	return slices.Clone(c.items)
}

// Lines is the cart as the pricing and order services want it.
func (c *Cart) Lines() []model.QuoteLine {
	lines := make([]model.QuoteLine, 0, len(c.items))
	for _, it := range c.items {
		lines = append(lines, model.QuoteLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}

func (c *Cart) Revision() uint64 { return c.rev }

// Summary recomputes the totals. Shipping is the last quoted charge, zero
// before the first quote, and Quoted tells whether that quote still
// matches the cart.
func (c *Cart) Summary() model.CartSummary {
	s := pricing.Summarize(c.items, c.shipping)
	s.Quoted = c.quoted && c.quotedRev == c.rev
	return s
}

// ApplyQuote takes authoritative prices, stock and shipping from the cart
// pricing service. A quote requested at an older revision is dropped. Lines
// whose quantity no longer fits the quoted stock are clamped, and lines that
// went out of stock are removed; either bumps the revision so the quote is
// no longer current.
func (c *Cart) ApplyQuote(rev uint64, q *model.PriceQuote) bool {
	if q == nil || rev != c.rev {
		return false
	}
	for _, qi := range q.Items {
		i := c.index(qi.ProductID)
		if i < 0 {
			continue
		}
		it := &c.items[i]
		it.UnitPrice = qi.UnitPrice
		it.DiscountAmount = qi.Discount
		it.DiscountType = qi.DiscountType
		it.InStock = qi.InStock
		it.Stock = qi.Stock
	}
	c.shipping = q.ShippingCharge
	c.quoted = true
	c.quotedRev = rev
	if c.fitStock() {
		c.rev++
	}
	return true
}

// fitStock brings every line back under its quantity ceiling and reports
// whether anything changed.
func (c *Cart) fitStock() bool {
	changed := false
	c.items = slices.DeleteFunc(c.items, func(it model.LineItem) bool {
		if pricing.QuantityCeiling(it) < 1 {
			changed = true
			return true
		}
		return false
	})
	for i := range c.items {
		if ceiling := pricing.QuantityCeiling(c.items[i]); c.items[i].Quantity > ceiling {
			c.items[i].Quantity = ceiling
			changed = true
		}
	}
	return changed
}

func (c *Cart) setAt(i, qty int) bool {
	q, ok := pricing.AdjustQuantity(c.items[i], qty)
	if !ok {
		return false
	}
	if q != c.items[i].Quantity {
		c.items[i].Quantity = q
		c.rev++
	}
	return true
}

func (c *Cart) index(productID string) int {
	return slices.IndexFunc(c.items, func(it model.LineItem) bool {
		return it.ProductID == productID
	})
}
