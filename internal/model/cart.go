package model

import "github.com/shopspring/decimal"

// DefaultMaxQuantity caps a line item when the product does not say otherwise.
const DefaultMaxQuantity = 5

// LineItem is one product entry within a cart or order.
type LineItem struct {
	ProductID            string          `json:"product_id"`
	Name                 string          `json:"name"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	DiscountAmount       decimal.Decimal `json:"discount_amount"`
	DiscountType         DiscountType    `json:"discount_type"`
	Quantity             int             `json:"quantity"`
	RequiresPrescription bool            `json:"requires_prescription"`
	InStock              bool            `json:"in_stock"`
	Stock                int             `json:"stock,omitempty"` // units on hand; <= 0 means unknown
	MaxQuantity          int             `json:"max_quantity"`
}

// CartSummary is derived from the cart's line items and never stored on its own.
type CartSummary struct {
	Subtotal             decimal.Decimal `json:"subtotal"`
	ShippingFee          decimal.Decimal `json:"shipping_fee"`
	GrandTotal           decimal.Decimal `json:"grand_total"`
	PrescriptionRequired bool            `json:"prescription_required"`
	// Quoted is false until the cart pricing service has priced the current cart.
	Quoted bool `json:"quoted"`
}

// QuoteLine is what the cart pricing service needs per line.
type QuoteLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// QuotedItem is the authoritative price of one line.
type QuotedItem struct {
	ProductID    string          `json:"product_id"`
	UnitPrice    decimal.Decimal `json:"price"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountType DiscountType    `json:"discount_type"`
	InStock      bool            `json:"in_stock"`
	Stock        int             `json:"stock,omitempty"`
}

// PriceQuote models the cart pricing service response.
type PriceQuote struct {
	Items          []QuotedItem    `json:"items"`
	ShippingCharge decimal.Decimal `json:"shipping_charge"`
}
