package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType says how a discount amount is applied to a unit price.
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFlat       DiscountType = "FLAT"
)

// Product is one catalog entry as returned by the catalog query service.
type Product struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Form                 string          `json:"form,omitempty"`     // tablet, syrup, cream...
	Category             string          `json:"category,omitempty"` // catalog-wide view only
	Price                decimal.Decimal `json:"price"`
	Discount             decimal.Decimal `json:"discount"`
	DiscountType         DiscountType    `json:"discount_type,omitempty"`
	RequiresPrescription bool            `json:"requires_prescription"`
	InStock              bool            `json:"in_stock"`
	Stock                int             `json:"stock,omitempty"`
	MaxQuantity          int             `json:"max_quantity,omitempty"`
	Image                string          `json:"image,omitempty"`
	CreatedAt            time.Time       `json:"created_at,omitempty"`
}

// CatalogMeta carries the paging totals of a catalog response.
type CatalogMeta struct {
	Total int `json:"total"`
	Limit int `json:"limit"`
}

// CatalogPage models the catalog query service response.
type CatalogPage struct {
	Data []Product   `json:"data"`
	Meta CatalogMeta `json:"meta"`
}
