package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogSearched is emitted once a settled catalog query has resolved.
// It is published to Kafka topic storefront.catalog.searched.
type CatalogSearched struct {
	EventID   string    `json:"event_id"`
	SessionID string    `json:"session_id,omitempty"`
	Query     string    `json:"query"` // canonical query string
	Total     int       `json:"total"`
	Returned  int       `json:"returned"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlaced is emitted after the order creation service accepted a checkout.
// It is published to Kafka topic storefront.orders.placed.
type OrderPlaced struct {
	EventID              string          `json:"event_id"`
	SessionID            string          `json:"session_id,omitempty"`
	OrderID              string          `json:"order_id"`
	IdempotencyKey       string          `json:"idempotency_key"`
	Items                int             `json:"items"`
	GrandTotal           decimal.Decimal `json:"grand_total"`
	PrescriptionRequired bool            `json:"prescription_required"`
	Timestamp            time.Time       `json:"timestamp"`
}

// CatalogChanged is consumed from topic catalog.changed whenever the backend
// catalog mutates; cached catalog pages are dropped when it arrives.
type CatalogChanged struct {
	ProductIDs []string  `json:"product_ids,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
