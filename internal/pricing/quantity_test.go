package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront-core/internal/model"
)

func TestQuantityCeiling(t *testing.T) {
	tests := []struct {
		name    string
		inStock bool
		stock   int
		max     int
		want    int
	}{
		{"default max", true, 0, 0, model.DefaultMaxQuantity},
		{"explicit max", true, 0, 10, 10},
		{"stock below max", true, 3, 10, 3},
		{"stock above max", true, 50, 4, 4},
		{"out of stock", false, 10, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := model.LineItem{InStock: tt.inStock, Stock: tt.stock, MaxQuantity: tt.max, Quantity: 1}
			assert.Equal(t, tt.want, QuantityCeiling(it))
		})
	}
}

func TestAdjustQuantity(t *testing.T) {
	it := model.LineItem{InStock: true, Stock: 3, Quantity: 2}

	for _, target := range []int{1, 2, 3} {
		q, ok := AdjustQuantity(it, target)
		assert.True(t, ok)
		assert.Equal(t, target, q)
	}
	for _, target := range []int{-1, 0, 4, 100} {
		q, ok := AdjustQuantity(it, target)
		assert.False(t, ok, "target %d", target)
		assert.Equal(t, 2, q)
	}
}
