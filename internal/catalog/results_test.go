package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront-core/internal/model"
)

func pageOf(total, limit, n int) *model.CatalogPage {
	items := make([]model.Product, n)
	for i := range items {
		items[i] = model.Product{ID: string(rune('a' + i)), Name: "product"}
	}
	return &model.CatalogPage{Data: items, Meta: model.CatalogMeta{Total: total, Limit: limit}}
}

func TestResults_TotalPages(t *testing.T) {
	tests := []struct {
		total, limit, want int
	}{
		{0, 12, 0},
		{1, 12, 1},
		{12, 12, 1},
		{13, 12, 2},
		{25, 12, 3},
		{10, 0, 10},
	}
	for _, tt := range tests {
		var r Results
		r.Apply(1, pageOf(tt.total, tt.limit, 0))
		assert.Equal(t, tt.want, r.TotalPages(), "total=%d limit=%d", tt.total, tt.limit)
	}
}

func TestResults_ValidPage(t *testing.T) {
	var r Results
	r.Apply(1, pageOf(25, 12, 12))

	assert.False(t, r.ValidPage(0))
	assert.True(t, r.ValidPage(1))
	assert.True(t, r.ValidPage(3))
	assert.False(t, r.ValidPage(4))
}

func TestResults_NoPageIsValidWhenEmpty(t *testing.T) {
	var r Results
	assert.False(t, r.ValidPage(1))

	r.Apply(1, pageOf(0, 12, 0))
	assert.False(t, r.ValidPage(1))
}

func TestResults_DiscardsOlderSequence(t *testing.T) {
	var r Results

	assert.True(t, r.Apply(3, pageOf(30, 12, 12)))
	assert.False(t, r.Apply(2, pageOf(5, 12, 5)))
	assert.Equal(t, 30, r.Total())
	assert.Equal(t, uint64(3), r.Applied())

	assert.True(t, r.Apply(4, pageOf(5, 12, 5)))
	assert.Equal(t, 5, r.Total())
	assert.Len(t, r.Items(), 5)
}

func TestResults_IgnoresNilPage(t *testing.T) {
	var r Results
	assert.False(t, r.Apply(1, nil))
	assert.Equal(t, uint64(0), r.Applied())
}
