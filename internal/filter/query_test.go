package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codec = Codec{PageSize: 12, CatalogWide: true}

func TestEncode_DefaultStateIsEmpty(t *testing.T) {
	assert.Equal(t, "", codec.Encode(codec.Initial()))
}

func TestEncode_OmitsDefaultsAndSortsKeys(t *testing.T) {
	s := codec.Initial().Update(Change{
		Search:       Ptr("cough syrup"),
		Forms:        Ptr(NewSet("tablet", "syrup")),
		Categories:   Ptr(NewSet("respiratory")),
		Stock:        Ptr(InStockOnly),
		Prescription: Ptr(PrescriptionNotRequired),
		Sort:         Ptr(SortPriceAsc),
	})
	s = s.Update(Change{Page: Ptr(3)})

	got := codec.Encode(s)

	assert.Equal(t,
		"category=respiratory&form=syrup,tablet&in_stock=true&page=3&requires_prescription=false&search=cough+syrup&sort=price_asc",
		got)
}

func TestEncode_PageSizeOnlyWhenNotDefault(t *testing.T) {
	s := codec.Initial().Update(Change{PageSize: Ptr(24)})

	assert.Equal(t, "limit=24", codec.Encode(s))
}

func TestEncode_DropsCategoriesOutsideCatalogWideView(t *testing.T) {
	scoped := Codec{PageSize: 12}
	s := scoped.Initial().Update(Change{Categories: Ptr(NewSet("vitamins")), Forms: Ptr(NewSet("tablet"))})

	assert.Equal(t, "form=tablet", scoped.Encode(s))
	assert.Empty(t, scoped.Decode("category=vitamins").Categories)
}

func TestRoundTrip(t *testing.T) {
	states := []State{
		codec.Initial(),
		codec.Initial().Update(Change{Search: Ptr("para,cetamol 500")}),
		codec.Initial().Update(Change{Forms: Ptr(NewSet("tablet", "cream", "syrup"))}),
		codec.Initial().Update(Change{Categories: Ptr(NewSet("pain relief", "vitamins"))}),
		codec.Initial().Update(Change{Stock: Ptr(InStockOnly), Prescription: Ptr(PrescriptionRequired)}),
		codec.Initial().Update(Change{Prescription: Ptr(PrescriptionNotRequired), Sort: Ptr(SortNameDesc)}),
		codec.Initial().Update(Change{PageSize: Ptr(48)}).Update(Change{Page: Ptr(9)}),
		codec.Initial().Update(Change{Search: Ptr("100% natural & pure")}).Update(Change{Page: Ptr(2)}),
	}

	for _, s := range states {
		t.Run(codec.Encode(s), func(t *testing.T) {
			back := codec.Decode(codec.Encode(s))
			require.True(t, back.Equal(s), "round trip changed state: %+v -> %+v", s, back)
			assert.Equal(t, s, back)
		})
	}
}

func TestDecode_MalformedFallsBackToDefaults(t *testing.T) {
	s := codec.Decode("?page=abc&limit=-5&sort=bogus&in_stock=maybe&requires_prescription=&form=,,")

	assert.True(t, s.Equal(codec.Initial()), "got %+v", s)
}

func TestDecode_ClampsValues(t *testing.T) {
	s := codec.Decode("page=-2&limit=5000")

	assert.Equal(t, 1, s.Page)
	assert.Equal(t, MaxPageSize, s.PageSize)
}

func TestDecode_AcceptsLeadingQuestionMark(t *testing.T) {
	s := codec.Decode("?search=ibuprofen&in_stock=true&requires_prescription=true")

	assert.Equal(t, "ibuprofen", s.Search)
	assert.Equal(t, InStockOnly, s.Stock)
	assert.Equal(t, PrescriptionRequired, s.Prescription)
}

func TestServiceQuery_CarriesLimitForCustomPageSize(t *testing.T) {
	wide := Codec{PageSize: 24, CatalogWide: true}
	s := wide.Initial().Update(Change{Page: Ptr(2)})

	assert.Equal(t, "page=2", wide.Encode(s))
	assert.Equal(t, "limit=24&page=2", wide.ServiceQuery(s))
	assert.Equal(t, "page=2", codec.ServiceQuery(codec.Initial().Update(Change{Page: Ptr(2)})))
}
