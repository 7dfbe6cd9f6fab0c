package filter

import (
	"net/url"
	"strconv"
	"strings"
)

// Query string keys shared by the page URL and the catalog query service.
const (
	KeySearch       = "search"
	KeyForm         = "form"
	KeyCategory     = "category"
	KeyInStock      = "in_stock"
	KeyPrescription = "requires_prescription"
	KeySort         = "sort"
	KeyPage         = "page"
	KeyLimit        = "limit"
)

// Codec converts between State and its canonical query string.
// CatalogWide enables the category facet; other views drop it.
type Codec struct {
	PageSize    int
	CatalogWide bool
}

// Initial is the state of a catalog page with an empty query string.
func (c Codec) Initial() State {
	return New(c.pageSize())
}

// Normalize sanitizes s and removes facets this view does not offer.
func (c Codec) Normalize(s State) State {
	s = s.sanitized()
	if !c.CatalogWide {
		s.Categories = Set{}
	}
	return s
}

// Apply updates s with ch and normalizes the result for this view.
func (c Codec) Apply(s State, ch Change) State {
	return c.Normalize(s.Update(ch))
}

// Encode renders s as an order-stable query string. Fields equal to their
// default are omitted, sets are comma-joined, tri-states are true/false and
// left out when "any".
func (c Codec) Encode(s State) string {
	s = c.Normalize(s)
	v := url.Values{}
	if s.Search != "" {
		v.Set(KeySearch, s.Search)
	}
	if len(s.Forms) > 0 {
		v.Set(KeyForm, s.Forms.String())
	}
	if c.CatalogWide && len(s.Categories) > 0 {
		v.Set(KeyCategory, s.Categories.String())
	}
	if s.Stock == InStockOnly {
		v.Set(KeyInStock, "true")
	}
	switch s.Prescription {
	case PrescriptionRequired:
		v.Set(KeyPrescription, "true")
	case PrescriptionNotRequired:
		v.Set(KeyPrescription, "false")
	}
	if s.Sort != DefaultSort {
		v.Set(KeySort, string(s.Sort))
	}
	if s.Page != 1 {
		v.Set(KeyPage, strconv.Itoa(s.Page))
	}
	if s.PageSize != c.pageSize() {
		v.Set(KeyLimit, strconv.Itoa(s.PageSize))
	}
	// url.Values sorts keys; commas are legal in a query and read better unescaped.
	return strings.ReplaceAll(v.Encode(), "%2C", ",")
}

// ServiceQuery encodes s for the catalog query service, whose own default
// page size is DefaultPageSize. It differs from Encode only when this view
// uses another page size.
func (c Codec) ServiceQuery(s State) string {
	s = c.Normalize(s)
	return Codec{PageSize: DefaultPageSize, CatalogWide: c.CatalogWide}.Encode(s)
}

// Decode parses a query string into a State. Malformed or unknown values
// fall back to their defaults; it never fails.
func (c Codec) Decode(raw string) State {
	raw = strings.TrimPrefix(raw, "?")
	// ParseQuery keeps every pair it could read before an error.
	v, _ := url.ParseQuery(raw)

	s := c.Initial()
	s.Search = strings.TrimSpace(v.Get(KeySearch))
	s.Forms = NewSet(v[KeyForm]...)
	if c.CatalogWide {
		s.Categories = NewSet(v[KeyCategory]...)
	}
	if parseBool(v.Get(KeyInStock)) == 1 {
		s.Stock = InStockOnly
	}
	switch parseBool(v.Get(KeyPrescription)) {
	case 1:
		s.Prescription = PrescriptionRequired
	case 0:
		s.Prescription = PrescriptionNotRequired
	}
	if k := SortKey(v.Get(KeySort)); k.Valid() {
		s.Sort = k
	}
	if p, err := strconv.Atoi(v.Get(KeyPage)); err == nil {
		s.Page = p
	}
	if l, err := strconv.Atoi(v.Get(KeyLimit)); err == nil && l > 0 {
		s.PageSize = l
	}
	return c.Normalize(s)
}

func (c Codec) pageSize() int {
	return sanitizePageSize(c.PageSize, DefaultPageSize)
}

// parseBool returns 1 for "true", 0 for "false" and -1 for anything else.
func parseBool(s string) int {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return 1
	case "false":
		return 0
	}
	return -1
}
