package filter

import "strings"

const (
	// DefaultPageSize matches the catalog service's default limit.
	DefaultPageSize = 12
	// MaxPageSize is the largest limit the catalog service accepts.
	MaxPageSize = 100
)

// StockFilter narrows the catalog by availability.
type StockFilter int

const (
	AnyStock StockFilter = iota
	InStockOnly
)

// PrescriptionFilter narrows the catalog by prescription requirement.
type PrescriptionFilter int

const (
	PrescriptionAny PrescriptionFilter = iota
	PrescriptionRequired
	PrescriptionNotRequired
)

// SortKey orders catalog results. The string value is the wire form.
type SortKey string

const (
	SortCreatedAtDesc SortKey = "created_at_desc"
	SortPriceAsc      SortKey = "price_asc"
	SortPriceDesc     SortKey = "price_desc"
	SortNameAsc       SortKey = "name_asc"
	SortNameDesc      SortKey = "name_desc"
)

// DefaultSort is applied when no sort was chosen.
const DefaultSort = SortCreatedAtDesc

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortCreatedAtDesc, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc:
		return true
	}
	return false
}

// State is an immutable snapshot of the catalog search criteria.
// Page is always >= 1, PageSize always > 0, and the sets are never nil.
type State struct {
	Search       string
	Forms        Set
	Categories   Set
	Stock        StockFilter
	Prescription PrescriptionFilter
	Sort         SortKey
	Page         int
	PageSize     int
}

// New returns the default state for the given page size.
func New(pageSize int) State {
	return State{
		Forms:      Set{},
		Categories: Set{},
		Sort:       DefaultSort,
		Page:       1,
		PageSize:   sanitizePageSize(pageSize, DefaultPageSize),
	}
}

// Change is a partial update. Nil fields are left untouched.
type Change struct {
	Search       *string
	Forms        *Set
	Categories   *Set
	Stock        *StockFilter
	Prescription *PrescriptionFilter
	Sort         *SortKey
	Page         *int
	PageSize     *int
}

// Ptr returns a pointer to v, for building a Change inline.
func Ptr[T any](v T) *T {
	return &v
}

// Update applies c and returns the new state. Any refinement that alters a
// value resets the page to 1, and so does a page size change. A change of
// page alone touches nothing else.
func (s State) Update(c Change) State {
	next := s.sanitized()
	refined := false

	if c.Search != nil {
		if q := strings.TrimSpace(*c.Search); q != next.Search {
			next.Search = q
			refined = true
		}
	}
	if c.Forms != nil {
		if f := NewSet(*c.Forms...); !f.Equal(next.Forms) {
			next.Forms = f
			refined = true
		}
	}
	if c.Categories != nil {
		if cs := NewSet(*c.Categories...); !cs.Equal(next.Categories) {
			next.Categories = cs
			refined = true
		}
	}
	if c.Stock != nil {
		if st := sanitizeStock(*c.Stock); st != next.Stock {
			next.Stock = st
			refined = true
		}
	}
	if c.Prescription != nil {
		if p := sanitizePrescription(*c.Prescription); p != next.Prescription {
			next.Prescription = p
			refined = true
		}
	}
	if c.Sort != nil {
		if k := sanitizeSort(*c.Sort); k != next.Sort {
			next.Sort = k
			refined = true
		}
	}
	if c.PageSize != nil {
		if ps := sanitizePageSize(*c.PageSize, next.PageSize); ps != next.PageSize {
			next.PageSize = ps
			refined = true
		}
	}

	switch {
	case refined:
		next.Page = 1
	case c.Page != nil:
		next.Page = sanitizePage(*c.Page)
	}
	return next
}

// IsRefinementOf reports whether s differs from prev in anything but the page.
func (s State) IsRefinementOf(prev State) bool {
	s.Page, prev.Page = 0, 0
	return !s.Equal(prev)
}

// Equal compares two states field by field.
func (s State) Equal(o State) bool {
	return s.Search == o.Search &&
		s.Forms.Equal(o.Forms) &&
		s.Categories.Equal(o.Categories) &&
		s.Stock == o.Stock &&
		s.Prescription == o.Prescription &&
		s.Sort == o.Sort &&
		s.Page == o.Page &&
		s.PageSize == o.PageSize
}

func (s State) sanitized() State {
	s.Search = strings.TrimSpace(s.Search)
	s.Forms = NewSet(s.Forms...)
	s.Categories = NewSet(s.Categories...)
	s.Stock = sanitizeStock(s.Stock)
	s.Prescription = sanitizePrescription(s.Prescription)
	s.Sort = sanitizeSort(s.Sort)
	s.Page = sanitizePage(s.Page)
	s.PageSize = sanitizePageSize(s.PageSize, DefaultPageSize)
	return s
}

func sanitizePage(p int) int {
	if p < 1 {
		return 1
	}
	return p
}

func sanitizePageSize(n, fallback int) int {
	switch {
	case n < 1:
		if fallback < 1 {
			return DefaultPageSize
		}
		return min(fallback, MaxPageSize)
	case n > MaxPageSize:
		return MaxPageSize
	}
	return n
}

func sanitizeStock(s StockFilter) StockFilter {
	if s == InStockOnly {
		return InStockOnly
	}
	return AnyStock
}

func sanitizePrescription(p PrescriptionFilter) PrescriptionFilter {
	switch p {
	case PrescriptionRequired, PrescriptionNotRequired:
		return p
	}
	return PrescriptionAny
}

func sanitizeSort(k SortKey) SortKey {
	if k.Valid() {
		return k
	}
	return DefaultSort
}
