package catalog

import "storefront-core/internal/model"

// Results holds the most recently applied catalog response.
type Results struct {
	applied uint64
	items   []model.Product
	meta    model.CatalogMeta
}

// Apply installs page as the current result set unless seq is older than
// the newest sequence already applied. It reports whether page was used.
func (r *Results) Apply(seq uint64, page *model.CatalogPage) bool {
	if page == nil || seq < r.applied {
		return false
	}
	r.applied = seq
	r.items = page.Data
	r.meta = page.Meta
	return true
}

// TotalPages is ceil(total/limit), or 0 when nothing matched.
func (r *Results) TotalPages() int {
	if r.meta.Total <= 0 {
		return 0
	}
	limit := max(r.meta.Limit, 1)
	return (r.meta.Total + limit - 1) / limit
}

// ValidPage reports whether p is inside [1, TotalPages].
func (r *Results) ValidPage(p int) bool {
	return p >= 1 && p <= r.TotalPages()
}

func (r *Results) Items() []model.Product { return r.items }
func (r *Results) Total() int             { return r.meta.Total }
func (r *Results) Applied() uint64        { return r.applied }
