package catalog

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-core/internal/eventloop"
	"storefront-core/internal/filter"
	"storefront-core/internal/model"
)

var errNoPage = errors.New("catalog service returned no page")

// Fetcher is the catalog query service.
type Fetcher interface {
	FetchCatalog(ctx context.Context, query string) (*model.CatalogPage, error)
}

// Router exposes the page's query string. The controller only ever replaces
// it, it never navigates.
type Router interface {
	CurrentQueryString() string
	ReplaceQueryString(query string)
}

// SearchRecorder receives an event for every applied result set.
type SearchRecorder interface {
	RecordSearch(ctx context.Context, evt model.CatalogSearched) error
}

// Config tunes a Controller. Zero durations take the defaults.
type Config struct {
	SearchDebounce time.Duration
	SyncDebounce   time.Duration
	FetchTimeout   time.Duration
	Codec          filter.Codec
	SessionID      string
}

const (
	DefaultSearchDebounce = 400 * time.Millisecond
	DefaultSyncDebounce   = 500 * time.Millisecond
	DefaultFetchTimeout   = 10 * time.Second
)

// Option customizes a Controller.
type Option func(*Controller)

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

func WithRecorder(r SearchRecorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// Controller keeps the filter state, the page URL and the result set in
// step. It must only be used from the goroutine that owns its Runtime.
type Controller struct {
	rt       eventloop.Runtime
	fetcher  Fetcher
	router   Router
	recorder SearchRecorder
	log      *zap.Logger
	cfg      Config
	codec    filter.Codec

	state   filter.State
	results Results
	// shown is the state the applied results were fetched for.
	shown filter.State

	searchGen uint64
	syncGen   uint64

	seq       uint64 // last issued request
	lastQuery string // canonical query of the last issued request
	issued    bool
	loading   bool
	lastErr   error
}

// View is a snapshot for rendering.
type View struct {
	State      filter.State
	Query      string
	Items      []model.Product
	Total      int
	TotalPages int
	Loading    bool
	Err        error
}

func NewController(rt eventloop.Runtime, fetcher Fetcher, router Router, cfg Config, opts ...Option) *Controller {
	if cfg.SearchDebounce <= 0 {
		cfg.SearchDebounce = DefaultSearchDebounce
	}
	if cfg.SyncDebounce <= 0 {
		cfg.SyncDebounce = DefaultSyncDebounce
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	c := &Controller{
		rt:      rt,
		fetcher: fetcher,
		router:  router,
		log:     zap.NewNop(),
		cfg:     cfg,
		codec:   cfg.Codec,
	}
	for _, o := range opts {
		o(c)
	}
	c.state = c.codec.Initial()
	return c
}

// Init hydrates the state from the current URL and fetches right away.
func (c *Controller) Init() {
	c.state = c.codec.Decode(c.router.CurrentQueryString())
	c.sync(false)
}

// TypeSearch feeds free-text input. The search term is only committed to
// the state once typing has been quiet for the search debounce.
func (c *Controller) TypeSearch(text string) {
	c.searchGen++
	gen := c.searchGen
	c.rt.AfterFunc(c.cfg.SearchDebounce, func() {
		if gen != c.searchGen {
			return
		}
		c.log.Debug("search settled", zap.String("search", text))
		c.Update(filter.Change{Search: &text})
	})
}

// Update applies ch to the state immediately and schedules the URL rewrite
// and fetch for when the state stops changing.
func (c *Controller) Update(ch filter.Change) {
	next := c.codec.Apply(c.state, ch)
	if next.Equal(c.state) {
		return
	}
	c.state = next
	c.scheduleSync()
}

// GoToPage moves to page p. Pages outside the current result range are
// rejected without touching the state, and so is any page while the
// filters differ from the ones behind the current results.
func (c *Controller) GoToPage(p int) bool {
	if c.state.IsRefinementOf(c.shown) || !c.results.ValidPage(p) {
		return false
	}
	c.Update(filter.Change{Page: &p})
	return true
}

// Refresh re-fetches the current state even if it was fetched already.
func (c *Controller) Refresh() {
	c.sync(true)
}

func (c *Controller) State() filter.State { return c.state }

func (c *Controller) View() View {
	return View{
		State:      c.state,
		Query:      c.codec.Encode(c.state),
		Items:      slices.Clone(c.results.Items()),
		Total:      c.results.Total(),
		TotalPages: c.results.TotalPages(),
		Loading:    c.loading,
		Err:        c.lastErr,
	}
}

func (c *Controller) scheduleSync() {
	c.syncGen++
	gen := c.syncGen
	c.rt.AfterFunc(c.cfg.SyncDebounce, func() {
		if gen != c.syncGen {
			return
		}
		c.sync(false)
	})
}

func (c *Controller) sync(force bool) {
	qs := c.codec.Encode(c.state)
	if qs != c.router.CurrentQueryString() {
		c.router.ReplaceQueryString(qs)
		c.log.Info("query string replaced", zap.String("query", qs))
	}
	if !force && c.issued && qs == c.lastQuery {
		return
	}
	c.fetch(qs)
}

func (c *Controller) fetch(qs string) {
	c.seq++
	seq := c.seq
	c.lastQuery = qs
	c.issued = true
	c.loading = true

	apiQuery := c.codec.ServiceQuery(c.state)
	st := c.state
	fetcher, timeout := c.fetcher, c.cfg.FetchTimeout
	c.log.Info("catalog fetch", zap.Uint64("seq", seq), zap.String("query", apiQuery))

	c.rt.Go(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		page, err := fetcher.FetchCatalog(ctx, apiQuery)
		return func() { c.complete(seq, qs, st, page, err) }
	})
}

func (c *Controller) complete(seq uint64, qs string, st filter.State, page *model.CatalogPage, err error) {
	if seq != c.seq {
		c.log.Debug("stale catalog response dropped", zap.Uint64("seq", seq), zap.Uint64("latest", c.seq))
		return
	}
	c.loading = false
	if err == nil && page == nil {
		err = errNoPage
	}
	if err != nil {
		c.lastErr = err
		// allow the same query to be fetched again
		c.issued = false
		c.log.Warn("catalog fetch failed", zap.Uint64("seq", seq), zap.String("query", qs), zap.Error(err))
		return
	}
	if page.Meta.Limit < 1 {
		page.Meta.Limit = c.state.PageSize
	}
	if !c.results.Apply(seq, page) {
		return
	}
	c.shown = st
	c.lastErr = nil
	c.record(qs, page)

	if tp := c.results.TotalPages(); c.state.Page > 1 && c.state.Page > tp {
		c.log.Info("active page out of range, back to first page",
			zap.Int("page", c.state.Page), zap.Int("total_pages", tp))
		c.state = c.codec.Apply(c.state, filter.Change{Page: filter.Ptr(1)})
		c.sync(false)
	}
}

func (c *Controller) record(qs string, page *model.CatalogPage) {
	if c.recorder == nil {
		return
	}
	evt := model.CatalogSearched{
		EventID:   uuid.NewString(),
		SessionID: c.cfg.SessionID,
		Query:     qs,
		Total:     page.Meta.Total,
		Returned:  len(page.Data),
		Timestamp: time.Now().UTC(),
	}
	rec, log := c.recorder, c.log
	c.rt.Go(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rec.RecordSearch(ctx, evt); err != nil {
			log.Warn("search event not recorded", zap.Error(err))
		}
		return nil
	})
}
