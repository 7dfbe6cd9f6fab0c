package httpapi

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"storefront-core/internal/cart"
	"storefront-core/internal/catalog"
	"storefront-core/internal/checkout"
	"storefront-core/internal/eventloop"
	"storefront-core/internal/model"
)

// queryRouter stands in for the browser location of a headless session.
// It is only touched from the session loop.
type queryRouter struct {
	query string
}

func (r *queryRouter) CurrentQueryString() string  { return r.query }
func (r *queryRouter) ReplaceQueryString(q string) { r.query = q }

// session is one shopper. Everything except id, loop and lastSeen belongs
// to the loop goroutine and must only be touched inside loop.Call.
type session struct {
	id       string
	loop     *eventloop.Loop
	lastSeen atomic.Int64 // unix nanoseconds
	stop     context.CancelFunc
	router   *queryRouter
	catalog  *catalog.Controller
	cart     *cart.Cart
	guard    *checkout.Guard
	log      *zap.Logger
	deps     *Deps
}

func newSession(id, query string, deps *Deps) *session {
	ctx, stop := context.WithCancel(context.Background())
	loop := eventloop.New(64)
	go loop.Run(ctx)

	log := deps.Log.With(zap.String("session", id))
	s := &session{
		id:     id,
		loop:   loop,
		stop:   stop,
		router: &queryRouter{query: query},
		cart:   cart.New(),
		log:    log,
		deps:   deps,
	}

	cfg := deps.Catalog
	cfg.SessionID = id
	opts := []catalog.Option{catalog.WithLogger(log)}
	if deps.SearchRecorder != nil {
		opts = append(opts, catalog.WithRecorder(deps.SearchRecorder))
	}
	s.catalog = catalog.NewController(loop.Runtime(), deps.Fetcher, s.router, cfg, opts...)
	s.guard = s.newGuard()
	return s
}

func (s *session) newGuard() *checkout.Guard {
	opts := []checkout.Option{
		checkout.WithLogger(s.log),
		checkout.WithSessionID(s.id),
		checkout.OnSuccess(func(*model.OrderResult) { s.cart.Clear() }),
	}
	if s.deps.OrderRecorder != nil {
		opts = append(opts, checkout.WithRecorder(s.deps.OrderRecorder))
	}
	return checkout.NewGuard(s.loop.Runtime(), s.cart, s.deps.Orders, opts...)
}

// do runs f on the session loop.
func (s *session) do(ctx context.Context, f func()) error {
	return s.loop.Call(ctx, f)
}

// reprice asks the pricing service for the current cart. Quotes that come
// back after another mutation are dropped by the cart.
func (s *session) reprice() {
	if s.deps.Pricer == nil || s.cart.Len() == 0 {
		return
	}
	rev, lines := s.cart.Revision(), s.cart.Lines()
	pricer, log := s.deps.Pricer, s.log
	s.loop.Runtime().Go(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		q, err := pricer.QuoteCart(ctx, lines)
		if err != nil {
			log.Warn("cart pricing failed", zap.Uint64("revision", rev), zap.Error(err))
			return nil
		}
		return func() {
			if !s.cart.ApplyQuote(rev, q) {
				log.Debug("stale cart quote dropped", zap.Uint64("revision", rev))
				return
			}
			if s.cart.Revision() != rev {
				log.Info("cart fitted to quoted stock", zap.Uint64("revision", s.cart.Revision()))
				s.reprice()
			}
		}
	})
}

func (s *session) touch(at time.Time) {
	s.lastSeen.Store(at.UnixNano())
}

func (s *session) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *session) close() {
	s.stop()
}
