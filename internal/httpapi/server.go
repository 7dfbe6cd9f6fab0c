// Package httpapi is the headless storefront API. Each session owns its
// catalog controller, cart and checkout guard, all driven on the session's
// own event loop.
package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"storefront-core/internal/catalog"
	"storefront-core/internal/checkout"
	"storefront-core/internal/model"
)

// go-playground/validator/v10: Struct validator for request bodies.
var validate = validator.New()

// Pricer is the cart pricing service.
type Pricer interface {
	QuoteCart(ctx context.Context, lines []model.QuoteLine) (*model.PriceQuote, error)
}

// Deps are the collaborators shared by every session. Optional fields may
// be left nil.
type Deps struct {
	Fetcher        catalog.Fetcher
	Orders         checkout.OrderService
	Pricer         Pricer
	SearchRecorder catalog.SearchRecorder
	OrderRecorder  checkout.OrderRecorder
	Health         func(ctx context.Context) error
	Catalog        catalog.Config
	// SessionIdleTTL ends sessions that saw no request for this long.
	// Zero keeps sessions until they are deleted.
	SessionIdleTTL time.Duration
	Log            *zap.Logger
}

// Server holds the live sessions.
type Server struct {
	deps *Deps
	log  *zap.Logger
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewServer(deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Server{
		deps:     &deps,
		log:      deps.Log,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// RegisterRoutes wires HTTP routes.
// gorilla/mux: Router provides method-based routing and URL pattern matching.
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)

	r.HandleFunc("/sessions", s.createSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}", s.deleteSession).Methods(http.MethodDelete)

	sr := r.PathPrefix("/sessions/{id}").Subrouter()

	sr.HandleFunc("/catalog", s.withSession(s.getCatalog)).Methods(http.MethodGet)
	sr.HandleFunc("/catalog/filters", s.withSession(s.patchFilters)).Methods(http.MethodPatch)
	sr.HandleFunc("/catalog/search", s.withSession(s.putSearch)).Methods(http.MethodPut)
	sr.HandleFunc("/catalog/page", s.withSession(s.postPage)).Methods(http.MethodPost)
	sr.HandleFunc("/catalog/refresh", s.withSession(s.postRefresh)).Methods(http.MethodPost)

	sr.HandleFunc("/cart", s.withSession(s.getCart)).Methods(http.MethodGet)
	sr.HandleFunc("/cart/items", s.withSession(s.addItem)).Methods(http.MethodPost)
	sr.HandleFunc("/cart/items/{productID}", s.withSession(s.setItem)).Methods(http.MethodPatch)
	sr.HandleFunc("/cart/items/{productID}", s.withSession(s.removeItem)).Methods(http.MethodDelete)

	sr.HandleFunc("/checkout", s.withSession(s.getCheckout)).Methods(http.MethodGet)
	sr.HandleFunc("/checkout/fields", s.withSession(s.patchFields)).Methods(http.MethodPatch)
	sr.HandleFunc("/checkout/submit", s.withSession(s.submit)).Methods(http.MethodPost)
}

// Close ends every session.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.close()
		delete(s.sessions, id)
	}
}

func (s *Server) open(query string) *session {
	sess := newSession(uuid.NewString(), query, s.deps)
	sess.touch(s.now())
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.log.Info("session opened", zap.String("session", sess.id))
	return sess
}

func (s *Server) lookup(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.touch(s.now())
	}
	return sess, ok
}

func (s *Server) drop(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.close()
		s.log.Info("session closed", zap.String("session", id))
	}
	return ok
}

// Reap ends every session idle for longer than the configured TTL and
// returns how many were ended.
func (s *Server) Reap() int {
	ttl := s.deps.SessionIdleTTL
	if ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	var idle []*session
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		sess.close()
		s.log.Info("idle session expired", zap.String("session", sess.id))
	}
	return len(idle)
}

// RunReaper calls Reap periodically until ctx is done.
func (s *Server) RunReaper(ctx context.Context) {
	ttl := s.deps.SessionIdleTTL
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(max(ttl/4, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Reap(); n > 0 {
				s.log.Debug("sessions reaped", zap.Int("count", n))
			}
		}
	}
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.lookup(mux.Vars(r)["id"])
		if !ok {
			writeError(w, r, http.StatusNotFound, "session not found")
			return
		}
		h(w, r, sess)
	}
}
