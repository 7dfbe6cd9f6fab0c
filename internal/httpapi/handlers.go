package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"storefront-core/internal/cart"
	"storefront-core/internal/checkout"
	"storefront-core/internal/filter"
	"storefront-core/internal/model"
	"storefront-core/internal/pricing"
	"storefront-core/internal/schemagate"
)

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.deps.Health(ctx); err != nil {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- sessions ----

type createSessionRequest struct {
	Query string `json:"query" validate:"max=2048"`
}

type sessionResponse struct {
	ID      string          `json:"id"`
	Catalog catalogResponse `json:"catalog"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sess := s.open(req.Query)
	var resp sessionResponse
	err := sess.do(r.Context(), func() {
		sess.catalog.Init()
		resp = sessionResponse{ID: sess.id, Catalog: sess.catalogView()}
	})
	if err != nil {
		s.drop(sess.id)
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, r, http.StatusCreated, resp)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.drop(mux.Vars(r)["id"]) {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// run executes f on the session loop and reports a dead session.
func run(w http.ResponseWriter, r *http.Request, sess *session, f func()) bool {
	if err := sess.do(r.Context(), f); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "session unavailable: "+err.Error())
		return false
	}
	return true
}

// ---- catalog ----

type filtersView struct {
	Search               string   `json:"search"`
	Forms                []string `json:"forms"`
	Categories           []string `json:"categories"`
	InStock              bool     `json:"in_stock"`
	RequiresPrescription string   `json:"requires_prescription"` // any, true, false
	Sort                 string   `json:"sort"`
	Page                 int      `json:"page"`
	Limit                int      `json:"limit"`
}

type catalogResponse struct {
	Query      string          `json:"query"`
	Filters    filtersView     `json:"filters"`
	Items      []model.Product `json:"items"`
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
	Loading    bool            `json:"loading"`
	Error      string          `json:"error,omitempty"`
}

func (sess *session) catalogView() catalogResponse {
	v := sess.catalog.View()
	resp := catalogResponse{
		Query:      sess.router.CurrentQueryString(),
		Filters:    viewFilters(v.State),
		Items:      v.Items,
		Total:      v.Total,
		TotalPages: v.TotalPages,
		Loading:    v.Loading,
	}
	if resp.Items == nil {
		resp.Items = []model.Product{}
	}
	if v.Err != nil {
		resp.Error = v.Err.Error()
	}
	return resp
}

func viewFilters(st filter.State) filtersView {
	rx := "any"
	switch st.Prescription {
	case filter.PrescriptionRequired:
		rx = "true"
	case filter.PrescriptionNotRequired:
		rx = "false"
	}
	return filtersView{
		Search:               st.Search,
		Forms:                st.Forms,
		Categories:           st.Categories,
		InStock:              st.Stock == filter.InStockOnly,
		RequiresPrescription: rx,
		Sort:                 string(st.Sort),
		Page:                 st.Page,
		Limit:                st.PageSize,
	}
}

type filtersRequest struct {
	Search       *string   `json:"search" validate:"omitempty,max=200"`
	Forms        *[]string `json:"forms" validate:"omitempty,max=50,dive,max=100"`
	Categories   *[]string `json:"categories" validate:"omitempty,max=50,dive,max=100"`
	InStock      *bool     `json:"in_stock"`
	Prescription *string   `json:"requires_prescription" validate:"omitempty,oneof=any true false"`
	Sort         *string   `json:"sort" validate:"omitempty,oneof=created_at_desc price_asc price_desc name_asc name_desc"`
	Page         *int      `json:"page"`
	Limit        *int      `json:"limit"`
}

func (f filtersRequest) change() filter.Change {
	ch := filter.Change{Search: f.Search, Page: f.Page, PageSize: f.Limit}
	if f.Forms != nil {
		ch.Forms = filter.Ptr(filter.NewSet(*f.Forms...))
	}
	if f.Categories != nil {
		ch.Categories = filter.Ptr(filter.NewSet(*f.Categories...))
	}
	if f.InStock != nil {
		st := filter.AnyStock
		if *f.InStock {
			st = filter.InStockOnly
		}
		ch.Stock = &st
	}
	if f.Prescription != nil {
		rx := filter.PrescriptionAny
		switch *f.Prescription {
		case "true":
			rx = filter.PrescriptionRequired
		case "false":
			rx = filter.PrescriptionNotRequired
		}
		ch.Prescription = &rx
	}
	if f.Sort != nil {
		ch.Sort = filter.Ptr(filter.SortKey(*f.Sort))
	}
	return ch
}

func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request, sess *session) {
	var resp catalogResponse
	if run(w, r, sess, func() { resp = sess.catalogView() }) {
		writeJSON(w, r, http.StatusOK, resp)
	}
}

func (s *Server) patchFilters(w http.ResponseWriter, r *http.Request, sess *session) {
	var req filtersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var resp catalogResponse
	if run(w, r, sess, func() {
		sess.catalog.Update(req.change())
		resp = sess.catalogView()
	}) {
		writeJSON(w, r, http.StatusAccepted, resp)
	}
}

type searchRequest struct {
	Text string `json:"text" validate:"max=200"`
}

func (s *Server) putSearch(w http.ResponseWriter, r *http.Request, sess *session) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var resp catalogResponse
	if run(w, r, sess, func() {
		sess.catalog.TypeSearch(req.Text)
		resp = sess.catalogView()
	}) {
		writeJSON(w, r, http.StatusAccepted, resp)
	}
}

type pageRequest struct {
	Page int `json:"page"`
}

func (s *Server) postPage(w http.ResponseWriter, r *http.Request, sess *session) {
	var req pageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var ok bool
	var resp catalogResponse
	if !run(w, r, sess, func() {
		ok = sess.catalog.GoToPage(req.Page)
		resp = sess.catalogView()
	}) {
		return
	}
	if !ok {
		writeError(w, r, http.StatusUnprocessableEntity, "page out of range")
		return
	}
	writeJSON(w, r, http.StatusAccepted, resp)
}

func (s *Server) postRefresh(w http.ResponseWriter, r *http.Request, sess *session) {
	var resp catalogResponse
	if run(w, r, sess, func() {
		sess.catalog.Refresh()
		resp = sess.catalogView()
	}) {
		writeJSON(w, r, http.StatusAccepted, resp)
	}
}

// ---- cart ----

type cartLine struct {
	model.LineItem
	EffectivePrice decimal.Decimal `json:"effective_price"`
	LineTotal      decimal.Decimal `json:"line_total"`
	QuantityLimit  int             `json:"quantity_limit"`
}

type cartResponse struct {
	Items    []cartLine        `json:"items"`
	Summary  model.CartSummary `json:"summary"`
	Revision uint64            `json:"revision"`
	Applied  *bool             `json:"applied,omitempty"`
}

func (sess *session) cartView() cartResponse {
	items := sess.cart.Items()
	lines := make([]cartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, cartLine{
			LineItem:       it,
			EffectivePrice: pricing.EffectiveUnitPrice(it),
			LineTotal:      pricing.LineTotal(it),
			QuantityLimit:  pricing.QuantityCeiling(it),
		})
	}
	return cartResponse{Items: lines, Summary: sess.cart.Summary(), Revision: sess.cart.Revision()}
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request, sess *session) {
	var resp cartResponse
	if run(w, r, sess, func() { resp = sess.cartView() }) {
		writeJSON(w, r, http.StatusOK, resp)
	}
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=100"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1"`
}

// addItem puts a product from the session's current catalog page in the cart.
func (s *Server) addItem(w http.ResponseWriter, r *http.Request, sess *session) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	qty := max(req.Quantity, 1)

	var found, applied bool
	var resp cartResponse
	if !run(w, r, sess, func() {
		var product model.Product
		for _, p := range sess.catalog.View().Items {
			if p.ID == req.ProductID {
				product, found = p, true
				break
			}
		}
		if !found {
			return
		}
		if sess.guard.Status().State == checkout.Succeeded {
			sess.guard = sess.newGuard()
		}
		if applied = sess.cart.Add(cart.FromProduct(product, qty)); applied {
			sess.reprice()
		}
		resp = sess.cartView()
	}) {
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "product not on the current catalog page")
		return
	}
	resp.Applied = &applied
	writeJSON(w, r, http.StatusOK, resp)
}

type setItemRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) setItem(w http.ResponseWriter, r *http.Request, sess *session) {
	var req setItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id := mux.Vars(r)["productID"]

	var known, applied bool
	var resp cartResponse
	if !run(w, r, sess, func() {
		known = sess.hasItem(id)
		if !known {
			return
		}
		before := sess.cart.Revision()
		applied = sess.cart.SetQuantity(id, req.Quantity)
		if sess.cart.Revision() != before {
			sess.reprice()
		}
		resp = sess.cartView()
	}) {
		return
	}
	if !known {
		writeError(w, r, http.StatusNotFound, "item not in cart")
		return
	}
	resp.Applied = &applied
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request, sess *session) {
	id := mux.Vars(r)["productID"]
	var removed bool
	var resp cartResponse
	if !run(w, r, sess, func() {
		if removed = sess.cart.Remove(id); removed {
			sess.reprice()
		}
		resp = sess.cartView()
	}) {
		return
	}
	if !removed {
		writeError(w, r, http.StatusNotFound, "item not in cart")
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (sess *session) hasItem(id string) bool {
	for _, it := range sess.cart.Items() {
		if it.ProductID == id {
			return true
		}
	}
	return false
}

// ---- checkout ----

type checkoutResponse struct {
	checkout.Status
	Schema []schemagate.Rule `json:"schema"`
	Error  string            `json:"error,omitempty"`
}

func (sess *session) checkoutView() checkoutResponse {
	st := sess.guard.Status()
	resp := checkoutResponse{Status: st, Schema: sess.guard.Schema().Rules()}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	return resp
}

func (s *Server) getCheckout(w http.ResponseWriter, r *http.Request, sess *session) {
	var resp checkoutResponse
	if run(w, r, sess, func() { resp = sess.checkoutView() }) {
		writeJSON(w, r, http.StatusOK, resp)
	}
}

type fieldsRequest struct {
	Fields map[string]string `json:"fields" validate:"required,min=1,dive,max=512"`
}

func (s *Server) patchFields(w http.ResponseWriter, r *http.Request, sess *session) {
	var req fieldsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var editErr error
	var resp checkoutResponse
	if !run(w, r, sess, func() {
		if editErr = sess.guard.EditAll(req.Fields); editErr != nil {
			return
		}
		resp = sess.checkoutView()
	}) {
		return
	}
	switch {
	case errors.Is(editErr, checkout.ErrUnknownField):
		writeError(w, r, http.StatusBadRequest, editErr.Error())
	case editErr != nil:
		writeError(w, r, http.StatusConflict, editErr.Error())
	default:
		writeJSON(w, r, http.StatusOK, resp)
	}
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, sess *session) {
	var err error
	var resp checkoutResponse
	if !run(w, r, sess, func() {
		err = sess.guard.Submit()
		resp = sess.checkoutView()
	}) {
		return
	}

	var fieldErrs schemagate.FieldErrors
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusAccepted, resp)
	case errors.As(err, &fieldErrs):
		writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Fields: fieldErrs.Map()})
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, checkout.ErrSubmissionInFlight), errors.Is(err, checkout.ErrAlreadySubmitted):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, err.Error())
	}
}
