// Package checkout guards order submission: validation always runs first,
// at most one order request is in flight, and the outcome is reported once.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-core/internal/cart"
	"storefront-core/internal/eventloop"
	"storefront-core/internal/model"
	"storefront-core/internal/schemagate"
)

// State of one submission.
type State string

const (
	Idle       State = "idle"
	Validating State = "validating"
	Submitting State = "submitting"
	Succeeded  State = "succeeded"
	Failed     State = "failed"
)

var (
	ErrSubmissionInFlight = errors.New("checkout: submission already in flight")
	ErrAlreadySubmitted   = errors.New("checkout: order already placed")
	ErrEmptyCart          = errors.New("checkout: cart cannot be empty")
	ErrUnknownField       = errors.New("checkout: unknown form field")
	errNoOrder            = errors.New("order service returned no order")
)

// OrderService is the order creation service.
type OrderService interface {
	CreateOrder(ctx context.Context, req model.OrderRequest, idempotencyKey string) (*model.OrderResult, error)
}

// OrderRecorder receives an event for every placed order.
type OrderRecorder interface {
	RecordOrder(ctx context.Context, evt model.OrderPlaced) error
}

type Option func(*Guard)

func WithLogger(l *zap.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.log = l
		}
	}
}

func WithRecorder(r OrderRecorder) Option {
	return func(g *Guard) { g.recorder = r }
}

func WithSessionID(id string) Option {
	return func(g *Guard) { g.sessionID = id }
}

func WithTimeout(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// OnSuccess registers the one-time reaction to a placed order, typically
// navigating to the confirmation page.
func OnSuccess(fn func(*model.OrderResult)) Option {
	return func(g *Guard) { g.onSuccess = fn }
}

// OnFailure registers the reaction to a failed order request.
func OnFailure(fn func(error)) Option {
	return func(g *Guard) { g.onFailure = fn }
}

// Guard owns the checkout form and its submission state. Like the cart it
// is bound to, it must only be used from its Runtime's owner.
type Guard struct {
	rt        eventloop.Runtime
	cart      *cart.Cart
	orders    OrderService
	recorder  OrderRecorder
	log       *zap.Logger
	sessionID string
	timeout   time.Duration
	onSuccess func(*model.OrderResult)
	onFailure func(error)

	form      model.CheckoutForm
	state     State
	fieldErrs schemagate.FieldErrors
	order     *model.OrderResult
	lastErr   error
}

// Status is a snapshot of the guard.
type Status struct {
	State                State                  `json:"state"`
	Form                 model.CheckoutForm     `json:"form"`
	FieldErrors          schemagate.FieldErrors `json:"field_errors,omitempty"`
	PrescriptionRequired bool                   `json:"prescription_required"`
	Order                *model.OrderResult     `json:"order,omitempty"`
	Err                  error                  `json:"-"`
}

func NewGuard(rt eventloop.Runtime, c *cart.Cart, orders OrderService, opts ...Option) *Guard {
	g := &Guard{
		rt:      rt,
		cart:    c,
		orders:  orders,
		log:     zap.NewNop(),
		timeout: 30 * time.Second,
		state:   Idle,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Schema is rebuilt from the cart on every call, so it always reflects the
// cart's current prescription requirement.
func (g *Guard) Schema() schemagate.Schema {
	return schemagate.BuildValidationSchema(g.cart.Summary().PrescriptionRequired)
}

// Edit sets one form field. An edit after a failed submission re-arms the
// guard.
func (g *Guard) Edit(field, value string) error {
	if g.state == Succeeded {
		return ErrAlreadySubmitted
	}
	if !g.form.Set(field, value) {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	g.fieldErrs = dropField(g.fieldErrs, field)
	if g.state == Failed {
		g.state = Idle
	}
	return nil
}

// EditAll sets several fields at once. Either every field is applied or,
// when any name is unknown, none is.
func (g *Guard) EditAll(fields map[string]string) error {
	if g.state == Succeeded {
		return ErrAlreadySubmitted
	}
	known := g.form.Values()
	for field := range fields {
		if _, ok := known[field]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
	}
	for field, value := range fields {
		if err := g.Edit(field, value); err != nil {
			return err
		}
	}
	return nil
}

// AttachPrescription records the reference of an uploaded prescription.
func (g *Guard) AttachPrescription(ref string) error {
	return g.Edit("prescription_file", ref)
}

// Submit validates the form and, if it passes, sends exactly one order
// request. Validation failures come back as schemagate.FieldErrors and
// leave the guard idle.
func (g *Guard) Submit() error {
	switch g.state {
	case Submitting:
		return ErrSubmissionInFlight
	case Succeeded:
		return ErrAlreadySubmitted
	}

	g.state = Validating
	if g.cart.Len() == 0 {
		g.state = Idle
		return ErrEmptyCart
	}
	summary := g.cart.Summary()
	if errs := schemagate.BuildValidationSchema(summary.PrescriptionRequired).Validate(g.form); len(errs) > 0 {
		g.fieldErrs = errs
		g.state = Idle
		g.log.Debug("checkout rejected", zap.Int("fields", len(errs)), zap.Bool("missing_prescription", errors.Is(errs, schemagate.ErrMissingPrescription)))
		return errs
	}

	g.fieldErrs = nil
	g.lastErr = nil
	g.state = Submitting

	req := g.request()
	key := uuid.NewString()
	orders, timeout := g.orders, g.timeout
	g.log.Info("submitting order", zap.String("idempotency_key", key), zap.Int("items", len(req.Items)))

	g.rt.Go(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := orders.CreateOrder(ctx, req, key)
		return func() { g.complete(key, summary, res, err) }
	})
	return nil
}

func (g *Guard) Status() Status {
	return Status{
		State:                g.state,
		Form:                 g.form,
		FieldErrors:          g.fieldErrs,
		PrescriptionRequired: g.cart.Summary().PrescriptionRequired,
		Order:                g.order,
		Err:                  g.lastErr,
	}
}

func (g *Guard) complete(key string, summary model.CartSummary, res *model.OrderResult, err error) {
	if g.state != Submitting {
		return
	}
	if err == nil && res == nil {
		err = errNoOrder
	}
	if err != nil {
		g.state = Failed
		g.lastErr = err
		g.log.Warn("order failed", zap.String("idempotency_key", key), zap.Error(err))
		if g.onFailure != nil {
			g.onFailure(err)
		}
		return
	}

	g.state = Succeeded
	g.order = res
	g.log.Info("order placed", zap.String("order_id", res.OrderID), zap.String("idempotency_key", key))
	g.record(key, summary, res)
	if g.onSuccess != nil {
		g.onSuccess(res)
	}
}

func (g *Guard) request() model.OrderRequest {
	lines := g.cart.Lines()
	items := make([]model.OrderLine, 0, len(lines))
	for _, l := range lines {
		items = append(items, model.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	f := g.form
	return model.OrderRequest{
		Shipping: model.ShippingDetails{
			Name:       f.Name,
			Email:      f.Email,
			Phone:      f.Phone,
			Address:    f.Address,
			City:       f.City,
			PostalCode: f.PostalCode,
		},
		PaymentMethod:       f.PaymentMethod,
		PrescriptionFileRef: f.PrescriptionFile,
		Items:               items,
		CustomerNotes:       f.Notes,
	}
}

func (g *Guard) record(key string, summary model.CartSummary, res *model.OrderResult) {
	if g.recorder == nil {
		return
	}
	evt := model.OrderPlaced{
		EventID:              uuid.NewString(),
		SessionID:            g.sessionID,
		OrderID:              res.OrderID,
		IdempotencyKey:       key,
		Items:                g.cart.Len(),
		GrandTotal:           summary.GrandTotal,
		PrescriptionRequired: summary.PrescriptionRequired,
		Timestamp:            time.Now().UTC(),
	}
	rec, log := g.recorder, g.log
	g.rt.Go(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rec.RecordOrder(ctx, evt); err != nil {
			log.Warn("order event not recorded", zap.String("order_id", evt.OrderID), zap.Error(err))
		}
		return nil
	})
}

func dropField(errs schemagate.FieldErrors, field string) schemagate.FieldErrors {
	out := errs[:0:0]
	for _, fe := range errs {
		if fe.Field != field {
			out = append(out, fe)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
