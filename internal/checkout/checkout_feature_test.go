package checkout_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"storefront-core/internal/cart"
	"storefront-core/internal/checkout"
	"storefront-core/internal/eventloop"
	"storefront-core/internal/model"
	"storefront-core/internal/schemagate"
)

type stubOrders struct {
	calls int
	fail  bool
}

func (s *stubOrders) CreateOrder(context.Context, model.OrderRequest, string) (*model.OrderResult, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("order service unavailable")
	}
	return &model.OrderResult{OrderID: fmt.Sprintf("ord-%d", s.calls)}, nil
}

type checkoutTestContext struct {
	rt            *eventloop.Manual
	cart          *cart.Cart
	orders        *stubOrders
	guard         *checkout.Guard
	confirmations int
	errs          []error
}

func (c *checkoutTestContext) reset() {
	c.rt = eventloop.NewManual()
	c.cart = cart.New()
	c.orders = &stubOrders{}
	c.confirmations = 0
	c.errs = nil
	c.guard = checkout.NewGuard(c.rt, c.cart, c.orders,
		checkout.OnSuccess(func(*model.OrderResult) { c.confirmations++ }),
	)
}

func (c *checkoutTestContext) aCheckoutFormFilledWithValidShippingDetails() error {
	fields := [][2]string{
		{"name", "Katherine Johnson"},
		{"email", "katherine@example.com"},
		{"phone", "+1 757 555 0100"},
		{"address", "21 Langley Boulevard"},
		{"city", "Hampton"},
		{"postal_code", "23681"},
		{"payment_method", "card"},
	}
	for _, f := range fields {
		if err := c.guard.Edit(f[0], f[1]); err != nil {
			return err
		}
	}
	return nil
}

func (c *checkoutTestContext) addProduct(name string, rx bool) error {
	p := model.Product{ID: name, Name: name, Price: decimal.NewFromInt(12), RequiresPrescription: rx, InStock: true}
	if !c.cart.Add(cart.FromProduct(p, 1)) {
		return fmt.Errorf("could not add %q", name)
	}
	return nil
}

func (c *checkoutTestContext) theCartContainsWhichRequiresAPrescription(name string) error {
	return c.addProduct(name, true)
}

func (c *checkoutTestContext) theCartContains(name string) error {
	return c.addProduct(name, false)
}

func (c *checkoutTestContext) theOrderServiceIsFailing() error {
	c.orders.fail = true
	return nil
}

func (c *checkoutTestContext) theOrderServiceHasRecovered() error {
	c.orders.fail = false
	return nil
}

func (c *checkoutTestContext) iSubmitTheCheckout() error {
	c.errs = append(c.errs, c.guard.Submit())
	return nil
}

func (c *checkoutTestContext) iAttachThePrescription(ref string) error {
	return c.guard.AttachPrescription(ref)
}

func (c *checkoutTestContext) theOrderServiceResponds() error {
	if c.rt.Pending() == 0 {
		return errors.New("no order request in flight")
	}
	c.rt.Flush()
	return nil
}

func (c *checkoutTestContext) lastErr() error {
	if len(c.errs) == 0 {
		return errors.New("nothing was submitted")
	}
	return c.errs[len(c.errs)-1]
}

func (c *checkoutTestContext) theSubmissionIsRejectedWithAMissingPrescription() error {
	err := c.lastErr()
	if !errors.Is(err, schemagate.ErrMissingPrescription) {
		return fmt.Errorf("expected missing prescription, got %v", err)
	}
	if st := c.guard.Status().State; st != checkout.Idle {
		return fmt.Errorf("expected idle after rejection, got %s", st)
	}
	return nil
}

func (c *checkoutTestContext) theSubmissionIsRejectedBecauseTheCartIsEmpty() error {
	if err := c.lastErr(); !errors.Is(err, checkout.ErrEmptyCart) {
		return fmt.Errorf("expected empty cart, got %v", err)
	}
	return nil
}

func (c *checkoutTestContext) theSecondSubmissionIsRefusedAsInFlight() error {
	if err := c.lastErr(); !errors.Is(err, checkout.ErrSubmissionInFlight) {
		return fmt.Errorf("expected in-flight refusal, got %v", err)
	}
	return nil
}

func (c *checkoutTestContext) noOrderRequestWasMade() error {
	if c.orders.calls != 0 || c.rt.Pending() != 0 {
		return fmt.Errorf("expected no order request, got %d calls and %d pending", c.orders.calls, c.rt.Pending())
	}
	return nil
}

func (c *checkoutTestContext) exactlyOrderRequestsWereMade(n int) error {
	if c.orders.calls != n {
		return fmt.Errorf("expected %d order requests, got %d", n, c.orders.calls)
	}
	return nil
}

func (c *checkoutTestContext) theCheckoutStateIs(state string) error {
	if got := c.guard.Status().State; string(got) != state {
		return fmt.Errorf("expected state %q, got %q", state, got)
	}
	return nil
}

func (c *checkoutTestContext) theConfirmationWasShownTimes(n int) error {
	if c.confirmations != n {
		return fmt.Errorf("expected %d confirmations, got %d", n, c.confirmations)
	}
	return nil
}

func (c *checkoutTestContext) theFormStillHasName(name string) error {
	if got := c.guard.Status().Form.Name; got != name {
		return fmt.Errorf("expected name %q, got %q", name, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a checkout form filled with valid shipping details$`, tc.aCheckoutFormFilledWithValidShippingDetails)
	ctx.Step(`^the cart contains "([^"]*)" which requires a prescription$`, tc.theCartContainsWhichRequiresAPrescription)
	ctx.Step(`^the cart contains "([^"]*)"$`, tc.theCartContains)
	ctx.Step(`^the order service is failing$`, tc.theOrderServiceIsFailing)
	ctx.Step(`^the order service has recovered$`, tc.theOrderServiceHasRecovered)

	// When steps
	ctx.Step(`^I submit the checkout$`, tc.iSubmitTheCheckout)
	ctx.Step(`^I submit the checkout again$`, tc.iSubmitTheCheckout)
	ctx.Step(`^I attach the prescription "([^"]*)"$`, tc.iAttachThePrescription)
	ctx.Step(`^the order service responds$`, tc.theOrderServiceResponds)

	// Then steps
	ctx.Step(`^the submission is rejected with a missing prescription$`, tc.theSubmissionIsRejectedWithAMissingPrescription)
	ctx.Step(`^the submission is rejected because the cart is empty$`, tc.theSubmissionIsRejectedBecauseTheCartIsEmpty)
	ctx.Step(`^the second submission is refused as in flight$`, tc.theSecondSubmissionIsRefusedAsInFlight)
	ctx.Step(`^no order request was made$`, tc.noOrderRequestWasMade)
	ctx.Step(`^exactly (\d+) order requests? (?:was|were) made$`, tc.exactlyOrderRequestsWereMade)
	ctx.Step(`^the checkout state is "([^"]*)"$`, tc.theCheckoutStateIs)
	ctx.Step(`^the confirmation was shown (\d+) times?$`, tc.theConfirmationWasShownTimes)
	ctx.Step(`^the form still has name "([^"]*)"$`, tc.theFormStillHasName)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/checkout.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
