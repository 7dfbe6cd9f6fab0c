// Package schemagate builds the checkout form's validation schema. The only
// dynamic rule is the prescription upload, which is required exactly when
// the cart holds a prescription item.
package schemagate

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"storefront-core/internal/model"
)

// ErrMissingPrescription is matched by FieldErrors when the cart needs a
// prescription and none was attached.
var ErrMissingPrescription = errors.New("missing prescription")

// PaymentMethods accepted by the order creation service.
var PaymentMethods = []string{"card", "cash_on_delivery", "wallet"}

var (
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	postcodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\- ]{2,9}$`)
	phoneNoise      = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// go-playground/validator/v10 with the two storefront formats registered.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(phoneNoise.Replace(fl.Field().String()))
	})
	v.RegisterValidation("postcode", func(fl validator.FieldLevel) bool {
		return postcodePattern.MatchString(fl.Field().String())
	})
	return v
}

// Rule is the validator tag applied to one form field.
type Rule struct {
	Field    string `json:"field"`
	Tag      string `json:"tag"`
	Required bool   `json:"required"`
}

// Schema is the set of rules for one cart composition. It is a value: build
// a new one whenever the cart's prescription flag changes.
type Schema struct {
	PrescriptionRequired bool
	rules                []Rule
}

var staticRules = []Rule{
	{Field: "name", Tag: "required,min=2,max=100", Required: true},
	{Field: "email", Tag: "required,email", Required: true},
	{Field: "phone", Tag: "required,phone", Required: true},
	{Field: "address", Tag: "required,min=5,max=200", Required: true},
	{Field: "city", Tag: "required,max=100", Required: true},
	{Field: "postal_code", Tag: "required,postcode", Required: true},
	{Field: "payment_method", Tag: "required,oneof=" + strings.Join(PaymentMethods, " "), Required: true},
	{Field: "notes", Tag: "omitempty,max=500"},
}

// BuildValidationSchema returns the checkout schema for a cart that does or
// does not require a prescription.
func BuildValidationSchema(prescriptionRequired bool) Schema {
	rx := Rule{Field: "prescription_file", Tag: "omitempty,max=512"}
	if prescriptionRequired {
		rx = Rule{Field: "prescription_file", Tag: "required,max=512", Required: true}
	}
	rules := make([]Rule, 0, len(staticRules)+1)
	rules = append(rules, staticRules...)
	rules = append(rules, rx)
	return Schema{PrescriptionRequired: prescriptionRequired, rules: rules}
}

func (s Schema) Rules() []Rule {
	return slices.Clone(s.rules)
}

// Rule looks up the rule for field.
func (s Schema) Rule(field string) (Rule, bool) {
	i := slices.IndexFunc(s.rules, func(r Rule) bool { return r.Field == field })
	if i < 0 {
		return Rule{}, false
	}
	return s.rules[i], true
}

// Validate checks form against every rule, in schema order. It returns nil
// when the form is valid.
func (s Schema) Validate(form model.CheckoutForm) FieldErrors {
	values := form.Values()
	var errs FieldErrors
	for _, r := range s.rules {
		err := validate.Var(strings.TrimSpace(values[r.Field]), r.Tag)
		if err == nil {
			continue
		}
		fe := FieldError{Field: r.Field, Tag: r.Tag}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe.Tag = verrs[0].Tag()
			fe.Reason = reason(r.Field, verrs[0].Tag(), verrs[0].Param())
		} else {
			fe.Reason = err.Error()
		}
		errs = append(errs, fe)
	}
	return errs
}
