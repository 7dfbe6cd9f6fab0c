package schemagate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-core/internal/model"
)

func validForm() model.CheckoutForm {
	return model.CheckoutForm{
		Name:          "Ada Lovelace",
		Email:         "ada@example.com",
		Phone:         "+44 20 7946 0958",
		Address:       "12 Analytical Row",
		City:          "London",
		PostalCode:    "NW1 6XE",
		PaymentMethod: "card",
	}
}

func TestBuildValidationSchema_PrescriptionRule(t *testing.T) {
	off := BuildValidationSchema(false)
	on := BuildValidationSchema(true)

	r, ok := off.Rule("prescription_file")
	require.True(t, ok)
	assert.False(t, r.Required)

	r, ok = on.Rule("prescription_file")
	require.True(t, ok)
	assert.True(t, r.Required)

	// everything else is identical
	strip := func(rules []Rule) []Rule {
		return rules[:len(rules)-1]
	}
	assert.Equal(t, strip(off.Rules()), strip(on.Rules()))
}

func TestValidate_ValidForm(t *testing.T) {
	assert.Nil(t, BuildValidationSchema(false).Validate(validForm()))

	f := validForm()
	f.PrescriptionFile = "uploads/rx-123.pdf"
	assert.Nil(t, BuildValidationSchema(true).Validate(f))
}

func TestValidate_FieldRules(t *testing.T) {
	tests := []struct {
		field string
		value string
		tag   string
	}{
		{"name", "", "required"},
		{"name", "A", "min"},
		{"email", "not-an-email", "email"},
		{"phone", "12ab", "phone"},
		{"phone", "123", "phone"},
		{"address", "x", "min"},
		{"address", strings.Repeat("a", 201), "max"},
		{"city", "   ", "required"},
		{"postal_code", "!!", "postcode"},
		{"payment_method", "bitcoin", "oneof"},
		{"notes", strings.Repeat("n", 501), "max"},
	}
	schema := BuildValidationSchema(false)
	for _, tt := range tests {
		t.Run(tt.field+"/"+tt.tag, func(t *testing.T) {
			f := validForm()
			require.True(t, f.Set(tt.field, tt.value))

			errs := schema.Validate(f)

			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.tag, errs[0].Tag)
			assert.NotEmpty(t, errs[0].Reason)
		})
	}
}

func TestValidate_MissingPrescription(t *testing.T) {
	errs := BuildValidationSchema(true).Validate(validForm())

	require.Len(t, errs, 1)
	assert.True(t, errs.Has("prescription_file"))
	assert.True(t, errors.Is(errs, ErrMissingPrescription))
	assert.Equal(t, "a prescription is required for this order", errs.Map()["prescription_file"])
}

func TestValidate_OtherFailuresAreNotMissingPrescription(t *testing.T) {
	f := validForm()
	f.Email = ""

	errs := BuildValidationSchema(true).Validate(f)

	assert.Len(t, errs, 2)
	assert.ErrorIs(t, errs, ErrMissingPrescription)

	errs = BuildValidationSchema(false).Validate(f)
	assert.NotErrorIs(t, errs, ErrMissingPrescription)
	assert.Contains(t, errs.Error(), "email: is required")
}

func TestValidate_DoesNotTouchFormValues(t *testing.T) {
	f := validForm()
	before := f

	BuildValidationSchema(false).Validate(f)
	BuildValidationSchema(true).Validate(f)

	assert.Equal(t, before, f)
}
