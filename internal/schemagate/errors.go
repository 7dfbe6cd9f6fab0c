package schemagate

import (
	"fmt"
	"strings"
)

// FieldError records a rejected form field with reason.
type FieldError struct {
	Field  string `json:"field"`  // e.g., "email" or "prescription_file"
	Tag    string `json:"tag"`    // failing validator tag, e.g., "required"
	Reason string `json:"reason"` // e.g., "must be a valid email address"
}

// FieldErrors is the per-field outcome of a failed validation.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Reason)
	}
	return "checkout form invalid: " + strings.Join(parts, "; ")
}

// Unwrap exposes ErrMissingPrescription when the prescription rule failed.
func (e FieldErrors) Unwrap() error {
	if e.Has("prescription_file") {
		return ErrMissingPrescription
	}
	return nil
}

func (e FieldErrors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Map returns reasons keyed by field.
func (e FieldErrors) Map() map[string]string {
	m := make(map[string]string, len(e))
	for _, fe := range e {
		m[fe.Field] = fe.Reason
	}
	return m
}

func reason(field, tag, param string) string {
	switch tag {
	case "required":
		if field == "prescription_file" {
			return "a prescription is required for this order"
		}
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a valid phone number"
	case "postcode":
		return "must be a valid postal code"
	case "min":
		return fmt.Sprintf("must be at least %s characters", param)
	case "max":
		return fmt.Sprintf("must be at most %s characters", param)
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(param, " ", ", ")
	}
	return "is invalid"
}
