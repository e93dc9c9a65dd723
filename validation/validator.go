package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/hyperkit/errors"
)

// FieldError is one failing field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator collects field errors for checks that struct tags cannot
// express, such as "token or access key".
type Validator struct {
	errors []FieldError
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a failing field.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// Check records message for field when ok is false.
func (v *Validator) Check(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}

// Required records an error when value is blank.
func (v *Validator) Required(field, value string) *Validator {
	return v.Check(strings.TrimSpace(value) != "", field, "is required")
}

// OneOf records an error when value is not among allowed.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	return v.Check(slices.Contains(allowed, value), field, "must be one of: "+strings.Join(allowed, ", "))
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns the recorded field errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns nil, or an INVALID_INPUT error whose message joins
// every field error and whose "fields" detail lists them.
func (v *Validator) Validate() error {
	if !v.HasErrors() {
		return nil
	}
	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return errors.New(errors.ErrCodeInvalidInput, strings.Join(messages, "; ")).
		WithDetail("fields", v.errors)
}
