package profile

import (
	"fmt"
	"strings"
)

// ValidationError represents a required field left empty after trimming.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// Notice is the one-line text shown to the user for this error.
func (e *ValidationError) Notice() string {
	return fmt.Sprintf("Please fill in the %s field.", e.Field)
}

// Rule checks a single field value.
type Rule func(field, value string) *ValidationError

// Required rejects values that are empty once surrounding whitespace is removed.
func Required(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// Validator collects field errors in the order fields are checked.
type Validator struct {
	errors []*ValidationError
}

// NewValidator creates an empty validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Field runs rules against a field value.
func (v *Validator) Field(field, value string, rules ...Rule) *Validator {
	for _, rule := range rules {
		if err := rule(field, value); err != nil {
			v.errors = append(v.errors, err)
		}
	}
	return v
}

// HasErrors reports whether any rule failed.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns every collected failure.
func (v *Validator) Errors() []*ValidationError {
	return v.errors
}

// First returns the earliest failure, or nil.
func (v *Validator) First() error {
	if !v.HasErrors() {
		return nil
	}
	return v.errors[0]
}

// Validate checks that every editable field of p is filled in. The returned
// error is a *ValidationError naming the first empty field in declaration order.
func Validate(p Profile) error {
	v := NewValidator()
	for _, field := range Fields {
		value, _ := p.Get(field)
		v.Field(field, value, Required)
	}
	return v.First()
}
