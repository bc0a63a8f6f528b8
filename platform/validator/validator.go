// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxWSNLength is the longest accepted warehouse serial number.
const MaxWSNLength = 64

var wsnPattern = regexp.MustCompile(`^[A-Z0-9_-]+$`)

// Validator wraps the go-playground validator for structured validation.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance with the domain tags registered.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("wsn", validateWSN)
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// validateWSN accepts a non-blank serial that, once trimmed and uppercased,
// is short enough and uses only the label charset.
func validateWSN(fl validator.FieldLevel) bool {
	key := strings.ToUpper(strings.TrimSpace(fl.Field().String()))
	if key == "" || len(key) > MaxWSNLength {
		return false
	}
	return wsnPattern.MatchString(key)
}
