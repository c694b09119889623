// Package validation provides struct validation utilities built on the
// validator/v10 library, converting its failures into domain errors.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/simonhull/fileops/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for this library.
func New() *Validator {
	return &Validator{v: validator.New()}
}

// Validate validates a struct and returns a domain validation error
// describing every failing field.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return domainerrors.Internal("validation failed").WithCause(err)
	}

	messages := make([]string, 0, len(validationErrs))
	fields := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		msg := fieldMessage(fe)
		messages = append(messages, fmt.Sprintf("%s %s", fe.Field(), msg))
		fields[fe.Field()] = msg
	}

	return domainerrors.ValidationWithDetails(strings.Join(messages, "; "), fields)
}

// fieldMessage renders one rule failure as a readable phrase.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
