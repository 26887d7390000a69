// Package validation holds the field-error types shared by the
// per-entity validators.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	messages := make([]string, len(e))
	for i, fieldErr := range e {
		messages[i] = fieldErr.Error()
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(e), strings.Join(messages, "; "))
}

// Details renders the errors for an AppError details map.
func (e FieldErrors) Details() map[string]any {
	fields := make(map[string]any, len(e))
	for _, fieldErr := range e {
		fields[fieldErr.Field] = fieldErr.Message
	}
	return map[string]any{"fields": fields}
}

// Translate converts go-playground validator output into FieldErrors.
// Non-validator errors come back as a single opaque field error.
func Translate(err error) FieldErrors {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{{Field: "_", Message: err.Error()}}
	}

	out := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gtfield":
		return fmt.Sprintf("must be after %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "email":
		return "must be a valid email address"
	case "e164":
		return "must be a valid phone number in E.164 format"
	case "mongodb":
		return "must be a valid object id"
	case "iso4217":
		return "must be a valid ISO 4217 currency code"
	case "future":
		return "must be in the future"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
