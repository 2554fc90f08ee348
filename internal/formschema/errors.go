package formschema

import (
	"errors"
	"fmt"
)

var (
	ErrValidation             = errors.New("invalid input")
	ErrDuplicateField         = errors.New("field name already exists")
	ErrFieldNotFound          = errors.New("field not found")
	ErrInvalidVisibilityField = errors.New("invalid visibility field")
	ErrUnsupportedOperator    = errors.New("unsupported operator")
	ErrSubmissionInvalid      = errors.New("submission failed validation")
)

// FieldError is a recoverable failure tied to a single field. Kind is one of
// the Err* sentinels and is matched with errors.Is.
type FieldError struct {
	Kind    error
	Field   string
	Value   any
	Message string
}

func (e *FieldError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	}
	return e.Kind.Error()
}

func (e *FieldError) Unwrap() error { return e.Kind }

func validationError(field, format string, args ...any) *FieldError {
	return &FieldError{Kind: ErrValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func duplicateFieldError(name string) *FieldError {
	return &FieldError{Kind: ErrDuplicateField, Field: name, Message: "Field name already exists"}
}

func fieldNotFoundError(name string) *FieldError {
	return &FieldError{Kind: ErrFieldNotFound, Field: name, Message: "Field not found"}
}
