package engine

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"formbuilder/internal/formschema"
)

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *AppError `json:"error"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func ValidationError(details []ErrorDetail) *AppError {
	msg := "Validation failed"
	if len(details) > 0 {
		msg = details[0].Message
	}
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  400,
		Message: msg,
		Details: details,
	}
}

func InvalidPayloadError(err error) *AppError {
	return &AppError{
		Code:    "INVALID_PAYLOAD",
		Status:  400,
		Message: fmt.Sprintf("Invalid request body: %v", err),
	}
}

func NoSubmissionError() *AppError {
	return NewAppError("NO_SUBMISSION", 404, "No submission has been saved")
}

var domainCodes = []struct {
	kind error
	code string
}{
	{formschema.ErrValidation, "VALIDATION_FAILED"},
	{formschema.ErrDuplicateField, "DUPLICATE_FIELD"},
	{formschema.ErrFieldNotFound, "FIELD_NOT_FOUND"},
	{formschema.ErrInvalidVisibilityField, "INVALID_VISIBILITY_FIELD"},
	{formschema.ErrUnsupportedOperator, "UNSUPPORTED_OPERATOR"},
	{formschema.ErrSubmissionInvalid, "SUBMISSION_INVALID"},
}

// fromDomainError maps formschema errors onto 400 responses. It returns nil
// for anything that is not a recognised field error.
func fromDomainError(err error) *AppError {
	for _, dc := range domainCodes {
		if !errors.Is(err, dc.kind) {
			continue
		}
		appErr := &AppError{Code: dc.code, Status: 400, Message: err.Error()}
		var fe *formschema.FieldError
		if errors.As(err, &fe) {
			appErr.Details = []ErrorDetail{{Field: fe.Field, Value: fe.Value, Message: fe.Message}}
		}
		return appErr
	}
	return nil
}

func respondError(c *fiber.Ctx, appErr *AppError) error {
	return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
}

func handleError(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return respondError(c, appErr)
	}
	if appErr := fromDomainError(err); appErr != nil {
		return respondError(c, appErr)
	}
	return err
}

// ErrorHandler is the fiber error handler for the service. Unknown errors are
// logged and answered with a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		return respondError(c, NewAppError("HTTP_ERROR", code, fiberErr.Message))
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return respondError(c, appErr)
	}
	if appErr := fromDomainError(err); appErr != nil {
		return respondError(c, appErr)
	}

	log.Printf("ERROR: %v", err)
	return c.Status(code).JSON(ErrorResponse{
		Error: &AppError{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		},
	})
}
