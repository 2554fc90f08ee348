package engine

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"formbuilder/internal/formschema"
)

// FieldRequest is the body of POST /api/addfield.
type FieldRequest struct {
	NewField          string                        `json:"newField" validate:"required"`
	FieldType         string                        `json:"fieldType" validate:"required,fieldtype"`
	Options           []string                      `json:"options" validate:"omitempty,dive,required"`
	IsRequired        *bool                         `json:"isRequired" validate:"required"`
	IsReadOnly        bool                          `json:"isReadOnly"`
	VisibilityOptions *formschema.VisibilityOptions `json:"visibilityOptions"`
}

// EditFieldRequest is the body of POST /api/editfield.
type EditFieldRequest struct {
	EditField string `json:"editField" validate:"required"`
	FieldRequest
}

type RemoveFieldRequest struct {
	RemoveField string `json:"removeField" validate:"required"`
}

// SubmitRequest carries the record plus the client's view of the form. The
// record is validated against the server's current schema.
type SubmitRequest struct {
	Data     map[string]any `json:"data" validate:"required"`
	Schema   map[string]any `json:"schema" validate:"required"`
	UISchema map[string]any `json:"uischema" validate:"required"`
}

type VisibilityRequest struct {
	Data map[string]any `json:"data"`
}

func (r FieldRequest) Definition() formschema.FieldDefinition {
	def := formschema.FieldDefinition{
		Name:       r.NewField,
		Type:       formschema.FieldType(r.FieldType),
		Options:    r.Options,
		IsReadOnly: r.IsReadOnly,
		Visibility: r.VisibilityOptions,
	}
	if r.IsRequired != nil {
		def.IsRequired = *r.IsRequired
	}
	return def
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("fieldtype", func(fl validator.FieldLevel) bool {
		return formschema.FieldType(fl.Field().String()).Valid()
	})
	return v
}

// parseBody decodes and validates the request body into req.
func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return InvalidPayloadError(err)
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return ValidationError(validationDetails(verrs))
		}
		return fmt.Errorf("validate request: %w", err)
	}
	return nil
}

func validationDetails(verrs validator.ValidationErrors) []ErrorDetail {
	details := make([]ErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, ErrorDetail{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: validationMessage(fe),
		})
	}
	return details
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "fieldtype":
		return fmt.Sprintf("%s must be one of %v", fe.Field(), formschema.SupportedTypes())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
