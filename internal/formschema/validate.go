package formschema

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	maxStringLength   = 255
	maxTextareaLength = 1000
)

var validate = validator.New()

// Violation is one failed value check during submission validation.
type Violation struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// ValidateOptions tunes submission validation.
type ValidateOptions struct {
	// Skip lists fields that are not validated, typically fields hidden by
	// their visibility rule.
	Skip map[string]bool
}

// Violations checks every declared property of schema against data, in
// property order, and returns all failures.
func Violations(schema *DataSchema, data map[string]any, opts ValidateOptions) []Violation {
	var out []Violation
	for _, name := range schema.Properties.Keys() {
		if opts.Skip[name] {
			continue
		}
		c, _ := schema.Properties.Get(name)
		value, present := data[name]
		if !present || value == nil {
			if schema.IsRequired(name) {
				out = append(out, Violation{Field: name, Message: name + " is required"})
			}
			continue
		}
		if msg := checkValue(name, c, value); msg != "" {
			out = append(out, Violation{Field: name, Value: value, Message: msg})
		}
	}
	return out
}

// ValidateSubmission returns the first violation as a FieldError wrapping
// ErrSubmissionInvalid, or nil when data satisfies schema.
func ValidateSubmission(schema *DataSchema, data map[string]any, opts ValidateOptions) error {
	violations := Violations(schema, data, opts)
	if len(violations) == 0 {
		return nil
	}
	first := violations[0]
	return &FieldError{
		Kind:    ErrSubmissionInvalid,
		Field:   first.Field,
		Value:   first.Value,
		Message: first.Message,
	}
}

// ValidationKind resolves the rule applied to a constraint: the format if
// present, the choice rule for enum-bearing fields, otherwise the base type.
func ValidationKind(c FieldConstraint) string {
	switch {
	case c.Format != "":
		return c.Format
	case len(c.Enum) > 0:
		return "enum"
	case c.Type == "":
		return "string"
	}
	return c.Type
}

func checkValue(name string, c FieldConstraint, value any) string {
	switch kind := ValidationKind(c); kind {
	case "string":
		return checkText(name, value, maxStringLength)
	case "textarea":
		return checkText(name, value, maxTextareaLength)
	case "number":
		return checkNumber(name, value)
	case "boolean":
		if _, ok := value.(bool); !ok {
			return name + " must be a boolean"
		}
	case "date":
		s, ok := value.(string)
		if !ok {
			return name + " must be a string"
		}
		if !isISODate(s) {
			return name + " must be in ISO 8601 date format"
		}
	case "uri":
		s, ok := value.(string)
		if !ok {
			return name + " must be a string"
		}
		if validate.Var(s, "url") != nil {
			return name + " must be a valid uri with a scheme matching the https pattern"
		}
		if u, err := url.Parse(s); err != nil || u.Scheme != "https" {
			return name + " must be a valid uri with a scheme matching the https pattern"
		}
	case "email":
		s, ok := value.(string)
		if !ok {
			return name + " must be a string"
		}
		if validate.Var(s, "email") != nil {
			return name + " must be a valid email"
		}
	case "enum":
		s, ok := value.(string)
		if !ok {
			return name + " must be a string"
		}
		for _, opt := range c.Enum {
			if s == opt {
				return ""
			}
		}
		return fmt.Sprintf("%s must be one of [%s]", name, strings.Join(c.Enum, ", "))
	default:
		return fmt.Sprintf("%s has unsupported field type %s", name, kind)
	}
	return ""
}

func checkText(name string, value any, max int) string {
	s, ok := value.(string)
	if !ok {
		return name + " must be a string"
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return name + " is not allowed to be empty"
	}
	if utf8.RuneCountInString(trimmed) > max {
		return fmt.Sprintf("%s length must be less than or equal to %d characters long", name, max)
	}
	return ""
}

func checkNumber(name string, value any) string {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return name + " must be a number"
		}
		f = parsed
	default:
		return name + " must be a number"
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return name + " must be a number"
	}
	if f != math.Trunc(f) {
		return name + " must be an integer"
	}
	if f < 0 {
		return name + " must be greater than or equal to 0"
	}
	return ""
}

func isISODate(s string) bool {
	if validate.Var(s, "datetime=2006-01-02") == nil {
		return true
	}
	if validate.Var(s, "datetime="+time.RFC3339) == nil {
		return true
	}
	return false
}
