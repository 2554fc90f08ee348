package formschema

import (
	"github.com/goccy/go-json"
)

const (
	OperatorEqual    = "=="
	OperatorNotEqual = "!="

	EffectShow = "SHOW"
)

// ValidateVisibility checks a visibility input against the current
// properties: the referenced field must exist, the operator must be
// supported, and the value must match the referenced field's type.
func ValidateVisibility(vo VisibilityOptions, props *Properties) error {
	if vo.Field == "" {
		return validationError("field", "field is required")
	}
	ref, ok := props.Get(vo.Field)
	if !ok {
		return &FieldError{Kind: ErrInvalidVisibilityField, Field: vo.Field, Message: "Invalid visibility field"}
	}
	if vo.Operator != OperatorEqual && vo.Operator != OperatorNotEqual {
		return &FieldError{
			Kind:    ErrUnsupportedOperator,
			Field:   vo.Field,
			Value:   vo.Operator,
			Message: "Unsupported operator: " + vo.Operator,
		}
	}

	switch ref.Type {
	case "number":
		if !isNumber(vo.Value) {
			return validationError("value", "value must be a number")
		}
	case "boolean":
		if _, ok := vo.Value.(bool); !ok {
			return validationError("value", "value must be a boolean")
		}
	default:
		if _, ok := vo.Value.(string); !ok {
			return validationError("value", "value must be a string")
		}
	}
	return nil
}

// CompileRule turns visibility options into a SHOW rule over the referenced
// field. The condition schema mirrors the referenced field's declared type;
// a declared date type is upgraded to a date-time string.
func CompileRule(vo VisibilityOptions, props *Properties) (*VisibilityRule, error) {
	ref, ok := props.Get(vo.Field)
	if !ok {
		return nil, &FieldError{Kind: ErrInvalidVisibilityField, Field: vo.Field, Message: "Invalid visibility field"}
	}

	typ := ref.Type
	if typ == "" {
		typ = "string"
	}
	cond := ConditionSchema{Type: typ}
	if typ == "date" {
		cond.Type = "string"
		cond.Format = "date-time"
	}

	switch vo.Operator {
	case OperatorEqual:
		cond.Const = &Const{Value: vo.Value}
	case OperatorNotEqual:
		cond.Not = &ConditionSchema{Const: &Const{Value: vo.Value}}
	default:
		return nil, &FieldError{
			Kind:    ErrUnsupportedOperator,
			Field:   vo.Field,
			Value:   vo.Operator,
			Message: "Unsupported operator: " + vo.Operator,
		}
	}

	return &VisibilityRule{
		Effect: EffectShow,
		Condition: RuleCondition{
			Scope:  Scope(vo.Field),
			Schema: cond,
		},
	}, nil
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return true
	}
	return false
}
