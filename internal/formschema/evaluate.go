package formschema

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-json"
)

// Evaluator decides which fields are visible for a data record by running
// each element's rule as an expr-lang program. Compiled programs are cached
// by expression string.
type Evaluator struct {
	mu    sync.Mutex
	cache map[string]*vm.Program
}

func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

// RuleExpression renders a visibility rule as an expr-lang boolean
// expression over the record, e.g. record["age"] == 30.
func RuleExpression(rule *VisibilityRule) (string, error) {
	field, ok := ScopeField(rule.Condition.Scope)
	if !ok {
		return "", fmt.Errorf("rule scope %q does not reference a property", rule.Condition.Scope)
	}

	op := OperatorEqual
	c := rule.Condition.Schema.Const
	if c == nil && rule.Condition.Schema.Not != nil {
		op = OperatorNotEqual
		c = rule.Condition.Schema.Not.Const
	}
	if c == nil {
		return "", fmt.Errorf("rule on %s has no constant", field)
	}

	lit, err := literal(c.Value)
	if err != nil {
		return "", fmt.Errorf("rule on %s: %w", field, err)
	}
	return fmt.Sprintf("record[%s] %s %s", strconv.Quote(field), op, lit), nil
}

// Visible reports whether an element with the given rule is shown. A nil
// rule is always visible.
func (e *Evaluator) Visible(rule *VisibilityRule, record map[string]any) (bool, error) {
	if rule == nil {
		return true, nil
	}
	expression, err := RuleExpression(rule)
	if err != nil {
		return false, err
	}
	prog, err := e.program(expression)
	if err != nil {
		return false, err
	}

	result, err := expr.Run(prog, map[string]any{"record": record})
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", expression, err)
	}
	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("rule %q did not return bool", expression)
	}
	if rule.Effect == EffectShow || rule.Effect == "" {
		return matched, nil
	}
	return !matched, nil
}

// VisibleFields evaluates every element in the UI schema against record.
func (e *Evaluator) VisibleFields(ui UiSchema, record map[string]any) (map[string]bool, error) {
	if record == nil {
		record = map[string]any{}
	}
	out := make(map[string]bool, len(ui.Elements))
	for _, el := range ui.Elements {
		name, ok := ScopeField(el.Scope)
		if !ok {
			continue
		}
		visible, err := e.Visible(el.Rule, record)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		out[name] = visible
	}
	return out, nil
}

func (e *Evaluator) program(expression string) (*vm.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if prog, ok := e.cache[expression]; ok {
		return prog, nil
	}
	prog, err := expr.Compile(expression, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}
	e.cache[expression] = prog
	return prog, nil
}

func literal(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case json.Number:
		return val.String(), nil
	case nil:
		return "nil", nil
	}
	return "", fmt.Errorf("unsupported constant type %T", v)
}
