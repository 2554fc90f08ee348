package formschema

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

const scopePrefix = "#/properties/"

// Form is the schema pair served to the rendering layer.
type Form struct {
	Schema   DataSchema `json:"schema" yaml:"schema"`
	UISchema UiSchema   `json:"uischema" yaml:"uischema"`
}

type DataSchema struct {
	Type       string     `json:"type,omitempty" yaml:"type,omitempty"`
	Properties Properties `json:"properties" yaml:"properties"`
	Required   []string   `json:"required" yaml:"required"`
}

type FieldConstraint struct {
	Type              string             `json:"type" yaml:"type"`
	Format            string             `json:"format,omitempty" yaml:"format,omitempty"`
	Enum              []string           `json:"enum,omitempty" yaml:"enum,omitempty"`
	VisibilityOptions *VisibilityOptions `json:"visibilityOptions,omitempty" yaml:"visibilityOptions,omitempty"`
}

// VisibilityOptions is the caller-supplied conditional display input.
type VisibilityOptions struct {
	Field    string `json:"field" yaml:"field"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value" yaml:"value"`
}

type UiSchema struct {
	Type     string      `json:"type,omitempty" yaml:"type,omitempty"`
	Elements []UiElement `json:"elements" yaml:"elements"`
}

type UiElement struct {
	Type    string          `json:"type" yaml:"type"`
	Label   string          `json:"label" yaml:"label"`
	Scope   string          `json:"scope" yaml:"scope"`
	Options ElementOptions  `json:"options" yaml:"options"`
	Rule    *VisibilityRule `json:"rule,omitempty" yaml:"rule,omitempty"`
}

// ElementOptions carries presentation flags. Required mirrors IsRequired for
// textarea, dropdown and radio elements; the renderer reads both keys.
type ElementOptions struct {
	IsRequired  bool         `json:"isRequired" yaml:"isRequired"`
	Readonly    bool         `json:"readonly" yaml:"readonly"`
	Required    *bool        `json:"required,omitempty" yaml:"required,omitempty"`
	Multi       bool         `json:"multi,omitempty" yaml:"multi,omitempty"`
	EnumOptions []EnumOption `json:"enumOptions,omitempty" yaml:"enumOptions,omitempty"`
	Format      string       `json:"format,omitempty" yaml:"format,omitempty"`
}

type EnumOption struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

type VisibilityRule struct {
	Effect    string        `json:"effect" yaml:"effect"`
	Condition RuleCondition `json:"condition" yaml:"condition"`
}

type RuleCondition struct {
	Scope  string          `json:"scope" yaml:"scope"`
	Schema ConditionSchema `json:"schema" yaml:"schema"`
}

type ConditionSchema struct {
	Type   string           `json:"type,omitempty" yaml:"type,omitempty"`
	Format string           `json:"format,omitempty" yaml:"format,omitempty"`
	Const  *Const           `json:"const,omitempty" yaml:"const,omitempty"`
	Not    *ConditionSchema `json:"not,omitempty" yaml:"not,omitempty"`
}

// Const wraps a constant so that false, 0 and "" survive omitempty.
type Const struct {
	Value any
}

func (c Const) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Value)
}

func (c *Const) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &c.Value)
}

func (c Const) MarshalYAML() (any, error) {
	return c.Value, nil
}

func (c *Const) UnmarshalYAML(node *yaml.Node) error {
	return node.Decode(&c.Value)
}

// Scope returns the UI scope reference for a property name.
func Scope(name string) string {
	return scopePrefix + name
}

// ScopeField extracts the property name from a scope reference.
func ScopeField(scope string) (string, bool) {
	if !strings.HasPrefix(scope, scopePrefix) {
		return "", false
	}
	return strings.TrimPrefix(scope, scopePrefix), true
}

// Properties is an insertion-ordered map of field constraints. Key order is
// preserved through JSON and YAML round trips.
type Properties struct {
	keys   []string
	byName map[string]FieldConstraint
}

func (p Properties) Len() int { return len(p.keys) }

func (p Properties) Has(name string) bool {
	_, ok := p.byName[name]
	return ok
}

func (p Properties) Get(name string) (FieldConstraint, bool) {
	c, ok := p.byName[name]
	return c, ok
}

// Keys returns property names in insertion order.
func (p Properties) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Set inserts or replaces a property. New names are appended.
func (p *Properties) Set(name string, c FieldConstraint) {
	if p.byName == nil {
		p.byName = make(map[string]FieldConstraint)
	}
	if _, ok := p.byName[name]; !ok {
		p.keys = append(p.keys, name)
	}
	p.byName[name] = c
}

// Rename moves a property to a new key at the same position.
func (p *Properties) Rename(oldName, newName string) bool {
	c, ok := p.byName[oldName]
	if !ok {
		return false
	}
	if oldName == newName {
		return true
	}
	delete(p.byName, oldName)
	p.byName[newName] = c
	for i, k := range p.keys {
		if k == oldName {
			p.keys[i] = newName
			break
		}
	}
	return true
}

func (p *Properties) Delete(name string) bool {
	if _, ok := p.byName[name]; !ok {
		return false
	}
	delete(p.byName, name)
	for i, k := range p.keys {
		if k == name {
			p.keys = append(p.keys[:i:i], p.keys[i+1:]...)
			break
		}
	}
	return true
}

func (p Properties) clone() Properties {
	out := Properties{
		keys:   make([]string, len(p.keys)),
		byName: make(map[string]FieldConstraint, len(p.byName)),
	}
	copy(out.keys, p.keys)
	for k, v := range p.byName {
		out.byName[k] = v.clone()
	}
	return out
}

func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.byName[k])
		if err != nil {
			return nil, fmt.Errorf("marshal property %s: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *Properties) UnmarshalJSON(data []byte) error {
	*p = Properties{byName: make(map[string]FieldConstraint)}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var raw map[string]FieldConstraint
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	keys, err := objectKeys(data)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if c, ok := raw[k]; ok && !p.Has(k) {
			p.Set(k, c)
		}
	}
	return nil
}

// objectKeys walks the top-level JSON object and returns its keys in
// document order.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("properties: expected object")
	}

	var keys []string
	depth := 1
	expectKey := true
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
				if depth == 1 {
					expectKey = true
				}
			}
		case string:
			if depth == 1 && expectKey {
				keys = append(keys, v)
				expectKey = false
				continue
			}
			if depth == 1 {
				expectKey = true
			}
		default:
			if depth == 1 {
				expectKey = true
			}
		}
	}
	return keys, nil
}

func (p Properties) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range p.keys {
		val := &yaml.Node{}
		if err := val.Encode(p.byName[k]); err != nil {
			return nil, fmt.Errorf("encode property %s: %w", k, err)
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, val)
	}
	return node, nil
}

func (p *Properties) UnmarshalYAML(node *yaml.Node) error {
	*p = Properties{byName: make(map[string]FieldConstraint)}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("properties: expected mapping at line %d", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var c FieldConstraint
		if err := node.Content[i+1].Decode(&c); err != nil {
			return fmt.Errorf("property %s: %w", node.Content[i].Value, err)
		}
		p.Set(node.Content[i].Value, c)
	}
	return nil
}

func (c FieldConstraint) clone() FieldConstraint {
	out := c
	if c.Enum != nil {
		out.Enum = append([]string(nil), c.Enum...)
	}
	if c.VisibilityOptions != nil {
		vo := *c.VisibilityOptions
		out.VisibilityOptions = &vo
	}
	return out
}

func (d DataSchema) clone() DataSchema {
	out := d
	out.Properties = d.Properties.clone()
	out.Required = append([]string{}, d.Required...)
	return out
}

func (u UiSchema) clone() UiSchema {
	out := u
	out.Elements = make([]UiElement, len(u.Elements))
	for i, el := range u.Elements {
		out.Elements[i] = el.clone()
	}
	return out
}

func (e UiElement) clone() UiElement {
	out := e
	if e.Options.Required != nil {
		r := *e.Options.Required
		out.Options.Required = &r
	}
	if e.Options.EnumOptions != nil {
		out.Options.EnumOptions = append([]EnumOption(nil), e.Options.EnumOptions...)
	}
	if e.Rule != nil {
		r := *e.Rule
		r.Condition.Schema = e.Rule.Condition.Schema.clone()
		out.Rule = &r
	}
	return out
}

func (s ConditionSchema) clone() ConditionSchema {
	out := s
	if s.Const != nil {
		c := *s.Const
		out.Const = &c
	}
	if s.Not != nil {
		n := s.Not.clone()
		out.Not = &n
	}
	return out
}

// IsRequired reports whether name is listed in the required set.
func (d DataSchema) IsRequired(name string) bool {
	for _, r := range d.Required {
		if r == name {
			return true
		}
	}
	return false
}

func (d *DataSchema) setRequired(name string, required bool) {
	if required {
		if !d.IsRequired(name) {
			d.Required = append(d.Required, name)
		}
		return
	}
	d.removeRequired(name)
}

func (d *DataSchema) removeRequired(name string) {
	out := d.Required[:0]
	for _, r := range d.Required {
		if r != name {
			out = append(out, r)
		}
	}
	d.Required = out
}

// ElementIndex returns the position of the element bound to name, or -1.
func (u UiSchema) ElementIndex(name string) int {
	scope := Scope(name)
	for i, el := range u.Elements {
		if el.Scope == scope {
			return i
		}
	}
	return -1
}

func (u *UiSchema) removeElement(name string) {
	scope := Scope(name)
	out := u.Elements[:0]
	for _, el := range u.Elements {
		if el.Scope != scope {
			out = append(out, el)
		}
	}
	u.Elements = out
}
