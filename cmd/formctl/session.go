package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"formbuilder/internal/formschema"
)

const (
	actionAdd    = "add field"
	actionEdit   = "edit field"
	actionRemove = "remove field"
	actionList   = "list fields"
	actionSave   = "save and quit"
	actionQuit   = "quit without saving"
)

var actions = []string{actionAdd, actionEdit, actionRemove, actionList, actionSave, actionQuit}

// session runs the interactive loop against a form store.
type session struct {
	forms  *formschema.Store
	prompt prompter
	out    io.Writer
}

// run loops until the user saves or quits. It reports whether the form
// should be written back.
func (s *session) run(ctx context.Context) (bool, error) {
	for {
		action, err := s.prompt.Select("What do you want to do?", actions, actionList)
		if err != nil {
			return false, err
		}

		switch action {
		case actionAdd:
			err = s.add(ctx)
		case actionEdit:
			err = s.edit(ctx)
		case actionRemove:
			err = s.remove(ctx)
		case actionList:
			s.list()
		case actionSave:
			return true, nil
		case actionQuit:
			return false, nil
		}

		// Domain errors are reported and the loop continues.
		var fe *formschema.FieldError
		if errors.As(err, &fe) {
			fmt.Fprintf(s.out, "error: %s\n", fe.Error())
			continue
		}
		if err != nil {
			return false, err
		}
	}
}

func (s *session) add(ctx context.Context) error {
	def, err := s.askDefinition("", formschema.FieldDefinition{})
	if err != nil {
		return err
	}
	if _, err := s.forms.AddField(ctx, def); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "added %s\n", def.Name)
	return nil
}

func (s *session) edit(ctx context.Context) error {
	name, err := s.pickField("Field to edit")
	if err != nil || name == "" {
		return err
	}
	def, err := s.askDefinition(name, s.currentDefinition(name))
	if err != nil {
		return err
	}
	if _, err := s.forms.EditField(ctx, name, def); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "updated %s\n", def.Name)
	return nil
}

func (s *session) remove(ctx context.Context) error {
	name, err := s.pickField("Field to remove")
	if err != nil || name == "" {
		return err
	}
	ok, err := s.prompt.Confirm(fmt.Sprintf("Remove %s?", name), false)
	if err != nil || !ok {
		return err
	}
	if _, err := s.forms.RemoveField(ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "removed %s\n", name)
	return nil
}

func (s *session) list() {
	form := s.forms.Form()
	if form.Schema.Properties.Len() == 0 {
		fmt.Fprintln(s.out, "no fields")
		return
	}
	for _, name := range form.Schema.Properties.Keys() {
		c, _ := form.Schema.Properties.Get(name)
		line := fmt.Sprintf("%s\t%s", name, formschema.ValidationKind(c))
		if form.Schema.IsRequired(name) {
			line += "\trequired"
		}
		if c.VisibilityOptions != nil {
			vo := c.VisibilityOptions
			line += fmt.Sprintf("\tshown when %s %s %v", vo.Field, vo.Operator, vo.Value)
		}
		fmt.Fprintln(s.out, line)
	}
}

func (s *session) pickField(message string) (string, error) {
	keys := s.forms.Form().Schema.Properties.Keys()
	if len(keys) == 0 {
		fmt.Fprintln(s.out, "no fields")
		return "", nil
	}
	return s.prompt.Select(message, keys, "")
}

// currentDefinition reconstructs the prompt defaults for an existing field.
func (s *session) currentDefinition(name string) formschema.FieldDefinition {
	form := s.forms.Form()
	c, _ := form.Schema.Properties.Get(name)
	def := formschema.FieldDefinition{
		Name:       name,
		Type:       fieldTypeOf(c),
		Options:    c.Enum,
		IsRequired: form.Schema.IsRequired(name),
	}
	if idx := form.UISchema.ElementIndex(name); idx >= 0 {
		el := form.UISchema.Elements[idx]
		def.IsReadOnly = el.Options.Readonly
		if el.Options.Format == "radio" {
			def.Type = formschema.TypeRadio
		}
	}
	return def
}

func fieldTypeOf(c formschema.FieldConstraint) formschema.FieldType {
	switch {
	case len(c.Enum) > 0:
		return formschema.TypeDropdown
	case c.Format == "date":
		return formschema.TypeDate
	case c.Format == "textarea":
		return formschema.TypeTextarea
	case c.Format == "uri":
		return formschema.TypeURL
	case c.Format == "email":
		return formschema.TypeEmail
	case c.Type == "number" || c.Type == "boolean":
		return formschema.FieldType(c.Type)
	default:
		return formschema.TypeString
	}
}

func (s *session) askDefinition(defaultName string, current formschema.FieldDefinition) (formschema.FieldDefinition, error) {
	var def formschema.FieldDefinition
	var err error

	def.Name, err = s.prompt.Input("Field name", defaultName, requiredText("field name"))
	if err != nil {
		return def, err
	}
	def.Name = strings.TrimSpace(def.Name)

	types := make([]string, 0, len(formschema.SupportedTypes()))
	for _, t := range formschema.SupportedTypes() {
		types = append(types, string(t))
	}
	typ, err := s.prompt.Select("Field type", types, string(current.Type))
	if err != nil {
		return def, err
	}
	def.Type = formschema.FieldType(typ)

	if def.Type.IsChoice() {
		raw, err := s.prompt.Input("Options (comma separated)", strings.Join(current.Options, ", "), minOptions(def.Type.MinOptions()))
		if err != nil {
			return def, err
		}
		def.Options = splitOptions(raw)
	}

	if def.IsRequired, err = s.prompt.Confirm("Required?", current.IsRequired); err != nil {
		return def, err
	}
	if def.IsReadOnly, err = s.prompt.Confirm("Read-only?", current.IsReadOnly); err != nil {
		return def, err
	}

	withRule, err := s.prompt.Confirm("Add a visibility rule?", false)
	if err != nil || !withRule {
		return def, err
	}
	def.Visibility, err = s.askVisibility()
	return def, err
}

func (s *session) askVisibility() (*formschema.VisibilityOptions, error) {
	form := s.forms.Form()
	field, err := s.prompt.Select("Show when field", form.Schema.Properties.Keys(), "")
	if err != nil {
		return nil, err
	}
	op, err := s.prompt.Select("Operator", []string{formschema.OperatorEqual, formschema.OperatorNotEqual}, formschema.OperatorEqual)
	if err != nil {
		return nil, err
	}
	raw, err := s.prompt.Input("Value", "", nil)
	if err != nil {
		return nil, err
	}
	c, _ := form.Schema.Properties.Get(field)
	value, err := parseValue(c.Type, strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return &formschema.VisibilityOptions{Field: field, Operator: op, Value: value}, nil
}

// parseValue converts prompt text to the JSON type of the referenced field.
func parseValue(typ, raw string) (any, error) {
	switch typ {
	case "number":
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, invalidValue(raw, "number")
		}
		return n, nil
	case "boolean":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, invalidValue(raw, "boolean")
		}
		return b, nil
	default:
		return raw, nil
	}
}

func invalidValue(raw, typ string) error {
	return &formschema.FieldError{
		Kind:    formschema.ErrValidation,
		Field:   "value",
		Value:   raw,
		Message: fmt.Sprintf("value %s is not a %s", raw, typ),
	}
}

func splitOptions(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func requiredText(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

func minOptions(n int) func(string) error {
	return func(s string) error {
		if len(splitOptions(s)) < n {
			return fmt.Errorf("at least %d options are required", n)
		}
		return nil
	}
}
