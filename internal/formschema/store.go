package formschema

import (
	"context"
	"sync"

	"formbuilder/internal/notify"
)

const (
	OpAdd    = "add"
	OpEdit   = "edit"
	OpRemove = "remove"
)

// Store owns the live schema pair. Each mutation runs under one lock and
// works on a copy that replaces the live pair only on success, so a failed
// operation leaves both documents untouched.
type Store struct {
	mu       sync.RWMutex
	schema   DataSchema
	ui       UiSchema
	notifier notify.Notifier
}

// NewStore takes ownership of a copy of form. A nil notifier discards events.
func NewStore(form Form, n notify.Notifier) *Store {
	if n == nil {
		n = notify.Noop{}
	}
	s := &Store{
		schema:   form.Schema.clone(),
		ui:       form.UISchema.clone(),
		notifier: n,
	}
	if s.schema.Type == "" {
		s.schema.Type = "object"
	}
	return s
}

// Form returns a deep copy of the current pair.
func (s *Store) Form() Form {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Form{Schema: s.schema.clone(), UISchema: s.ui.clone()}
}

// AddField appends a new field to both documents.
func (s *Store) AddField(ctx context.Context, def FieldDefinition) (Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkDefinition(def); err != nil {
		return Form{}, err
	}
	if s.schema.Properties.Has(def.Name) {
		return Form{}, duplicateFieldError(def.Name)
	}

	rule, err := s.visibilityRule(def)
	if err != nil {
		return Form{}, err
	}

	schema := s.schema.clone()
	ui := s.ui.clone()

	schema.Properties.Set(def.Name, BuildConstraint(def))
	ui.Elements = append(ui.Elements, BuildElement(def, rule))
	schema.setRequired(def.Name, def.IsRequired)

	return s.commit(ctx, schema, ui, OpAdd, def.Name), nil
}

// EditField rebuilds the field stored under oldName from def. When def.Name
// differs from oldName the field is renamed in place: the property key, the
// element scope and the required entry all move to the new name. Nothing
// from the old constraint is carried over.
func (s *Store) EditField(ctx context.Context, oldName string, def FieldDefinition) (Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if oldName == "" || !s.schema.Properties.Has(oldName) {
		return Form{}, fieldNotFoundError(oldName)
	}
	if err := checkDefinition(def); err != nil {
		return Form{}, err
	}
	if def.Name != oldName && s.schema.Properties.Has(def.Name) {
		return Form{}, duplicateFieldError(def.Name)
	}
	// The old name is gone once the rename lands, so a rule on it would dangle.
	if def.Name != oldName && def.Visibility != nil && def.Visibility.Field == oldName {
		return Form{}, &FieldError{Kind: ErrInvalidVisibilityField, Field: oldName, Message: "Invalid visibility field"}
	}

	rule, err := s.visibilityRule(def)
	if err != nil {
		return Form{}, err
	}

	schema := s.schema.clone()
	ui := s.ui.clone()

	idx := ui.ElementIndex(oldName)
	if def.Name != oldName {
		schema.Properties.Rename(oldName, def.Name)
		schema.removeRequired(oldName)
		if idx >= 0 {
			ui.Elements[idx].Scope = Scope(def.Name)
		}
	}

	schema.Properties.Set(def.Name, BuildConstraint(def))
	el := BuildElement(def, rule)
	if idx >= 0 {
		ui.Elements[idx] = el
	} else {
		ui.Elements = append(ui.Elements, el)
	}
	schema.setRequired(def.Name, def.IsRequired)

	return s.commit(ctx, schema, ui, OpEdit, def.Name), nil
}

// RemoveField deletes a field from the properties, the required set and the
// element list.
func (s *Store) RemoveField(ctx context.Context, name string) (Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" || !s.schema.Properties.Has(name) {
		return Form{}, fieldNotFoundError(name)
	}

	schema := s.schema.clone()
	ui := s.ui.clone()

	schema.Properties.Delete(name)
	schema.removeRequired(name)
	ui.removeElement(name)

	return s.commit(ctx, schema, ui, OpRemove, name), nil
}

// commit swaps in the new pair and raises form.updated. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, schema DataSchema, ui UiSchema, op, field string) Form {
	s.schema = schema
	s.ui = ui
	s.notifier.Notify(ctx, notify.NewEvent(op, field))
	return Form{Schema: schema.clone(), UISchema: ui.clone()}
}

// visibilityRule validates and compiles def.Visibility against the live
// properties. Callers hold s.mu.
func (s *Store) visibilityRule(def FieldDefinition) (*VisibilityRule, error) {
	if def.Visibility == nil {
		return nil, nil
	}
	if err := ValidateVisibility(*def.Visibility, &s.schema.Properties); err != nil {
		return nil, err
	}
	return CompileRule(*def.Visibility, &s.schema.Properties)
}

func checkDefinition(def FieldDefinition) error {
	if def.Name == "" {
		return validationError("newField", "newField is required")
	}
	if !def.Type.Valid() {
		return validationError("fieldType", "fieldType must be one of %v", SupportedTypes())
	}
	if min := def.Type.MinOptions(); len(def.Options) < min {
		return validationError("options", "options must contain at least %d items", min)
	}
	if def.Type.IsChoice() {
		for _, o := range def.Options {
			if o == "" {
				return validationError("options", "options is not allowed to contain empty values")
			}
		}
	}
	return nil
}
