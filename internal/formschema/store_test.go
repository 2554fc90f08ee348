package formschema

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"formbuilder/internal/notify"
)

func newTestStore(t *testing.T) (*Store, *notify.ChannelNotifier) {
	t.Helper()
	form, err := LoadBaseline("", "")
	if err != nil {
		t.Fatalf("load baseline: %v", err)
	}
	ch := notify.NewChannelNotifier(16)
	return NewStore(form, ch), ch
}

func assertOneToOne(t *testing.T, form Form) {
	t.Helper()
	keys := form.Schema.Properties.Keys()
	if len(keys) != len(form.UISchema.Elements) {
		t.Fatalf("expected %d elements, got %d", len(keys), len(form.UISchema.Elements))
	}
	for _, k := range keys {
		count := 0
		for _, el := range form.UISchema.Elements {
			if el.Scope == Scope(k) {
				count++
			}
		}
		if count != 1 {
			t.Fatalf("expected exactly one element for %s, got %d", k, count)
		}
	}
	for _, r := range form.Schema.Required {
		if !form.Schema.Properties.Has(r) {
			t.Fatalf("required field %s is not a property", r)
		}
	}
}

func TestAddField_AppendsPropertyAndElement(t *testing.T) {
	s, ch := newTestStore(t)
	before := s.Form()

	form, err := s.AddField(context.Background(), FieldDefinition{
		Name: "age", Type: TypeNumber, IsRequired: true,
	})
	if err != nil {
		t.Fatalf("add field: %v", err)
	}

	if form.Schema.Properties.Len() != before.Schema.Properties.Len()+1 {
		t.Fatalf("expected one new property, got %d", form.Schema.Properties.Len())
	}
	c, ok := form.Schema.Properties.Get("age")
	if !ok || c.Type != "number" {
		t.Fatalf("expected age:number, got %+v", c)
	}
	last := form.UISchema.Elements[len(form.UISchema.Elements)-1]
	if last.Scope != "#/properties/age" || last.Label != "age" {
		t.Fatalf("expected new element last, got %+v", last)
	}
	if !last.Options.IsRequired {
		t.Fatal("expected isRequired=true")
	}
	if !form.Schema.IsRequired("age") {
		t.Fatal("expected age in required")
	}
	assertOneToOne(t, form)

	select {
	case ev := <-ch.Events():
		if ev.Name != notify.FormUpdated || ev.Operation != OpAdd || ev.Field != "age" {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatal("expected form.updated event")
	}
}

func TestAddField_DuplicateLeavesStateUnchanged(t *testing.T) {
	s, ch := newTestStore(t)
	before := s.Form()

	_, err := s.AddField(context.Background(), FieldDefinition{Name: "name", Type: TypeString})
	if !errors.Is(err, ErrDuplicateField) {
		t.Fatalf("expected ErrDuplicateField, got %v", err)
	}
	assertUnchanged(t, before, s.Form())

	select {
	case ev := <-ch.Events():
		t.Fatalf("expected no event on failure, got %+v", ev)
	default:
	}
}

func TestAddField_RejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		def  FieldDefinition
	}{
		{"empty name", FieldDefinition{Type: TypeString}},
		{"unknown type", FieldDefinition{Name: "x", Type: "color"}},
		{"dropdown without options", FieldDefinition{Name: "x", Type: TypeDropdown}},
		{"radio with one option", FieldDefinition{Name: "x", Type: TypeRadio, Options: []string{"a"}}},
		{"empty option", FieldDefinition{Name: "x", Type: TypeDropdown, Options: []string{""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			before := s.Form()
			_, err := s.AddField(context.Background(), tt.def)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			assertUnchanged(t, before, s.Form())
		})
	}
}

func TestAddField_ChoiceTypes(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	form, err := s.AddField(ctx, FieldDefinition{
		Name: "size", Type: TypeRadio, Options: []string{"S", "M", "M"},
	})
	if err != nil {
		t.Fatalf("add radio: %v", err)
	}
	c, _ := form.Schema.Properties.Get("size")
	if diff := cmp.Diff([]string{"S", "M", "M"}, c.Enum); diff != "" {
		t.Fatalf("enum mismatch (-want +got):\n%s", diff)
	}
	el := form.UISchema.Elements[form.UISchema.ElementIndex("size")]
	if el.Options.Format != "radio" {
		t.Fatalf("expected format=radio, got %q", el.Options.Format)
	}
	if el.Options.Required == nil || *el.Options.Required {
		t.Fatalf("expected options.required=false, got %v", el.Options.Required)
	}
	if len(el.Options.EnumOptions) != 3 || el.Options.EnumOptions[0] != (EnumOption{Value: "S", Label: "S"}) {
		t.Fatalf("unexpected enumOptions %+v", el.Options.EnumOptions)
	}
}

func TestAddField_WithVisibility(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AddField(ctx, FieldDefinition{Name: "age", Type: TypeNumber}); err != nil {
		t.Fatalf("add age: %v", err)
	}
	vo := &VisibilityOptions{Field: "age", Operator: "==", Value: float64(30)}
	form, err := s.AddField(ctx, FieldDefinition{Name: "pension", Type: TypeBoolean, Visibility: vo})
	if err != nil {
		t.Fatalf("add pension: %v", err)
	}

	c, _ := form.Schema.Properties.Get("pension")
	if c.VisibilityOptions == nil || c.VisibilityOptions.Field != "age" {
		t.Fatalf("expected visibilityOptions on constraint, got %+v", c.VisibilityOptions)
	}
	el := form.UISchema.Elements[form.UISchema.ElementIndex("pension")]
	if el.Rule == nil || el.Rule.Effect != EffectShow || el.Rule.Condition.Scope != "#/properties/age" {
		t.Fatalf("unexpected rule %+v", el.Rule)
	}

	// Unknown reference
	_, err = s.AddField(ctx, FieldDefinition{
		Name: "x", Type: TypeString,
		Visibility: &VisibilityOptions{Field: "missing", Operator: "==", Value: "a"},
	})
	if !errors.Is(err, ErrInvalidVisibilityField) {
		t.Fatalf("expected ErrInvalidVisibilityField, got %v", err)
	}

	// Unsupported operator
	_, err = s.AddField(ctx, FieldDefinition{
		Name: "x", Type: TypeString,
		Visibility: &VisibilityOptions{Field: "age", Operator: ">", Value: float64(1)},
	})
	if !errors.Is(err, ErrUnsupportedOperator) {
		t.Fatalf("expected ErrUnsupportedOperator, got %v", err)
	}
	if s.Form().Schema.Properties.Has("x") {
		t.Fatal("failed add must not create the field")
	}
}

func TestEditField_RenameMovesEveryReference(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	before := s.Form()
	pos := before.UISchema.ElementIndex("name")

	form, err := s.EditField(ctx, "name", FieldDefinition{
		Name: "fullName", Type: TypeTextarea, IsRequired: true, IsReadOnly: true,
	})
	if err != nil {
		t.Fatalf("edit field: %v", err)
	}

	if form.Schema.Properties.Has("name") {
		t.Fatal("old name still in properties")
	}
	if form.Schema.IsRequired("name") {
		t.Fatal("old name still in required")
	}
	if form.UISchema.ElementIndex("name") != -1 {
		t.Fatal("old name still referenced by an element")
	}

	count := 0
	for _, r := range form.Schema.Required {
		if r == "fullName" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected fullName in required once, got %d", count)
	}
	if got := form.UISchema.ElementIndex("fullName"); got != pos {
		t.Fatalf("expected element to keep position %d, got %d", pos, got)
	}
	el := form.UISchema.Elements[pos]
	if !el.Options.Multi || !el.Options.Readonly || el.Label != "fullName" {
		t.Fatalf("expected rebuilt textarea element, got %+v", el)
	}
	if keys := form.Schema.Properties.Keys(); keys[0] != "fullName" {
		t.Fatalf("expected renamed key to keep its position, got %v", keys)
	}
	c, _ := form.Schema.Properties.Get("fullName")
	if c.Type != "string" || c.Format != "textarea" {
		t.Fatalf("expected string/textarea, got %+v", c)
	}
	assertOneToOne(t, form)
}

func TestEditField_RebuildDropsOldVisibility(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	vo := &VisibilityOptions{Field: "name", Operator: "!=", Value: "bob"}
	if _, err := s.AddField(ctx, FieldDefinition{Name: "nick", Type: TypeString, Visibility: vo}); err != nil {
		t.Fatalf("add nick: %v", err)
	}
	form, err := s.EditField(ctx, "nick", FieldDefinition{Name: "nickname", Type: TypeString})
	if err != nil {
		t.Fatalf("edit nick: %v", err)
	}
	c, _ := form.Schema.Properties.Get("nickname")
	if c.VisibilityOptions != nil {
		t.Fatalf("expected visibility to be dropped, got %+v", c.VisibilityOptions)
	}
	if el := form.UISchema.Elements[form.UISchema.ElementIndex("nickname")]; el.Rule != nil {
		t.Fatalf("expected rule to be dropped, got %+v", el.Rule)
	}
}

func TestEditField_Errors(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	before := s.Form()

	_, err := s.EditField(ctx, "missing", FieldDefinition{Name: "missing", Type: TypeString})
	if !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("expected ErrFieldNotFound, got %v", err)
	}

	// Renaming onto another existing field would break the 1:1 scope link.
	_, err = s.EditField(ctx, "name", FieldDefinition{Name: "email", Type: TypeString})
	if !errors.Is(err, ErrDuplicateField) {
		t.Fatalf("expected ErrDuplicateField, got %v", err)
	}

	// A renamed field cannot be shown based on its own old name.
	_, err = s.EditField(ctx, "email", FieldDefinition{
		Name:       "contact",
		Type:       TypeEmail,
		Visibility: &VisibilityOptions{Field: "email", Operator: "!=", Value: ""},
	})
	if !errors.Is(err, ErrInvalidVisibilityField) {
		t.Fatalf("expected ErrInvalidVisibilityField, got %v", err)
	}
	assertUnchanged(t, before, s.Form())
}

func TestStore_ConcurrentMutations(t *testing.T) {
	form, err := LoadBaseline("", "")
	if err != nil {
		t.Fatalf("load baseline: %v", err)
	}
	s := NewStore(form, nil)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				name := fmt.Sprintf("f%d_%d", w, i)
				if _, err := s.AddField(ctx, FieldDefinition{Name: name, Type: TypeString, IsRequired: i%2 == 0}); err != nil {
					t.Errorf("add %s: %v", name, err)
					return
				}
				renamed := name + "_r"
				if _, err := s.EditField(ctx, name, FieldDefinition{Name: renamed, Type: TypeNumber, IsRequired: true}); err != nil {
					t.Errorf("edit %s: %v", name, err)
					return
				}
				if i%3 == 0 {
					if _, err := s.RemoveField(ctx, renamed); err != nil {
						t.Errorf("remove %s: %v", renamed, err)
						return
					}
				}
				assertOneToOneConcurrent(t, s.Form())
			}
		}(w)
	}
	wg.Wait()

	final := s.Form()
	assertOneToOne(t, final)
	// 2 baseline fields plus 13 surviving fields per worker.
	if got, want := final.Schema.Properties.Len(), 2+workers*13; got != want {
		t.Fatalf("expected %d fields, got %d", want, got)
	}
}

// assertOneToOneConcurrent reports with t.Errorf so it is safe off the test goroutine.
func assertOneToOneConcurrent(t *testing.T, form Form) {
	keys := form.Schema.Properties.Keys()
	if len(keys) != len(form.UISchema.Elements) {
		t.Errorf("expected %d elements, got %d", len(keys), len(form.UISchema.Elements))
		return
	}
	for i, k := range keys {
		if form.UISchema.ElementIndex(k) < 0 {
			t.Errorf("field %s (position %d) has no element", k, i)
		}
	}
}

func TestEditField_TogglesRequired(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	form, err := s.EditField(ctx, "name", FieldDefinition{Name: "name", Type: TypeString})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if form.Schema.IsRequired("name") {
		t.Fatal("expected name to leave required")
	}

	form, err = s.EditField(ctx, "email", FieldDefinition{Name: "email", Type: TypeEmail, IsRequired: true})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !form.Schema.IsRequired("email") {
		t.Fatal("expected email to join required")
	}
	assertOneToOne(t, form)
}

func TestRemoveField(t *testing.T) {
	s, ch := newTestStore(t)
	ctx := context.Background()
	before := s.Form()

	_, err := s.RemoveField(ctx, "nope")
	if !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("expected ErrFieldNotFound, got %v", err)
	}
	assertUnchanged(t, before, s.Form())

	form, err := s.RemoveField(ctx, "name")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if form.Schema.Properties.Has("name") || form.Schema.IsRequired("name") || form.UISchema.ElementIndex("name") != -1 {
		t.Fatalf("name not fully removed: %+v", form)
	}
	assertOneToOne(t, form)

	ev := <-ch.Events()
	if ev.Operation != OpRemove || ev.Field != "name" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestForm_ReadIsIdempotentAndIsolated(t *testing.T) {
	s, _ := newTestStore(t)

	a, err := json.Marshal(s.Form())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(s.Form())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("reads differ:\n%s\n%s", a, b)
	}

	// Mutating a returned copy must not leak into the store.
	f := s.Form()
	f.Schema.Properties.Delete("name")
	f.UISchema.Elements[0].Label = "changed"
	if !s.Form().Schema.Properties.Has("name") || s.Form().UISchema.Elements[0].Label == "changed" {
		t.Fatal("returned form aliases store state")
	}

	// Read accessors work directly on the returned value.
	if s.Form().Schema.Properties.Len() != 2 || !s.Form().Schema.IsRequired("name") || s.Form().Schema.IsRequired("email") {
		t.Fatalf("unexpected baseline: %v", s.Form().Schema.Properties.Keys())
	}
	if _, ok := s.Form().Schema.Properties.Get("email"); !ok || s.Form().UISchema.ElementIndex("email") != 1 {
		t.Fatal("email missing from returned form")
	}
}

func assertUnchanged(t *testing.T, before, after Form) {
	t.Helper()
	a, _ := json.Marshal(before)
	b, _ := json.Marshal(after)
	if string(a) != string(b) {
		t.Fatalf("state changed:\nbefore: %s\nafter:  %s", a, b)
	}
}
