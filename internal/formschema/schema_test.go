package formschema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestProperties_JSONKeepsOrder(t *testing.T) {
	raw := `{"zeta":{"type":"string"},"alpha":{"type":"number"},"mid":{"type":"string","enum":["a","b"],"visibilityOptions":{"field":"alpha","operator":"==","value":1}}}`

	var p Properties
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, p.Keys()); diff != "" {
		t.Fatalf("key order mismatch (-want +got):\n%s", diff)
	}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != raw {
		t.Fatalf("round trip mismatch:\nwant %s\ngot  %s", raw, out)
	}
}

func TestProperties_Mutations(t *testing.T) {
	var p Properties
	p.Set("a", FieldConstraint{Type: "string"})
	p.Set("b", FieldConstraint{Type: "number"})
	p.Set("c", FieldConstraint{Type: "boolean"})

	if !p.Rename("b", "beta") {
		t.Fatal("rename failed")
	}
	if diff := cmp.Diff([]string{"a", "beta", "c"}, p.Keys()); diff != "" {
		t.Fatalf("rename order mismatch (-want +got):\n%s", diff)
	}
	if !p.Delete("a") || p.Has("a") {
		t.Fatal("delete failed")
	}
	if p.Delete("a") {
		t.Fatal("second delete should report false")
	}
	if diff := cmp.Diff([]string{"beta", "c"}, p.Keys()); diff != "" {
		t.Fatalf("delete order mismatch (-want +got):\n%s", diff)
	}
}

func TestProperties_NullAndEmpty(t *testing.T) {
	var s DataSchema
	if err := json.Unmarshal([]byte(`{"properties": null, "required": []}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Properties.Len() != 0 {
		t.Fatalf("expected no properties, got %d", s.Properties.Len())
	}
	out, _ := json.Marshal(s.Properties)
	if string(out) != "{}" {
		t.Fatalf("expected {}, got %s", out)
	}
}

func TestProperties_YAMLKeepsOrder(t *testing.T) {
	raw := `
type: object
properties:
  second:
    type: string
  first:
    type: string
    format: email
required:
  - first
`
	var s DataSchema
	if err := yaml.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal yaml: %v", err)
	}
	if diff := cmp.Diff([]string{"second", "first"}, s.Properties.Keys()); diff != "" {
		t.Fatalf("key order mismatch (-want +got):\n%s", diff)
	}

	out, err := yaml.Marshal(s)
	if err != nil {
		t.Fatalf("marshal yaml: %v", err)
	}
	var again DataSchema
	if err := yaml.Unmarshal(out, &again); err != nil {
		t.Fatalf("re-read yaml: %v", err)
	}
	if diff := cmp.Diff(s.Properties.Keys(), again.Properties.Keys()); diff != "" {
		t.Fatalf("yaml round trip changed order (-want +got):\n%s", diff)
	}
	c, _ := again.Properties.Get("first")
	if c.Format != "email" {
		t.Fatalf("expected format email, got %+v", c)
	}
}

func TestLoadBaseline_FromFiles(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.yaml")
	uiPath := filepath.Join(dir, "uischema.json")

	if err := os.WriteFile(schemaPath, []byte("properties:\n  city:\n    type: string\nrequired: [city]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ui := `{"elements":[{"type":"Control","label":"city","scope":"#/properties/city","options":{"isRequired":true,"readonly":false}}]}`
	if err := os.WriteFile(uiPath, []byte(ui), 0o644); err != nil {
		t.Fatal(err)
	}

	form, err := LoadBaseline(schemaPath, uiPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !form.Schema.Properties.Has("city") || !form.Schema.IsRequired("city") {
		t.Fatalf("unexpected schema %+v", form.Schema)
	}
	if form.UISchema.ElementIndex("city") != 0 {
		t.Fatalf("unexpected uischema %+v", form.UISchema)
	}

	out := filepath.Join(dir, "form.json")
	if err := SaveDocument(out, form); err != nil {
		t.Fatalf("save: %v", err)
	}
	var reread Form
	if err := LoadDocument(out, &reread); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if diff := cmp.Diff(form.Schema.Properties.Keys(), reread.Schema.Properties.Keys()); diff != "" {
		t.Fatalf("saved form differs (-want +got):\n%s", diff)
	}
}

func TestBuildConstraint_TypeTable(t *testing.T) {
	tests := []struct {
		typ    FieldType
		base   string
		format string
		enum   bool
	}{
		{TypeString, "string", "", false},
		{TypeNumber, "number", "", false},
		{TypeBoolean, "boolean", "", false},
		{TypeDate, "string", "date", false},
		{TypeTextarea, "string", "textarea", false},
		{TypeURL, "string", "uri", false},
		{TypeEmail, "string", "email", false},
		{TypeDropdown, "string", "", true},
		{TypeRadio, "string", "", true},
		{"mystery", "string", "", false},
	}
	for _, tt := range tests {
		c := BuildConstraint(FieldDefinition{Name: "f", Type: tt.typ, Options: []string{"x", "y"}})
		if c.Type != tt.base || c.Format != tt.format || (len(c.Enum) > 0) != tt.enum {
			t.Fatalf("%s: got %+v", tt.typ, c)
		}
	}
}

func TestBuildElement_RequiredKeys(t *testing.T) {
	plain := BuildElement(FieldDefinition{Name: "a", Type: TypeString, IsRequired: true}, nil)
	if plain.Options.Required != nil {
		t.Fatal("plain elements carry only isRequired")
	}
	out, _ := json.Marshal(plain)
	want := `{"type":"Control","label":"a","scope":"#/properties/a","options":{"isRequired":true,"readonly":false}}`
	if string(out) != want {
		t.Fatalf("expected %s, got %s", want, out)
	}

	area := BuildElement(FieldDefinition{Name: "b", Type: TypeTextarea, IsRequired: true}, nil)
	if area.Options.Required == nil || !*area.Options.Required || !area.Options.Multi {
		t.Fatalf("unexpected textarea options %+v", area.Options)
	}
}
