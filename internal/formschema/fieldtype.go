package formschema

// FieldType is the builder-facing field kind. It maps onto a base JSON type
// plus an optional format or enum.
type FieldType string

const (
	TypeString   FieldType = "string"
	TypeNumber   FieldType = "number"
	TypeBoolean  FieldType = "boolean"
	TypeDate     FieldType = "date"
	TypeTextarea FieldType = "textarea"
	TypeURL      FieldType = "url"
	TypeEmail    FieldType = "email"
	TypeDropdown FieldType = "dropdown"
	TypeRadio    FieldType = "radio"
)

type typeSpec struct {
	base   string
	format string
	choice bool
}

var typeTable = map[FieldType]typeSpec{
	TypeString:   {base: "string"},
	TypeNumber:   {base: "number"},
	TypeBoolean:  {base: "boolean"},
	TypeDate:     {base: "string", format: "date"},
	TypeTextarea: {base: "string", format: "textarea"},
	TypeURL:      {base: "string", format: "uri"},
	TypeEmail:    {base: "string", format: "email"},
	TypeDropdown: {base: "string", choice: true},
	TypeRadio:    {base: "string", choice: true},
}

// supportedTypes keeps the table in a stable order for prompts and messages.
var supportedTypes = []FieldType{
	TypeString, TypeNumber, TypeBoolean, TypeDate, TypeTextarea,
	TypeDropdown, TypeURL, TypeEmail, TypeRadio,
}

// SupportedTypes returns every field type the builder accepts.
func SupportedTypes() []FieldType {
	out := make([]FieldType, len(supportedTypes))
	copy(out, supportedTypes)
	return out
}

func (t FieldType) Valid() bool {
	_, ok := typeTable[t]
	return ok
}

// IsChoice reports whether values are drawn from a fixed option list.
func (t FieldType) IsChoice() bool {
	return typeTable[t].choice
}

// MinOptions is the smallest option list the type accepts.
func (t FieldType) MinOptions() int {
	switch t {
	case TypeDropdown:
		return 1
	case TypeRadio:
		return 2
	}
	return 0
}

// spec falls back to a plain string for unrecognized types.
func (t FieldType) spec() typeSpec {
	if s, ok := typeTable[t]; ok {
		return s
	}
	return typeSpec{base: "string"}
}

// FieldDefinition is the input to add and edit operations.
type FieldDefinition struct {
	Name       string
	Type       FieldType
	Options    []string
	IsRequired bool
	IsReadOnly bool
	Visibility *VisibilityOptions
}

// BuildConstraint maps a field definition onto its data schema constraint.
func BuildConstraint(def FieldDefinition) FieldConstraint {
	s := def.Type.spec()
	c := FieldConstraint{Type: s.base, Format: s.format}
	if s.choice {
		c.Enum = append([]string(nil), def.Options...)
	}
	if def.Visibility != nil {
		vo := *def.Visibility
		c.VisibilityOptions = &vo
	}
	return c
}
