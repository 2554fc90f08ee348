package formschema

const controlElement = "Control"

// BuildElement creates the UI element for a field. rule may be nil.
func BuildElement(def FieldDefinition, rule *VisibilityRule) UiElement {
	el := UiElement{
		Type:  controlElement,
		Label: def.Name,
		Scope: Scope(def.Name),
		Options: ElementOptions{
			IsRequired: def.IsRequired,
			Readonly:   def.IsReadOnly,
		},
		Rule: rule,
	}

	switch def.Type {
	case TypeTextarea:
		el.Options.Multi = true
		el.Options.Required = boolPtr(def.IsRequired)
	case TypeDropdown:
		el.Options.EnumOptions = enumOptions(def.Options)
		el.Options.Required = boolPtr(def.IsRequired)
	case TypeRadio:
		el.Options.EnumOptions = enumOptions(def.Options)
		el.Options.Format = "radio"
		el.Options.Required = boolPtr(def.IsRequired)
	}
	return el
}

func enumOptions(options []string) []EnumOption {
	out := make([]EnumOption, len(options))
	for i, o := range options {
		out[i] = EnumOption{Value: o, Label: o}
	}
	return out
}

func boolPtr(b bool) *bool { return &b }
