package formschema

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

//go:embed baseline/schema.json baseline/uischema.json
var baselineFS embed.FS

// LoadBaseline reads the starting schema pair. Empty paths fall back to the
// embedded baseline.
func LoadBaseline(schemaPath, uiSchemaPath string) (Form, error) {
	var form Form

	if schemaPath == "" {
		if err := decodeEmbedded("baseline/schema.json", &form.Schema); err != nil {
			return Form{}, err
		}
	} else if err := LoadDocument(schemaPath, &form.Schema); err != nil {
		return Form{}, fmt.Errorf("load schema: %w", err)
	}

	if uiSchemaPath == "" {
		if err := decodeEmbedded("baseline/uischema.json", &form.UISchema); err != nil {
			return Form{}, err
		}
	} else if err := LoadDocument(uiSchemaPath, &form.UISchema); err != nil {
		return Form{}, fmt.Errorf("load uischema: %w", err)
	}

	return form, nil
}

// LoadDocument decodes a JSON or YAML file into v, picking the codec from the
// file extension.
func LoadDocument(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return DecodeDocument(path, data, v)
}

// DecodeDocument decodes data using the codec implied by name's extension.
func DecodeDocument(name string, data []byte, v any) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode yaml %s: %w", name, err)
		}
	default:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode json %s: %w", name, err)
		}
	}
	return nil
}

// SaveDocument writes v as pretty JSON, or YAML for .yaml/.yml paths.
func SaveDocument(path string, v any) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(v)
	default:
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func decodeEmbedded(name string, v any) error {
	data, err := baselineFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read embedded %s: %w", name, err)
	}
	return DecodeDocument(name, data, v)
}
