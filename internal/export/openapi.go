// Package export renders the live form definition in other schema languages.
package export

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goccy/go-json"

	"formbuilder/internal/formschema"
)

const (
	Title   = "Form Builder API"
	Version = "1.0.0"

	// SubmissionSchemaName is the component schema that mirrors the DataSchema.
	SubmissionSchemaName = "FormSubmission"
)

// Length limits enforced by submission validation.
const (
	maxStringLength   = 255
	maxTextareaLength = 1000
)

// OpenAPI builds an OpenAPI 3 document describing the submit endpoint, with
// the current DataSchema as the FormSubmission component. The document is
// validated before it is returned.
func OpenAPI(ctx context.Context, schema formschema.DataSchema) (*openapi3.T, error) {
	raw, err := json.Marshal(skeleton(schema))
	if err != nil {
		return nil, fmt.Errorf("openapi export: encode: %w", err)
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi export: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi export: validate: %w", err)
	}
	return doc, nil
}

// SubmissionSchema converts the DataSchema into a JSON Schema object in the
// OpenAPI dialect.
func SubmissionSchema(schema formschema.DataSchema) map[string]any {
	props := make(map[string]any, schema.Properties.Len())
	for _, name := range schema.Properties.Keys() {
		c, _ := schema.Properties.Get(name)
		props[name] = FieldSchema(c)
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(schema.Required) > 0 {
		out["required"] = append([]string(nil), schema.Required...)
	}
	return out
}

// FieldSchema describes one constraint with the limits submission validation
// applies to it.
func FieldSchema(c formschema.FieldConstraint) map[string]any {
	out := map[string]any{}
	switch formschema.ValidationKind(c) {
	case "number":
		out["type"] = "integer"
		out["minimum"] = 0
	case "boolean":
		out["type"] = "boolean"
	case "date":
		out["type"] = "string"
		out["format"] = "date"
	case "textarea":
		out["type"] = "string"
		out["minLength"] = 1
		out["maxLength"] = maxTextareaLength
	case "uri", "email":
		out["type"] = "string"
		out["format"] = c.Format
	case "enum":
		out["type"] = "string"
		out["enum"] = append([]string(nil), c.Enum...)
	default:
		out["type"] = "string"
		out["minLength"] = 1
		out["maxLength"] = maxStringLength
	}
	if c.VisibilityOptions != nil {
		out["x-visibility"] = c.VisibilityOptions
	}
	return out
}

func skeleton(schema formschema.DataSchema) map[string]any {
	errorResponse := map[string]any{
		"description": "Submission rejected",
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"success": map[string]any{"type": "boolean"},
						"error": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"code":    map[string]any{"type": "string"},
								"message": map[string]any{"type": "string"},
							},
						},
					},
				},
			},
		},
	}

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   Title,
			"version": Version,
		},
		"paths": map[string]any{
			"/api/submit": map[string]any{
				"post": map[string]any{
					"operationId": "submitForm",
					"summary":     "Validate and store a form submission",
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{
									"type":     "object",
									"required": []string{"data", "schema", "uischema"},
									"properties": map[string]any{
										"data":     map[string]any{"$ref": "#/components/schemas/" + SubmissionSchemaName},
										"schema":   map[string]any{"type": "object"},
										"uischema": map[string]any{"type": "object"},
									},
								},
							},
						},
					},
					"responses": map[string]any{
						"200": map[string]any{"description": "Data saved successfully"},
						"400": errorResponse,
					},
				},
			},
		},
		"components": map[string]any{
			"schemas": map[string]any{
				SubmissionSchemaName: SubmissionSchema(schema),
			},
		},
	}
}
