package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
)

var toolSchemaReflector = jsonschema.Reflector{
	DoNotReference:            true,
	AllowAdditionalProperties: false,
}

// ToolJSONSchema is the normalized object schema handed to providers.
type ToolJSONSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required,omitempty"`
}

// NewToolSpecFromStruct reflects schemaStruct into a ToolSpec. Field tags
// follow invopop/jsonschema conventions (`jsonschema:"required,description=..."`).
func NewToolSpecFromStruct(name, description string, schemaStruct any) (ToolSpec, error) {
	schema, err := ReflectToolSchema(schemaStruct)
	if err != nil {
		return ToolSpec{}, err
	}
	return ToolSpec{Name: name, Description: description, Schema: schema}, nil
}

// ReflectToolSchema reflects schemaStruct into a normalized object schema.
func ReflectToolSchema(schemaStruct any) (json.RawMessage, error) {
	t := reflect.TypeOf(schemaStruct)
	if t == nil {
		return nil, fmt.Errorf("%w: schema struct is nil", ErrInvalidRequest)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: schema struct must be a struct or pointer to struct", ErrInvalidRequest)
	}

	raw, err := json.Marshal(toolSchemaReflector.Reflect(reflect.New(t).Interface()))
	if err != nil {
		return nil, fmt.Errorf("marshal generated tool schema: %w", err)
	}
	decoded, err := DecodeToolJSONSchema(raw)
	if err != nil {
		return nil, err
	}
	normalized, err := json.Marshal(decoded)
	if err != nil {
		return nil, fmt.Errorf("marshal normalized tool schema: %w", err)
	}
	return normalized, nil
}

// DecodeToolJSONSchema validates raw as an object schema.
func DecodeToolJSONSchema(raw json.RawMessage) (ToolJSONSchema, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ToolJSONSchema{Type: "object", Properties: map[string]any{}}, nil
	}

	var schema ToolJSONSchema
	if err := json.Unmarshal(trimmed, &schema); err != nil {
		return ToolJSONSchema{}, fmt.Errorf("%w: invalid tool schema json", ErrInvalidRequest)
	}
	if strings.TrimSpace(schema.Type) == "" {
		schema.Type = "object"
	}
	if schema.Type != "object" {
		return ToolJSONSchema{}, fmt.Errorf("%w: tool schema type must be object", ErrInvalidRequest)
	}
	if schema.Properties == nil {
		schema.Properties = map[string]any{}
	}
	return schema, nil
}
