package core

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

func TestNewToolSpecFromStruct(t *testing.T) {
	t.Parallel()

	type input struct {
		Query      string `json:"query" jsonschema:"required,description=Search query"`
		MaxResults int    `json:"max_results,omitempty"`
	}

	spec, err := NewToolSpecFromStruct("web_search", "Search the web", input{})
	if err != nil {
		t.Fatalf("NewToolSpecFromStruct() error = %v", err)
	}
	if spec.Name != "web_search" {
		t.Fatalf("Name = %q, want web_search", spec.Name)
	}

	schema, err := DecodeToolJSONSchema(spec.Schema)
	if err != nil {
		t.Fatalf("DecodeToolJSONSchema() error = %v", err)
	}
	if _, ok := schema.Properties["query"]; !ok {
		t.Fatalf("schema missing query property: %s", spec.Schema)
	}
	if _, ok := schema.Properties["max_results"]; !ok {
		t.Fatalf("schema missing max_results property: %s", spec.Schema)
	}
	if !slices.Contains(schema.Required, "query") || slices.Contains(schema.Required, "max_results") {
		t.Fatalf("Required = %v, want only query", schema.Required)
	}
}

func TestNewToolSpecFromStructRejectsNonStruct(t *testing.T) {
	t.Parallel()

	if _, err := NewToolSpecFromStruct("x", "x", 42); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("error = %v, want ErrInvalidRequest", err)
	}
	if _, err := NewToolSpecFromStruct("x", "x", nil); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("error = %v, want ErrInvalidRequest", err)
	}
}

func TestDecodeToolJSONSchema(t *testing.T) {
	t.Parallel()

	got, err := DecodeToolJSONSchema(nil)
	if err != nil || got.Type != "object" || got.Properties == nil {
		t.Fatalf("DecodeToolJSONSchema(nil) = %#v, %v", got, err)
	}

	if _, err := DecodeToolJSONSchema(json.RawMessage(`{"type":"array"}`)); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("error = %v, want ErrInvalidRequest for non-object schema", err)
	}
	if _, err := DecodeToolJSONSchema(json.RawMessage(`{`)); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("error = %v, want ErrInvalidRequest for invalid json", err)
	}
}
