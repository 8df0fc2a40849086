package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type fakeTool struct {
	name  string
	input any
	run   func(ctx context.Context, params json.RawMessage) (Result, error)
}

func (f fakeTool) Name() string { return f.name }

func (f fakeTool) Description() string { return "fake tool" }

func (f fakeTool) Input() any {
	if f.input == nil {
		return struct{}{}
	}
	return f.input
}

func (f fakeTool) Execute(ctx context.Context, params json.RawMessage) (Result, error) {
	if f.run == nil {
		return Result{}, nil
	}
	return f.run(ctx, params)
}

func TestRegistryRegisterGetAndDispatch(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	called := false
	tool := fakeTool{
		name: "echo",
		run: func(_ context.Context, params json.RawMessage) (Result, error) {
			called = true
			return Success(string(params)), nil
		},
	}

	if err := reg.Register(tool); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	gotTool, err := reg.Get("echo")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if gotTool.Name() != "echo" {
		t.Fatalf("Get().Name() = %q, want echo", gotTool.Name())
	}

	got := reg.Dispatch(context.Background(), "echo", json.RawMessage(`{"x":"y"}`))
	if !called {
		t.Fatalf("tool Execute() was not called")
	}
	if !got.OK || got.Output != `{"x":"y"}` {
		t.Fatalf("Dispatch() = %#v, want ok JSON input echo", got)
	}
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	tool := fakeTool{name: "echo"}
	if err := reg.Register(tool); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	err := reg.Register(tool)
	if !errors.Is(err, ErrToolAlreadyRegistered) {
		t.Fatalf("second Register() error = %v, want ErrToolAlreadyRegistered", err)
	}
}

func TestRegistryRejectsNonStructInput(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	err := reg.Register(fakeTool{name: "bad", input: 42})
	if !errors.Is(err, ErrToolSchema) {
		t.Fatalf("Register() error = %v, want ErrToolSchema", err)
	}
	if _, err := reg.Get("bad"); !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("Get() error = %v, want ErrToolNotFound", err)
	}
	if len(reg.Specs()) != 0 {
		t.Fatalf("Specs() = %v, want none", reg.Specs())
	}
}

func TestSpecsCarryNameAndDescription(t *testing.T) {
	t.Parallel()

	type echoInput struct {
		Text string `json:"text" jsonschema:"description=Text to echo"`
	}
	reg := NewRegistry(fakeTool{name: "echo", input: echoInput{}})

	specs := reg.Specs()
	if len(specs) != 1 || specs[0].Name != "echo" || specs[0].Description != "fake tool" {
		t.Fatalf("Specs() = %+v", specs)
	}
	if _, ok := mustProps(t, specs[0].Schema)["text"]; !ok {
		t.Fatalf("schema = %s, want text property", specs[0].Schema)
	}

	specs[0].Schema[0] = 'x'
	if reg.Specs()[0].Schema[0] != '{' {
		t.Fatalf("Specs() shares schema bytes with the registry")
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	t.Parallel()

	got := NewRegistry().Dispatch(context.Background(), "missing", nil)
	if got.OK || got.Output != "Unknown tool: missing" {
		t.Fatalf("Dispatch() = %#v, want unknown tool failure", got)
	}
}

func TestDispatchMalformedArgumentsBecomeEmptyObject(t *testing.T) {
	t.Parallel()

	var seen string
	reg := NewRegistry(fakeTool{
		name: "echo",
		run: func(_ context.Context, params json.RawMessage) (Result, error) {
			seen = string(params)
			return Success("ok"), nil
		},
	})

	for _, args := range []string{`{"path":`, `not json`, `[1,2]`, `null`, ``} {
		seen = ""
		reg.Dispatch(context.Background(), "echo", json.RawMessage(args))
		if seen != "{}" {
			t.Fatalf("args %q reached tool as %q, want {}", args, seen)
		}
	}
}

func TestDispatchCapturesErrorsAndPanics(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(
		fakeTool{name: "fails", run: func(context.Context, json.RawMessage) (Result, error) {
			return Result{}, errors.New("disk on fire")
		}},
		fakeTool{name: "panics", run: func(context.Context, json.RawMessage) (Result, error) {
			panic("boom")
		}},
	)

	if got := reg.Dispatch(context.Background(), "fails", nil); got.OK || got.Output != "disk on fire" {
		t.Fatalf("Dispatch(fails) = %#v", got)
	}
	if got := reg.Dispatch(context.Background(), "panics", nil); got.OK || !strings.Contains(got.Output, "boom") {
		t.Fatalf("Dispatch(panics) = %#v", got)
	}
}

func TestDispatchCapsOutput(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(fakeTool{name: "big", run: func(context.Context, json.RawMessage) (Result, error) {
		return Success(strings.Repeat("é", MaxOutputChars+10)), nil
	}})

	got := reg.Dispatch(context.Background(), "big", nil)
	if n := len([]rune(got.Output)); n != MaxOutputChars {
		t.Fatalf("output has %d characters, want %d", n, MaxOutputChars)
	}
}

func TestBuiltinRegistrySpecs(t *testing.T) {
	t.Parallel()

	reg, err := NewBuiltinRegistry(Options{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("NewBuiltinRegistry() error = %v", err)
	}

	specs := reg.Specs()
	want := []string{"web_search", "fetch_url", "list_files", "read_file", "write_file"}
	if len(specs) != len(want) {
		t.Fatalf("got %d specs, want %d", len(specs), len(want))
	}
	required := map[string][]string{
		"web_search": {"query"},
		"fetch_url":  {"url"},
		"list_files": nil,
		"read_file":  {"path"},
		"write_file": {"path", "content"},
	}
	for i, spec := range specs {
		if spec.Name != want[i] {
			t.Fatalf("spec %d = %s, want %s", i, spec.Name, want[i])
		}
		var schema struct {
			Type       string         `json:"type"`
			Properties map[string]any `json:"properties"`
			Required   []string       `json:"required"`
		}
		if err := json.Unmarshal(spec.Schema, &schema); err != nil {
			t.Fatalf("%s schema: %v", spec.Name, err)
		}
		if schema.Type != "object" {
			t.Fatalf("%s schema type = %q", spec.Name, schema.Type)
		}
		if strings.Join(schema.Required, ",") != strings.Join(required[spec.Name], ",") {
			t.Fatalf("%s required = %v, want %v", spec.Name, schema.Required, required[spec.Name])
		}
	}
	if _, ok := mustProps(t, specs[0].Schema)["max_results"]; !ok {
		t.Fatalf("web_search schema missing max_results")
	}
}

func mustProps(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var schema struct {
		Properties map[string]any `json:"properties"`
	}
	if err := json.Unmarshal(raw, &schema); err != nil {
		t.Fatal(err)
	}
	return schema.Properties
}
