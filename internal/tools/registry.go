// Package tools holds the fixed tool set exposed to the model and the
// dispatcher that runs a named tool against model-supplied arguments.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"termagent/internal/llm/core"
)

var (
	ErrToolRequired          = errors.New("tool is required")
	ErrToolNameRequired      = errors.New("tool name is required")
	ErrToolAlreadyRegistered = errors.New("tool already registered")
	ErrToolNotFound          = errors.New("tool not found")
	ErrToolSchema            = errors.New("tool schema")
)

// Result is the outcome of one tool call as fed back to the model.
type Result struct {
	OK     bool   `json:"ok"`
	Output string `json:"output"`
}

// Success builds an ok result.
func Success(output string) Result {
	return Result{OK: true, Output: output}
}

// Failure builds a failed result carrying reason verbatim.
func Failure(reason string) Result {
	return Result{OK: false, Output: reason}
}

// Tool is the contract every built-in tool implements. Input returns the
// zero value of the parameter struct the schema is reflected from. Execute
// may report failure either as a returned error or as a failed Result.
type Tool interface {
	Name() string
	Description() string
	Input() any
	Execute(ctx context.Context, params json.RawMessage) (Result, error)
}

// Registry stores tools by name in registration order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	specs map[string]core.ToolSpec
	order []string
}

// NewRegistry constructs a registry and registers initial, skipping nil or
// duplicate tools.
func NewRegistry(initial ...Tool) *Registry {
	r := &Registry{
		tools: make(map[string]Tool, len(initial)),
		specs: make(map[string]core.ToolSpec, len(initial)),
	}
	for _, tool := range initial {
		_ = r.Register(tool)
	}
	return r
}

// Register inserts a tool by its canonical name and reflects its parameter
// schema once.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return ErrToolRequired
	}
	name := strings.TrimSpace(tool.Name())
	if name == "" {
		return ErrToolNameRequired
	}
	spec, err := core.NewToolSpecFromStruct(name, tool.Description(), tool.Input())
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrToolSchema, name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, name)
	}
	r.tools[name] = tool
	r.specs[name] = spec
	r.order = append(r.order, name)
	return nil
}

// Get returns a registered tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	lookup := strings.TrimSpace(name)
	if lookup == "" {
		return nil, ErrToolNameRequired
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[lookup]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, lookup)
	}
	return tool, nil
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Specs returns the model-facing definitions of every registered tool.
func (r *Registry) Specs() []core.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]core.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		spec := r.specs[name]
		spec.Schema = append(json.RawMessage(nil), spec.Schema...)
		specs = append(specs, spec)
	}
	return specs
}

// Dispatch runs the named tool. It never returns an error: unknown names,
// tool errors and panics all become failed results, and outputs are capped
// at MaxOutputChars.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (result Result) {
	tool, err := r.Get(name)
	if err != nil {
		return Failure(fmt.Sprintf("Unknown tool: %s", strings.TrimSpace(name)))
	}

	defer func() {
		if p := recover(); p != nil {
			result = Failure(fmt.Sprintf("%s failed: %v", tool.Name(), p))
		}
		result.Output, _ = truncateChars(result.Output, MaxOutputChars)
	}()

	if err := ctx.Err(); err != nil {
		return Failure(err.Error())
	}
	res, err := tool.Execute(ctx, core.NormalizeArguments(args))
	if err != nil {
		return Failure(err.Error())
	}
	return res
}
