package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const writeFileToolName = "write_file"

type writeFileInput struct {
	Path    string `json:"path" jsonschema:"description=File path relative to the working directory"`
	Content string `json:"content" jsonschema:"description=Full file content to write"`
}

// WriteFileTool creates or overwrites a file in the workspace.
type WriteFileTool struct {
	workspace Workspace
}

// NewWriteFileTool constructs write_file bound to workspace.
func NewWriteFileTool(workspace Workspace) WriteFileTool {
	return WriteFileTool{workspace: workspace}
}

func (WriteFileTool) Name() string { return writeFileToolName }

func (WriteFileTool) Description() string {
	return "Write content to a file inside the working directory, creating parent directories as needed. Existing files are overwritten."
}

func (WriteFileTool) Input() any { return writeFileInput{} }

func (w WriteFileTool) Execute(ctx context.Context, params json.RawMessage) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var input writeFileInput
	if err := decodeParams(params, &input); err != nil {
		return Result{}, fmt.Errorf("decode write_file params: %w", err)
	}

	path, err := w.workspace.Resolve(input.Path, true)
	if err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Result{}, fmt.Errorf("create parent directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(input.Content), 0o644); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", strings.TrimSpace(input.Path), err)
	}

	return Success(fmt.Sprintf("Wrote %d bytes to %s", len(input.Content), w.workspace.Rel(path))), nil
}
