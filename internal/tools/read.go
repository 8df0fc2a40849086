package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const readFileToolName = "read_file"

type readFileInput struct {
	Path string `json:"path" jsonschema:"description=File path relative to the working directory"`
}

// ReadFileTool reads a text file from the workspace.
type ReadFileTool struct {
	workspace Workspace
}

// NewReadFileTool constructs read_file bound to workspace.
func NewReadFileTool(workspace Workspace) ReadFileTool {
	return ReadFileTool{workspace: workspace}
}

func (ReadFileTool) Name() string { return readFileToolName }

func (ReadFileTool) Description() string {
	return fmt.Sprintf("Read a file inside the working directory. Content beyond %d characters is cut off.", MaxOutputChars)
}

func (ReadFileTool) Input() any { return readFileInput{} }

func (r ReadFileTool) Execute(ctx context.Context, params json.RawMessage) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var input readFileInput
	if err := decodeParams(params, &input); err != nil {
		return Result{}, fmt.Errorf("decode read_file params: %w", err)
	}

	path, err := r.workspace.Resolve(input.Path, false)
	if err != nil {
		return Result{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", strings.TrimSpace(input.Path), err)
	}
	if info.IsDir() {
		return Result{}, fmt.Errorf("is a directory: %s", strings.TrimSpace(input.Path))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", strings.TrimSpace(input.Path), err)
	}

	content, _ := truncateChars(string(raw), MaxOutputChars)
	return Success(content), nil
}
