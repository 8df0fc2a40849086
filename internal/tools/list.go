package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

const (
	listFilesToolName = "list_files"
	defaultListLimit  = 500
)

type listFilesInput struct {
	Path string `json:"path,omitempty" jsonschema:"description=Directory relative to the working directory (default: the working directory itself)"`
}

// ListFilesTool lists one directory of the workspace.
type ListFilesTool struct {
	workspace Workspace
}

// NewListFilesTool constructs list_files bound to workspace.
func NewListFilesTool(workspace Workspace) ListFilesTool {
	return ListFilesTool{workspace: workspace}
}

func (ListFilesTool) Name() string { return listFilesToolName }

func (ListFilesTool) Description() string {
	return fmt.Sprintf(
		"List a directory inside the working directory. Entries are sorted alphabetically with a '/' suffix for directories; at most %d are returned.",
		defaultListLimit,
	)
}

func (ListFilesTool) Input() any { return listFilesInput{} }

func (l ListFilesTool) Execute(ctx context.Context, params json.RawMessage) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var input listFilesInput
	if err := decodeParams(params, &input); err != nil {
		return Result{}, fmt.Errorf("decode list_files params: %w", err)
	}

	pathArg := strings.TrimSpace(input.Path)
	if pathArg == "" {
		pathArg = "."
	}

	dirPath, err := l.workspace.Resolve(pathArg, false)
	if err != nil {
		return Result{}, err
	}

	info, err := os.Stat(dirPath)
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", pathArg, err)
	}
	if !info.IsDir() {
		return Result{}, fmt.Errorf("not a directory: %s", pathArg)
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return Result{}, fmt.Errorf("cannot read directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	if len(entries) == 0 {
		return Success("(empty directory)"), nil
	}

	names := make([]string, 0, min(len(entries), defaultListLimit))
	for _, entry := range entries {
		if len(names) == defaultListLimit {
			break
		}
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}

	output := strings.Join(names, "\n")
	if len(entries) > defaultListLimit {
		output += fmt.Sprintf("\n\n[%d entries limit reached, %d not shown]", defaultListLimit, len(entries)-defaultListLimit)
	}
	return Success(output), nil
}
