package tools

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds each network tool call when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Options configures the built-in tool set.
type Options struct {
	// Workspace confines the file tools; blank means the working directory.
	Workspace  string
	HTTPClient *http.Client
	// Timeout bounds each fetch or search request. Negative disables it.
	Timeout time.Duration
	Search  SearchConfig
}

// NewBuiltinRegistry registers web_search, fetch_url, list_files, read_file
// and write_file.
func NewBuiltinRegistry(opts Options) (*Registry, error) {
	workspace, err := NewWorkspace(opts.Workspace)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return NewRegistry(
		NewWebSearchTool(opts.Search, opts.HTTPClient, timeout),
		NewFetchURLTool(opts.HTTPClient, timeout),
		NewListFilesTool(workspace),
		NewReadFileTool(workspace),
		NewWriteFileTool(workspace),
	), nil
}
