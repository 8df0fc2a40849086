package tools

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestWorkspace(t *testing.T) Workspace {
	t.Helper()
	// Nest the root so "../" targets exist on disk.
	root := filepath.Join(t.TempDir(), "project", "work")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	ws, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}
	return ws
}

func TestWorkspaceResolveRejectsEscapes(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	if err := os.WriteFile(filepath.Join(filepath.Dir(ws.Root()), "secret"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path        string
		allowCreate bool
	}{
		{"../../etc", false},
		{"../secret", false},
		{"../new.txt", true},
		{"a/../../b", true},
		{"/etc/passwd", false},
	}
	for _, tt := range tests {
		if _, err := ws.Resolve(tt.path, tt.allowCreate); !errors.Is(err, ErrPathOutsideWorkspace) {
			t.Fatalf("Resolve(%q) error = %v, want ErrPathOutsideWorkspace", tt.path, err)
		}
	}
}

func TestWorkspaceResolveRejectsSymlinkEscape(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	outside := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(ws.Root(), "link")); err != nil {
		t.Skipf("symlink unsupported: %v", err)
	}

	if _, err := ws.Resolve("link/file.txt", true); !errors.Is(err, ErrPathOutsideWorkspace) {
		t.Fatalf("Resolve() error = %v, want ErrPathOutsideWorkspace", err)
	}
}

func TestWorkspaceResolveAllowsInside(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	got, err := ws.Resolve("sub/../file.txt", true)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != filepath.Join(ws.Root(), "file.txt") {
		t.Fatalf("Resolve() = %q", got)
	}
	if _, err := ws.Resolve("  ", false); err == nil {
		t.Fatalf("Resolve(blank) should fail")
	}
}

func TestFileToolsThroughDispatcher(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	reg := NewRegistry(NewListFilesTool(ws), NewReadFileTool(ws), NewWriteFileTool(ws))
	ctx := context.Background()

	write := reg.Dispatch(ctx, "write_file", json.RawMessage(`{"path":"a/b/c.txt","content":"x"}`))
	if !write.OK {
		t.Fatalf("write_file = %#v", write)
	}
	raw, err := os.ReadFile(filepath.Join(ws.Root(), "a", "b", "c.txt"))
	if err != nil || string(raw) != "x" {
		t.Fatalf("written file = %q, %v", raw, err)
	}

	read := reg.Dispatch(ctx, "read_file", json.RawMessage(`{"path":"a/b/c.txt"}`))
	if !read.OK || read.Output != "x" {
		t.Fatalf("read_file = %#v", read)
	}

	list := reg.Dispatch(ctx, "list_files", json.RawMessage(`{}`))
	if !list.OK || list.Output != "a/" {
		t.Fatalf("list_files = %#v", list)
	}

	for _, call := range []struct{ name, args string }{
		{"list_files", `{"path":"../../etc"}`},
		{"read_file", `{"path":"../secret"}`},
		{"write_file", `{"path":"../escape.txt","content":"x"}`},
	} {
		got := reg.Dispatch(ctx, call.name, json.RawMessage(call.args))
		if got.OK || !strings.Contains(got.Output, ErrPathOutsideWorkspace.Error()) {
			t.Fatalf("%s(%s) = %#v, want containment failure", call.name, call.args, got)
		}
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(ws.Root()), "escape.txt")); !os.IsNotExist(err) {
		t.Fatalf("escape.txt was written outside the workspace")
	}
}

func TestReadFileCapsContentAndRequiresPath(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	if err := os.WriteFile(filepath.Join(ws.Root(), "big.txt"), []byte(strings.Repeat("a", MaxOutputChars*2)), 0o644); err != nil {
		t.Fatal(err)
	}
	reg := NewRegistry(NewReadFileTool(ws))

	got := reg.Dispatch(context.Background(), "read_file", json.RawMessage(`{"path":"big.txt"}`))
	if !got.OK || len(got.Output) != MaxOutputChars {
		t.Fatalf("read_file output length = %d, want %d", len(got.Output), MaxOutputChars)
	}

	got = reg.Dispatch(context.Background(), "read_file", json.RawMessage(`{"path":`))
	if got.OK || !strings.Contains(got.Output, "path is required") {
		t.Fatalf("read_file with malformed args = %#v", got)
	}
}

func TestListFilesSortsAndMarksDirectories(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	for _, name := range []string{"b.txt", "A.md"} {
		if err := os.WriteFile(filepath.Join(ws.Root(), name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(ws.Root(), "c"), 0o755); err != nil {
		t.Fatal(err)
	}

	got := NewRegistry(NewListFilesTool(ws)).Dispatch(context.Background(), "list_files", json.RawMessage(`{"path":"."}`))
	if got.Output != "A.md\nb.txt\nc/" {
		t.Fatalf("list_files output = %q", got.Output)
	}

	got = NewRegistry(NewListFilesTool(ws)).Dispatch(context.Background(), "list_files", json.RawMessage(`{"path":"b.txt"}`))
	if got.OK || !strings.Contains(got.Output, "not a directory") {
		t.Fatalf("list_files on file = %#v", got)
	}
}
