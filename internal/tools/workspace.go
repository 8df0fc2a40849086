package tools

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrPathOutsideWorkspace = errors.New("path is outside workspace")

// Workspace is the directory file tools are confined to.
type Workspace struct {
	root string
}

// NewWorkspace resolves root (the working directory when blank) to an
// absolute, symlink-free path.
func NewWorkspace(root string) (Workspace, error) {
	resolved, err := normalizeWorkspaceRoot(root)
	if err != nil {
		return Workspace{}, err
	}
	return Workspace{root: resolved}, nil
}

// Root returns the resolved workspace directory.
func (w Workspace) Root() string { return w.root }

// Resolve maps inputPath onto an absolute path inside the workspace. Paths
// that escape lexically are rejected before the filesystem is consulted;
// surviving paths are checked again after symlink resolution. allowCreate
// permits missing trailing components.
func (w Workspace) Resolve(inputPath string, allowCreate bool) (string, error) {
	rawPath := strings.TrimSpace(inputPath)
	if rawPath == "" {
		return "", errors.New("path is required")
	}
	if w.root == "" {
		return "", errors.New("workspace is not initialized")
	}

	candidate := rawPath
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(w.root, candidate)
	}
	candidate = filepath.Clean(candidate)
	if !isWithinWorkspace(w.root, candidate) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideWorkspace, rawPath)
	}

	resolved, err := resolvePathWithOptionalMissing(candidate, allowCreate)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", rawPath, err)
	}
	if !isWithinWorkspace(w.root, resolved) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideWorkspace, rawPath)
	}
	return resolved, nil
}

// Rel returns path relative to the workspace root for display.
func (w Workspace) Rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func normalizeWorkspaceRoot(root string) (string, error) {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		trimmed = cwd
	}

	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve absolute workspace root %s: %w", trimmed, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolve workspace symlinks %s: %w", abs, err)
	}
	return filepath.Clean(resolved), nil
}

func resolvePathWithOptionalMissing(path string, allowCreate bool) (string, error) {
	if !allowCreate {
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			return "", err
		}
		return filepath.Clean(resolved), nil
	}

	// Walk up to the deepest existing ancestor, resolve it, then re-append
	// the missing components.
	var missing []string
	probe := filepath.Clean(path)
	for {
		resolved, err := filepath.EvalSymlinks(probe)
		if err == nil {
			out := resolved
			for i := len(missing) - 1; i >= 0; i-- {
				out = filepath.Join(out, missing[i])
			}
			return filepath.Clean(out), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}

		parent := filepath.Dir(probe)
		if parent == probe {
			return "", err
		}
		missing = append(missing, filepath.Base(probe))
		probe = parent
	}
}

func isWithinWorkspace(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || filepath.IsAbs(rel) {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
