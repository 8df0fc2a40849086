package profile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"termagent/internal/tools"
)

func TestLoadMissingDefaultFileUsesBuiltin(t *testing.T) {
	t.Chdir(t.TempDir())

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p != Default() {
		t.Fatalf("profile = %+v, want default", p)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load() error = %v, want ErrNotExist", err)
	}
}

func TestLoadReadsAgentYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	content := `
name: "  paper-scout "
instructions: |
  Prefer primary sources.
model: claude-haiku
greeting: Hi!
`
	if err := os.WriteFile(filepath.Join(dir, DefaultFile), []byte(content), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Name != "paper-scout" {
		t.Fatalf("Name = %q", p.Name)
	}
	if p.Description != Default().Description {
		t.Fatalf("Description = %q, want default", p.Description)
	}
	if p.Instructions != "Prefer primary sources." {
		t.Fatalf("Instructions = %q", p.Instructions)
	}
	if p.Model != "claude-haiku" || p.Greeting != "Hi!" {
		t.Fatalf("profile = %+v", p)
	}
}

func TestDecodeRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("name: [unterminated"))
	if !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("Decode() error = %v, want ErrInvalidProfile", err)
	}
}

func TestSystemPromptMandatesMarkersAndListsTools(t *testing.T) {
	t.Parallel()

	ws, err := tools.NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}
	p := Default()
	p.Instructions = "Answer in French."

	prompt := SystemPrompt(p, []tools.Tool{tools.NewListFilesTool(ws), tools.NewReadFileTool(ws)})

	for _, want := range []string{
		"<<<INTERNAL>>>", "<<<END_INTERNAL>>>", "<<<FINAL>>>", "<<<END_FINAL>>>",
		"- list_files:", "- read_file:", "Answer in French.", "You are termagent.",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Index(prompt, "<<<INTERNAL>>>") > strings.Index(prompt, "<<<FINAL>>>") {
		t.Fatalf("internal section must come first:\n%s", prompt)
	}
}

func TestSystemPromptWithoutTools(t *testing.T) {
	t.Parallel()

	prompt := SystemPrompt(Profile{Name: "x"}, nil)
	if strings.Contains(prompt, "Tools you can call") {
		t.Fatalf("prompt lists tools:\n%s", prompt)
	}
}
