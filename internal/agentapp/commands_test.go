package agentapp

import (
	"strings"
	"testing"
)

type fakeSession struct {
	tools    []ToolInfo
	stats    Stats
	cleared  int
	internal bool
}

func (f *fakeSession) Tools() []ToolInfo { return append([]ToolInfo(nil), f.tools...) }
func (f *fakeSession) Stats() Stats      { return f.stats }
func (f *fakeSession) ClearHistory()     { f.cleared++ }
func (f *fakeSession) ToggleInternal() bool {
	f.internal = !f.internal
	return f.internal
}
func (f *fakeSession) SetInternal(on bool) { f.internal = on }

func run(line string, session SessionController) (Action, []string, []string) {
	var out, errs []string
	action := ExecuteCommand(line, CommandEnv{
		Session:      session,
		ToggleKey:    "Ctrl+T",
		AppendOutput: func(text string) { out = append(out, text) },
		AppendError:  func(text string) { errs = append(errs, text) },
	})
	return action, out, errs
}

func TestIsCommand(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"/tools", " /help ", "/Clear", "/history now", "exit", "QUIT"} {
		if !IsCommand(line) {
			t.Fatalf("IsCommand(%q) = false", line)
		}
	}
	for _, line := range []string{"", "hello", "exit now", "tools", "/", "/whatever", "/etc/hosts what is in it?", "/tmp/x.log"} {
		if IsCommand(line) {
			t.Fatalf("IsCommand(%q) = true", line)
		}
	}
}

func TestExecuteCommandExitVariants(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"/exit", "exit", "quit", "/quit"} {
		if action, _, _ := run(line, nil); action != ActionExit {
			t.Fatalf("ExecuteCommand(%q) = %v, want ActionExit", line, action)
		}
	}
}

func TestExecuteCommandHelpListsCommands(t *testing.T) {
	t.Parallel()

	action, out, _ := run("/help", &fakeSession{})
	if action != ActionContinue || len(out) != 1 {
		t.Fatalf("help = %v %#v", action, out)
	}
	for _, want := range []string{"/tools", "/help", "/exit", "Ctrl+T"} {
		if !strings.Contains(out[0], want) {
			t.Fatalf("help output missing %q: %s", want, out[0])
		}
	}
}

func TestExecuteCommandTools(t *testing.T) {
	t.Parallel()

	session := &fakeSession{tools: []ToolInfo{
		{Name: "web_search", Description: "Search the web."},
		{Name: "read_file", Description: "Read a file."},
	}}
	_, out, _ := run("/tools", session)
	if len(out) != 1 || out[0] != "web_search - Search the web.\nread_file - Read a file." {
		t.Fatalf("tools output = %#v", out)
	}

	var rendered []string
	ExecuteCommand("/tools", CommandEnv{
		Session:      session,
		RenderTools:  func(tools []ToolInfo) string { return tools[0].Name + "\n" },
		AppendOutput: func(text string) { rendered = append(rendered, text) },
	})
	if len(rendered) != 1 || rendered[0] != "web_search" {
		t.Fatalf("rendered tools = %#v", rendered)
	}
}

func TestExecuteCommandSessionCommands(t *testing.T) {
	t.Parallel()

	session := &fakeSession{stats: Stats{SessionID: "s1", System: 1, User: 2, Assistant: 2}}

	_, out, _ := run("/internal", session)
	if !session.internal || out[0] != "Internal channel: shown." {
		t.Fatalf("/internal = %#v", out)
	}
	_, out, _ = run("/history", session)
	if !strings.Contains(out[0], "session=s1") || !strings.Contains(out[0], "user=2") {
		t.Fatalf("/history = %#v", out)
	}
	_, _, _ = run("/clear", session)
	if session.cleared != 1 {
		t.Fatalf("cleared = %d", session.cleared)
	}
}

func TestExecuteCommandInternalArguments(t *testing.T) {
	t.Parallel()

	session := &fakeSession{}
	_, out, _ := run("/internal on", session)
	if !session.internal || out[0] != "Internal channel: shown." {
		t.Fatalf("/internal on = %v %#v", session.internal, out)
	}
	_, out, _ = run("/internal ON", session)
	if !session.internal || out[0] != "Internal channel: shown." {
		t.Fatalf("repeated /internal on = %v %#v", session.internal, out)
	}
	_, out, _ = run("/internal off", session)
	if session.internal || out[0] != "Internal channel: hidden." {
		t.Fatalf("/internal off = %v %#v", session.internal, out)
	}
	_, out, errs := run("/internal maybe", session)
	if session.internal || len(out) != 0 || len(errs) != 1 || !strings.Contains(errs[0], "usage") {
		t.Fatalf("/internal maybe = %v %#v %#v", session.internal, out, errs)
	}
}

func TestExecuteCommandUnknownReturnsError(t *testing.T) {
	t.Parallel()

	action, _, errs := run("/missing", &fakeSession{})
	if action != ActionContinue || len(errs) != 1 || !strings.Contains(errs[0], "unknown command") {
		t.Fatalf("unknown = %v %#v", action, errs)
	}
}
