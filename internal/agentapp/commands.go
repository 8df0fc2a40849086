// Package agentapp implements the interactive control commands. Commands
// never touch the conversation except /clear.
package agentapp

import (
	"fmt"
	"strings"
)

var commandNames = map[string]bool{
	"exit": true, "quit": true, "q": true,
	"help": true, "?": true,
	"tools": true, "internal": true, "history": true, "clear": true,
}

// IsCommand reports whether line is a control input rather than a user turn.
// Only known command names count; other lines starting with "/" are turns.
func IsCommand(line string) bool {
	trimmed := strings.TrimSpace(line)
	if name, ok := strings.CutPrefix(trimmed, "/"); ok {
		fields := strings.Fields(name)
		return len(fields) > 0 && commandNames[strings.ToLower(fields[0])]
	}
	switch strings.ToLower(trimmed) {
	case "exit", "quit":
		return true
	}
	return false
}

// ExecuteCommand parses and handles one control input.
func ExecuteCommand(line string, env CommandEnv) Action {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return ActionContinue
	}
	command := strings.ToLower(strings.TrimPrefix(parts[0], "/"))

	switch command {
	case "exit", "quit", "q":
		return ActionExit
	}
	if env.Session == nil {
		appendError(env, "session is not initialized")
		return ActionContinue
	}

	switch command {
	case "help", "?":
		lines := []string{
			"Commands:",
			"/tools     list available tools",
			"/internal  show or hide the internal channel (on|off)",
			"/history   count conversation items",
			"/clear     start the conversation over",
			"/help      show this help",
			"/exit      leave (also: exit, quit)",
		}
		if env.ToggleKey != "" {
			lines = append(lines, fmt.Sprintf("Press %s while a reply streams to show or hide the internal channel; Ctrl+C cancels the reply.", env.ToggleKey))
		}
		appendOutput(env, strings.Join(lines, "\n"))
	case "tools":
		tools := env.Session.Tools()
		if len(tools) == 0 {
			appendOutput(env, "No tools registered.")
			return ActionContinue
		}
		if env.RenderTools != nil {
			appendOutput(env, strings.TrimRight(env.RenderTools(tools), "\n"))
			return ActionContinue
		}
		lines := make([]string, 0, len(tools))
		for _, tool := range tools {
			lines = append(lines, fmt.Sprintf("%s - %s", tool.Name, tool.Description))
		}
		appendOutput(env, strings.Join(lines, "\n"))
	case "internal":
		var shown bool
		switch arg := argument(parts); arg {
		case "":
			shown = env.Session.ToggleInternal()
		case "on", "show":
			env.Session.SetInternal(true)
			shown = true
		case "off", "hide":
			env.Session.SetInternal(false)
		default:
			appendError(env, "usage: /internal [on|off]")
			return ActionContinue
		}
		if shown {
			appendOutput(env, "Internal channel: shown.")
		} else {
			appendOutput(env, "Internal channel: hidden.")
		}
	case "history":
		stats := env.Session.Stats()
		appendOutput(env, fmt.Sprintf(
			"session=%s system=%d user=%d assistant=%d tool_calls=%d tool_results=%d",
			stats.SessionID,
			stats.System,
			stats.User,
			stats.Assistant,
			stats.ToolCalls,
			stats.ToolResults,
		))
	case "clear":
		env.Session.ClearHistory()
		appendOutput(env, "Conversation cleared.")
	default:
		appendError(env, "unknown command: /"+command+" (try /help)")
	}
	return ActionContinue
}

func argument(parts []string) string {
	if len(parts) < 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}

func appendOutput(env CommandEnv, text string) {
	if env.AppendOutput != nil {
		env.AppendOutput(text)
	}
}

func appendError(env CommandEnv, errText string) {
	if env.AppendError != nil {
		env.AppendError(errText)
	}
}
