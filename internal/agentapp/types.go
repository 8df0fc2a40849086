package agentapp

// ToolInfo describes one tool for display.
type ToolInfo struct {
	Name        string
	Description string
}

// Stats counts history items per role.
type Stats struct {
	SessionID   string
	System      int
	User        int
	Assistant   int
	ToolCalls   int
	ToolResults int
}

// SessionController is the command-facing session contract.
type SessionController interface {
	Tools() []ToolInfo
	Stats() Stats
	// ClearHistory drops everything but the system turn.
	ClearHistory()
	// ToggleInternal flips internal-channel visibility and returns the new
	// state.
	ToggleInternal() bool
	// SetInternal shows or hides the internal channel.
	SetInternal(on bool)
}

// Action tells the REPL what to do after a command.
type Action int

const (
	ActionContinue Action = iota
	ActionExit
)

// CommandEnv provides output hooks so the command runtime stays independent
// of how the REPL renders.
type CommandEnv struct {
	Session SessionController

	// ToggleKey names the live visibility key for /help.
	ToggleKey string

	RenderTools  func(tools []ToolInfo) string
	AppendOutput func(text string)
	AppendError  func(errText string)
}
