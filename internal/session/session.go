// Package session owns the conversation history and drives one-shot and
// interactive use of the agent.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"termagent/internal/agent"
	"termagent/internal/agentapp"
	"termagent/internal/demux"
	"termagent/internal/llm"
	"termagent/internal/terminal"
	"termagent/internal/tools"
	"termagent/internal/transcript"
	"termagent/internal/tui"
)

var (
	// ErrEmptyTask indicates a one-shot run without a task.
	ErrEmptyTask = errors.New("task is empty")
	// ErrTurnFailed is returned by RunOnce when the turn could not complete.
	ErrTurnFailed = errors.New("turn failed")
	// ErrRunnerRequired indicates a missing turn runner.
	ErrRunnerRequired = errors.New("turn runner is required")
)

const failureMessage = "Something went wrong while answering. Please try again."

// TurnRunner executes one user turn over a history snapshot.
type TurnRunner interface {
	RunTurn(ctx context.Context, history []llm.Message, narrator agent.Narrator) (agent.Turn, error)
}

// Config configures a Controller.
type Config struct {
	Runner       TurnRunner
	Tools        *tools.Registry
	SystemPrompt string

	// Toggle is the internal-channel visibility flag; nil starts hidden.
	Toggle *demux.Toggle
	// Keys enables the live toggle listener in interactive mode.
	Keys      terminal.KeySource
	ToggleKey byte

	In       io.Reader
	Out      io.Writer
	Renderer *tui.Renderer

	Transcript *transcript.Store
	Logger     *slog.Logger

	AgentName   string
	Description string
	Greeting    string
}

// Controller is one conversation. Its history is append-only except for
// an explicit /clear.
type Controller struct {
	runner     TurnRunner
	registry   *tools.Registry
	toggle     *demux.Toggle
	keys       terminal.KeySource
	toggleKey  byte
	in         io.Reader
	out        io.Writer
	render     *tui.Renderer
	transcript *transcript.Store
	logger     *slog.Logger

	name        string
	description string
	greeting    string

	id string

	mu      sync.Mutex
	history []llm.Message
	seq     int
}

// New creates a controller with history seeded by the system turn.
func New(cfg Config) (*Controller, error) {
	if cfg.Runner == nil {
		return nil, ErrRunnerRequired
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	out := cfg.Out
	if out == nil {
		out = io.Discard
	}
	render := cfg.Renderer
	if render == nil {
		render = tui.NewRenderer(out, "")
	}
	toggle := cfg.Toggle
	if toggle == nil {
		toggle = demux.NewToggle(false)
	}
	toggleKey := cfg.ToggleKey
	if toggleKey == 0 {
		toggleKey = terminal.DefaultToggleKey
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := strings.TrimSpace(cfg.AgentName)
	if name == "" {
		name = "termagent"
	}

	c := &Controller{
		runner:      cfg.Runner,
		registry:    cfg.Tools,
		toggle:      toggle,
		keys:        cfg.Keys,
		toggleKey:   toggleKey,
		in:          cfg.In,
		out:         out,
		render:      render,
		transcript:  cfg.Transcript,
		logger:      logger.With("session", id.String()),
		name:        name,
		description: cfg.Description,
		greeting:    cfg.Greeting,
		id:          id.String(),
	}
	if prompt := strings.TrimSpace(cfg.SystemPrompt); prompt != "" {
		c.append(context.Background(), llm.TextMessage(llm.RoleSystem, prompt))
	}
	return c, nil
}

// ID returns the session id.
func (c *Controller) ID() string { return c.id }

// History returns a copy of the conversation.
func (c *Controller) History() []llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llm.Message, len(c.history))
	for i, msg := range c.history {
		out[i] = msg.Clone()
	}
	return out
}

// RunOnce answers a single task and returns. Internal text is shown only if
// the toggle is already on; no key listener is installed.
func (c *Controller) RunOnce(ctx context.Context, task string) error {
	task = strings.TrimSpace(task)
	if task == "" {
		return ErrEmptyTask
	}
	if err := c.runTurn(ctx, task, false); err != nil {
		return fmt.Errorf("%w: %w", ErrTurnFailed, err)
	}
	return nil
}

// RunInteractive reads lines until exit, end of input or ctx is done.
func (c *Controller) RunInteractive(ctx context.Context) error {
	if c.in == nil {
		return errors.New("interactive mode needs an input reader")
	}
	lines := newLineReader(c.in)

	hint := "Type /help for commands."
	if c.keys != nil {
		hint = fmt.Sprintf("Type /help for commands. Press %s during a reply to show or hide the internal channel.", terminal.KeyName(c.toggleKey))
	}
	c.print(c.render.Banner(c.name, c.description, hint))
	if greeting := strings.TrimSpace(c.greeting); greeting != "" {
		c.print(greeting + "\n")
	}

	env := agentapp.CommandEnv{
		Session:      c,
		RenderTools:  c.renderTools,
		AppendOutput: func(text string) { c.print(text + "\n") },
		AppendError:  func(text string) { c.print(c.render.Error("%s", text)) },
	}
	if c.keys != nil {
		env.ToggleKey = terminal.KeyName(c.toggleKey)
	}

	for {
		c.print("\n" + c.render.Prompt())
		line, err := lines.ReadLine(ctx)
		if errors.Is(err, io.EOF) {
			c.print("\n")
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				c.print("\n")
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if agentapp.IsCommand(line) {
			if agentapp.ExecuteCommand(line, env) == agentapp.ActionExit {
				return nil
			}
			continue
		}

		// A failed turn is reported and the prompt returns.
		_ = c.runTurn(ctx, line, true)
		if ctx.Err() != nil {
			return nil
		}
	}
}

// runTurn commits the user turn, runs the agent, and commits the turn's
// messages only if it succeeds.
func (c *Controller) runTurn(ctx context.Context, text string, interactive bool) error {
	c.append(ctx, llm.TextMessage(llm.RoleUser, text))

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := newSyncWriter(c.out)
	var sub terminal.Subscription
	if interactive && c.keys != nil {
		var err error
		sub, err = c.keys.Subscribe(c.keyHandler(out, cancel))
		if err != nil {
			c.logger.Warn("key listener unavailable", "error", err)
			sub = nil
		} else {
			out.set(sub.Output(c.out))
		}
	}

	narrator := demux.New(out, c.render.InternalWriter(out), c.toggle)
	turn, err := c.runner.RunTurn(turnCtx, c.History(), narrator)

	if sub != nil {
		if releaseErr := sub.Release(); releaseErr != nil {
			c.logger.Warn("release key listener", "error", releaseErr)
		}
	}
	c.print("\n")

	if err != nil {
		switch {
		case ctx.Err() == nil && turnCtx.Err() != nil:
			c.logger.Info("turn cancelled")
			c.print(c.render.Notice("Cancelled."))
		default:
			c.logger.Error("turn failed", "error", err)
			c.print(c.render.Error("%s", failureMessage))
		}
		return err
	}

	if state := narrator.State(); state != demux.Neutral {
		c.logger.Warn("reply ended inside an unterminated section", "section", state.String())
	}
	c.logger.Info("turn completed",
		"rounds", turn.Rounds,
		"exhausted", turn.Exhausted,
		"input_tokens", turn.Usage.InputTokens,
		"output_tokens", turn.Usage.OutputTokens,
		"total_tokens", turn.Usage.TokenCount(),
	)
	c.append(ctx, turn.Messages...)
	return nil
}

func (c *Controller) keyHandler(out io.Writer, cancel context.CancelFunc) func(byte) {
	return func(key byte) {
		switch key {
		case c.toggleKey:
			state := "hidden"
			if c.toggle.Flip() {
				state = "shown"
			}
			_, _ = io.WriteString(out, "\n"+c.render.Notice("[internal channel %s]", state))
		case terminal.KeyInterrupt:
			cancel()
		}
	}
}

func (c *Controller) append(ctx context.Context, messages ...llm.Message) {
	if len(messages) == 0 {
		return
	}

	c.mu.Lock()
	entries := make([]transcript.Entry, 0, len(messages))
	for _, msg := range messages {
		c.history = append(c.history, msg.Clone())
		c.seq++
		entries = append(entries, transcript.EntryFromMessage(c.seq, msg))
	}
	c.mu.Unlock()

	if c.transcript == nil {
		return
	}
	if err := c.transcript.Append(context.WithoutCancel(ctx), c.id, entries...); err != nil {
		c.logger.Warn("write transcript", "error", err)
	}
}

func (c *Controller) print(text string) {
	_, _ = io.WriteString(c.out, text)
}

func (c *Controller) renderTools(infos []agentapp.ToolInfo) string {
	names := make([]string, len(infos))
	descriptions := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
		descriptions[i] = info.Description
	}
	return c.render.ToolList(names, descriptions)
}

// Tools lists the registered tools.
func (c *Controller) Tools() []agentapp.ToolInfo {
	if c.registry == nil {
		return nil
	}
	registered := c.registry.Tools()
	out := make([]agentapp.ToolInfo, 0, len(registered))
	for _, tool := range registered {
		out = append(out, agentapp.ToolInfo{Name: tool.Name(), Description: tool.Description()})
	}
	return out
}

// Stats counts history items per role.
func (c *Controller) Stats() agentapp.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := agentapp.Stats{SessionID: c.id}
	for _, msg := range c.history {
		switch msg.Role {
		case llm.RoleSystem:
			stats.System++
		case llm.RoleUser:
			stats.User++
		case llm.RoleAssistant:
			stats.Assistant++
			stats.ToolCalls += len(msg.ToolCalls)
		case llm.RoleTool:
			stats.ToolResults++
		}
	}
	return stats
}

// ClearHistory drops every item after the leading system turns.
func (c *Controller) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()

	keep := 0
	for keep < len(c.history) && c.history[keep].Role == llm.RoleSystem {
		keep++
	}
	c.history = c.history[:keep]
}

// ToggleInternal flips internal-channel visibility.
func (c *Controller) ToggleInternal() bool {
	return c.toggle.Flip()
}

// SetInternal shows or hides the internal channel.
func (c *Controller) SetInternal(on bool) {
	c.toggle.Set(on)
}
