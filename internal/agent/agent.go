// Package agent runs one user turn: a bounded number of tool rounds followed
// by a single streamed, tools-disabled narration call.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"termagent/internal/llm"
	"termagent/internal/tools"
)

// MaxRounds is the hard ceiling on tool rounds per turn.
const MaxRounds = 3

const defaultMaxTokens = 4096

var (
	// ErrProviderRequired indicates missing LLM provider dependency.
	ErrProviderRequired = errors.New("provider is required")
	// ErrRegistryRequired indicates missing tool registry dependency.
	ErrRegistryRequired = errors.New("tool registry is required")
	// ErrAgentBusy indicates an attempt to start a turn while one is active.
	ErrAgentBusy = errors.New("agent is already running")
	// ErrEmptyHistory indicates RunTurn was called without any messages.
	ErrEmptyHistory = errors.New("history is empty")
	// ErrStreamIncomplete indicates a provider stream closed without a
	// terminal event.
	ErrStreamIncomplete = errors.New("provider stream ended without terminal event")
)

// Config configures Agent creation.
type Config struct {
	Provider  llm.Provider
	Registry  *tools.Registry
	Model     string
	MaxTokens int
	// MaxRounds is clamped to 1..MaxRounds; zero selects MaxRounds.
	MaxRounds int
	Retry     llm.RetryPolicy
	Logger    *slog.Logger
}

// Narrator receives the visible output of a turn. Note carries tool
// activity for the internal channel; WriteString carries raw fragments of
// the narration stream; Finish flushes it and returns the answer text.
type Narrator interface {
	Note(text string)
	WriteString(fragment string) error
	Finish() (string, error)
}

// Turn is the outcome of one successful RunTurn.
type Turn struct {
	// Messages are the items to append to history, in order: each tool
	// round's assistant request and tool results, then the answer.
	Messages []llm.Message
	Answer   string
	// Rounds counts tool rounds that executed at least one call.
	Rounds    int
	Exhausted bool
	Usage     llm.Usage
}

// Agent orchestrates the model/tool loop.
type Agent struct {
	provider  llm.Provider
	registry  *tools.Registry
	model     string
	maxTokens int
	maxRounds int
	retry     llm.RetryPolicy
	logger    *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates an agent with explicit dependencies.
func New(cfg Config) (*Agent, error) {
	if cfg.Provider == nil {
		return nil, ErrProviderRequired
	}
	if cfg.Registry == nil {
		return nil, ErrRegistryRequired
	}

	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 || maxRounds > MaxRounds {
		maxRounds = MaxRounds
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Agent{
		provider:  cfg.Provider,
		registry:  cfg.Registry,
		model:     cfg.Model,
		maxTokens: maxTokens,
		maxRounds: maxRounds,
		retry:     cfg.Retry,
		logger:    logger,
		state:     StateIdle,
	}, nil
}

// State returns the current runtime state.
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// MaxRounds reports the effective tool round budget.
func (a *Agent) MaxRounds() int { return a.maxRounds }

// Tools returns the registry the agent dispatches to.
func (a *Agent) Tools() *tools.Registry { return a.registry }

// RunTurn answers the last user message in history. history is not
// modified; on success the caller appends Turn.Messages. On failure nothing
// from the turn should be committed.
func (a *Agent) RunTurn(ctx context.Context, history []llm.Message, narrator Narrator) (Turn, error) {
	if len(history) == 0 {
		return Turn{}, ErrEmptyHistory
	}
	if narrator == nil {
		return Turn{}, errors.New("narrator is required")
	}

	a.mu.Lock()
	if a.state != StateIdle {
		a.mu.Unlock()
		return Turn{}, ErrAgentBusy
	}
	a.state = StateStreaming
	a.mu.Unlock()
	defer a.setState(StateIdle)

	turn, err := a.runTurn(ctx, cloneMessages(history), narrator)
	if err != nil {
		return Turn{}, fmt.Errorf("run turn: %w", err)
	}
	return turn, nil
}

func (a *Agent) setState(state State) {
	a.mu.Lock()
	a.state = state
	a.mu.Unlock()
}

func cloneMessages(messages []llm.Message) []llm.Message {
	out := make([]llm.Message, len(messages))
	for i, msg := range messages {
		out[i] = msg.Clone()
	}
	return out
}
