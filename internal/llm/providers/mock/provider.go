package mockprovider

import (
	"context"
	"errors"
	"sync"
	"time"

	"termagent/internal/llm/core"
)

// ErrScriptExhausted is returned when Stream is called more times than there
// are scripted responses.
var ErrScriptExhausted = errors.New("mock provider: no scripted response left")

// Provider replays one scripted event sequence per Stream call and records
// every request it receives.
type Provider struct {
	// Responses holds the event script of each successive call.
	Responses [][]core.Event
	// Errs, when set at index i, makes call i fail before streaming.
	Errs  []error
	Delay time.Duration

	mu       sync.Mutex
	calls    int
	requests []core.Request
}

// Stream emits the next scripted response in order until exhaustion or
// cancellation.
func (m *Provider) Stream(ctx context.Context, req *core.Request) (<-chan core.Event, error) {
	m.mu.Lock()
	call := m.calls
	m.calls++
	if req != nil {
		m.requests = append(m.requests, cloneRequest(req))
	}
	m.mu.Unlock()

	if call < len(m.Errs) && m.Errs[call] != nil {
		return nil, m.Errs[call]
	}
	if call >= len(m.Responses) {
		return nil, ErrScriptExhausted
	}
	script := m.Responses[call]

	out := make(chan core.Event, 1)
	go func() {
		defer close(out)
		for _, ev := range script {
			if err := ctx.Err(); err != nil {
				abort(out, err)
				return
			}
			if m.Delay > 0 {
				if err := core.SleepContext(ctx, m.Delay); err != nil {
					abort(out, err)
					return
				}
			}
			if err := core.SendEvent(ctx, out, ev); err != nil {
				abort(out, err)
				return
			}
		}
	}()

	return out, nil
}

// Requests returns copies of every request seen so far.
func (m *Provider) Requests() []core.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls reports how many times Stream was invoked.
func (m *Provider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func abort(out chan<- core.Event, err error) {
	core.SendTerminalEvent(out, core.Event{
		Type: core.EventError,
		Done: &core.DonePayload{Reason: core.StopReasonAborted},
		Err:  err,
	})
}

func cloneRequest(req *core.Request) core.Request {
	cloned := *req
	cloned.Messages = make([]core.Message, len(req.Messages))
	for i, msg := range req.Messages {
		cloned.Messages[i] = msg.Clone()
	}
	cloned.Tools = append([]core.ToolSpec(nil), req.Tools...)
	return cloned
}

// TextResponse scripts a plain streamed text reply split into the given deltas.
func TextResponse(deltas ...string) []core.Event {
	events := []core.Event{{Type: core.EventStart}}
	for _, d := range deltas {
		events = append(events, core.Event{Type: core.EventTextDelta, TextDelta: d})
	}
	return append(events, core.Event{
		Type: core.EventDone,
		Done: &core.DonePayload{Reason: core.StopReasonStop},
	})
}

// ToolCallResponse scripts a reply that requests the given tool calls.
func ToolCallResponse(calls ...core.ToolCall) []core.Event {
	events := []core.Event{{Type: core.EventStart}}
	for _, call := range calls {
		c := call.Clone()
		events = append(events,
			core.Event{Type: core.EventToolCallStart, ToolCall: &core.ToolCall{ID: c.ID, Name: c.Name}},
			core.Event{Type: core.EventToolCallEnd, ToolCall: &c},
		)
	}
	return append(events, core.Event{
		Type: core.EventDone,
		Done: &core.DonePayload{Reason: core.StopReasonToolUse},
	})
}
