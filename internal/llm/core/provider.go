package core

import (
	"context"
	"encoding/json"
	"time"
)

// Provider streams completion events for a single request.
type Provider interface {
	Stream(ctx context.Context, req *Request) (<-chan Event, error)
}

// EventType identifies stream event variants.
type EventType string

const (
	EventStart         EventType = "start"
	EventTextDelta     EventType = "text_delta"
	EventToolCallStart EventType = "tool_call_start"
	EventToolCallDelta EventType = "tool_call_delta"
	EventToolCallEnd   EventType = "tool_call_end"
	EventUsage         EventType = "usage"
	EventDone          EventType = "done"
	EventError         EventType = "error"
)

// ToolChoiceType defines how the model may choose tools.
type ToolChoiceType string

const (
	ToolChoiceAuto ToolChoiceType = "auto"
	ToolChoiceAny  ToolChoiceType = "any"
	ToolChoiceNone ToolChoiceType = "none"
)

// ToolChoice controls tool dispatch mode for one request.
type ToolChoice struct {
	Type ToolChoiceType `json:"type"`
}

// ToolSpec is a tool definition as exposed to the model.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
}

// RetryPolicy configures backoff for retryable transport failures.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Request is one completion request. System text is sent separately from
// Messages; system-role items inside Messages are folded into it by providers.
type Request struct {
	Model      string
	System     string
	Messages   []Message
	Tools      []ToolSpec
	MaxTokens  int
	ToolChoice ToolChoice
	Retry      RetryPolicy
}

// DonePayload carries the terminal status of a stream.
type DonePayload struct {
	Reason StopReason
	Usage  Usage
}

// Event is one streamed completion event.
type Event struct {
	Type          EventType
	TextDelta     string
	ToolCall      *ToolCall
	ToolCallDelta string
	Usage         *Usage
	Done          *DonePayload
	Err           error
}

// Terminal reports whether ev ends a stream.
func (ev Event) Terminal() bool {
	return ev.Type == EventDone || ev.Type == EventError
}
