package core

import (
	"encoding/json"
	"strings"
)

// Role tags one conversation history item.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// StopReason is the provider-neutral reason a completion ended.
type StopReason string

const (
	StopReasonStop    StopReason = "stop"
	StopReasonLength  StopReason = "length"
	StopReasonToolUse StopReason = "tool_use"
	StopReasonError   StopReason = "error"
	StopReasonAborted StopReason = "aborted"
)

// ContentType identifies content block variants.
type ContentType string

const (
	ContentTypeText ContentType = "text"
)

// ContentBlock is one unit of message content. Only text is carried.
type ContentBlock struct {
	Type ContentType `json:"type"`
	Text string      `json:"text,omitempty"`
}

// ToolCall is one tool invocation requested by the model. Arguments hold the
// raw argument text as received and may not be valid JSON.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolResult is the local outcome of one ToolCall, correlated by ToolCallID.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error"`
}

// Message is one role-tagged conversation history item.
type Message struct {
	Role       Role           `json:"role"`
	Content    []ContentBlock `json:"content,omitempty"`
	ToolCalls  []ToolCall     `json:"tool_calls,omitempty"`
	ToolResult *ToolResult    `json:"tool_result,omitempty"`
}

// TextMessage builds a message holding a single text block.
func TextMessage(role Role, text string) Message {
	return Message{
		Role:    role,
		Content: []ContentBlock{{Type: ContentTypeText, Text: text}},
	}
}

// Text concatenates the text blocks of m.
func (m Message) Text() string {
	var b strings.Builder
	for _, block := range m.Content {
		if block.Type == ContentTypeText {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	cloned := Message{
		Role:    m.Role,
		Content: append([]ContentBlock(nil), m.Content...),
	}
	if len(m.ToolCalls) > 0 {
		cloned.ToolCalls = make([]ToolCall, 0, len(m.ToolCalls))
		for _, call := range m.ToolCalls {
			cloned.ToolCalls = append(cloned.ToolCalls, call.Clone())
		}
	}
	if m.ToolResult != nil {
		result := *m.ToolResult
		cloned.ToolResult = &result
	}
	return cloned
}

// Clone returns a copy of c with detached argument bytes.
func (c ToolCall) Clone() ToolCall {
	c.Arguments = append(json.RawMessage(nil), c.Arguments...)
	return c
}

// Usage tracks provider token accounting for one completion.
type Usage struct {
	InputTokens      int `json:"input_tokens"`
	OutputTokens     int `json:"output_tokens"`
	CacheReadTokens  int `json:"cache_read_tokens"`
	CacheWriteTokens int `json:"cache_write_tokens"`
}

// TokenCount sums every usage bucket.
func (u Usage) TokenCount() int {
	return u.InputTokens + u.OutputTokens + u.CacheReadTokens + u.CacheWriteTokens
}

// Clone returns a pointer to a copy of u.
func (u Usage) Clone() *Usage {
	copied := u
	return &copied
}
