package llm

import (
	anthropicprovider "termagent/internal/llm/providers/anthropic"
	mockprovider "termagent/internal/llm/providers/mock"

	"termagent/internal/llm/core"
)

type (
	// Provider is the streaming completion contract.
	Provider = core.Provider

	EventType      = core.EventType
	ToolChoiceType = core.ToolChoiceType
	ToolChoice     = core.ToolChoice
	ToolSpec       = core.ToolSpec
	RetryPolicy    = core.RetryPolicy

	Request     = core.Request
	DonePayload = core.DonePayload
	Event       = core.Event

	Role         = core.Role
	StopReason   = core.StopReason
	ContentType  = core.ContentType
	ContentBlock = core.ContentBlock
	ToolCall     = core.ToolCall
	ToolResult   = core.ToolResult
	Message      = core.Message
	Usage        = core.Usage

	AnthropicConfig   = anthropicprovider.Config
	AnthropicProvider = anthropicprovider.Provider

	// MockProvider replays scripted responses in tests.
	MockProvider = mockprovider.Provider
)

const (
	EventStart         = core.EventStart
	EventTextDelta     = core.EventTextDelta
	EventToolCallStart = core.EventToolCallStart
	EventToolCallDelta = core.EventToolCallDelta
	EventToolCallEnd   = core.EventToolCallEnd
	EventUsage         = core.EventUsage
	EventDone          = core.EventDone
	EventError         = core.EventError

	ToolChoiceAuto = core.ToolChoiceAuto
	ToolChoiceAny  = core.ToolChoiceAny
	ToolChoiceNone = core.ToolChoiceNone

	RoleSystem    = core.RoleSystem
	RoleUser      = core.RoleUser
	RoleAssistant = core.RoleAssistant
	RoleTool      = core.RoleTool

	StopReasonStop    = core.StopReasonStop
	StopReasonLength  = core.StopReasonLength
	StopReasonToolUse = core.StopReasonToolUse
	StopReasonError   = core.StopReasonError
	StopReasonAborted = core.StopReasonAborted

	ContentTypeText = core.ContentTypeText
)

var (
	ErrInvalidRequest = core.ErrInvalidRequest
	ErrMissingAPIKey  = core.ErrMissingAPIKey
)

// TextMessage builds a single-text-block message.
func TextMessage(role Role, text string) Message {
	return core.TextMessage(role, text)
}

// NewAnthropicProvider constructs the Anthropic completion provider.
func NewAnthropicProvider(cfg AnthropicConfig) *AnthropicProvider {
	return anthropicprovider.New(cfg)
}
