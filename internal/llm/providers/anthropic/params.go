package anthropicprovider

import (
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"

	"termagent/internal/llm/core"
)

const defaultMaxTokens = 2048

// mapStopReason maps Anthropic stop reasons onto core values. Unknown reasons
// are treated as a normal stop.
func mapStopReason(reason string) core.StopReason {
	switch reason {
	case "max_tokens":
		return core.StopReasonLength
	case "tool_use":
		return core.StopReasonToolUse
	case "refusal":
		return core.StopReasonError
	default:
		return core.StopReasonStop
	}
}

// toAnthropicSDKParams validates req and converts it into SDK params.
func toAnthropicSDKParams(req *core.Request) (anthropic.MessageNewParams, error) {
	if req == nil {
		return anthropic.MessageNewParams{}, fmt.Errorf("%w: request is nil", core.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Model) == "" {
		return anthropic.MessageNewParams{}, fmt.Errorf("%w: model is required", core.ErrInvalidRequest)
	}

	system, messages, err := toSDKMessages(req.System, req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}
	if len(messages) == 0 {
		return anthropic.MessageNewParams{}, fmt.Errorf("%w: at least one message is required", core.ErrInvalidRequest)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(req.Tools) > 0 {
		tools, err := toSDKTools(req.Tools)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		params.Tools = tools
		if choice, ok := toSDKToolChoice(req.ToolChoice); ok {
			params.ToolChoice = choice
		}
	}
	return params, nil
}

// toSDKMessages splits system-role history items into the system prompt and
// converts the rest. Consecutive tool results are grouped into one user turn.
func toSDKMessages(system string, messages []core.Message) (string, []anthropic.MessageParam, error) {
	systemParts := make([]string, 0, 2)
	if s := strings.TrimSpace(system); s != "" {
		systemParts = append(systemParts, s)
	}
	out := make([]anthropic.MessageParam, 0, len(messages))

	for i := 0; i < len(messages); i++ {
		msg := messages[i]
		switch msg.Role {
		case core.RoleSystem:
			if s := strings.TrimSpace(msg.Text()); s != "" {
				systemParts = append(systemParts, s)
			}
		case core.RoleUser:
			if blocks := toSDKTextBlocks(msg.Content); len(blocks) > 0 {
				out = append(out, anthropic.NewUserMessage(blocks...))
			}
		case core.RoleAssistant:
			if blocks := toSDKAssistantBlocks(msg); len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		case core.RoleTool:
			blocks, last, err := collectSDKToolResultBlocks(messages, i)
			if err != nil {
				return "", nil, err
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewUserMessage(blocks...))
			}
			i = last
		default:
			return "", nil, fmt.Errorf("%w: unsupported role %q", core.ErrInvalidRequest, msg.Role)
		}
	}
	return strings.Join(systemParts, "\n\n"), out, nil
}

func toSDKTextBlocks(content []core.ContentBlock) []anthropic.ContentBlockParamUnion {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(content))
	for _, item := range content {
		if item.Type != core.ContentTypeText || item.Text == "" {
			continue
		}
		blocks = append(blocks, anthropic.NewTextBlock(item.Text))
	}
	return blocks
}

// toSDKAssistantBlocks re-encodes tool calls with their arguments decoded
// defensively; the API only accepts object input.
func toSDKAssistantBlocks(msg core.Message) []anthropic.ContentBlockParamUnion {
	blocks := toSDKTextBlocks(msg.Content)
	for _, call := range msg.ToolCalls {
		if strings.TrimSpace(call.ID) == "" || strings.TrimSpace(call.Name) == "" {
			continue
		}
		input := core.DecodeJSONObjectOrEmpty(call.Arguments)
		blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, input, call.Name))
	}
	return blocks
}

func collectSDKToolResultBlocks(messages []core.Message, start int) ([]anthropic.ContentBlockParamUnion, int, error) {
	var blocks []anthropic.ContentBlockParamUnion
	last := start
	for j := start; j < len(messages) && messages[j].Role == core.RoleTool; j++ {
		last = j
		tr := messages[j].ToolResult
		if tr == nil {
			continue
		}
		if strings.TrimSpace(tr.ToolCallID) == "" {
			return nil, 0, fmt.Errorf("%w: tool result missing tool_call_id", core.ErrInvalidRequest)
		}
		blocks = append(blocks, anthropic.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError))
	}
	return blocks, last, nil
}

func toSDKTools(tools []core.ToolSpec) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		schema, err := core.DecodeToolJSONSchema(tool.Schema)
		if err != nil {
			return nil, fmt.Errorf("decode tool schema for %q: %w", tool.Name, err)
		}
		param := anthropic.ToolParam{
			Name: tool.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema.Properties,
				Required:   schema.Required,
			},
		}
		if desc := strings.TrimSpace(tool.Description); desc != "" {
			param.Description = anthropic.String(desc)
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &param})
	}
	return out, nil
}

func toSDKToolChoice(choice core.ToolChoice) (anthropic.ToolChoiceUnionParam, bool) {
	switch choice.Type {
	case core.ToolChoiceAuto:
		return anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}, true
	case core.ToolChoiceAny:
		return anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}, true
	case core.ToolChoiceNone:
		none := anthropic.NewToolChoiceNoneParam()
		return anthropic.ToolChoiceUnionParam{OfNone: &none}, true
	default:
		return anthropic.ToolChoiceUnionParam{}, false
	}
}
