package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"termagent/internal/llm"
	"termagent/internal/tools"
)

// noteArgsPreview bounds how much of a call's arguments is echoed to the
// internal channel.
const noteArgsPreview = 120

func (a *Agent) runTurn(ctx context.Context, messages []llm.Message, narrator Narrator) (Turn, error) {
	var turn Turn
	specs := a.registry.Specs()

	for round := 0; round < a.maxRounds; round++ {
		a.setState(StateStreaming)
		reply, err := a.collect(ctx, a.request(messages, specs, llm.ToolChoiceAuto))
		if err != nil {
			return Turn{}, fmt.Errorf("round %d: %w", round+1, err)
		}
		addUsage(&turn.Usage, reply.usage)

		if len(reply.message.ToolCalls) == 0 {
			// Text from a tool-free round is dropped; the narration call
			// below produces the answer.
			a.logger.Debug("round requested no tools", "round", round+1)
			break
		}

		messages = append(messages, reply.message)
		turn.Messages = append(turn.Messages, reply.message.Clone())

		a.setState(StateToolExecuting)
		for _, call := range reply.message.ToolCalls {
			result := a.dispatch(ctx, call, narrator)
			messages = append(messages, result)
			turn.Messages = append(turn.Messages, result.Clone())
		}
		turn.Rounds++
	}

	if turn.Rounds == a.maxRounds {
		turn.Exhausted = true
		a.logger.Info("tool round budget exhausted", "rounds", turn.Rounds)
	}
	if err := ctx.Err(); err != nil {
		return Turn{}, err
	}

	a.setState(StateNarrating)
	usage, err := a.narrate(ctx, a.request(messages, specs, llm.ToolChoiceNone), narrator)
	answer, finishErr := narrator.Finish()
	if err != nil {
		return Turn{}, fmt.Errorf("narration: %w", err)
	}
	if finishErr != nil {
		return Turn{}, fmt.Errorf("narration output: %w", finishErr)
	}
	addUsage(&turn.Usage, usage)

	turn.Answer = answer
	turn.Messages = append(turn.Messages, llm.TextMessage(llm.RoleAssistant, answer))
	return turn, nil
}

// request builds one completion request over messages. Tool definitions are
// always attached because earlier rounds may have left tool_use blocks in the
// history; ToolChoiceNone is what disables calling them.
func (a *Agent) request(messages []llm.Message, specs []llm.ToolSpec, choice llm.ToolChoiceType) *llm.Request {
	return &llm.Request{
		Model:      a.model,
		Messages:   messages,
		Tools:      specs,
		MaxTokens:  a.maxTokens,
		ToolChoice: llm.ToolChoice{Type: choice},
		Retry:      a.retry,
	}
}

func (a *Agent) dispatch(ctx context.Context, call llm.ToolCall, narrator Narrator) llm.Message {
	narrator.Note(fmt.Sprintf("[tool] %s %s\n", call.Name, previewArgs(call.Arguments)))

	started := time.Now()
	result := a.registry.Dispatch(ctx, call.Name, call.Arguments)
	a.logger.Info("tool dispatched",
		"tool", call.Name,
		"ok", result.OK,
		"duration", time.Since(started),
	)

	status := "ok"
	if !result.OK {
		status = "failed: " + firstLine(result.Output)
	}
	narrator.Note(fmt.Sprintf("[tool] %s %s\n", call.Name, status))

	return toolResultMessage(call, result)
}

func toolResultMessage(call llm.ToolCall, result tools.Result) llm.Message {
	content, err := json.Marshal(result)
	if err != nil {
		content = []byte(result.Output)
	}
	return llm.Message{
		Role: llm.RoleTool,
		ToolResult: &llm.ToolResult{
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Content:    string(content),
			IsError:    !result.OK,
		},
	}
}

type reply struct {
	message llm.Message
	usage   llm.Usage
}

// collect consumes one stream silently and assembles the assistant message.
func (a *Agent) collect(ctx context.Context, req *llm.Request) (reply, error) {
	stream, err := a.provider.Stream(ctx, req)
	if err != nil {
		return reply{}, err
	}

	acc := newAssistantAccumulator()
	terminal, err := drain(ctx, stream, acc.consume)
	if err != nil {
		return reply{}, err
	}
	return reply{message: acc.buildMessage(), usage: usageOf(terminal)}, nil
}

// narrate streams one reply straight into the narrator.
func (a *Agent) narrate(ctx context.Context, req *llm.Request, narrator Narrator) (llm.Usage, error) {
	stream, err := a.provider.Stream(ctx, req)
	if err != nil {
		return llm.Usage{}, err
	}

	var writeErr error
	terminal, err := drain(ctx, stream, func(ev llm.Event) {
		if ev.Type != llm.EventTextDelta || writeErr != nil {
			return
		}
		writeErr = narrator.WriteString(ev.TextDelta)
	})
	if err != nil {
		return llm.Usage{}, err
	}
	if writeErr != nil {
		a.logger.Warn("narration output failed", "error", writeErr)
	}
	return usageOf(terminal), nil
}

// drain feeds every event to consume until the terminal event, which is
// returned. A terminal error event becomes the returned error.
func drain(ctx context.Context, stream <-chan llm.Event, consume func(llm.Event)) (llm.Event, error) {
	for {
		select {
		case <-ctx.Done():
			return llm.Event{}, ctx.Err()
		case ev, ok := <-stream:
			if !ok {
				return llm.Event{}, ErrStreamIncomplete
			}
			consume(ev)
			if ev.Type == llm.EventError {
				if ev.Err != nil {
					return ev, ev.Err
				}
				return ev, errors.New("provider reported an error")
			}
			if ev.Type == llm.EventDone {
				return ev, nil
			}
		}
	}
}

func usageOf(ev llm.Event) llm.Usage {
	if ev.Done == nil {
		return llm.Usage{}
	}
	return ev.Done.Usage
}

func addUsage(dst *llm.Usage, u llm.Usage) {
	dst.InputTokens += u.InputTokens
	dst.OutputTokens += u.OutputTokens
	dst.CacheReadTokens += u.CacheReadTokens
	dst.CacheWriteTokens += u.CacheWriteTokens
}

type assistantAccumulator struct {
	text          strings.Builder
	toolCallOrder []string
	toolCallsByID map[string]llm.ToolCall
}

func newAssistantAccumulator() *assistantAccumulator {
	return &assistantAccumulator{
		toolCallsByID: make(map[string]llm.ToolCall),
	}
}

func (a *assistantAccumulator) consume(ev llm.Event) {
	switch ev.Type {
	case llm.EventTextDelta:
		a.text.WriteString(ev.TextDelta)
	case llm.EventToolCallStart, llm.EventToolCallEnd:
		if ev.ToolCall != nil {
			a.upsertToolCall(*ev.ToolCall)
		}
	}
}

// upsertToolCall keeps first-seen order; the end event carries the full
// arguments and replaces the start placeholder.
func (a *assistantAccumulator) upsertToolCall(call llm.ToolCall) {
	if _, exists := a.toolCallsByID[call.ID]; !exists {
		a.toolCallOrder = append(a.toolCallOrder, call.ID)
	}
	a.toolCallsByID[call.ID] = call.Clone()
}

func (a *assistantAccumulator) buildMessage() llm.Message {
	message := llm.Message{Role: llm.RoleAssistant}
	for _, id := range a.toolCallOrder {
		call := a.toolCallsByID[id]
		if len(call.Arguments) == 0 {
			call.Arguments = json.RawMessage("{}")
		}
		message.ToolCalls = append(message.ToolCalls, call)
	}
	if text := a.text.String(); strings.TrimSpace(text) != "" {
		message.Content = []llm.ContentBlock{{Type: llm.ContentTypeText, Text: text}}
	}
	return message
}

func previewArgs(raw json.RawMessage) string {
	s := strings.Join(strings.Fields(string(raw)), " ")
	if s == "" {
		return "{}"
	}
	if r := []rune(s); len(r) > noteArgsPreview {
		return string(r[:noteArgsPreview]) + "..."
	}
	return s
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
