package anthropicprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"termagent/internal/llm/core"
)

const defaultRequestTimeout = 2 * time.Minute

// Config configures the Anthropic provider.
type Config struct {
	APIKey     string
	BaseURL    string
	Version    string
	HTTPClient *http.Client
	Retry      core.RetryPolicy
	// RequestTimeout bounds one Stream call including retries. Zero selects
	// the default; negative disables the deadline.
	RequestTimeout time.Duration
}

// Provider streams completions through the official anthropic-sdk-go client.
type Provider struct {
	apiKey  string
	retry   core.RetryPolicy
	timeout time.Duration

	client anthropic.Client
}

// New constructs a provider. Retries are handled here, not by the SDK.
func New(cfg Config) *Provider {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if version := strings.TrimSpace(cfg.Version); version != "" {
		opts = append(opts, option.WithHeader("anthropic-version", version))
	}

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	return &Provider{
		apiKey:  apiKey,
		retry:   core.NormalizeRetryPolicy(cfg.Retry),
		timeout: timeout,
		client:  anthropic.NewClient(opts...),
	}
}

// Stream starts one Messages API streaming request. The returned channel
// always ends with exactly one EventDone or EventError.
func (p *Provider) Stream(ctx context.Context, req *core.Request) (<-chan core.Event, error) {
	if p == nil {
		return nil, errors.New("anthropic provider is nil")
	}
	if p.apiKey == "" {
		return nil, core.ErrMissingAPIKey
	}

	params, err := toAnthropicSDKParams(req)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := ctx, context.CancelFunc(func() {})
	if p.timeout > 0 {
		streamCtx, cancel = context.WithTimeout(ctx, p.timeout)
	}

	events := make(chan core.Event, 1)
	retry := core.MergeRetryPolicy(p.retry, req.Retry)

	go func() {
		defer close(events)
		defer cancel()

		state := &streamState{reason: core.StopReasonStop}
		if err := p.streamWithRetry(streamCtx, params, retry, events, state); err != nil {
			reason := core.StopReasonError
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				reason = core.StopReasonAborted
			}
			core.SendTerminalEvent(events, core.Event{
				Type: core.EventError,
				Done: &core.DonePayload{Reason: reason, Usage: state.usage},
				Err:  fmt.Errorf("anthropic stream: %w", err),
			})
		}
	}()

	return events, nil
}

// streamState is the incremental state of one logical request across retries.
type streamState struct {
	usage          core.Usage
	reason         core.StopReason
	emittedVisible bool
	startEmitted   bool
	emittedDone    bool
	toolCalls      map[int64]*toolCallAccumulator
}

// toolCallAccumulator collects the chunked argument text of one tool_use block.
type toolCallAccumulator struct {
	id   string
	name string
	buf  strings.Builder
}

// streamWithRetry retries retryable failures until something visible has been
// emitted; after that a retry would duplicate output.
func (p *Provider) streamWithRetry(
	ctx context.Context,
	params anthropic.MessageNewParams,
	retry core.RetryPolicy,
	events chan<- core.Event,
	state *streamState,
) error {
	for attempt := 0; ; attempt++ {
		err := p.streamOnce(ctx, params, events, state)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if !core.IsRetryableError(err) || state.emittedVisible || attempt >= retry.MaxRetries {
			return err
		}
		if err := core.SleepContext(ctx, core.ComputeBackoffDelay(retry, attempt)); err != nil {
			return err
		}
	}
}

// streamOnce consumes one SDK stream, translating it into core events.
func (p *Provider) streamOnce(
	ctx context.Context,
	params anthropic.MessageNewParams,
	events chan<- core.Event,
	state *streamState,
) error {
	stream := p.client.Messages.NewStreaming(ctx, params)
	defer func() {
		_ = stream.Close()
	}()

	if !state.startEmitted {
		if err := core.SendEvent(ctx, events, core.Event{Type: core.EventStart}); err != nil {
			return err
		}
		state.startEmitted = true
	}
	state.toolCalls = map[int64]*toolCallAccumulator{}

	for stream.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := handleSDKStreamEvent(ctx, stream.Current(), events, state); err != nil {
			return err
		}
		if state.emittedDone {
			return nil
		}
	}

	if err := stream.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		wrapped := fmt.Errorf("anthropic sdk stream: %w", err)
		if isRetryableProviderError(err) {
			return core.MarkRetryable(wrapped)
		}
		return wrapped
	}
	if state.emittedDone {
		return nil
	}
	return core.MarkRetryable(errors.New("stream ended without message_stop"))
}

// handleSDKStreamEvent maps one raw SDK event onto core events.
func handleSDKStreamEvent(
	ctx context.Context,
	event anthropic.MessageStreamEventUnion,
	events chan<- core.Event,
	state *streamState,
) error {
	switch variant := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		applyStartUsage(&state.usage, variant.Message.Usage)
		return core.SendEvent(ctx, events, core.Event{Type: core.EventUsage, Usage: state.usage.Clone()})

	case anthropic.ContentBlockStartEvent:
		block, ok := variant.ContentBlock.AsAny().(anthropic.ToolUseBlock)
		if !ok {
			return nil
		}
		rawInput, err := core.MarshalToolInput(block.Input)
		if err != nil {
			return fmt.Errorf("marshal tool_use input: %w", err)
		}
		acc := &toolCallAccumulator{id: block.ID, name: block.Name}
		if string(rawInput) != "{}" {
			acc.buf.Write(rawInput)
		}
		state.toolCalls[variant.Index] = acc
		state.emittedVisible = true
		return core.SendEvent(ctx, events, core.Event{
			Type:     core.EventToolCallStart,
			ToolCall: &core.ToolCall{ID: block.ID, Name: block.Name},
		})

	case anthropic.ContentBlockDeltaEvent:
		switch delta := variant.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			state.emittedVisible = true
			return core.SendEvent(ctx, events, core.Event{Type: core.EventTextDelta, TextDelta: delta.Text})
		case anthropic.InputJSONDelta:
			acc, ok := state.toolCalls[variant.Index]
			if !ok {
				return fmt.Errorf("tool_call accumulator not found for index %d", variant.Index)
			}
			acc.buf.WriteString(delta.PartialJSON)
			state.emittedVisible = true
			return core.SendEvent(ctx, events, core.Event{Type: core.EventToolCallDelta, ToolCallDelta: delta.PartialJSON})
		}
		return nil

	case anthropic.ContentBlockStopEvent:
		acc, ok := state.toolCalls[variant.Index]
		if !ok {
			return nil
		}
		delete(state.toolCalls, variant.Index)

		// Argument text is forwarded as received; the dispatcher decides
		// what to do with text that does not parse.
		args := strings.TrimSpace(acc.buf.String())
		if args == "" {
			args = "{}"
		}
		return core.SendEvent(ctx, events, core.Event{
			Type: core.EventToolCallEnd,
			ToolCall: &core.ToolCall{
				ID:        acc.id,
				Name:      acc.name,
				Arguments: json.RawMessage(args),
			},
		})

	case anthropic.MessageDeltaEvent:
		if variant.Delta.StopReason != "" {
			state.reason = mapStopReason(string(variant.Delta.StopReason))
		}
		applyDeltaUsage(&state.usage, variant.Usage)
		return core.SendEvent(ctx, events, core.Event{Type: core.EventUsage, Usage: state.usage.Clone()})

	case anthropic.MessageStopEvent:
		state.emittedDone = true
		return core.SendEvent(ctx, events, core.Event{
			Type: core.EventDone,
			Done: &core.DonePayload{Reason: state.reason, Usage: state.usage},
		})
	}
	return nil
}
