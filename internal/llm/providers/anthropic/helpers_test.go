package anthropicprovider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"termagent/internal/llm/core"
)

func sseEvent(name, data string) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", name, data)
}

func newSSEServer(t *testing.T, handler func(attempt int, w http.ResponseWriter, r *http.Request)) (*httptest.Server, *int) {
	t.Helper()
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		handler(attempts, w, r)
	}))
	t.Cleanup(server.Close)
	return server, &attempts
}

func writeSSE(t *testing.T, w http.ResponseWriter, chunks ...string) {
	t.Helper()
	w.Header().Set("Content-Type", "text/event-stream")
	flusher, ok := w.(http.Flusher)
	if !ok {
		t.Errorf("response writer does not implement flusher")
		return
	}
	for _, chunk := range chunks {
		_, _ = fmt.Fprint(w, chunk)
		flusher.Flush()
	}
}

func userRequest(text string) *core.Request {
	return &core.Request{
		Model:     "claude-sonnet-4-20250514",
		MaxTokens: 128,
		Messages:  []core.Message{core.TextMessage(core.RoleUser, text)},
	}
}

func collectEvents(t *testing.T, p *Provider, req *core.Request) []core.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := p.Stream(ctx, req)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	var out []core.Event
	for ev := range stream {
		out = append(out, ev)
	}
	return out
}

func textOf(events []core.Event) string {
	var b strings.Builder
	for _, ev := range events {
		if ev.Type == core.EventTextDelta {
			b.WriteString(ev.TextDelta)
		}
	}
	return b.String()
}

const (
	messageStart = `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude","content":[],"usage":{"input_tokens":10,"output_tokens":0}}}`
	messageStop  = `{"type":"message_stop"}`
)
