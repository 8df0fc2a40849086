package core

import "testing"

func TestTextMessageRoundTripsText(t *testing.T) {
	t.Parallel()

	msg := TextMessage(RoleUser, "hello")
	if msg.Role != RoleUser {
		t.Fatalf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if got := msg.Text(); got != "hello" {
		t.Fatalf("Text() = %q, want hello", got)
	}
}

func TestMessageTextJoinsTextBlocksOnly(t *testing.T) {
	t.Parallel()

	msg := Message{
		Role: RoleAssistant,
		Content: []ContentBlock{
			{Type: ContentTypeText, Text: "a"},
			{Type: "image", Text: "ignored"},
			{Type: ContentTypeText, Text: "b"},
		},
	}
	if got := msg.Text(); got != "ab" {
		t.Fatalf("Text() = %q, want ab", got)
	}
}

func TestMessageCloneIsDeep(t *testing.T) {
	t.Parallel()

	original := Message{
		Role:       RoleAssistant,
		Content:    []ContentBlock{{Type: ContentTypeText, Text: "x"}},
		ToolCalls:  []ToolCall{{ID: "c1", Name: "read_file", Arguments: []byte(`{"path":"a"}`)}},
		ToolResult: &ToolResult{ToolCallID: "c1", Content: "ok"},
	}
	cloned := original.Clone()

	cloned.Content[0].Text = "y"
	cloned.ToolCalls[0].Arguments[2] = 'X'
	cloned.ToolResult.Content = "changed"

	if original.Content[0].Text != "x" {
		t.Fatalf("content mutated through clone: %#v", original.Content)
	}
	if string(original.ToolCalls[0].Arguments) != `{"path":"a"}` {
		t.Fatalf("arguments mutated through clone: %s", original.ToolCalls[0].Arguments)
	}
	if original.ToolResult.Content != "ok" {
		t.Fatalf("tool result mutated through clone: %#v", original.ToolResult)
	}
}

func TestUsageTokenCount(t *testing.T) {
	t.Parallel()

	usage := Usage{InputTokens: 10, OutputTokens: 7, CacheReadTokens: 5, CacheWriteTokens: 3}
	if got := usage.TokenCount(); got != 25 {
		t.Fatalf("TokenCount() = %d, want 25", got)
	}
	cloned := usage.Clone()
	cloned.InputTokens = 99
	if usage.InputTokens != 10 {
		t.Fatalf("mutating clone should not mutate original")
	}
}
