package anthropicprovider

import (
	anthropic "github.com/anthropics/anthropic-sdk-go"

	"termagent/internal/llm/core"
)

func applyStartUsage(dst *core.Usage, usage anthropic.Usage) {
	dst.InputTokens = int(usage.InputTokens)
	dst.OutputTokens = int(usage.OutputTokens)
	dst.CacheReadTokens = int(usage.CacheReadInputTokens)
	dst.CacheWriteTokens = int(usage.CacheCreationInputTokens)
}

// applyDeltaUsage folds message_delta counters in; the API reports input
// buckets as zero on deltas, so only non-zero values overwrite.
func applyDeltaUsage(dst *core.Usage, usage anthropic.MessageDeltaUsage) {
	if usage.InputTokens > 0 {
		dst.InputTokens = int(usage.InputTokens)
	}
	dst.OutputTokens = int(usage.OutputTokens)
	if usage.CacheReadInputTokens > 0 {
		dst.CacheReadTokens = int(usage.CacheReadInputTokens)
	}
	if usage.CacheCreationInputTokens > 0 {
		dst.CacheWriteTokens = int(usage.CacheCreationInputTokens)
	}
}
