package services

import (
	"context"

	"github.com/jwebster45206/dao-engine/pkg/chat"
)

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// Chat generates a turn of narration from the assembled messages.
	// The returned text is raw model output; the response parser owns
	// making sense of it.
	Chat(ctx context.Context, messages []chat.ChatMessage) (string, error)

	// Summarize runs a single-prompt completion for memory compaction.
	Summarize(ctx context.Context, prompt string) (string, error)

	// TestConnection verifies the configured endpoint, key, and model
	// with a minimal round trip.
	TestConnection(ctx context.Context) error
}
