// Package memory maintains the rolling long-term summary that keeps
// sessions playable past the context window. Compaction folds older turn
// log entries into the summary and advances a watermark; the visible log
// is never cut.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jwebster45206/dao-engine/pkg/chat"
	"github.com/jwebster45206/dao-engine/pkg/game"
	"github.com/jwebster45206/dao-engine/pkg/prompts"
)

const (
	// DefaultThreshold is how many uncompacted entries accumulate before
	// a compaction runs.
	DefaultThreshold = 20

	// DefaultKeepRecent is the safety buffer: the newest entries are
	// never folded, so the model always sees recent turns verbatim even
	// right after a compaction.
	DefaultKeepRecent = 5
)

// Summarizer produces a summary from a free-form prompt. Implemented by
// the LLM service.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Result is the outcome of a successful compaction, to be applied to the
// session by its owner.
type Result struct {
	Summary          string
	CompactedThrough int
}

// Compactor folds turn log segments into the rolling summary. One
// compaction runs at a time; callers that hit a busy compactor skip the
// cycle and retry after the next turn.
type Compactor struct {
	summarizer Summarizer
	logger     *slog.Logger
	threshold  int
	keepRecent int
	busy       atomic.Bool
}

// New creates a compactor with the default threshold and safety buffer.
func New(summarizer Summarizer, logger *slog.Logger) *Compactor {
	return &Compactor{
		summarizer: summarizer,
		logger:     logger,
		threshold:  DefaultThreshold,
		keepRecent: DefaultKeepRecent,
	}
}

// WithThreshold overrides the compaction trigger count.
func (c *Compactor) WithThreshold(n int) *Compactor {
	c.threshold = n
	return c
}

// WithKeepRecent overrides the safety buffer size.
func (c *Compactor) WithKeepRecent(n int) *Compactor {
	c.keepRecent = n
	return c
}

// ShouldCompact reports whether the session has accumulated enough
// uncompacted entries to warrant a compaction.
func (c *Compactor) ShouldCompact(s *game.Session) bool {
	return s.Uncompacted() >= c.threshold
}

// Compact summarizes the session's uncompacted entries, sparing the
// safety buffer, and returns the new summary and watermark. It reads the
// session but does not mutate it; callers apply the result under their
// own locking. The second return is false when compaction did not run or
// failed - summarization failures are swallowed so a flaky summarizer
// can never break play, and the entries remain uncompacted for the next
// attempt.
func (c *Compactor) Compact(ctx context.Context, s *game.Session) (Result, bool) {
	if !c.busy.CompareAndSwap(false, true) {
		c.logger.Debug("Compaction already in progress, skipping",
			"session_id", s.ID.String())
		return Result{}, false
	}
	defer c.busy.Store(false)

	if !c.ShouldCompact(s) {
		return Result{}, false
	}

	end := len(s.TurnLog) - c.keepRecent
	if end <= s.CompactedThrough {
		return Result{}, false
	}
	segment := toMessages(s.TurnLog[s.CompactedThrough:end])
	if len(segment) == 0 {
		// Nothing summarizable in the segment (all notices); advance the
		// watermark so the same empty span is not re-examined forever.
		return Result{Summary: s.Summary, CompactedThrough: end}, true
	}

	prompt := prompts.SummaryPrompt(s.Summary, segment)
	summary, err := c.summarizer.Summarize(ctx, prompt)
	if err != nil || summary == "" {
		c.logger.Warn("Memory compaction failed, keeping prior summary",
			"session_id", s.ID.String(),
			"error", fmt.Sprintf("%v", err))
		return Result{}, false
	}

	c.logger.Debug("Memory compacted",
		"session_id", s.ID.String(),
		"entries", end-s.CompactedThrough,
		"summary_len", len(summary))
	return Result{Summary: summary, CompactedThrough: end}, true
}

// toMessages maps summarizable turn log entries to chat messages. Notice
// entries are UI chrome and carry no story.
func toMessages(entries []game.TurnEntry) []chat.ChatMessage {
	out := make([]chat.ChatMessage, 0, len(entries))
	for _, e := range entries {
		switch e.Role {
		case game.RolePlayer:
			out = append(out, chat.ChatMessage{Role: chat.ChatRoleUser, Content: e.Content})
		case game.RoleNarrator:
			out = append(out, chat.ChatMessage{Role: chat.ChatRoleAgent, Content: e.Content})
		}
	}
	return out
}
