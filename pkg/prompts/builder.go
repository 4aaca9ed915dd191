package prompts

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/jwebster45206/dao-engine/pkg/chat"
	"github.com/jwebster45206/dao-engine/pkg/game"
)

const (
	// DefaultHistoryLimit is the recent-window size: at most this many
	// turn log entries ride along with each request.
	DefaultHistoryLimit = 30

	// DefaultTokenBudget bounds the assembled prompt. When the windowed
	// history still exceeds it, the oldest windowed entries are shed
	// first; the system instruction, summary, and status context are
	// never trimmed.
	DefaultTokenBudget = 12000

	tokenEncoding = "cl100k_base"
)

// Builder assembles the message array for a turn using a fluent
// interface. It reads the session but never mutates it.
type Builder struct {
	session      *game.Session
	action       string
	historyLimit int
	tokenBudget  int
}

// New creates a builder with default window and budget settings.
func New() *Builder {
	return &Builder{
		historyLimit: DefaultHistoryLimit,
		tokenBudget:  DefaultTokenBudget,
	}
}

// WithSession sets the session whose state and turn log are rendered.
func (b *Builder) WithSession(s *game.Session) *Builder {
	b.session = s
	return b
}

// WithAction sets the player's action text for this turn.
func (b *Builder) WithAction(action string) *Builder {
	b.action = action
	return b
}

// WithHistoryLimit overrides the recent-window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// WithTokenBudget overrides the prompt token budget. Zero disables
// budget trimming.
func (b *Builder) WithTokenBudget(budget int) *Builder {
	b.tokenBudget = budget
	return b
}

// Build constructs the final message array: system instruction with the
// rolling summary appended, the windowed turn log, and the player's
// action embedded in a full state snapshot.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if b.action == "" {
		return nil, fmt.Errorf("action is required")
	}

	messages := make([]chat.ChatMessage, 0, b.historyLimit+2)
	messages = append(messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: SystemInstruction + MemoryContext(b.session.Summary),
	})

	history := b.window()
	messages = append(messages, history...)

	messages = append(messages, chat.ChatMessage{
		Role:    chat.ChatRoleUser,
		Content: StatusContext(b.session.Character, b.action),
	})

	if b.tokenBudget > 0 {
		messages = trimToBudget(messages, len(history), b.tokenBudget)
	}
	return messages, nil
}

// window maps the most recent turn log entries to chat messages. Notice
// entries are display-only and never reach the model.
func (b *Builder) window() []chat.ChatMessage {
	out := make([]chat.ChatMessage, 0, b.historyLimit)
	for _, e := range b.session.TurnLog {
		switch e.Role {
		case game.RolePlayer:
			out = append(out, chat.ChatMessage{Role: chat.ChatRoleUser, Content: e.Content})
		case game.RoleNarrator:
			out = append(out, chat.ChatMessage{Role: chat.ChatRoleAgent, Content: e.Content})
		}
	}
	if len(out) > b.historyLimit {
		out = out[len(out)-b.historyLimit:]
	}
	return out
}

// trimToBudget drops history messages oldest-first until the prompt fits
// the token budget. messages is [system, history..., status]; historyLen
// is how many of its middle entries are droppable. If token counting is
// unavailable the prompt is sent untrimmed.
func trimToBudget(messages []chat.ChatMessage, historyLen, budget int) []chat.ChatMessage {
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return messages
	}

	count := func(msgs []chat.ChatMessage) int {
		total := 0
		for _, m := range msgs {
			total += len(enc.Encode(m.Content, nil, nil))
		}
		return total
	}

	for historyLen > 0 && count(messages) > budget {
		// Index 0 is the system message; index 1 is the oldest history entry.
		messages = append(messages[:1], messages[2:]...)
		historyLen--
	}
	return messages
}

// BuildMessages is a convenience for the common case.
func BuildMessages(s *game.Session, action string) ([]chat.ChatMessage, error) {
	return New().WithSession(s).WithAction(action).Build()
}

// StartMessages builds the two-message first-turn prompt for a chosen
// origin: system instruction plus the initialization request.
func StartMessages(o game.Origin, customPrompt string) []chat.ChatMessage {
	content := StartPrompt(o)
	if o.ID == game.OriginCustom && customPrompt != "" {
		content = CustomStartPrompt(customPrompt)
	}
	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: SystemInstruction},
		{Role: chat.ChatRoleUser, Content: content},
	}
}
