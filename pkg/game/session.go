package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Turn log entry roles. Notices cover both player-facing status lines
// ("窥探天机...") and failure reports; they are kept out of LLM context.
const (
	RolePlayer   = "player"
	RoleNarrator = "narrator"
	RoleNotice   = "notice"
)

// TurnEntry is one entry in a session's append-only turn log.
type TurnEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is the full state of one playthrough: the canonical character
// record, the turn log, the rolling summary with its watermark, and the
// latest turn's presentation data. It is owned by the engine; nothing
// else mutates it.
type Session struct {
	ID        uuid.UUID      `json:"id"`
	Character CharacterState `json:"character"`

	// TurnLog grows monotonically. CompactedThrough marks how many leading
	// entries have been folded into Summary; the visible log is never cut.
	TurnLog          []TurnEntry `json:"turn_log"`
	Summary          string      `json:"summary,omitempty"`
	CompactedThrough int         `json:"compacted_through"`

	Choices         []string `json:"choices,omitempty"`
	EventArtKeyword string   `json:"event_art_keyword,omitempty"`
	IsEnded         bool     `json:"is_ended"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a session with the fixed starting character.
func NewSession() *Session {
	return &Session{
		ID:        uuid.New(),
		Character: NewCharacterState(),
		TurnLog:   make([]TurnEntry, 0),
		CreatedAt: time.Now(),
	}
}

// Append adds an entry to the turn log.
func (s *Session) Append(role, content string) {
	s.TurnLog = append(s.TurnLog, TurnEntry{Role: role, Content: content})
}

// Uncompacted returns how many turn log entries have not yet been folded
// into the summary.
func (s *Session) Uncompacted() int {
	return len(s.TurnLog) - s.CompactedThrough
}

// Validate checks invariants that must hold for a session to be accepted
// as canonical, used on snapshot import. A snapshot must carry at minimum
// a character and a turn log.
func (s *Session) Validate() error {
	if s.ID == uuid.Nil {
		return fmt.Errorf("session id is required")
	}
	if s.Character.Name == "" {
		return fmt.Errorf("snapshot has no character state")
	}
	if s.TurnLog == nil {
		return fmt.Errorf("snapshot has no turn log")
	}
	if s.CompactedThrough < 0 || s.CompactedThrough > len(s.TurnLog) {
		return fmt.Errorf("compacted_through %d out of range for %d entries",
			s.CompactedThrough, len(s.TurnLog))
	}
	return nil
}

// DeepCopy returns an independent copy of the session for use outside the
// engine's mutation path.
func (s *Session) DeepCopy() (*Session, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	var out Session
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &out, nil
}
