// Package engine owns the turn loop: it is the only writer of session
// state. Each operation loads the session, runs the generate-parse-
// reconcile pipeline, and persists the result. A per-session busy flag
// serializes turns; concurrent submissions are rejected, not queued.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/dao-engine/internal/services"
	"github.com/jwebster45206/dao-engine/internal/storage"
	"github.com/jwebster45206/dao-engine/pkg/game"
	"github.com/jwebster45206/dao-engine/pkg/memory"
	"github.com/jwebster45206/dao-engine/pkg/prompts"
	"github.com/jwebster45206/dao-engine/pkg/response"
)

var (
	// ErrBusy means a turn is already in flight for the session.
	ErrBusy = errors.New("a turn is already in progress for this session")

	// ErrEnded means the session reached game over; no further turns run.
	ErrEnded = errors.New("the session has ended")

	// ErrNotFound means the session does not exist in storage.
	ErrNotFound = errors.New("session not found")

	// ErrNotInInventory rejects appraisal of an item the character does
	// not carry.
	ErrNotInInventory = errors.New("item is not in the inventory")
)

const (
	startingNotice  = "正在降临... 开启你的修仙命途..."
	startFailNotice = "天道连接中断: %v。请检查 API 设置。"
	turnFailNotice  = "天机混乱: %v。请重试。"

	// defaultCustomOrigin seeds a custom start when the player gave no
	// prompt of their own.
	defaultCustomOrigin = "随机生成一个充满奇遇的神秘出生地"

	compactionTimeout = 2 * time.Minute
)

// Engine runs the game loop against pluggable LLM and storage backends.
type Engine struct {
	llm       services.LLMService
	storage   storage.Storage
	compactor *memory.Compactor
	logger    *slog.Logger

	mu   sync.Mutex
	busy map[uuid.UUID]bool
}

// New creates an engine.
func New(llm services.LLMService, store storage.Storage, logger *slog.Logger) *Engine {
	return &Engine{
		llm:       llm,
		storage:   store,
		compactor: memory.New(llm, logger),
		logger:    logger,
		busy:      make(map[uuid.UUID]bool),
	}
}

// acquire marks the session busy. The caller must release on all paths.
func (e *Engine) acquire(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy[id] {
		return ErrBusy
	}
	e.busy[id] = true
	return nil
}

func (e *Engine) release(id uuid.UUID) {
	e.mu.Lock()
	delete(e.busy, id)
	e.mu.Unlock()
}

// StartGame creates a session and generates the opening scene for the
// chosen origin. A generation failure still yields a playable session
// carrying a failure notice; the player retries from the client.
func (e *Engine) StartGame(ctx context.Context, originID, customPrompt string) (*game.Session, error) {
	origin, ok := game.GetOrigin(originID)
	if !ok {
		return nil, fmt.Errorf("unknown origin: %s", originID)
	}
	if origin.ID == game.OriginCustom && customPrompt == "" {
		customPrompt = defaultCustomOrigin
	}

	s := game.NewSession()
	s.Append(game.RoleNotice, startingNotice)

	messages := prompts.StartMessages(origin, customPrompt)
	raw, err := e.llm.Chat(ctx, messages)
	if err != nil {
		e.logger.Error("Failed to generate opening scene",
			"session_id", s.ID.String(), "origin", originID, "error", err)
		s.Append(game.RoleNotice, fmt.Sprintf(startFailNotice, err))
	} else {
		e.applyTurn(s, response.Parse(raw))
	}

	if err := e.storage.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save new session: %w", err)
	}
	e.logger.Info("Session started",
		"session_id", s.ID.String(), "origin", originID)
	return s, nil
}

// SubmitAction runs one turn for the player's action.
func (e *Engine) SubmitAction(ctx context.Context, id uuid.UUID, action string) (*game.Session, error) {
	return e.runTurn(ctx, id, func(s *game.Session) (string, string, string, error) {
		return action, game.RolePlayer, action, nil
	})
}

// RequestHint asks the generator for guidance appropriate to the
// character's realm. Hints are ordinary turns: they consume a generation
// and count toward memory compaction.
func (e *Engine) RequestHint(ctx context.Context, id uuid.UUID) (*game.Session, error) {
	return e.runTurn(ctx, id, func(s *game.Session) (string, string, string, error) {
		return prompts.HintAction(s.Character.Realm), game.RoleNotice, prompts.HintNotice, nil
	})
}

// IdentifyItem appraises an inventory item, at a soul cost decided by
// the generator. The item must be carried; appraising thin air is
// rejected before any generation happens.
func (e *Engine) IdentifyItem(ctx context.Context, id uuid.UUID, itemName string) (*game.Session, error) {
	return e.runTurn(ctx, id, func(s *game.Session) (string, string, string, error) {
		if !s.Character.HasItem(itemName) {
			return "", "", "", fmt.Errorf("%w: %s", ErrNotInInventory, itemName)
		}
		return prompts.IdentifyAction(itemName), game.RoleNotice, prompts.IdentifyNotice, nil
	})
}

// GetSession loads a session read-only.
func (e *Engine) GetSession(ctx context.Context, id uuid.UUID) (*game.Session, error) {
	s, err := e.storage.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNotFound
	}
	return s, nil
}

// DeleteSession removes a session. In-flight turns hold the busy flag,
// so deletion waits its turn like any other operation.
func (e *Engine) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := e.acquire(id); err != nil {
		return err
	}
	defer e.release(id)
	return e.storage.DeleteSession(ctx, id)
}

// ImportSession accepts a snapshot as the new canonical state for its
// session ID, after validation.
func (e *Engine) ImportSession(ctx context.Context, s *game.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}
	if err := e.acquire(s.ID); err != nil {
		return err
	}
	defer e.release(s.ID)
	return e.storage.SaveSession(ctx, s)
}

// turnSpec produces (actionText, logRole, logContent) for one turn. The
// action text goes to the generator inside the status context; the log
// entry is what the player sees in the transcript. A spec error aborts
// the turn before anything is logged or generated.
type turnSpec func(s *game.Session) (action string, logRole string, logContent string, err error)

func (e *Engine) runTurn(ctx context.Context, id uuid.UUID, spec turnSpec) (*game.Session, error) {
	if err := e.acquire(id); err != nil {
		return nil, err
	}
	defer e.release(id)

	s, err := e.storage.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNotFound
	}
	if s.IsEnded {
		return nil, ErrEnded
	}

	// The prompt window is built before the new entry is logged; the
	// action reaches the model once, inside the status context.
	action, logRole, logContent, err := spec(s)
	if err != nil {
		return nil, err
	}
	messages, err := prompts.New().WithSession(s).WithAction(action).Build()
	if err != nil {
		return nil, err
	}
	s.Append(logRole, logContent)

	raw, chatErr := e.llm.Chat(ctx, messages)
	if chatErr != nil {
		e.logger.Error("Turn generation failed",
			"session_id", id.String(), "error", chatErr)
		s.Append(game.RoleNotice, fmt.Sprintf(turnFailNotice, chatErr))
	} else {
		e.applyTurn(s, response.Parse(raw))
	}

	if err := e.storage.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	if chatErr == nil && !s.IsEnded && e.compactor.ShouldCompact(s) {
		e.kickCompaction(id)
	}
	return s, nil
}

// applyTurn folds a parsed turn into the session: narrator entry, state
// reconciliation, presentation fields, and the terminal flag. The
// terminal flag is sticky; a later delta cannot resurrect a session.
func (e *Engine) applyTurn(s *game.Session, res *response.TurnResult) {
	s.Append(game.RoleNarrator, res.Narrative)
	s.Character = game.Reconcile(s.Character, res.CharacterUpdate)
	s.Choices = res.Choices
	s.EventArtKeyword = res.EventArtKeyword
	if res.GameOver {
		s.IsEnded = true
		e.logger.Info("Session reached game over", "session_id", s.ID.String())
	}
}

// kickCompaction summarizes old turn log entries in the background. The
// summary is computed from a snapshot, then applied under the busy flag
// only if the watermark is unchanged; a session that moved on keeps its
// entries uncompacted until the next trigger.
func (e *Engine) kickCompaction(id uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), compactionTimeout)
		defer cancel()

		snapshot, err := e.storage.LoadSession(ctx, id)
		if err != nil || snapshot == nil {
			return
		}
		watermark := snapshot.CompactedThrough
		result, ok := e.compactor.Compact(ctx, snapshot)
		if !ok {
			return
		}

		if err := e.acquire(id); err != nil {
			e.logger.Debug("Session busy, discarding compaction result",
				"session_id", id.String())
			return
		}
		defer e.release(id)

		s, err := e.storage.LoadSession(ctx, id)
		if err != nil || s == nil {
			return
		}
		if s.CompactedThrough != watermark {
			return
		}
		s.Summary = result.Summary
		s.CompactedThrough = result.CompactedThrough
		if err := e.storage.SaveSession(ctx, s); err != nil {
			e.logger.Error("Failed to save compacted session",
				"session_id", id.String(), "error", err)
		}
	}()
}
