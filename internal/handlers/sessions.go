package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/dao-engine/internal/engine"
	"github.com/jwebster45206/dao-engine/pkg/game"
)

// SessionsHandler owns the /v1/sessions surface.
//
// Routes:
//
//	POST   /v1/sessions                - start a new game
//	POST   /v1/sessions/import         - accept a snapshot as canonical
//	GET    /v1/sessions/{id}           - read session state
//	DELETE /v1/sessions/{id}           - delete a session
//	GET    /v1/sessions/{id}/export    - download a snapshot
//	POST   /v1/sessions/{id}/action    - submit a player action
//	POST   /v1/sessions/{id}/hint      - ask for guidance
//	POST   /v1/sessions/{id}/identify  - appraise an inventory item
type SessionsHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewSessionsHandler(e *engine.Engine, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{
		engine: e,
		logger: logger,
	}
}

type CreateSessionRequest struct {
	Origin       string `json:"origin"`
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

type ActionRequest struct {
	Action string `json:"action"`
}

type IdentifyRequest struct {
	Item string `json:"item"`
}

func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")

	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleCreate(w, r)
		return
	}

	if path == "import" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleImport(w, r)
		return
	}

	idStr, verb, _ := strings.Cut(path, "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", idStr, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	switch verb {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
	case "export":
		if r.Method != http.MethodGet {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
			return
		}
		h.handleExport(w, r, id)
	case "action":
		h.handleTurn(w, r, id, verb)
	case "hint":
		h.handleTurn(w, r, id, verb)
	case "identify":
		h.handleTurn(w, r, id, verb)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown session operation: "+verb)
	}
}

func (h *SessionsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Origin == "" {
		writeError(w, h.logger, http.StatusBadRequest, "origin is required")
		return
	}

	s, err := h.engine.StartGame(r.Context(), req.Origin, req.CustomPrompt)
	if err != nil {
		h.logger.Error("Failed to start game", "origin", req.Origin, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, s)
}

func (h *SessionsHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	s, err := h.engine.GetSession(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, id, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, s)
}

func (h *SessionsHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.engine.DeleteSession(r.Context(), id); err != nil {
		h.writeEngineError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExport returns the full session as a downloadable snapshot. The
// session document is the snapshot format; anything the client needs to
// resume play elsewhere is in it.
func (h *SessionsHandler) handleExport(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	s, err := h.engine.GetSession(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, id, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="dao-engine-save-`+id.String()+`.json"`)
	writeJSON(w, h.logger, http.StatusOK, s)
}

func (h *SessionsHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	var s game.Session
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid snapshot body")
		return
	}

	if err := h.engine.ImportSession(r.Context(), &s); err != nil {
		if errors.Is(err, engine.ErrBusy) {
			h.writeEngineError(w, s.ID, err)
			return
		}
		h.logger.Warn("Snapshot import rejected", "session_id", s.ID, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("Snapshot imported", "session_id", s.ID)
	writeJSON(w, h.logger, http.StatusOK, &s)
}

func (h *SessionsHandler) handleTurn(w http.ResponseWriter, r *http.Request, id uuid.UUID, verb string) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
		return
	}

	var s *game.Session
	var err error

	switch verb {
	case "action":
		var req ActionRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil || strings.TrimSpace(req.Action) == "" {
			writeError(w, h.logger, http.StatusBadRequest, "action is required")
			return
		}
		s, err = h.engine.SubmitAction(r.Context(), id, req.Action)
	case "hint":
		s, err = h.engine.RequestHint(r.Context(), id)
	case "identify":
		var req IdentifyRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil || strings.TrimSpace(req.Item) == "" {
			writeError(w, h.logger, http.StatusBadRequest, "item is required")
			return
		}
		s, err = h.engine.IdentifyItem(r.Context(), id, req.Item)
	}

	if err != nil {
		h.writeEngineError(w, id, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, s)
}

// writeEngineError maps engine sentinel errors to HTTP statuses.
func (h *SessionsHandler) writeEngineError(w http.ResponseWriter, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
	case errors.Is(err, engine.ErrBusy):
		writeError(w, h.logger, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrEnded):
		writeError(w, h.logger, http.StatusGone, err.Error())
	case errors.Is(err, engine.ErrNotInInventory):
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Session operation failed", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
	}
}
