package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/dao-engine/pkg/game"
)

// OriginsHandler lists the starting locations a new session can pick.
type OriginsHandler struct {
	logger *slog.Logger
}

func NewOriginsHandler(logger *slog.Logger) *OriginsHandler {
	return &OriginsHandler{logger: logger}
}

func (h *OriginsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, game.Origins)
}
