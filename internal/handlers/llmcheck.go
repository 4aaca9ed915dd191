package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/dao-engine/internal/services"
)

type LLMCheckResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LLMCheckHandler verifies the configured model endpoint with a minimal
// round trip, so a misconfigured key or base URL is caught before the
// player sinks an hour into a session.
type LLMCheckHandler struct {
	llmService services.LLMService
	logger     *slog.Logger
}

func NewLLMCheckHandler(llmService services.LLMService, logger *slog.Logger) *LLMCheckHandler {
	return &LLMCheckHandler{
		llmService: llmService,
		logger:     logger,
	}
}

func (h *LLMCheckHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := h.llmService.TestConnection(ctx); err != nil {
		h.logger.Warn("LLM connection test failed", "error", err)
		writeJSON(w, h.logger, http.StatusBadGateway, LLMCheckResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	writeJSON(w, h.logger, http.StatusOK, LLMCheckResponse{
		Success: true,
		Message: "连接成功！接口工作正常。",
	})
}
