package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/dao-engine/internal/config"
	"github.com/jwebster45206/dao-engine/internal/engine"
	"github.com/jwebster45206/dao-engine/internal/handlers"
	"github.com/jwebster45206/dao-engine/internal/logger"
	"github.com/jwebster45206/dao-engine/internal/middleware"
	"github.com/jwebster45206/dao-engine/internal/services"
	"github.com/jwebster45206/dao-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Dao Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_base_url", cfg.LLMBaseURL,
		"model_name", cfg.ModelName)

	if cfg.LLMAPIKey == "" {
		log.Error("LLM API key is required")
		os.Exit(1)
	}
	var llmService services.LLMService = services.NewOpenAIService(
		cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.ModelName, cfg.SummaryModelName, log)

	redisStorage := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := redisStorage.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	gameEngine := engine.New(llmService, redisStorage, log)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(redisStorage, log)
	mux.Handle("/health", healthHandler)

	originsHandler := handlers.NewOriginsHandler(log)
	mux.Handle("/v1/origins", originsHandler)

	sessionsHandler := handlers.NewSessionsHandler(gameEngine, log)
	mux.Handle("/v1/sessions", sessionsHandler)
	mux.Handle("/v1/sessions/", sessionsHandler)

	llmCheckHandler := handlers.NewLLMCheckHandler(llmService, log)
	mux.Handle("/v1/llm/test", llmCheckHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Turn generation is slow by nature; write timeout would cut
		// long narrations off mid-flight.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := redisStorage.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
