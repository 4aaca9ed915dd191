package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jwebster45206/dao-engine/pkg/game"
)

type ConsoleConfig struct {
	APIBaseURL string
	Timeout    time.Duration
}

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		// Turn generation regularly takes a minute on slower providers.
		Timeout: 3 * time.Minute,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	s, err := chooseSession(client, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(cfg, client, s),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// chooseSession either resumes an existing session by ID or starts a new
// game from one of the listed origins.
func chooseSession(client *http.Client, cfg *ConsoleConfig) (*game.Session, error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Resume a session? Paste its ID, or press Enter for a new game: ")
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line != "" {
		id, err := uuid.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("invalid session ID: %w", err)
		}
		return getSession(client, cfg.APIBaseURL, id)
	}

	origins, err := listOrigins(client, cfg.APIBaseURL)
	if err != nil || len(origins) == 0 {
		return nil, fmt.Errorf("failed to list origins: %w", err)
	}

	fmt.Println("\n选择出生地:")
	for i, o := range origins {
		fmt.Printf("  %d - %s\n      %s\n", i+1, o.Name, o.Bonus)
	}
	fmt.Print("\nSelect an origin by number: ")

	var choice int
	if _, err := fmt.Fscanf(reader, "%d\n", &choice); err != nil || choice < 1 || choice > len(origins) {
		return nil, fmt.Errorf("invalid selection")
	}
	origin := origins[choice-1]

	customPrompt := ""
	if origin.ID == game.OriginCustom {
		fmt.Print("描述你的出生设定 (留空则随机): ")
		customPrompt, _ = reader.ReadString('\n')
		customPrompt = strings.TrimSpace(customPrompt)
	}

	fmt.Println("\n正在降临...")
	return createSession(client, cfg.APIBaseURL, origin.ID, customPrompt)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
