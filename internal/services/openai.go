package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/dao-engine/pkg/chat"
)

const (
	// Turn generation runs hot; the narrative should surprise.
	DefaultChatTemperature = 0.8
	DefaultChatMaxTokens   = 4000

	// Summaries should be stable retellings, not fresh prose.
	DefaultSummaryTemperature = 0.2
	DefaultSummaryMaxTokens   = 1000

	connectionTestMaxTokens = 5
)

// OpenAIService implements LLMService against any OpenAI-compatible
// chat completions endpoint: OpenAI, DeepSeek, Moonshot, Gemini's
// compat layer, local Ollama.
type OpenAIService struct {
	apiKey       string
	baseURL      string
	modelName    string
	summaryModel string
	httpClient   *http.Client
	logger       *slog.Logger
}

// Ensure OpenAIService implements LLMService interface
var _ LLMService = (*OpenAIService)(nil)

type openAIChatRequest struct {
	Model       string             `json:"model"`
	Messages    []chat.ChatMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	Stream      bool               `json:"stream"`
}

type openAIChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type openAIChatResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []openAIChatChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewOpenAIService creates a new OpenAI-compatible service.
func NewOpenAIService(apiKey, baseURL, modelName, summaryModel string, logger *slog.Logger) *OpenAIService {
	if summaryModel == "" {
		summaryModel = modelName
	}
	return &OpenAIService{
		apiKey:       apiKey,
		baseURL:      baseURL,
		modelName:    modelName,
		summaryModel: summaryModel,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// endpoint resolves the chat completions URL. Base URLs that already
// point at a completions path are used as-is, so providers with
// non-standard paths keep working.
func (s *OpenAIService) endpoint() string {
	if strings.Contains(s.baseURL, "chat/completions") {
		return s.baseURL
	}
	return strings.TrimRight(strings.TrimSpace(s.baseURL), "/") + "/chat/completions"
}

// chatCompletion makes one completion request with the specified model.
func (s *OpenAIService) chatCompletion(ctx context.Context, messages []chat.ChatMessage, model string, temperature float64, maxTokens int) (string, error) {
	chatReq := openAIChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      false,
	}

	reqBody, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint(), bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, errorDetail(body))
	}

	var chatResp openAIChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Chat generates a turn of narration.
func (s *OpenAIService) Chat(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	return s.chatCompletion(ctx, messages, s.modelName, DefaultChatTemperature, DefaultChatMaxTokens)
}

// Summarize runs a compaction prompt against the summary model.
func (s *OpenAIService) Summarize(ctx context.Context, prompt string) (string, error) {
	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: prompt},
	}
	return s.chatCompletion(ctx, messages, s.summaryModel, DefaultSummaryTemperature, DefaultSummaryMaxTokens)
}

// TestConnection verifies the endpoint and credentials with a minimal
// round trip against the turn model.
func (s *OpenAIService) TestConnection(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("API key is required")
	}
	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: `Say "OK"`},
	}
	_, err := s.chatCompletion(ctx, messages, s.modelName, 0, connectionTestMaxTokens)
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// errorDetail extracts a provider error message from a non-200 body,
// falling back to a truncated raw body.
func errorDetail(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	text := string(body)
	if len(text) > 100 {
		text = text[:100]
	}
	return text
}
