package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/dao-engine/pkg/chat"
)

// MockLLMService is a mock implementation of LLMService for testing
type MockLLMService struct {
	ChatFunc           func(ctx context.Context, messages []chat.ChatMessage) (string, error)
	SummarizeFunc      func(ctx context.Context, prompt string) (string, error)
	TestConnectionFunc func(ctx context.Context) error

	// Track calls for testing
	ChatCalls           []ChatCall
	SummarizeCalls      []string
	TestConnectionCalls int

	mu sync.Mutex // protects all fields above
}

type ChatCall struct {
	Messages []chat.ChatMessage
}

// Ensure MockLLMService implements LLMService interface
var _ LLMService = (*MockLLMService)(nil)

// NewMockLLMService creates a new mock LLM service
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{
		ChatCalls:      make([]ChatCall, 0),
		SummarizeCalls: make([]string, 0),
	}
}

// Chat mocks turn generation. The default reply is a well-formed turn
// envelope so engine tests exercise the happy parse path.
func (m *MockLLMService) Chat(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ChatCalls = append(m.ChatCalls, ChatCall{Messages: messages})

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, messages)
	}

	return `{"narrative":"山风拂面，万籁俱寂。","choices":["继续"],"gameOver":false,"eventArtKeyword":"mountain"}`, nil
}

// Summarize mocks memory compaction
func (m *MockLLMService) Summarize(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SummarizeCalls = append(m.SummarizeCalls, prompt)

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, prompt)
	}

	return "模拟摘要。", nil
}

// TestConnection mocks the connectivity check
func (m *MockLLMService) TestConnection(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TestConnectionCalls++

	if m.TestConnectionFunc != nil {
		return m.TestConnectionFunc(ctx)
	}
	return nil
}

// SetChatError sets up the mock to return an error on Chat
func (m *MockLLMService) SetChatError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		return "", err
	}
}

// SetChatResponse sets up the mock to return fixed raw text on Chat
func (m *MockLLMService) SetChatResponse(raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		return raw, nil
	}
}

// SetSummarizeError sets up the mock to return an error on Summarize
func (m *MockLLMService) SetSummarizeError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummarizeFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", err
	}
}

// Reset clears all call tracking
func (m *MockLLMService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatCalls = make([]ChatCall, 0)
	m.SummarizeCalls = make([]string, 0)
	m.TestConnectionCalls = 0
}

// GetChatCalls returns a copy of the Chat call tracking data
func (m *MockLLMService) GetChatCalls() []ChatCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]ChatCall, len(m.ChatCalls))
	copy(calls, m.ChatCalls)
	return calls
}
