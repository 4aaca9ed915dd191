package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/dao-engine/pkg/chat"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func completionResponse(content string) string {
	resp := map[string]interface{}{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "test-model",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]string{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestOpenAIService_Chat(t *testing.T) {
	var gotReq openAIChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, completionResponse(`{"narrative":"风起。","choices":["继续"],"gameOver":false}`))
	}))
	defer server.Close()

	svc := NewOpenAIService("test-key", server.URL, "test-model", "", testLogger())
	content, err := svc.Chat(context.Background(), []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: "system"},
		{Role: chat.ChatRoleUser, Content: "打坐"},
	})
	require.NoError(t, err)
	assert.Contains(t, content, "风起。")

	assert.Equal(t, "test-model", gotReq.Model)
	assert.Equal(t, DefaultChatTemperature, gotReq.Temperature)
	assert.Equal(t, DefaultChatMaxTokens, gotReq.MaxTokens)
	assert.False(t, gotReq.Stream)
	require.Len(t, gotReq.Messages, 2)
}

func TestOpenAIService_Summarize_UsesSummaryModel(t *testing.T) {
	var gotReq openAIChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, completionResponse("摘要文本"))
	}))
	defer server.Close()

	svc := NewOpenAIService("test-key", server.URL, "big-model", "small-model", testLogger())
	summary, err := svc.Summarize(context.Background(), "总结这段故事")
	require.NoError(t, err)
	assert.Equal(t, "摘要文本", summary)

	assert.Equal(t, "small-model", gotReq.Model)
	assert.Equal(t, DefaultSummaryTemperature, gotReq.Temperature)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, chat.ChatRoleUser, gotReq.Messages[0].Role)
}

func TestOpenAIService_Endpoint(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{"bare base", "https://api.example.com/v1", "https://api.example.com/v1/chat/completions"},
		{"trailing slash", "https://api.example.com/v1/", "https://api.example.com/v1/chat/completions"},
		{"full path given", "https://api.example.com/custom/chat/completions", "https://api.example.com/custom/chat/completions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewOpenAIService("k", tt.baseURL, "m", "", testLogger())
			assert.Equal(t, tt.want, svc.endpoint())
		})
	}
}

func TestOpenAIService_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided"}}`)
	}))
	defer server.Close()

	svc := NewOpenAIService("bad-key", server.URL, "test-model", "", testLogger())
	_, err := svc.Chat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestOpenAIService_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"x","choices":[]}`)
	}))
	defer server.Close()

	svc := NewOpenAIService("k", server.URL, "m", "", testLogger())
	_, err := svc.Chat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestOpenAIService_TestConnection(t *testing.T) {
	var gotReq openAIChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, completionResponse("OK"))
	}))
	defer server.Close()

	svc := NewOpenAIService("test-key", server.URL, "test-model", "", testLogger())
	require.NoError(t, svc.TestConnection(context.Background()))
	assert.Equal(t, connectionTestMaxTokens, gotReq.MaxTokens)

	noKey := NewOpenAIService("", server.URL, "test-model", "", testLogger())
	assert.Error(t, noKey.TestConnection(context.Background()))
}
