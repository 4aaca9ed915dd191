package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/dao-engine/internal/engine"
	"github.com/jwebster45206/dao-engine/internal/services"
	"github.com/jwebster45206/dao-engine/internal/storage"
	"github.com/jwebster45206/dao-engine/pkg/game"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupHandler(t *testing.T) (*SessionsHandler, *services.MockLLMService, *storage.MockStorage) {
	t.Helper()
	llm := services.NewMockLLMService()
	store := storage.NewMockStorage()
	e := engine.New(llm, store, testLogger())
	return NewSessionsHandler(e, testLogger()), llm, store
}

func createSession(t *testing.T, h *SessionsHandler) *game.Session {
	t.Helper()
	body := bytes.NewBufferString(`{"origin":"sect"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", body)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var s game.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	return &s
}

func TestSessionsHandler_Create(t *testing.T) {
	h, _, _ := setupHandler(t)
	s := createSession(t, h)

	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.Equal(t, "修仙者", s.Character.Name)
	assert.NotEmpty(t, s.TurnLog)
}

func TestSessionsHandler_Create_Validation(t *testing.T) {
	h, _, _ := setupHandler(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing origin", `{}`, http.StatusBadRequest},
		{"unknown origin", `{"origin":"atlantis"}`, http.StatusBadRequest},
		{"malformed body", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSessionsHandler_ReadAndDelete(t *testing.T) {
	h, _, _ := setupHandler(t)
	s := createSession(t, h)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+s.ID.String(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got game.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, s.ID, got.ID)

	req = httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+s.ID.String(), nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/"+s.ID.String(), nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionsHandler_InvalidID(t *testing.T) {
	h, _, _ := setupHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/not-a-uuid", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionsHandler_Action(t *testing.T) {
	h, llm, _ := setupHandler(t)
	s := createSession(t, h)

	llm.SetChatResponse(`{"narrative":"灵气入体，修为渐长。","characterUpdate":{"cultivation":25},"choices":["继续"],"gameOver":false}`)

	body := bytes.NewBufferString(`{"action":"打坐修炼"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+s.ID.String()+"/action", body)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got game.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 25, got.Character.Cultivation)
	assert.Equal(t, "打坐修炼", got.TurnLog[len(got.TurnLog)-2].Content)
}

func TestSessionsHandler_Action_EmptyBody(t *testing.T) {
	h, _, _ := setupHandler(t)
	s := createSession(t, h)

	body := bytes.NewBufferString(`{"action":"  "}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+s.ID.String()+"/action", body)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionsHandler_Hint(t *testing.T) {
	h, _, _ := setupHandler(t)
	s := createSession(t, h)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+s.ID.String()+"/hint", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got game.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, game.RoleNotice, got.TurnLog[len(got.TurnLog)-2].Role)
}

func TestSessionsHandler_Identify(t *testing.T) {
	h, llm, _ := setupHandler(t)
	llm.SetChatResponse(`{"narrative":"你领了一柄制式铁剑。","characterUpdate":{"inventory":["铁剑"]},"choices":["继续"],"gameOver":false}`)
	s := createSession(t, h)

	llm.SetChatResponse(`{"narrative":"宝光一闪。","characterUpdate":{"itemDetails":{"铁剑":{"rank":"凡器","description":"制式铁剑。"}}},"choices":["收好"],"gameOver":false}`)

	body := bytes.NewBufferString(`{"item":"铁剑"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+s.ID.String()+"/identify", body)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got game.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Contains(t, got.Character.ItemDetails, "铁剑")

	// Appraising something the character does not carry is rejected.
	body = bytes.NewBufferString(`{"item":"屠龙宝刀"}`)
	req = httptest.NewRequest(http.MethodPost, "/v1/sessions/"+s.ID.String()+"/identify", body)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionsHandler_EndedSessionGone(t *testing.T) {
	h, llm, _ := setupHandler(t)
	s := createSession(t, h)

	llm.SetChatResponse(`{"narrative":"身死道消。","choices":[],"gameOver":true}`)
	body := bytes.NewBufferString(`{"action":"硬闯剑冢"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+s.ID.String()+"/action", body)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	body = bytes.NewBufferString(`{"action":"还魂"}`)
	req = httptest.NewRequest(http.MethodPost, "/v1/sessions/"+s.ID.String()+"/action", body)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestSessionsHandler_ExportImport(t *testing.T) {
	h, _, _ := setupHandler(t)
	s := createSession(t, h)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+s.ID.String()+"/export", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	snapshot := w.Body.Bytes()

	// A fresh backend accepts the snapshot as canonical.
	h2, _, store2 := setupHandler(t)
	req = httptest.NewRequest(http.MethodPost, "/v1/sessions/import", bytes.NewBuffer(snapshot))
	w = httptest.NewRecorder()
	h2.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	loaded, err := store2.LoadSession(context.Background(), s.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, s.TurnLog, loaded.TurnLog)
}

func TestSessionsHandler_Import_Invalid(t *testing.T) {
	h, _, _ := setupHandler(t)

	bad := game.NewSession()
	bad.TurnLog = nil
	data, err := json.Marshal(bad)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/import", bytes.NewBuffer(data))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionsHandler_MethodNotAllowed(t *testing.T) {
	h, _, _ := setupHandler(t)
	s := createSession(t, h)

	paths := []string{
		"/v1/sessions",
		"/v1/sessions/import",
		fmt.Sprintf("/v1/sessions/%s/export", s.ID),
		fmt.Sprintf("/v1/sessions/%s/action", s.ID),
	}
	for _, p := range paths {
		req := httptest.NewRequest(http.MethodPut, p, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, p)
	}
}
