package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/dao-engine/pkg/game"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// decodeSession reads a session from an API response, translating error
// bodies into errors.
func decodeSession(resp *http.Response, wantStatus int) (*game.Session, error) {
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("%s", errorResp.Error)
	}

	var s game.Session
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &s, nil
}

func listOrigins(client *http.Client, baseURL string) ([]game.Origin, error) {
	resp, err := client.Get(baseURL + "/v1/origins")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var origins []game.Origin
	if err := json.NewDecoder(resp.Body).Decode(&origins); err != nil {
		return nil, err
	}
	return origins, nil
}

func createSession(client *http.Client, baseURL, originID, customPrompt string) (*game.Session, error) {
	reqBody := map[string]string{
		"origin": originID,
	}
	if customPrompt != "" {
		reqBody["custom_prompt"] = customPrompt
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/sessions",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return decodeSession(resp, http.StatusCreated)
}

func getSession(client *http.Client, baseURL string, id uuid.UUID) (*game.Session, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/sessions/%s", baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return decodeSession(resp, http.StatusOK)
}

// postTurn hits one of the turn verbs (action, hint, identify) and
// returns the updated session.
func postTurn(client *http.Client, baseURL string, id uuid.UUID, verb string, reqBody interface{}) (*game.Session, error) {
	var buf bytes.Buffer
	if reqBody != nil {
		if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/sessions/%s/%s", baseURL, id, verb),
		"application/json",
		&buf,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return decodeSession(resp, http.StatusOK)
}

func sendAction(client *http.Client, baseURL string, id uuid.UUID, action string) (*game.Session, error) {
	return postTurn(client, baseURL, id, "action", map[string]string{"action": action})
}

func sendHint(client *http.Client, baseURL string, id uuid.UUID) (*game.Session, error) {
	return postTurn(client, baseURL, id, "hint", nil)
}

func sendIdentify(client *http.Client, baseURL string, id uuid.UUID, item string) (*game.Session, error) {
	return postTurn(client, baseURL, id, "identify", map[string]string{"item": item})
}
