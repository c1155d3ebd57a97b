//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	wsmsg "github.com/studykit/studykit/pkg/http/ws"
)

type userInfo struct {
	ID           string
	Email        string
	Password     string
	AccessToken  string
	RefreshToken string
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func registerUser(t *testing.T, baseURL, name string) userInfo {
	t.Helper()

	suffix := time.Now().UnixNano()
	email := fmt.Sprintf("%s-%d@example.com", name, suffix)
	password := "integration-pass-1"

	payload := map[string]string{
		"username": fmt.Sprintf("%s-%d", name, suffix),
		"email":    email,
		"password": password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal register payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/auth/register", baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected register response status: %d", resp.StatusCode)
	}

	var out struct {
		User struct {
			UserID string `json:"user_id"`
		} `json:"user"`
		Tokens struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode register response failed: %v", err)
	}
	if out.Tokens.AccessToken == "" {
		t.Fatalf("empty access token in register response")
	}

	return userInfo{
		ID:           out.User.UserID,
		Email:        email,
		Password:     password,
		AccessToken:  out.Tokens.AccessToken,
		RefreshToken: out.Tokens.RefreshToken,
	}
}

// createTestSpec freezes a two-question spec through POST /v1/tests
// using pre-built questions so no generation backend is needed.
func createTestSpec(t *testing.T, baseURL, accessToken string) string {
	t.Helper()

	payload := map[string]any{
		"title":         "Integration test",
		"difficulty":    "easy",
		"time_duration": 1,
		"questions": []map[string]any{
			{
				"question": "Which planet is known as the red planet?",
				"options": map[string]string{
					"A": "Mars", "B": "Venus", "C": "Jupiter", "D": "Mercury",
				},
				"correct_answer": "A",
				"difficulty":     "easy",
			},
			{
				"question": "How many continents are there?",
				"options": map[string]string{
					"A": "Five", "B": "Six", "C": "Seven", "D": "Eight",
				},
				"correct_answer": "C",
				"difficulty":     "easy",
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal create payload: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/v1/tests", baseURL), bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create test request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected create response status: %d", resp.StatusCode)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode create response failed: %v", err)
	}
	if out.ID == "" {
		t.Fatalf("empty spec id in create response")
	}
	return out.ID
}

func dialAttemptWS(t *testing.T, baseWS, accessToken string) *websocket.Conn {
	t.Helper()

	u, err := url.Parse(baseWS)
	if err != nil {
		t.Fatalf("invalid WS url: %v", err)
	}
	if accessToken != "" {
		q := u.Query()
		q.Set("token", accessToken)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	return conn
}

// waitForMessage reads until a message of the wanted type arrives,
// skipping ticks and state echoes along the way.
func waitForMessage(t *testing.T, conn *websocket.Conn, wantType string, timeout time.Duration) wsmsg.Message {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(timeout))
		var msg wsmsg.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read while waiting for %s: %v", wantType, err)
		}
		if msg.Type == wantType {
			return msg
		}
		if msg.Type == wsmsg.TypeError {
			t.Fatalf("error message while waiting for %s: %s", wantType, string(msg.Payload))
		}
	}
	t.Fatalf("timeout waiting for %s", wantType)
	return wsmsg.Message{}
}

// waitForErrorMessage reads until an error message arrives, skipping
// ticks along the way.
func waitForErrorMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) wsmsg.ErrorPayload {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(timeout))
		var msg wsmsg.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read while waiting for error: %v", err)
		}
		if msg.Type != wsmsg.TypeError {
			continue
		}
		var payload wsmsg.ErrorPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("decode error payload failed: %v", err)
		}
		return payload
	}
	t.Fatal("timeout waiting for error message")
	return wsmsg.ErrorPayload{}
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", msgType, err)
	}
	if err := conn.WriteJSON(wsmsg.Message{Type: msgType, Payload: raw}); err != nil {
		t.Fatalf("send %s failed: %v", msgType, err)
	}
}
