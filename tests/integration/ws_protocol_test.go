//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	httperrors "github.com/studykit/studykit/pkg/http/errors"
	wsmsg "github.com/studykit/studykit/pkg/http/ws"
)

func TestWebSocketAuthentication(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	baseWS := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/attempts")

	// Anonymous connections are allowed: attempts work without an
	// account, the record just stays unowned.
	anon := dialAttemptWS(t, baseWS, "")
	anon.Close()

	// An invalid token is rejected outright.
	u, err := url.Parse(baseWS)
	if err != nil {
		t.Fatalf("invalid WS url: %v", err)
	}
	q := u.Query()
	q.Set("token", "invalid.token.here")
	u.RawQuery = q.Encode()

	_, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err == nil {
		t.Fatal("expected connection to fail with invalid token")
	}
	if resp != nil && resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	// A valid token connects.
	user := registerUser(t, baseURL, "wsauth")
	conn := dialAttemptWS(t, baseWS, user.AccessToken)
	defer conn.Close()
}

func TestUnknownMessageType(t *testing.T) {
	baseWS := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/attempts")

	conn := dialAttemptWS(t, baseWS, "")
	defer conn.Close()

	msg := wsmsg.Message{
		Type:    "definitely_not_a_message_type",
		Payload: json.RawMessage(`{}`),
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("failed to send message: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var response wsmsg.Message
	if err := conn.ReadJSON(&response); err != nil {
		t.Fatalf("read response failed: %v", err)
	}
	if response.Type != wsmsg.TypeError {
		t.Fatalf("expected error message, got %s", response.Type)
	}

	var payload wsmsg.ErrorPayload
	if err := json.Unmarshal(response.Payload, &payload); err != nil {
		t.Fatalf("decode error payload failed: %v", err)
	}
	if payload.Code != httperrors.ErrCodeUnknownMessageType {
		t.Fatalf("unexpected error code: %s", payload.Code)
	}
}

func TestStartAttemptUnknownSpec(t *testing.T) {
	baseWS := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/attempts")

	conn := dialAttemptWS(t, baseWS, "")
	defer conn.Close()

	sendMessage(t, conn, wsmsg.TypeStartAttempt, wsmsg.StartAttemptPayload{
		SpecID: "00000000-0000-0000-0000-000000000000",
	})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var response wsmsg.Message
	if err := conn.ReadJSON(&response); err != nil {
		t.Fatalf("read response failed: %v", err)
	}
	if response.Type != wsmsg.TypeError {
		t.Fatalf("expected error message, got %s", response.Type)
	}

	var payload wsmsg.ErrorPayload
	if err := json.Unmarshal(response.Payload, &payload); err != nil {
		t.Fatalf("decode error payload failed: %v", err)
	}
	if payload.Code != httperrors.ErrCodeSpecNotFound {
		t.Fatalf("unexpected error code: %s", payload.Code)
	}
}

func TestInvalidStartPayload(t *testing.T) {
	baseWS := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/attempts")

	conn := dialAttemptWS(t, baseWS, "")
	defer conn.Close()

	// spec_id has the wrong type, so the payload fails to decode.
	msg := wsmsg.Message{
		Type:    wsmsg.TypeStartAttempt,
		Payload: json.RawMessage(`{"spec_id": 12345}`),
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("failed to send message: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var response wsmsg.Message
	if err := conn.ReadJSON(&response); err != nil {
		t.Fatalf("read response failed: %v", err)
	}
	if response.Type != wsmsg.TypeError {
		t.Fatalf("expected error message, got %s", response.Type)
	}
}
