//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	httperrors "github.com/studykit/studykit/pkg/http/errors"
	wsmsg "github.com/studykit/studykit/pkg/http/ws"
)

// TestAttemptFlow walks the whole timed-attempt path: freeze a spec,
// run an attempt over WebSocket, submit, then read the result back
// over HTTP.
func TestAttemptFlow(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	baseWS := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/attempts")

	user := registerUser(t, baseURL, "attemptflow")
	specID := createTestSpec(t, baseURL, user.AccessToken)

	conn := dialAttemptWS(t, baseWS, user.AccessToken)
	defer conn.Close()

	sendMessage(t, conn, wsmsg.TypeStartAttempt, wsmsg.StartAttemptPayload{SpecID: specID})

	started := waitForMessage(t, conn, wsmsg.TypeAttemptStarted, 5*time.Second)
	var startedPayload wsmsg.AttemptStartedPayload
	if err := json.Unmarshal(started.Payload, &startedPayload); err != nil {
		t.Fatalf("decode attempt_started payload failed: %v", err)
	}
	if startedPayload.AttemptID == "" {
		t.Fatal("empty attempt id")
	}
	if len(startedPayload.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(startedPayload.Questions))
	}

	// The answer key must never reach the client on this path.
	var raw map[string]any
	if err := json.Unmarshal(started.Payload, &raw); err != nil {
		t.Fatalf("decode raw attempt_started failed: %v", err)
	}
	questions, _ := raw["questions"].([]any)
	for i, q := range questions {
		qm, _ := q.(map[string]any)
		if _, leaked := qm["correct_answer"]; leaked {
			t.Fatalf("question %d leaked the answer key", i)
		}
	}

	// Answer the first question correctly, the second wrong.
	sendMessage(t, conn, wsmsg.TypeSelectAnswer, wsmsg.SelectAnswerPayload{Label: "A"})
	waitForMessage(t, conn, wsmsg.TypeState, 5*time.Second)

	sendMessage(t, conn, wsmsg.TypeNavigate, wsmsg.NavigatePayload{Action: wsmsg.NavNext})
	waitForMessage(t, conn, wsmsg.TypeState, 5*time.Second)

	sendMessage(t, conn, wsmsg.TypeSelectAnswer, wsmsg.SelectAnswerPayload{Label: "B"})
	waitForMessage(t, conn, wsmsg.TypeState, 5*time.Second)

	sendMessage(t, conn, wsmsg.TypeSubmit, struct{}{})
	submitted := waitForMessage(t, conn, wsmsg.TypeSubmitted, 10*time.Second)

	var submittedPayload wsmsg.SubmittedPayload
	if err := json.Unmarshal(submitted.Payload, &submittedPayload); err != nil {
		t.Fatalf("decode submitted payload failed: %v", err)
	}
	if submittedPayload.Trigger != "user" {
		t.Fatalf("expected user trigger, got %s", submittedPayload.Trigger)
	}
	if submittedPayload.Score != 1 || submittedPayload.TotalQuestions != 2 {
		t.Fatalf("unexpected score %d/%d", submittedPayload.Score, submittedPayload.TotalQuestions)
	}
	if submittedPayload.Percentage != 50 {
		t.Fatalf("expected 50%%, got %d%%", submittedPayload.Percentage)
	}

	// The scored record is readable over HTTP.
	resp, err := http.Get(fmt.Sprintf("%s/v1/tests/%s", baseURL, submittedPayload.TestID))
	if err != nil {
		t.Fatalf("result request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected result status: %d", resp.StatusCode)
	}

	var view struct {
		Score      int `json:"score"`
		Percentage int `json:"percentage"`
		Questions  []struct {
			CorrectLabel  string  `json:"correct_answer"`
			SelectedLabel *string `json:"selected_answer"`
			IsCorrect     bool    `json:"is_correct"`
		} `json:"questions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode result view failed: %v", err)
	}
	if view.Score != 1 || view.Percentage != 50 {
		t.Fatalf("result mismatch: score %d, percentage %d", view.Score, view.Percentage)
	}
	if len(view.Questions) != 2 {
		t.Fatalf("expected 2 result questions, got %d", len(view.Questions))
	}
	if !view.Questions[0].IsCorrect || view.Questions[1].IsCorrect {
		t.Fatal("per-question correctness mismatch")
	}

	// History and dashboard pick up the attempt.
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/v1/tests", baseURL), nil)
	req.Header.Set("Authorization", "Bearer "+user.AccessToken)
	histResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("history request failed: %v", err)
	}
	defer histResp.Body.Close()

	if histResp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected history status: %d", histResp.StatusCode)
	}

	var hist struct {
		History []struct {
			TestID string `json:"test_id"`
		} `json:"history"`
	}
	if err := json.NewDecoder(histResp.Body).Decode(&hist); err != nil {
		t.Fatalf("decode history failed: %v", err)
	}
	if len(hist.History) == 0 {
		t.Fatal("history should contain the submitted attempt")
	}
}

// TestExpirySubmission lets the clock run out and expects the server
// to auto-submit.
func TestExpirySubmission(t *testing.T) {
	if testing.Short() {
		t.Skip("expiry test waits out the full time budget")
	}

	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	baseWS := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/attempts")

	user := registerUser(t, baseURL, "expiry")
	specID := createTestSpec(t, baseURL, user.AccessToken)

	conn := dialAttemptWS(t, baseWS, user.AccessToken)
	defer conn.Close()

	sendMessage(t, conn, wsmsg.TypeStartAttempt, wsmsg.StartAttemptPayload{SpecID: specID})
	waitForMessage(t, conn, wsmsg.TypeAttemptStarted, 5*time.Second)

	sendMessage(t, conn, wsmsg.TypeSelectAnswer, wsmsg.SelectAnswerPayload{Label: "A"})
	waitForMessage(t, conn, wsmsg.TypeState, 5*time.Second)

	// The helper spec has a one-minute budget.
	submitted := waitForMessage(t, conn, wsmsg.TypeSubmitted, 90*time.Second)

	var payload wsmsg.SubmittedPayload
	if err := json.Unmarshal(submitted.Payload, &payload); err != nil {
		t.Fatalf("decode submitted payload failed: %v", err)
	}
	if payload.Trigger != "timer" {
		t.Fatalf("expected timer trigger, got %s", payload.Trigger)
	}
	if payload.Score != 1 {
		t.Fatalf("expected answered-so-far score 1, got %d", payload.Score)
	}
}

func TestEndTestRequiresConfirmation(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	baseWS := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/attempts")

	user := registerUser(t, baseURL, "endtest")
	specID := createTestSpec(t, baseURL, user.AccessToken)

	conn := dialAttemptWS(t, baseWS, user.AccessToken)
	defer conn.Close()

	sendMessage(t, conn, wsmsg.TypeStartAttempt, wsmsg.StartAttemptPayload{SpecID: specID})
	waitForMessage(t, conn, wsmsg.TypeAttemptStarted, 5*time.Second)

	sendMessage(t, conn, wsmsg.TypeEndTest, wsmsg.EndTestPayload{Confirmed: false})
	errMsg := waitForErrorMessage(t, conn, 5*time.Second)
	if errMsg.Code != httperrors.ErrCodeConfirmRequired {
		t.Fatalf("expected confirm_required, got %s", errMsg.Code)
	}

	sendMessage(t, conn, wsmsg.TypeEndTest, wsmsg.EndTestPayload{Confirmed: true})
	ended := waitForMessage(t, conn, wsmsg.TypeAttemptEnded, 5*time.Second)

	var endedPayload wsmsg.AttemptEndedPayload
	if err := json.Unmarshal(ended.Payload, &endedPayload); err != nil {
		t.Fatalf("decode attempt_ended payload failed: %v", err)
	}
	if endedPayload.Reason != "ended_by_user" {
		t.Fatalf("unexpected end reason: %s", endedPayload.Reason)
	}
}
