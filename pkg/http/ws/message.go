package ws

import "encoding/json"

// MessageType constants for the attempt WebSocket protocol.
const (
	// Client -> Server
	TypeStartAttempt = "start_attempt"
	TypeSelectAnswer = "select_answer"
	TypeNavigate     = "navigate"
	TypeSubmit       = "submit"
	TypeEndTest      = "end_test"
	TypePing         = "ping"

	// Server -> Client
	TypeAttemptStarted = "attempt_started"
	TypeTick           = "tick"
	TypeState          = "state"
	TypeSubmitted      = "submitted"
	TypeSubmitFailed   = "submit_failed"
	TypeAttemptEnded   = "attempt_ended"
	TypeError          = "error"
	TypePong           = "pong"
)

// Navigation actions.
const (
	NavNext     = "next"
	NavPrevious = "previous"
	NavJump     = "jump"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// Client Messages (incoming)

type StartAttemptPayload struct {
	SpecID string `json:"spec_id"`
}

type SelectAnswerPayload struct {
	Label string `json:"label"`
}

type NavigatePayload struct {
	Action string `json:"action"`
	Index  int    `json:"index,omitempty"`
}

type EndTestPayload struct {
	Confirmed bool `json:"confirmed"`
}

// Server Messages (outgoing)

type AttemptStartedPayload struct {
	AttemptID         string            `json:"attempt_id"`
	Title             string            `json:"title"`
	Difficulty        string            `json:"difficulty"`
	TimeBudgetSeconds int               `json:"time_budget_seconds"`
	Questions         []AttemptQuestion `json:"questions"`
}

// AttemptQuestion is the client view of one question. The answer key
// never leaves the server on this path.
type AttemptQuestion struct {
	Position int               `json:"position"`
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
}

type TickPayload struct {
	RemainingSeconds int `json:"remaining_seconds"`
}

type StatePayload struct {
	CurrentIndex     int    `json:"current_index"`
	RemainingSeconds int    `json:"remaining_seconds"`
	AnsweredCount    int    `json:"answered_count"`
	State            string `json:"state"`
}

type SubmittedPayload struct {
	TestID         string `json:"test_id"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"total_questions"`
	Percentage     int    `json:"percentage"`
	Trigger        string `json:"trigger"`
}

type SubmitFailedPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AttemptEndedPayload struct {
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
