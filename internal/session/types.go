package session

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/studykit/studykit/internal/mcq"
)

// Attempt lifecycle states.
const (
	StateActive     = "active"
	StateSubmitting = "submitting"
	StateSubmitted  = "submitted"
	StateEnded      = "ended"
)

// Submission triggers, for logging and metrics.
const (
	TriggerUser   = "user"
	TriggerExpiry = "timer"
)

var (
	// ErrSubmissionSuppressed marks the loser of a submit/expiry race.
	// Callers treat it as a silent no-op; it is never user-visible.
	ErrSubmissionSuppressed = errors.New("submission already in progress or completed")

	// ErrAttemptNotActive rejects mutations outside the Active state.
	ErrAttemptNotActive = errors.New("attempt is not active")

	// ErrConfirmationRequired guards EndEarly: discarding an attempt is
	// irreversible and needs the explicit second confirmation step.
	ErrConfirmationRequired = errors.New("ending the attempt requires confirmation")
)

// SubmissionRequest is the payload sent to the scoring boundary. The
// correct labels travel embedded in the questions; the scoring side
// never needs to have stored the generated set. This trusts the client
// path not to tamper with the key, an accepted integrity gap.
type SubmissionRequest struct {
	Title             string         `json:"title"`
	Difficulty        string         `json:"difficulty"`
	TimeBudgetSeconds int            `json:"time_budget_seconds"`
	Questions         []mcq.Question `json:"questions"`
	Answers           map[int]string `json:"answers"`
}

// SubmissionResult is the scoring boundary's success response. TestID
// is the only handle needed to retrieve the full result later.
type SubmissionResult struct {
	TestID         uuid.UUID `json:"test_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     int       `json:"percentage"`
}

// Submitter is the scoring boundary consumed by the controller. Errors
// are treated as retryable transport failures.
type Submitter interface {
	Submit(ctx context.Context, userID *uuid.UUID, req SubmissionRequest) (SubmissionResult, error)
}

// Hooks let the transport layer observe controller-driven events, in
// particular ticks and timer-triggered submissions that happen without
// a client command. All hooks are optional.
type Hooks struct {
	OnTick         func(remaining int)
	OnSubmitted    func(res SubmissionResult)
	OnSubmitFailed func(err error)
}

// Snapshot is a read-only view of controller state for rendering.
type Snapshot struct {
	CurrentIndex     int    `json:"current_index"`
	RemainingSeconds int    `json:"remaining_seconds"`
	AnsweredCount    int    `json:"answered_count"`
	State            string `json:"state"`
}
