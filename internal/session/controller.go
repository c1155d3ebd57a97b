package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/studykit/studykit/internal/mcq"
	"github.com/studykit/studykit/internal/metrics"
)

const expirySubmitTimeout = 30 * time.Second

// Controller owns one attempt: the current-question pointer, the
// answer ledger and the session clock. Timer ticks and transport
// commands are serialized through its mutex, so the exactly-once
// submission guard is evaluated synchronously with event delivery:
// no two submission triggers can both observe the Active state.
type Controller struct {
	spec      mcq.TestSpec
	userID    *uuid.UUID
	submitter Submitter
	hooks     Hooks
	logger    zerolog.Logger

	mu      sync.Mutex
	current int
	ledger  *AnswerLedger
	state   string
	clock   *Clock
	result  *SubmissionResult
}

// NewController builds a controller for one attempt. The spec must
// carry at least one question; the caller validates that at the
// creation boundary.
func NewController(spec mcq.TestSpec, userID *uuid.UUID, submitter Submitter, hooks Hooks, logger zerolog.Logger) *Controller {
	return &Controller{
		spec:      spec,
		userID:    userID,
		submitter: submitter,
		hooks:     hooks,
		logger:    logger.With().Str("component", "session_controller").Logger(),
		ledger:    NewLedger(),
		state:     StateActive,
		clock:     NewClock(spec.TimeBudgetSeconds),
	}
}

// newControllerInterval is the test seam for fast clocks.
func newControllerInterval(spec mcq.TestSpec, userID *uuid.UUID, submitter Submitter, hooks Hooks, logger zerolog.Logger, tick time.Duration) *Controller {
	c := NewController(spec, userID, submitter, hooks, logger)
	c.clock = NewClockInterval(spec.TimeBudgetSeconds, tick)
	return c
}

// Start begins the countdown. Expiry funnels into the same guarded
// submission path as a user submit.
func (c *Controller) Start() {
	metrics.AttemptsStarted.Inc()
	c.clock.Start(c.onTick, c.onExpiry)
}

// Spec returns the immutable test spec for this attempt.
func (c *Controller) Spec() mcq.TestSpec {
	return c.spec
}

// SelectAnswer records a label for the current question. It does not
// advance the pointer. Re-answering overwrites the prior entry.
func (c *Controller) SelectAnswer(label string) error {
	normalized := mcq.NormalizeLabel(label)
	if !mcq.ValidLabel(normalized) {
		return fmt.Errorf("invalid option label %q", label)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return ErrAttemptNotActive
	}
	c.ledger.Set(c.current, normalized)
	return nil
}

// Next moves to the following question; a no-op at the last one.
func (c *Controller) Next() error {
	return c.jump(func(cur int) int { return cur + 1 })
}

// Previous moves to the prior question; a no-op at the first one.
func (c *Controller) Previous() error {
	return c.jump(func(cur int) int { return cur - 1 })
}

// JumpTo moves directly to index, clamped to the question range.
func (c *Controller) JumpTo(index int) error {
	return c.jump(func(int) int { return index })
}

func (c *Controller) jump(next func(cur int) int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return ErrAttemptNotActive
	}
	idx := next(c.current)
	if idx < 0 {
		idx = 0
	}
	if max := len(c.spec.Questions) - 1; idx > max {
		idx = max
	}
	c.current = idx
	return nil
}

// EndEarly abandons the attempt, discarding the ledger without ever
// contacting the scoring boundary. The data loss is irreversible, so
// the transport must pass confirmed=true collected in a second step.
func (c *Controller) EndEarly(confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return ErrAttemptNotActive
	}
	c.state = StateEnded
	c.ledger = NewLedger()
	c.mu.Unlock()

	c.clock.Stop()
	c.logger.Info().Str("spec_id", c.spec.ID).Msg("attempt ended early, answers discarded")
	return nil
}

// Submit is the user-initiated submission trigger.
func (c *Controller) Submit(ctx context.Context) (SubmissionResult, error) {
	return c.attemptSubmission(ctx, TriggerUser)
}

// Result returns the submission result once the attempt is Submitted.
func (c *Controller) Result() (SubmissionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return SubmissionResult{}, false
	}
	return *c.result, true
}

// State returns a read-only snapshot for rendering.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		CurrentIndex:     c.current,
		RemainingSeconds: c.clock.Remaining(),
		AnsweredCount:    c.ledger.AnsweredCount(),
		State:            c.state,
	}
}

func (c *Controller) onTick(remaining int) {
	c.mu.Lock()
	live := c.state == StateActive || c.state == StateSubmitting
	c.mu.Unlock()
	if live && c.hooks.OnTick != nil {
		c.hooks.OnTick(remaining)
	}
}

func (c *Controller) onExpiry() {
	ctx, cancel := context.WithTimeout(context.Background(), expirySubmitTimeout)
	defer cancel()

	res, err := c.attemptSubmission(ctx, TriggerExpiry)
	if err != nil {
		if err == ErrSubmissionSuppressed {
			return
		}
		c.logger.Warn().Err(err).Str("spec_id", c.spec.ID).Msg("auto submit failed")
		if c.hooks.OnSubmitFailed != nil {
			c.hooks.OnSubmitFailed(err)
		}
		return
	}
	if c.hooks.OnSubmitted != nil {
		c.hooks.OnSubmitted(res)
	}
}

// attemptSubmission is the single submission path shared by timer
// expiry and user submit: at most once concurrently, at most once
// successfully. Whichever trigger arrives first wins; the other gets
// ErrSubmissionSuppressed and no second TestRecord is ever created.
func (c *Controller) attemptSubmission(ctx context.Context, trigger string) (SubmissionResult, error) {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting, StateSubmitted:
		c.mu.Unlock()
		metrics.SubmissionsSuppressed.Inc()
		return SubmissionResult{}, ErrSubmissionSuppressed
	case StateEnded:
		c.mu.Unlock()
		return SubmissionResult{}, ErrAttemptNotActive
	}
	c.state = StateSubmitting
	answers := c.ledger.Snapshot()
	c.mu.Unlock()

	req := SubmissionRequest{
		Title:             c.spec.Title,
		Difficulty:        c.spec.Difficulty,
		TimeBudgetSeconds: c.spec.TimeBudgetSeconds,
		Questions:         c.spec.Questions,
		Answers:           answers,
	}

	res, err := c.submitter.Submit(ctx, c.userID, req)

	c.mu.Lock()
	if err != nil {
		// Back to Active with the ledger intact so the user can retry.
		// The clock keeps whatever time it had: no refund.
		c.state = StateActive
		c.mu.Unlock()
		metrics.SubmissionFailures.Inc()
		return SubmissionResult{}, fmt.Errorf("submit attempt: %w", err)
	}
	c.state = StateSubmitted
	c.result = &res
	c.mu.Unlock()

	c.clock.Stop()
	metrics.SubmissionsTotal.WithLabelValues(trigger).Inc()
	c.logger.Info().
		Str("spec_id", c.spec.ID).
		Str("trigger", trigger).
		Str("test_id", res.TestID.String()).
		Int("score", res.Score).
		Int("percentage", res.Percentage).
		Msg("attempt submitted")
	return res, nil
}

// Abandon releases the attempt without confirmation semantics; used
// when the transport connection drops. A submitted attempt is left
// untouched.
func (c *Controller) Abandon() {
	c.mu.Lock()
	if c.state == StateSubmitted {
		c.mu.Unlock()
		return
	}
	c.state = StateEnded
	c.mu.Unlock()
	c.clock.Stop()
}
