package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/studykit/studykit/internal/mcq"
)

type stubSubmitter struct {
	mu       sync.Mutex
	calls    int
	requests []SubmissionRequest
	delay    time.Duration
	failures int
	result   SubmissionResult
}

func (s *stubSubmitter) Submit(ctx context.Context, userID *uuid.UUID, req SubmissionRequest) (SubmissionResult, error) {
	s.mu.Lock()
	s.calls++
	s.requests = append(s.requests, req)
	fail := s.failures > 0
	if fail {
		s.failures--
	}
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		return SubmissionResult{}, assert.AnError
	}
	res := s.result
	if res.TestID == uuid.Nil {
		res.TestID = uuid.New()
	}
	return res, nil
}

func (s *stubSubmitter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testSpec(n, budgetSeconds int) mcq.TestSpec {
	questions := make([]mcq.Question, n)
	keys := []string{"A", "B", "D"}
	for i := range questions {
		questions[i] = mcq.Question{
			Text:         "question",
			Options:      mcq.Options{A: "a", B: "b", C: "c", D: "d"},
			CorrectLabel: keys[i%len(keys)],
		}
	}
	return mcq.TestSpec{
		ID:                uuid.NewString(),
		Title:             "sample",
		Difficulty:        mcq.DifficultyMedium,
		TimeBudgetSeconds: budgetSeconds,
		Questions:         questions,
	}
}

func TestControllerSelectAnswerNormalizesLabel(t *testing.T) {
	ctrl := NewController(testSpec(3, 60), nil, &stubSubmitter{}, Hooks{}, zerolog.Nop())

	assert.NoError(t, ctrl.SelectAnswer(" b "))
	label, ok := ctrl.ledger.Get(0)
	assert.True(t, ok)
	assert.Equal(t, "B", label)

	assert.Error(t, ctrl.SelectAnswer("E"))
	assert.Error(t, ctrl.SelectAnswer(""))
}

func TestControllerNavigationClamps(t *testing.T) {
	ctrl := NewController(testSpec(3, 60), nil, &stubSubmitter{}, Hooks{}, zerolog.Nop())

	assert.NoError(t, ctrl.Previous())
	assert.Equal(t, 0, ctrl.State().CurrentIndex)

	assert.NoError(t, ctrl.Next())
	assert.Equal(t, 1, ctrl.State().CurrentIndex)

	assert.NoError(t, ctrl.JumpTo(99))
	assert.Equal(t, 2, ctrl.State().CurrentIndex)

	assert.NoError(t, ctrl.Next())
	assert.Equal(t, 2, ctrl.State().CurrentIndex)

	assert.NoError(t, ctrl.JumpTo(-4))
	assert.Equal(t, 0, ctrl.State().CurrentIndex)
}

func TestControllerReanswerDoesNotAdvance(t *testing.T) {
	ctrl := NewController(testSpec(3, 60), nil, &stubSubmitter{}, Hooks{}, zerolog.Nop())

	assert.NoError(t, ctrl.SelectAnswer("A"))
	assert.NoError(t, ctrl.SelectAnswer("C"))

	snap := ctrl.State()
	assert.Equal(t, 0, snap.CurrentIndex)
	assert.Equal(t, 1, snap.AnsweredCount)

	label, _ := ctrl.ledger.Get(0)
	assert.Equal(t, "C", label)
}

func TestControllerSubmitExactlyOnce(t *testing.T) {
	sub := &stubSubmitter{}
	ctrl := NewController(testSpec(3, 60), nil, sub, Hooks{}, zerolog.Nop())

	res, err := ctrl.Submit(context.Background())
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.TestID)

	_, err = ctrl.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmissionSuppressed)
	assert.Equal(t, 1, sub.callCount())

	stored, ok := ctrl.Result()
	assert.True(t, ok)
	assert.Equal(t, res.TestID, stored.TestID)
	assert.Equal(t, StateSubmitted, ctrl.State().State)
}

func TestControllerSubmitCarriesLedgerSnapshot(t *testing.T) {
	sub := &stubSubmitter{}
	ctrl := NewController(testSpec(3, 60), nil, sub, Hooks{}, zerolog.Nop())

	assert.NoError(t, ctrl.SelectAnswer("A"))
	assert.NoError(t, ctrl.JumpTo(2))
	assert.NoError(t, ctrl.SelectAnswer("C"))

	_, err := ctrl.Submit(context.Background())
	assert.NoError(t, err)

	assert.Len(t, sub.requests, 1)
	assert.Equal(t, map[int]string{0: "A", 2: "C"}, sub.requests[0].Answers)
	assert.Len(t, sub.requests[0].Questions, 3)
}

func TestControllerSubmitExpiryRaceProducesOneRecord(t *testing.T) {
	sub := &stubSubmitter{delay: 60 * time.Millisecond}
	submitted := make(chan SubmissionResult, 2)
	ctrl := newControllerInterval(testSpec(3, 1), nil, sub, Hooks{
		OnSubmitted: func(res SubmissionResult) { submitted <- res },
	}, zerolog.Nop(), 10*time.Millisecond)
	ctrl.Start()

	// User submit enters the scoring call, then the timer expires
	// while it is still in flight. The expiry trigger must be
	// suppressed, not queued.
	res, err := ctrl.Submit(context.Background())
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.TestID)

	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, sub.callCount())
	assert.Equal(t, StateSubmitted, ctrl.State().State)
	assert.Len(t, submitted, 0)
}

func TestControllerExpiryAutoSubmits(t *testing.T) {
	sub := &stubSubmitter{}
	submitted := make(chan SubmissionResult, 1)
	ctrl := newControllerInterval(testSpec(3, 1), nil, sub, Hooks{
		OnSubmitted: func(res SubmissionResult) { submitted <- res },
	}, zerolog.Nop(), 5*time.Millisecond)

	assert.NoError(t, ctrl.SelectAnswer("A"))
	ctrl.Start()

	select {
	case res := <-submitted:
		assert.NotEqual(t, uuid.Nil, res.TestID)
	case <-time.After(time.Second):
		t.Fatal("expiry never submitted")
	}

	assert.Equal(t, 1, sub.callCount())
	assert.Equal(t, map[int]string{0: "A"}, sub.requests[0].Answers)
}

func TestControllerSubmitFailureKeepsAttemptOpen(t *testing.T) {
	sub := &stubSubmitter{failures: 1}
	ctrl := NewController(testSpec(3, 60), nil, sub, Hooks{}, zerolog.Nop())

	assert.NoError(t, ctrl.SelectAnswer("A"))

	_, err := ctrl.Submit(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSubmissionSuppressed)

	// Ledger intact, state back to Active: the user can retry.
	snap := ctrl.State()
	assert.Equal(t, StateActive, snap.State)
	assert.Equal(t, 1, snap.AnsweredCount)

	res, err := ctrl.Submit(context.Background())
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.TestID)
	assert.Equal(t, 2, sub.callCount())
}

func TestControllerEndEarlyRequiresConfirmation(t *testing.T) {
	sub := &stubSubmitter{}
	ctrl := NewController(testSpec(3, 60), nil, sub, Hooks{}, zerolog.Nop())

	assert.NoError(t, ctrl.SelectAnswer("A"))

	err := ctrl.EndEarly(false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Equal(t, StateActive, ctrl.State().State)

	assert.NoError(t, ctrl.EndEarly(true))
	assert.Equal(t, StateEnded, ctrl.State().State)
	assert.Equal(t, 0, ctrl.State().AnsweredCount)

	// Nothing reaches the scoring boundary afterwards.
	_, err = ctrl.Submit(context.Background())
	assert.ErrorIs(t, err, ErrAttemptNotActive)
	assert.ErrorIs(t, ctrl.SelectAnswer("A"), ErrAttemptNotActive)
	assert.ErrorIs(t, ctrl.EndEarly(true), ErrAttemptNotActive)
	assert.Equal(t, 0, sub.callCount())
}

func TestControllerAbandonLeavesSubmittedAlone(t *testing.T) {
	sub := &stubSubmitter{}
	ctrl := NewController(testSpec(3, 60), nil, sub, Hooks{}, zerolog.Nop())

	_, err := ctrl.Submit(context.Background())
	assert.NoError(t, err)

	ctrl.Abandon()
	assert.Equal(t, StateSubmitted, ctrl.State().State)

	_, ok := ctrl.Result()
	assert.True(t, ok)
}

func TestControllerAbandonDiscardsActiveAttempt(t *testing.T) {
	sub := &stubSubmitter{}
	ctrl := NewController(testSpec(3, 60), nil, sub, Hooks{}, zerolog.Nop())

	ctrl.Abandon()
	assert.Equal(t, StateEnded, ctrl.State().State)
	assert.Equal(t, 0, sub.callCount())
}
