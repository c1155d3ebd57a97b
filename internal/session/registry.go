package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/studykit/studykit/internal/mcq"
)

// Registry tracks live attempt controllers. Each controller is owned
// by exactly one attempt; no two attempts ever share a controller or
// ledger.
type Registry struct {
	mu          sync.Mutex
	controllers map[uuid.UUID]*Controller
	submitter   Submitter
	logger      zerolog.Logger
}

// NewRegistry creates an empty attempt registry.
func NewRegistry(submitter Submitter, logger zerolog.Logger) *Registry {
	return &Registry{
		controllers: make(map[uuid.UUID]*Controller),
		submitter:   submitter,
		logger:      logger,
	}
}

// Start creates and starts a controller for a fresh attempt and
// returns its ID.
func (r *Registry) Start(spec mcq.TestSpec, userID *uuid.UUID, hooks Hooks) (uuid.UUID, *Controller) {
	attemptID := uuid.New()
	ctrl := NewController(spec, userID, r.submitter, hooks, r.logger)

	r.mu.Lock()
	r.controllers[attemptID] = ctrl
	r.mu.Unlock()

	ctrl.Start()
	r.logger.Info().
		Str("attempt_id", attemptID.String()).
		Str("spec_id", spec.ID).
		Int("questions", len(spec.Questions)).
		Int("budget_seconds", spec.TimeBudgetSeconds).
		Msg("attempt started")
	return attemptID, ctrl
}

// Get returns the controller for an attempt, if it is still live.
func (r *Registry) Get(attemptID uuid.UUID) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctrl, ok := r.controllers[attemptID]
	return ctrl, ok
}

// Release removes an attempt and abandons it if it never submitted.
// Called when the owning connection goes away: the time budget is not
// persisted, so a reconnect starts a fresh attempt with the full
// budget.
func (r *Registry) Release(attemptID uuid.UUID) {
	r.mu.Lock()
	ctrl, ok := r.controllers[attemptID]
	delete(r.controllers, attemptID)
	r.mu.Unlock()

	if ok {
		ctrl.Abandon()
	}
}

// Live returns the number of tracked attempts.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}
