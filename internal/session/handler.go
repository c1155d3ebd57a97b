package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/studykit/studykit/internal/auth"
	"github.com/studykit/studykit/internal/mcq"
	httperrors "github.com/studykit/studykit/pkg/http/errors"
	ws "github.com/studykit/studykit/pkg/http/ws"
)

// Handler routes attempt WebSocket messages to the controller. One
// connection drives at most one attempt; a disconnect abandons it.
type Handler struct {
	registry *Registry
	specs    *SpecStore
	authSvc  *auth.Service
	logger   zerolog.Logger
}

// NewHandler creates the attempt WebSocket handler.
func NewHandler(registry *Registry, specs *SpecStore, authSvc *auth.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		registry: registry,
		specs:    specs,
		authSvc:  authSvc,
		logger:   logger.With().Str("component", "attempt_ws").Logger(),
	}
}

// HandleConnection processes one upgraded WebSocket connection. userID
// is nil for anonymous attempts.
func (h *Handler) HandleConnection(conn *websocket.Conn, userID *uuid.UUID) {
	wsConn := ws.NewConnection(conn, h.logger)
	sess := &wsSession{handler: h, conn: wsConn, userID: userID}

	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		return sess.handleMessage(msg)
	})

	sess.teardown()
	wsConn.Close()
}

// wsSession is the per-connection attempt state.
type wsSession struct {
	handler *Handler
	conn    *ws.Connection
	userID  *uuid.UUID

	mu        sync.Mutex
	attemptID uuid.UUID
	ctrl      *Controller
}

func (s *wsSession) handleMessage(msg ws.Message) error {
	switch msg.Type {
	case ws.TypeStartAttempt:
		return s.handleStart(msg.Payload)
	case ws.TypeSelectAnswer:
		return s.handleSelectAnswer(msg.Payload)
	case ws.TypeNavigate:
		return s.handleNavigate(msg.Payload)
	case ws.TypeSubmit:
		return s.handleSubmit()
	case ws.TypeEndTest:
		return s.handleEndTest(msg.Payload)
	case ws.TypePing:
		return s.conn.Send(ws.Message{Type: ws.TypePong})
	default:
		return s.sendError(httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (s *wsSession) handleStart(payload json.RawMessage) error {
	var req ws.StartAttemptPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.SpecID == "" {
		return s.sendError(httperrors.ErrCodeInvalidPayload, "Invalid start_attempt payload")
	}

	s.mu.Lock()
	if s.ctrl != nil {
		s.mu.Unlock()
		return s.sendError(httperrors.ErrCodeInvalidRequest, "An attempt is already running on this connection")
	}
	s.mu.Unlock()

	spec, err := s.handler.specs.Get(context.Background(), req.SpecID)
	if err != nil {
		s.handler.logger.Error().Err(err).Str("spec_id", req.SpecID).Msg("spec store read failed")
		return s.sendError(httperrors.ErrCodeInternalError, "Could not load test")
	}
	if spec == nil {
		return s.sendError(httperrors.ErrCodeSpecNotFound, "Test not found or expired")
	}

	attemptID, ctrl := s.handler.registry.Start(*spec, s.userID, Hooks{
		OnTick: func(remaining int) {
			s.send(ws.TypeTick, ws.TickPayload{RemainingSeconds: remaining})
		},
		OnSubmitted: func(res SubmissionResult) {
			s.send(ws.TypeSubmitted, submittedPayload(res, TriggerExpiry))
		},
		OnSubmitFailed: func(err error) {
			s.send(ws.TypeSubmitFailed, ws.SubmitFailedPayload{
				Code:    httperrors.ErrCodeSubmitFailed,
				Message: "Automatic submission failed; the attempt stays open for retry",
			})
		},
	})

	s.mu.Lock()
	s.attemptID = attemptID
	s.ctrl = ctrl
	s.mu.Unlock()

	return s.send(ws.TypeAttemptStarted, ws.AttemptStartedPayload{
		AttemptID:         attemptID.String(),
		Title:             spec.Title,
		Difficulty:        spec.Difficulty,
		TimeBudgetSeconds: spec.TimeBudgetSeconds,
		Questions:         clientQuestions(spec.Questions),
	})
}

func (s *wsSession) handleSelectAnswer(payload json.RawMessage) error {
	ctrl, ok := s.controller()
	if !ok {
		return s.sendError(httperrors.ErrCodeAttemptNotActive, "No attempt running")
	}

	var req ws.SelectAnswerPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return s.sendError(httperrors.ErrCodeInvalidPayload, "Invalid select_answer payload")
	}

	if err := ctrl.SelectAnswer(req.Label); err != nil {
		return s.controllerError(err)
	}
	return s.sendState(ctrl)
}

func (s *wsSession) handleNavigate(payload json.RawMessage) error {
	ctrl, ok := s.controller()
	if !ok {
		return s.sendError(httperrors.ErrCodeAttemptNotActive, "No attempt running")
	}

	var req ws.NavigatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return s.sendError(httperrors.ErrCodeInvalidPayload, "Invalid navigate payload")
	}

	var err error
	switch req.Action {
	case ws.NavNext:
		err = ctrl.Next()
	case ws.NavPrevious:
		err = ctrl.Previous()
	case ws.NavJump:
		err = ctrl.JumpTo(req.Index)
	default:
		return s.sendError(httperrors.ErrCodeInvalidPayload, "Unknown navigation action")
	}
	if err != nil {
		return s.controllerError(err)
	}
	return s.sendState(ctrl)
}

func (s *wsSession) handleSubmit() error {
	ctrl, ok := s.controller()
	if !ok {
		return s.sendError(httperrors.ErrCodeAttemptNotActive, "No attempt running")
	}

	res, err := ctrl.Submit(context.Background())
	if errors.Is(err, ErrSubmissionSuppressed) {
		// The timer won the race; its result event is already on the way.
		return nil
	}
	if err != nil {
		return s.send(ws.TypeSubmitFailed, ws.SubmitFailedPayload{
			Code:    httperrors.ErrCodeSubmitFailed,
			Message: "Submission failed; the attempt stays open for retry",
		})
	}

	return s.send(ws.TypeSubmitted, submittedPayload(res, TriggerUser))
}

func (s *wsSession) handleEndTest(payload json.RawMessage) error {
	ctrl, ok := s.controller()
	if !ok {
		return s.sendError(httperrors.ErrCodeAttemptNotActive, "No attempt running")
	}

	var req ws.EndTestPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return s.sendError(httperrors.ErrCodeInvalidPayload, "Invalid end_test payload")
	}

	if err := ctrl.EndEarly(req.Confirmed); err != nil {
		return s.controllerError(err)
	}

	s.releaseAttempt()
	return s.send(ws.TypeAttemptEnded, ws.AttemptEndedPayload{Reason: "ended_by_user"})
}

func (s *wsSession) controller() (*Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl, s.ctrl != nil
}

func (s *wsSession) releaseAttempt() {
	s.mu.Lock()
	attemptID := s.attemptID
	had := s.ctrl != nil
	s.ctrl = nil
	s.attemptID = uuid.Nil
	s.mu.Unlock()

	if had {
		s.handler.registry.Release(attemptID)
	}
}

// teardown abandons any attempt still attached when the connection
// drops. A submitted attempt's record is already durable; an active
// one is discarded and a reconnect starts over with the full budget.
func (s *wsSession) teardown() {
	s.releaseAttempt()
}

func (s *wsSession) controllerError(err error) error {
	switch {
	case errors.Is(err, ErrAttemptNotActive):
		return s.sendError(httperrors.ErrCodeAttemptNotActive, "Attempt is not active")
	case errors.Is(err, ErrConfirmationRequired):
		return s.sendError(httperrors.ErrCodeConfirmRequired, "Ending the test requires confirmation")
	default:
		return s.sendError(httperrors.ErrCodeInvalidRequest, err.Error())
	}
}

func (s *wsSession) sendState(ctrl *Controller) error {
	snap := ctrl.State()
	return s.send(ws.TypeState, ws.StatePayload{
		CurrentIndex:     snap.CurrentIndex,
		RemainingSeconds: snap.RemainingSeconds,
		AnsweredCount:    snap.AnsweredCount,
		State:            snap.State,
	})
}

func (s *wsSession) send(msgType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.conn.Send(ws.Message{Type: msgType, Payload: raw})
}

func (s *wsSession) sendError(code, message string) error {
	return s.send(ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
}

func submittedPayload(res SubmissionResult, trigger string) ws.SubmittedPayload {
	return ws.SubmittedPayload{
		TestID:         res.TestID.String(),
		Score:          res.Score,
		TotalQuestions: res.TotalQuestions,
		Percentage:     res.Percentage,
		Trigger:        trigger,
	}
}

func clientQuestions(questions []mcq.Question) []ws.AttemptQuestion {
	out := make([]ws.AttemptQuestion, len(questions))
	for i, q := range questions {
		opts := make(map[string]string, len(mcq.Labels))
		for _, label := range mcq.Labels {
			opts[label] = q.Options.Get(label)
		}
		out[i] = ws.AttemptQuestion{
			Position: i,
			Question: q.Text,
			Options:  opts,
		}
	}
	return out
}
