package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/studykit/studykit/internal/db/repository"
	"github.com/studykit/studykit/internal/mcq"
	"github.com/studykit/studykit/internal/session"
)

// ErrInvalidSubmission rejects submissions that cannot be graded.
var ErrInvalidSubmission = errors.New("invalid submission")

// RecordStore persists graded outcomes.
type RecordStore interface {
	CreateRecord(ctx context.Context, record repository.TestRecord, answers []repository.TestAnswer) error
}

// Service grades submissions and writes the immutable result record.
// It implements session.Submitter, so both the WebSocket attempt path
// and the direct HTTP path converge here.
type Service struct {
	store  RecordStore
	logger zerolog.Logger
}

// NewService constructs a scoring service.
func NewService(store RecordStore, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "scoring").Logger(),
	}
}

// Submit validates, grades, and persists one submission. userID is nil
// for anonymous attempts; the record is still written so the result
// page works, it just never appears in a user's history.
func (s *Service) Submit(ctx context.Context, userID *uuid.UUID, req session.SubmissionRequest) (session.SubmissionResult, error) {
	if err := validate(req); err != nil {
		return session.SubmissionResult{}, err
	}

	outcome := Grade(req.Questions, req.Answers)

	testID := uuid.New()
	now := time.Now().UTC()

	record := repository.TestRecord{
		TestID:            testID,
		UserID:            userID,
		Title:             req.Title,
		Difficulty:        req.Difficulty,
		TotalQuestions:    outcome.TotalQuestions,
		TimeBudgetSeconds: req.TimeBudgetSeconds,
		Score:             outcome.Score,
		Percentage:        outcome.Percentage,
		SubmittedAt:       now,
	}

	answers := make([]repository.TestAnswer, len(req.Questions))
	for i, q := range req.Questions {
		var selected *string
		if label := outcome.PerQuestion[i].SelectedLabel; label != "" {
			selected = &label
		}
		answers[i] = repository.TestAnswer{
			AnswerID:      uuid.New(),
			TestID:        testID,
			Position:      i,
			Question:      q.Text,
			OptionA:       q.Options.A,
			OptionB:       q.Options.B,
			OptionC:       q.Options.C,
			OptionD:       q.Options.D,
			CorrectLabel:  mcq.NormalizeLabel(q.CorrectLabel),
			SelectedLabel: selected,
			IsCorrect:     outcome.PerQuestion[i].IsCorrect,
		}
	}

	if err := s.store.CreateRecord(ctx, record, answers); err != nil {
		s.logger.Error().Err(err).Str("test_id", testID.String()).Msg("failed to persist test record")
		return session.SubmissionResult{}, fmt.Errorf("persist record: %w", err)
	}

	s.logger.Info().
		Str("test_id", testID.String()).
		Int("score", outcome.Score).
		Int("total", outcome.TotalQuestions).
		Int("percentage", outcome.Percentage).
		Msg("submission graded")

	return session.SubmissionResult{
		TestID:         testID,
		Score:          outcome.Score,
		TotalQuestions: outcome.TotalQuestions,
		Percentage:     outcome.Percentage,
	}, nil
}

func validate(req session.SubmissionRequest) error {
	if len(req.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidSubmission)
	}
	for i, q := range req.Questions {
		if q.Text == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidSubmission, i)
		}
		if !mcq.ValidLabel(mcq.NormalizeLabel(q.CorrectLabel)) {
			return fmt.Errorf("%w: question %d has invalid answer key %q", ErrInvalidSubmission, i, q.CorrectLabel)
		}
	}
	return nil
}
