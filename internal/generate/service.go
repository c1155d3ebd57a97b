package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/studykit/studykit/internal/db/repository"
	"github.com/studykit/studykit/internal/mcq"
)

var (
	// ErrEmptySource rejects generation calls with nothing to work on.
	ErrEmptySource = errors.New("no source text or topic provided")
	// ErrNoQuestions is returned when the model output yields zero
	// usable questions after normalization.
	ErrNoQuestions = errors.New("generation produced no usable questions")
)

// SetStore persists generation history for authenticated users.
type SetStore interface {
	CreateSet(ctx context.Context, set repository.MCQSet, questions []repository.StoredMCQ) error
	ListSetsByUser(ctx context.Context, userID uuid.UUID) ([]repository.MCQSet, error)
	GetSet(ctx context.Context, setID, userID uuid.UUID) (repository.MCQSet, []repository.StoredMCQ, error)
}

// Options configures generation defaults and bounds.
type Options struct {
	DefaultCount int // default: 5
	MaxCount     int // default: 30
}

// Service turns source material into normalized MCQs via the
// completion API and records sets for logged-in users.
type Service struct {
	llm    LLMClient
	sets   SetStore
	opts   Options
	logger zerolog.Logger
}

// NewService constructs a generation service. sets may be nil when
// history persistence is disabled.
func NewService(llm LLMClient, sets SetStore, opts Options, logger zerolog.Logger) *Service {
	if opts.DefaultCount <= 0 {
		opts.DefaultCount = 5
	}
	if opts.MaxCount <= 0 {
		opts.MaxCount = 30
	}
	return &Service{
		llm:    llm,
		sets:   sets,
		opts:   opts,
		logger: logger.With().Str("component", "generate").Logger(),
	}
}

// Generate produces at most req.NumQuestions normalized questions.
// When userID is non-nil the set is also written to history; a history
// write failure is logged but does not fail the generation.
func (s *Service) Generate(ctx context.Context, userID *uuid.UUID, req Request) ([]mcq.Question, error) {
	count := req.NumQuestions
	if count <= 0 {
		count = s.opts.DefaultCount
	}
	if count > s.opts.MaxCount {
		count = s.opts.MaxCount
	}
	if !mcq.ValidDifficulty(req.Difficulty) {
		req.Difficulty = mcq.DifficultyMedium
	}

	var chat ChatRequest
	switch req.SourceType {
	case mcq.SourceTopic:
		if strings.TrimSpace(req.Topic) == "" {
			return nil, ErrEmptySource
		}
		chat = ChatRequest{
			System:      topicSystemPrompt,
			User:        topicPrompt(req.Topic, count, req.Difficulty),
			Temperature: 0.5,
			MaxTokens:   3000,
		}
	default:
		if strings.TrimSpace(req.Text) == "" {
			return nil, ErrEmptySource
		}
		chat = ChatRequest{
			System:      textSystemPrompt,
			User:        textPrompt(req.Text, count, req.Difficulty),
			Temperature: 0.7,
			MaxTokens:   2000,
		}
	}

	raw, err := s.llm.ChatCompletion(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("completion call: %w", err)
	}

	var parsed []rawMCQ
	if err := ExtractJSONArray(raw, &parsed); err != nil {
		s.logger.Warn().Err(err).Msg("could not parse model response")
		return nil, ErrNoQuestions
	}

	questions := normalize(parsed, req.Difficulty)
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if len(questions) > count {
		questions = questions[:count]
	}

	s.logger.Info().
		Str("source_type", req.SourceType).
		Str("difficulty", req.Difficulty).
		Int("questions", len(questions)).
		Msg("mcqs generated")

	if userID != nil && s.sets != nil {
		if err := s.persistSet(ctx, *userID, req, questions); err != nil {
			s.logger.Error().Err(err).Msg("failed to record generation history")
		}
	}

	return questions, nil
}

// History returns a user's past generations, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]repository.MCQSet, error) {
	if s.sets == nil {
		return nil, nil
	}
	return s.sets.ListSetsByUser(ctx, userID)
}

// Set returns one stored set with its questions restored to the wire
// shape.
func (s *Service) Set(ctx context.Context, setID, userID uuid.UUID) (repository.MCQSet, []mcq.Question, error) {
	if s.sets == nil {
		return repository.MCQSet{}, nil, repository.ErrNotFound
	}
	set, stored, err := s.sets.GetSet(ctx, setID, userID)
	if err != nil {
		return repository.MCQSet{}, nil, err
	}

	questions := make([]mcq.Question, len(stored))
	for i, q := range stored {
		questions[i] = mcq.Question{
			Text: q.Question,
			Options: mcq.Options{
				A: q.OptionA,
				B: q.OptionB,
				C: q.OptionC,
				D: q.OptionD,
			},
			CorrectLabel: q.CorrectLabel,
			Difficulty:   q.Difficulty,
		}
	}
	return set, questions, nil
}

// normalize drops malformed entries and maps the answer text back to
// its option label. An answer that matches no option defaults to A,
// matching how the source material was graded historically.
func normalize(raw []rawMCQ, difficulty string) []mcq.Question {
	var out []mcq.Question
	for _, r := range raw {
		if strings.TrimSpace(r.Question) == "" || len(r.Options) < 4 {
			continue
		}

		opts := mcq.Options{
			A: strings.TrimSpace(r.Options[0]),
			B: strings.TrimSpace(r.Options[1]),
			C: strings.TrimSpace(r.Options[2]),
			D: strings.TrimSpace(r.Options[3]),
		}

		label := "A"
		answer := strings.TrimSpace(r.Answer)
		for i, opt := range []string{opts.A, opts.B, opts.C, opts.D} {
			if opt == answer {
				label = mcq.Labels[i]
				break
			}
		}

		out = append(out, mcq.Question{
			Text:         strings.TrimSpace(r.Question),
			Options:      opts,
			CorrectLabel: label,
			Difficulty:   difficulty,
		})
	}
	return out
}

func (s *Service) persistSet(ctx context.Context, userID uuid.UUID, req Request, questions []mcq.Question) error {
	setID := uuid.New()

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultTitle(req)
	}

	set := repository.MCQSet{
		SetID:      setID,
		UserID:     userID,
		Title:      title,
		SourceType: req.SourceType,
		Difficulty: req.Difficulty,
		CreatedAt:  time.Now().UTC(),
	}

	stored := make([]repository.StoredMCQ, len(questions))
	for i, q := range questions {
		stored[i] = repository.StoredMCQ{
			MCQID:        uuid.New(),
			SetID:        setID,
			Position:     i,
			Question:     q.Text,
			OptionA:      q.Options.A,
			OptionB:      q.Options.B,
			OptionC:      q.Options.C,
			OptionD:      q.Options.D,
			CorrectLabel: q.CorrectLabel,
			Difficulty:   q.Difficulty,
		}
	}

	return s.sets.CreateSet(ctx, set, stored)
}

func defaultTitle(req Request) string {
	switch req.SourceType {
	case mcq.SourceTopic:
		return req.Topic
	case mcq.SourcePDF:
		return "PDF quiz"
	default:
		text := strings.TrimSpace(req.Text)
		if len(text) > 40 {
			text = text[:40] + "..."
		}
		return text
	}
}
