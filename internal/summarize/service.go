package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/studykit/studykit/internal/generate"
)

// Summary lengths.
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

// ErrEmptySource rejects calls with no text.
var ErrEmptySource = errors.New("no source text provided")

var lengthGuidelines = map[string]string{
	LengthShort:  "2-3 sentences",
	LengthMedium: "3-5 paragraphs",
	LengthLong:   "5-7 paragraphs",
}

const systemPrompt = "You are an expert summarizer who creates clear, concise summaries that capture " +
	"the essential information while maintaining readability. Provide only the summary text " +
	"without any additional commentary."

const sourceCharLimit = 3000

// Service produces text summaries through the completion API.
type Service struct {
	llm    generate.LLMClient
	logger zerolog.Logger
}

// NewService constructs a summarization service.
func NewService(llm generate.LLMClient, logger zerolog.Logger) *Service {
	return &Service{
		llm:    llm,
		logger: logger.With().Str("component", "summarize").Logger(),
	}
}

// Summarize returns a summary of text at the requested length.
func (s *Service) Summarize(ctx context.Context, text, length string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptySource
	}

	guideline, ok := lengthGuidelines[length]
	if !ok {
		guideline = lengthGuidelines[LengthMedium]
	}
	if len(text) > sourceCharLimit {
		text = text[:sourceCharLimit]
	}

	prompt := fmt.Sprintf(`Provide a clear, concise summary that captures the main points and key information in %s.

Text to summarize:
%s`, guideline, text)

	summary, err := s.llm.ChatCompletion(ctx, generate.ChatRequest{
		System:      systemPrompt,
		User:        prompt,
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return "", fmt.Errorf("completion call: %w", err)
	}

	s.logger.Info().Str("length", length).Int("source_chars", len(text)).Msg("summary generated")
	return summary, nil
}
