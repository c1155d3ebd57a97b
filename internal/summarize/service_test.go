package summarize

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/studykit/studykit/internal/generate"
)

type stubLLM struct {
	response string
	err      error
	requests []generate.ChatRequest
}

func (s *stubLLM) ChatCompletion(ctx context.Context, req generate.ChatRequest) (string, error) {
	s.requests = append(s.requests, req)
	return s.response, s.err
}

func TestSummarizeUsesLengthGuideline(t *testing.T) {
	llm := &stubLLM{response: "A short summary."}
	svc := NewService(llm, zerolog.Nop())

	summary, err := svc.Summarize(context.Background(), "some long text", LengthShort)
	assert.NoError(t, err)
	assert.Equal(t, "A short summary.", summary)
	assert.Contains(t, llm.requests[0].User, "2-3 sentences")
}

func TestSummarizeUnknownLengthFallsBackToMedium(t *testing.T) {
	llm := &stubLLM{response: "ok"}
	svc := NewService(llm, zerolog.Nop())

	_, err := svc.Summarize(context.Background(), "text", "gigantic")
	assert.NoError(t, err)
	assert.Contains(t, llm.requests[0].User, "3-5 paragraphs")
}

func TestSummarizeEmptyText(t *testing.T) {
	svc := NewService(&stubLLM{}, zerolog.Nop())

	_, err := svc.Summarize(context.Background(), "   ", LengthMedium)
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestSummarizePropagatesLLMError(t *testing.T) {
	svc := NewService(&stubLLM{err: assert.AnError}, zerolog.Nop())

	_, err := svc.Summarize(context.Background(), "text", LengthMedium)
	assert.Error(t, err)
}
