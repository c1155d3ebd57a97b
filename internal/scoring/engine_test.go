package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studykit/studykit/internal/mcq"
)

func threeQuestions() []mcq.Question {
	keys := []string{"A", "B", "D"}
	out := make([]mcq.Question, 3)
	for i := range out {
		out[i] = mcq.Question{
			Text:         "question",
			Options:      mcq.Options{A: "a", B: "b", C: "c", D: "d"},
			CorrectLabel: keys[i],
		}
	}
	return out
}

func TestGradePartialAnswers(t *testing.T) {
	// Q0 answered correctly, Q1 unanswered, Q2 answered wrong.
	outcome := Grade(threeQuestions(), map[int]string{0: "A", 2: "C"})

	assert.Equal(t, 1, outcome.Score)
	assert.Equal(t, 3, outcome.TotalQuestions)
	assert.Equal(t, 33, outcome.Percentage)

	assert.True(t, outcome.PerQuestion[0].IsCorrect)
	assert.False(t, outcome.PerQuestion[1].IsCorrect)
	assert.Equal(t, "", outcome.PerQuestion[1].SelectedLabel)
	assert.False(t, outcome.PerQuestion[2].IsCorrect)
	assert.Equal(t, "C", outcome.PerQuestion[2].SelectedLabel)
}

func TestGradeNormalizesLabels(t *testing.T) {
	outcome := Grade(threeQuestions(), map[int]string{0: " a ", 1: "b", 2: "d"})

	assert.Equal(t, 3, outcome.Score)
	assert.Equal(t, 100, outcome.Percentage)
	assert.Equal(t, "A", outcome.PerQuestion[0].SelectedLabel)
}

func TestGradeUnansweredCountsIncorrect(t *testing.T) {
	outcome := Grade(threeQuestions(), nil)

	assert.Equal(t, 0, outcome.Score)
	assert.Equal(t, 3, outcome.TotalQuestions)
	assert.Equal(t, 0, outcome.Percentage)
}

func TestPercentageRounding(t *testing.T) {
	assert.Equal(t, 33, Percentage(1, 3))
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 17, Percentage(1, 6))
	assert.Equal(t, 13, Percentage(1, 8))
	assert.Equal(t, 100, Percentage(5, 5))
	assert.Equal(t, 0, Percentage(0, 5))
	assert.Equal(t, 0, Percentage(0, 0))
}
