package scoring

import (
	"math"

	"github.com/studykit/studykit/internal/mcq"
)

// QuestionOutcome is the graded result for a single question.
type QuestionOutcome struct {
	Index         int
	SelectedLabel string // "" when unanswered
	IsCorrect     bool
}

// Outcome aggregates one graded submission.
type Outcome struct {
	Score          int
	TotalQuestions int
	Percentage     int
	PerQuestion    []QuestionOutcome
}

// Grade scores a ledger snapshot against the embedded answer key.
// Correctness is label equality after normalization; an unanswered
// question counts as incorrect, never as excluded. The percentage is
// rounded to the nearest integer here, exactly once: every later read
// of the record echoes this value rather than recomputing it.
func Grade(questions []mcq.Question, answers map[int]string) Outcome {
	out := Outcome{
		TotalQuestions: len(questions),
		PerQuestion:    make([]QuestionOutcome, len(questions)),
	}

	for i, q := range questions {
		selected := mcq.NormalizeLabel(answers[i])
		correct := selected != "" && selected == mcq.NormalizeLabel(q.CorrectLabel)
		if correct {
			out.Score++
		}
		out.PerQuestion[i] = QuestionOutcome{
			Index:         i,
			SelectedLabel: selected,
			IsCorrect:     correct,
		}
	}

	out.Percentage = Percentage(out.Score, out.TotalQuestions)
	return out
}

// Percentage computes round(100*score/total).
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}
