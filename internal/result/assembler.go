package result

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/studykit/studykit/internal/db/repository"
)

// RecordReader is the persisted-result lookup consumed by the
// assembler.
type RecordReader interface {
	GetRecord(ctx context.Context, testID uuid.UUID) (repository.TestRecord, error)
	ListAnswers(ctx context.Context, testID uuid.UUID) ([]repository.TestAnswer, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]repository.TestRecord, error)
}

// QuestionView is one graded question on the result page. The correct
// label is always present so review mode can highlight it.
type QuestionView struct {
	Position      int               `json:"position"`
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectLabel  string            `json:"correct_answer"`
	SelectedLabel *string           `json:"selected_answer"`
	IsCorrect     bool              `json:"is_correct"`
}

// View is the full result page payload. Score and percentage are
// echoed from the stored record, never recomputed.
type View struct {
	TestID            uuid.UUID      `json:"test_id"`
	Title             string         `json:"title"`
	Difficulty        string         `json:"difficulty"`
	Score             int            `json:"score"`
	TotalQuestions    int            `json:"total_questions"`
	Percentage        int            `json:"percentage"`
	TimeBudgetSeconds int            `json:"time_budget_seconds"`
	SubmittedAt       string         `json:"submitted_at"`
	Questions         []QuestionView `json:"questions"`
}

// Summary is one row in a test history listing.
type Summary struct {
	TestID         uuid.UUID `json:"test_id"`
	Title          string    `json:"title"`
	Difficulty     string    `json:"difficulty"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     int       `json:"percentage"`
	SubmittedAt    string    `json:"submitted_at"`
}

// Assembler projects persisted records into response shapes.
type Assembler struct {
	store RecordReader
}

// NewAssembler constructs a result assembler.
func NewAssembler(store RecordReader) *Assembler {
	return &Assembler{store: store}
}

// Get builds the full result view for one test.
func (a *Assembler) Get(ctx context.Context, testID uuid.UUID) (View, error) {
	rec, err := a.store.GetRecord(ctx, testID)
	if err != nil {
		return View{}, err
	}

	answers, err := a.store.ListAnswers(ctx, testID)
	if err != nil {
		return View{}, err
	}

	questions := make([]QuestionView, len(answers))
	for i, ans := range answers {
		questions[i] = QuestionView{
			Position: ans.Position,
			Question: ans.Question,
			Options: map[string]string{
				"A": ans.OptionA,
				"B": ans.OptionB,
				"C": ans.OptionC,
				"D": ans.OptionD,
			},
			CorrectLabel:  ans.CorrectLabel,
			SelectedLabel: ans.SelectedLabel,
			IsCorrect:     ans.IsCorrect,
		}
	}

	return View{
		TestID:            rec.TestID,
		Title:             rec.Title,
		Difficulty:        rec.Difficulty,
		Score:             rec.Score,
		TotalQuestions:    rec.TotalQuestions,
		Percentage:        rec.Percentage,
		TimeBudgetSeconds: rec.TimeBudgetSeconds,
		SubmittedAt:       rec.SubmittedAt.Format(time.RFC3339),
		Questions:         questions,
	}, nil
}

// History lists a user's past tests, newest first.
func (a *Assembler) History(ctx context.Context, userID uuid.UUID, limit int) ([]Summary, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	records, err := a.store.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, len(records))
	for i, rec := range records {
		out[i] = Summary{
			TestID:         rec.TestID,
			Title:          rec.Title,
			Difficulty:     rec.Difficulty,
			Score:          rec.Score,
			TotalQuestions: rec.TotalQuestions,
			Percentage:     rec.Percentage,
			SubmittedAt:    rec.SubmittedAt.Format(time.RFC3339),
		}
	}
	return out, nil
}
