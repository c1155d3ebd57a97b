package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestRepository persists and reads test records and their answers.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository constructs a test repository over a pgx pool.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

// CreateRecord inserts a test record and all its answers in one
// transaction. Records are append-only; there is no update path.
func (r *TestRepository) CreateRecord(ctx context.Context, rec TestRecord, answers []TestAnswer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO tests (test_id, user_id, title, difficulty, total_questions, time_budget_seconds, score, percentage, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.TestID, rec.UserID, rec.Title, rec.Difficulty, rec.TotalQuestions,
		rec.TimeBudgetSeconds, rec.Score, rec.Percentage, rec.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert test: %w", err)
	}

	for _, ans := range answers {
		_, err = tx.Exec(ctx, `
			INSERT INTO test_answers (answer_id, test_id, position, question, option_a, option_b, option_c, option_d, correct_label, selected_label, is_correct)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			ans.AnswerID, ans.TestID, ans.Position, ans.Question,
			ans.OptionA, ans.OptionB, ans.OptionC, ans.OptionD,
			ans.CorrectLabel, ans.SelectedLabel, ans.IsCorrect,
		)
		if err != nil {
			return fmt.Errorf("insert answer %d: %w", ans.Position, err)
		}
	}

	return tx.Commit(ctx)
}

// GetRecord fetches a single test record by ID.
func (r *TestRepository) GetRecord(ctx context.Context, testID uuid.UUID) (TestRecord, error) {
	var rec TestRecord
	err := r.pool.QueryRow(ctx, `
		SELECT test_id, user_id, title, difficulty, total_questions, time_budget_seconds, score, percentage, submitted_at
		FROM tests WHERE test_id = $1`, testID,
	).Scan(&rec.TestID, &rec.UserID, &rec.Title, &rec.Difficulty, &rec.TotalQuestions,
		&rec.TimeBudgetSeconds, &rec.Score, &rec.Percentage, &rec.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return TestRecord{}, ErrNotFound
	}
	if err != nil {
		return TestRecord{}, fmt.Errorf("get test: %w", err)
	}
	return rec, nil
}

// ListAnswers returns the graded answers of a record in question order.
func (r *TestRepository) ListAnswers(ctx context.Context, testID uuid.UUID) ([]TestAnswer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT answer_id, test_id, position, question, option_a, option_b, option_c, option_d, correct_label, selected_label, is_correct
		FROM test_answers WHERE test_id = $1 ORDER BY position`, testID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var answers []TestAnswer
	for rows.Next() {
		var ans TestAnswer
		if err := rows.Scan(&ans.AnswerID, &ans.TestID, &ans.Position, &ans.Question,
			&ans.OptionA, &ans.OptionB, &ans.OptionC, &ans.OptionD,
			&ans.CorrectLabel, &ans.SelectedLabel, &ans.IsCorrect); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, ans)
	}
	return answers, rows.Err()
}

// ListByUser returns a user's records, most recent first.
func (r *TestRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]TestRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT test_id, user_id, title, difficulty, total_questions, time_budget_seconds, score, percentage, submitted_at
		FROM tests WHERE user_id = $1 ORDER BY submitted_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	defer rows.Close()

	var recs []TestRecord
	for rows.Next() {
		var rec TestRecord
		if err := rows.Scan(&rec.TestID, &rec.UserID, &rec.Title, &rec.Difficulty, &rec.TotalQuestions,
			&rec.TimeBudgetSeconds, &rec.Score, &rec.Percentage, &rec.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan test: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// StatsByUser aggregates dashboard numbers from stored percentages.
func (r *TestRepository) StatsByUser(ctx context.Context, userID uuid.UUID) (UserStats, error) {
	var stats UserStats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(percentage), 0) FROM tests WHERE user_id = $1`, userID,
	).Scan(&stats.TotalTests, &stats.AveragePercentage)
	if err != nil {
		return UserStats{}, fmt.Errorf("test stats: %w", err)
	}
	return stats, nil
}
