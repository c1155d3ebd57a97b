package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MCQSetRepository persists generated question sets for authenticated
// users.
type MCQSetRepository struct {
	pool *pgxpool.Pool
}

// NewMCQSetRepository constructs an MCQ set repository.
func NewMCQSetRepository(pool *pgxpool.Pool) *MCQSetRepository {
	return &MCQSetRepository{pool: pool}
}

// CreateSet inserts a set and its questions in one transaction.
func (r *MCQSetRepository) CreateSet(ctx context.Context, set MCQSet, questions []StoredMCQ) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO mcq_sets (set_id, user_id, title, source_type, difficulty, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		set.SetID, set.UserID, set.Title, set.SourceType, set.Difficulty, set.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert mcq set: %w", err)
	}

	for _, q := range questions {
		_, err = tx.Exec(ctx, `
			INSERT INTO mcqs (mcq_id, set_id, position, question, option_a, option_b, option_c, option_d, correct_label, difficulty)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			q.MCQID, q.SetID, q.Position, q.Question,
			q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectLabel, q.Difficulty,
		)
		if err != nil {
			return fmt.Errorf("insert mcq %d: %w", q.Position, err)
		}
	}

	return tx.Commit(ctx)
}

// ListSetsByUser returns a user's generation history, most recent
// first, with question counts.
func (r *MCQSetRepository) ListSetsByUser(ctx context.Context, userID uuid.UUID) ([]MCQSet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.set_id, s.user_id, s.title, s.source_type, s.difficulty, s.created_at, COUNT(m.mcq_id)
		FROM mcq_sets s LEFT JOIN mcqs m ON m.set_id = s.set_id
		WHERE s.user_id = $1
		GROUP BY s.set_id
		ORDER BY s.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list mcq sets: %w", err)
	}
	defer rows.Close()

	var sets []MCQSet
	for rows.Next() {
		var s MCQSet
		if err := rows.Scan(&s.SetID, &s.UserID, &s.Title, &s.SourceType, &s.Difficulty, &s.CreatedAt, &s.MCQCount); err != nil {
			return nil, fmt.Errorf("scan mcq set: %w", err)
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

// GetSet fetches one set with all its questions, scoped to the owner.
func (r *MCQSetRepository) GetSet(ctx context.Context, setID, userID uuid.UUID) (MCQSet, []StoredMCQ, error) {
	var set MCQSet
	err := r.pool.QueryRow(ctx, `
		SELECT set_id, user_id, title, source_type, difficulty, created_at
		FROM mcq_sets WHERE set_id = $1 AND user_id = $2`, setID, userID,
	).Scan(&set.SetID, &set.UserID, &set.Title, &set.SourceType, &set.Difficulty, &set.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return MCQSet{}, nil, ErrNotFound
	}
	if err != nil {
		return MCQSet{}, nil, fmt.Errorf("get mcq set: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT mcq_id, set_id, position, question, option_a, option_b, option_c, option_d, correct_label, difficulty
		FROM mcqs WHERE set_id = $1 ORDER BY position`, setID)
	if err != nil {
		return MCQSet{}, nil, fmt.Errorf("list mcqs: %w", err)
	}
	defer rows.Close()

	var mcqs []StoredMCQ
	for rows.Next() {
		var q StoredMCQ
		if err := rows.Scan(&q.MCQID, &q.SetID, &q.Position, &q.Question,
			&q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectLabel, &q.Difficulty); err != nil {
			return MCQSet{}, nil, fmt.Errorf("scan mcq: %w", err)
		}
		mcqs = append(mcqs, q)
	}
	set.MCQCount = len(mcqs)
	return set, mcqs, rows.Err()
}

// CountSetsByUser returns how many sets a user has generated.
func (r *MCQSetRepository) CountSetsByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM mcq_sets WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count mcq sets: %w", err)
	}
	return n, nil
}
