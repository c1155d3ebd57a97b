package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// User is an account row.
type User struct {
	UserID       uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// TestRecord is the immutable scored outcome of one attempt. It is
// written exactly once per successful submission and never updated.
type TestRecord struct {
	TestID            uuid.UUID
	UserID            *uuid.UUID
	Title             string
	Difficulty        string
	TotalQuestions    int
	TimeBudgetSeconds int
	Score             int
	Percentage        int
	SubmittedAt       time.Time
}

// TestAnswer is one graded question within a TestRecord, including the
// full question text and options so the result page needs no other
// source.
type TestAnswer struct {
	AnswerID      uuid.UUID
	TestID        uuid.UUID
	Position      int
	Question      string
	OptionA       string
	OptionB       string
	OptionC       string
	OptionD       string
	CorrectLabel  string
	SelectedLabel *string
	IsCorrect     bool
}

// MCQSet is a persisted generated question set (history of an
// authenticated user's generations).
type MCQSet struct {
	SetID      uuid.UUID
	UserID     uuid.UUID
	Title      string
	SourceType string
	Difficulty string
	CreatedAt  time.Time
	MCQCount   int
}

// StoredMCQ is one question within a persisted set.
type StoredMCQ struct {
	MCQID        uuid.UUID
	SetID        uuid.UUID
	Position     int
	Question     string
	OptionA      string
	OptionB      string
	OptionC      string
	OptionD      string
	CorrectLabel string
	Difficulty   string
}

// UserStats aggregates a user's dashboard numbers. AveragePercentage
// averages the stored percentages; records are never rescored.
type UserStats struct {
	TotalTests        int
	TotalMCQSets      int
	AveragePercentage float64
}
