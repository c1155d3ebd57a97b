package dashboard

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/studykit/studykit/internal/db/repository"
	"github.com/studykit/studykit/internal/result"
)

// recentTestLimit is how many recent tests the dashboard shows.
const recentTestLimit = 5

// StatsReader aggregates a user's numbers.
type StatsReader interface {
	StatsByUser(ctx context.Context, userID uuid.UUID) (repository.UserStats, error)
}

// SetCounter counts a user's generated sets.
type SetCounter interface {
	CountSetsByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// Overview is the dashboard payload.
type Overview struct {
	TotalTests        int              `json:"total_tests"`
	TotalMCQSets      int              `json:"total_mcq_sets"`
	AveragePercentage int              `json:"average_percentage"`
	RecentTests       []result.Summary `json:"recent_tests"`
}

// Service assembles the dashboard from stored history. Everything here
// reads persisted records; nothing is rescored.
type Service struct {
	stats  StatsReader
	sets   SetCounter
	recent *result.Assembler
}

// NewService constructs a dashboard service.
func NewService(stats StatsReader, sets SetCounter, recent *result.Assembler) *Service {
	return &Service{stats: stats, sets: sets, recent: recent}
}

// Overview builds the dashboard for one user.
func (s *Service) Overview(ctx context.Context, userID uuid.UUID) (Overview, error) {
	stats, err := s.stats.StatsByUser(ctx, userID)
	if err != nil {
		return Overview{}, err
	}

	setCount, err := s.sets.CountSetsByUser(ctx, userID)
	if err != nil {
		return Overview{}, err
	}

	recent, err := s.recent.History(ctx, userID, recentTestLimit)
	if err != nil {
		return Overview{}, err
	}

	return Overview{
		TotalTests:        stats.TotalTests,
		TotalMCQSets:      setCount,
		AveragePercentage: int(math.Round(stats.AveragePercentage)),
		RecentTests:       recent,
	}, nil
}
