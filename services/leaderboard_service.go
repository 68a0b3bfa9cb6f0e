package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/codearena/platform/models"
	"github.com/codearena/platform/repositories"
)

type LeaderboardService interface {
	Standings(ctx context.Context) ([]models.LeaderboardEntry, error)
}

type leaderboardService struct {
	submissionRepo repositories.SubmissionRepository
	userRepo       repositories.UserRepository
	logger         *slog.Logger
}

func NewLeaderboardService(
	submissionRepo repositories.SubmissionRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) LeaderboardService {
	return &leaderboardService{
		submissionRepo: submissionRepo,
		userRepo:       userRepo,
		logger:         logger,
	}
}

// Standings ranks every team by its best submission score, highest first.
func (s *leaderboardService) Standings(ctx context.Context) ([]models.LeaderboardEntry, error) {
	best, err := s.submissionRepo.BestPerTeam(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load best submissions: %w", err)
	}

	sort.SliceStable(best, func(i, j int) bool {
		return best[i].Score > best[j].Score
	})

	entries := make([]models.LeaderboardEntry, 0, len(best))
	for i, b := range best {
		entry := models.LeaderboardEntry{
			Rank:     i + 1,
			TeamID:   b.TeamID,
			TeamName: b.TeamName,
			UserID:   b.UserID,
			Score:    b.Score,
		}
		if user, err := s.userRepo.GetByID(ctx, b.UserID); err == nil {
			entry.DisplayName = user.DisplayName
		} else {
			s.logger.Warn("failed to resolve submitter name",
				slog.String("user_id", b.UserID),
				slog.Any("error", err),
			)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
