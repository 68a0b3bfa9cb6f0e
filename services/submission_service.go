package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/rs/xid"

	"github.com/codearena/platform/engine"
	"github.com/codearena/platform/models"
	"github.com/codearena/platform/repositories"
	"github.com/codearena/platform/storage"
)

const submissionHistoryLimit = 20

// MatchScorer plays a single bot against the built-in system bot.
type MatchScorer interface {
	PlayAgainstSystemBot(ctx context.Context, artifactKey string) (*engine.MatchResult, error)
}

type SubmissionService interface {
	Submit(ctx context.Context, userID string, filename string, content io.Reader) (*models.Submission, error)
	ListMine(ctx context.Context, userID string) ([]*models.Submission, error)
	Latest(ctx context.Context, userID string) (*models.Submission, error)
	StepsForSubmission(ctx context.Context, submissionID string) ([]engine.Step, error)
}

type submissionService struct {
	submissionRepo repositories.SubmissionRepository
	teamRepo       repositories.TeamRepository
	files          storage.FileStore
	scorer         MatchScorer
	logger         *slog.Logger
}

func NewSubmissionService(
	submissionRepo repositories.SubmissionRepository,
	teamRepo repositories.TeamRepository,
	files storage.FileStore,
	scorer MatchScorer,
	logger *slog.Logger,
) SubmissionService {
	return &submissionService{
		submissionRepo: submissionRepo,
		teamRepo:       teamRepo,
		files:          files,
		scorer:         scorer,
		logger:         logger,
	}
}

// Submit uploads a bot, scores it against the system bot and records the
// submission together with the raw match log. The score is the margin of the
// submitted bot over the system bot, so losing submissions score negative.
func (s *submissionService) Submit(ctx context.Context, userID string, filename string, content io.Reader) (*models.Submission, error) {
	team, err := s.teamRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrUserNotInTeam
		}
		return nil, fmt.Errorf("failed to load team for user %s: %w", userID, err)
	}

	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return nil, fmt.Errorf("%w: a file name is required", ErrValidationFailed)
	}

	submissionID := xid.New().String()
	artifactKey := fmt.Sprintf("submissions/%s_%s", submissionID, filename)

	if _, err := s.files.Upload(ctx, artifactKey, "text/x-python", content); err != nil {
		return nil, fmt.Errorf("failed to upload submission artifact: %w", err)
	}

	result, err := s.scorer.PlayAgainstSystemBot(ctx, artifactKey)
	if err != nil {
		return nil, fmt.Errorf("failed to score submission: %w", err)
	}

	submission := &models.Submission{
		ID:          submissionID,
		TeamID:      team.ID,
		UserID:      userID,
		ArtifactKey: artifactKey,
		Score:       result.Score1 - result.Score2,
	}

	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}

	matchLog := &models.SubmissionLog{
		ID:           xid.New().String(),
		SubmissionID: submissionID,
		RawLog:       result.Log.Raw,
	}
	if err := s.submissionRepo.CreateLog(ctx, matchLog); err != nil {
		// The submission itself is already scored and stored.
		s.logger.Error("failed to save submission log",
			slog.String("submission_id", submissionID),
			slog.Any("error", err),
		)
	}

	s.logger.Info("submission scored",
		slog.String("submission_id", submissionID),
		slog.String("team_id", team.ID),
		slog.Float64("score", submission.Score),
	)
	return submission, nil
}

func (s *submissionService) ListMine(ctx context.Context, userID string) ([]*models.Submission, error) {
	team, err := s.teamRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrUserNotInTeam
		}
		return nil, fmt.Errorf("failed to load team for user %s: %w", userID, err)
	}

	submissions, err := s.submissionRepo.ListByTeam(ctx, team.ID, submissionHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions for team %s: %w", team.ID, err)
	}
	return submissions, nil
}

func (s *submissionService) Latest(ctx context.Context, userID string) (*models.Submission, error) {
	submission, err := s.submissionRepo.LatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to load latest submission for user %s: %w", userID, err)
	}
	return submission, nil
}

// StepsForSubmission re-parses the stored match log into per-tick steps.
func (s *submissionService) StepsForSubmission(ctx context.Context, submissionID string) ([]engine.Step, error) {
	matchLog, err := s.submissionRepo.GetLogBySubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmissionLogNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load log for submission %s: %w", submissionID, err)
	}

	parsed, err := engine.ParseMatchLog(matchLog.RawLog)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored match log: %w", err)
	}
	return parsed.Steps, nil
}
