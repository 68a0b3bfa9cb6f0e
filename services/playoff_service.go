package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/rs/xid"

	"github.com/codearena/platform/brackets"
	"github.com/codearena/platform/engine"
	"github.com/codearena/platform/models"
	"github.com/codearena/platform/repositories"
)

const defaultPlayoffLimit = 16

// MatchPairPlayer plays two stored artifacts against each other.
type MatchPairPlayer interface {
	PlayMatch(ctx context.Context, artifactKey1, artifactKey2 string) (*engine.MatchResult, error)
}

// enginePlayer adapts the match engine to the bracket's MatchPlayer.
type enginePlayer struct {
	runner MatchPairPlayer
}

func NewEnginePlayer(runner MatchPairPlayer) brackets.MatchPlayer {
	return &enginePlayer{runner: runner}
}

func (p *enginePlayer) Play(ctx context.Context, seed1, seed2 brackets.Seed) (*brackets.MatchOutcome, error) {
	result, err := p.runner.PlayMatch(ctx, seed1.ArtifactKey, seed2.ArtifactKey)
	if err != nil {
		return nil, err
	}
	return &brackets.MatchOutcome{
		Score1: result.Score1,
		Score2: result.Score2,
		RawLog: result.Log.Raw,
	}, nil
}

type PlayoffService interface {
	// RunPlayoffs seeds every team's best submission into a single
	// elimination bracket, plays it to completion and persists the run.
	RunPlayoffs(ctx context.Context, callerRole models.UserRole, limit int) (*models.PlayoffRun, error)
	LatestResults(ctx context.Context) (*models.PlayoffRun, error)
	ListMatchesByRound(ctx context.Context) ([]models.PlayoffRound, error)
}

type playoffService struct {
	runRepo        repositories.PlayoffRunRepository
	matchRepo      repositories.PlayoffMatchRepository
	controlRepo    repositories.PlayoffControlRepository
	submissionRepo repositories.SubmissionRepository
	teamRepo       repositories.TeamRepository
	player         brackets.MatchPlayer
	hub            *brackets.Hub
	logger         *slog.Logger
}

func NewPlayoffService(
	runRepo repositories.PlayoffRunRepository,
	matchRepo repositories.PlayoffMatchRepository,
	controlRepo repositories.PlayoffControlRepository,
	submissionRepo repositories.SubmissionRepository,
	teamRepo repositories.TeamRepository,
	player brackets.MatchPlayer,
	hub *brackets.Hub,
	logger *slog.Logger,
) PlayoffService {
	return &playoffService{
		runRepo:        runRepo,
		matchRepo:      matchRepo,
		controlRepo:    controlRepo,
		submissionRepo: submissionRepo,
		teamRepo:       teamRepo,
		player:         player,
		hub:            hub,
		logger:         logger,
	}
}

func (s *playoffService) RunPlayoffs(ctx context.Context, callerRole models.UserRole, limit int) (*models.PlayoffRun, error) {
	if callerRole != models.RoleAdmin {
		return nil, ErrForbiddenOperation
	}
	if limit <= 0 {
		limit = defaultPlayoffLimit
	}

	seeds, err := s.collectSeeds(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(seeds) < 2 {
		return nil, ErrNotEnoughTeams
	}

	startedAt := time.Now().UTC()
	if err := s.controlRepo.AcquireLock(ctx, startedAt); err != nil {
		if errors.Is(err, repositories.ErrPlayoffLocked) {
			return nil, ErrPlayoffAlreadyActive
		}
		return nil, fmt.Errorf("failed to acquire playoff lock: %w", err)
	}

	participantIDs := make([]string, len(seeds))
	for i, seed := range seeds {
		participantIDs[i] = seed.TeamID
	}

	run := &models.PlayoffRun{
		ID:             xid.New().String(),
		Status:         models.RunStatusRunning,
		StartedAt:      startedAt,
		ParticipantIDs: participantIDs,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		s.release(ctx, models.RunStatusFailed)
		return nil, fmt.Errorf("failed to create playoff run: %w", err)
	}
	if err := s.controlRepo.SetParticipants(ctx, participantIDs); err != nil {
		s.failRun(ctx, run)
		return nil, fmt.Errorf("failed to record playoff participants: %w", err)
	}

	s.logger.Info("playoff run started",
		slog.String("run_id", run.ID),
		slog.Int("participants", len(seeds)),
	)

	table := brackets.NewRankingTable(seeds)
	elimination := brackets.NewSingleElimination(s.player, s.matchRecorder(run.ID))

	result, err := elimination.Run(ctx, seeds, table)
	if err != nil {
		s.failRun(ctx, run)
		return nil, fmt.Errorf("playoff run %s aborted: %w", run.ID, err)
	}

	if err := brackets.ResolvePlacement(table, result.Champion, result.Buckets); err != nil {
		s.failRun(ctx, run)
		return nil, fmt.Errorf("failed to resolve placements for run %s: %w", run.ID, err)
	}

	finalTable := make([]models.FinalTableEntry, 0, table.Len())
	for _, entry := range table.Entries() {
		finalTable = append(finalTable, models.FinalTableEntry{
			Position: entry.Position,
			TeamID:   entry.Seed.TeamID,
			UserID:   entry.Seed.UserID,
			Score:    entry.BestScore,
			TeamName: entry.Seed.TeamName,
		})
	}

	completedAt := time.Now().UTC()
	if err := s.runRepo.Complete(ctx, run.ID, finalTable, completedAt); err != nil {
		s.failRun(ctx, run)
		return nil, fmt.Errorf("failed to complete playoff run %s: %w", run.ID, err)
	}
	s.release(ctx, models.RunStatusCompleted)

	run.Status = models.RunStatusCompleted
	run.CompletedAt = &completedAt
	run.FinalTable = finalTable

	if s.hub != nil {
		s.hub.BroadcastToRoom(brackets.PlayoffsRoom, brackets.WebSocketMessage{
			Type:    "RUN_COMPLETED",
			Payload: run,
			RoomID:  brackets.PlayoffsRoom,
		})
	}

	s.logger.Info("playoff run completed",
		slog.String("run_id", run.ID),
		slog.String("champion_team_id", result.Champion.TeamID),
		slog.Int("rounds", result.Rounds),
	)
	return run, nil
}

// collectSeeds loads each team's best submission and keeps the strongest
// teams up to limit, ordered by score descending.
func (s *playoffService) collectSeeds(ctx context.Context, limit int) ([]brackets.Seed, error) {
	best, err := s.submissionRepo.BestPerTeam(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load best submissions: %w", err)
	}

	sort.SliceStable(best, func(i, j int) bool {
		return best[i].Score > best[j].Score
	})
	if len(best) > limit {
		best = best[:limit]
	}

	seeds := make([]brackets.Seed, 0, len(best))
	for _, b := range best {
		seeds = append(seeds, brackets.Seed{
			TeamID:       b.TeamID,
			TeamName:     b.TeamName,
			SubmissionID: b.SubmissionID,
			UserID:       b.UserID,
			Score:        b.Score,
			ArtifactKey:  b.ArtifactKey,
		})
	}
	return seeds, nil
}

// matchRecorder persists each played pairing and announces it to the
// playoffs websocket room.
func (s *playoffService) matchRecorder(runID string) brackets.MatchRecorder {
	return brackets.MatchRecorderFunc(func(ctx context.Context, match *brackets.PlayedMatch) error {
		record := &models.PlayoffMatch{
			ID:          xid.New().String(),
			RunID:       runID,
			RoundLabel:  match.RoundLabel,
			Order:       match.Order,
			Team1ID:     match.Seed1.TeamID,
			Team1UserID: match.Seed1.UserID,
			Team1Score:  match.Score1,
			Team2ID:     match.Seed2.TeamID,
			Team2UserID: match.Seed2.UserID,
			Team2Score:  match.Score2,
			RawLog:      match.RawLog,
		}
		if err := s.matchRepo.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to save %s match %d: %w", match.RoundLabel, match.Order, err)
		}

		if s.hub != nil {
			s.hub.BroadcastToRoom(brackets.PlayoffsRoom, brackets.WebSocketMessage{
				Type:    "MATCH_PLAYED",
				Payload: record,
				RoomID:  brackets.PlayoffsRoom,
			})
		}
		return nil
	})
}

// failRun marks the run as failed and releases the lock. Both are best
// effort: the original error is what the caller needs to see.
func (s *playoffService) failRun(ctx context.Context, run *models.PlayoffRun) {
	completedAt := time.Now().UTC()
	if err := s.runRepo.MarkFailed(ctx, run.ID, completedAt); err != nil {
		s.logger.Error("failed to mark playoff run failed",
			slog.String("run_id", run.ID),
			slog.Any("error", err),
		)
	}
	s.release(ctx, models.RunStatusFailed)
}

func (s *playoffService) release(ctx context.Context, status models.RunStatus) {
	if err := s.controlRepo.Release(ctx, status, time.Now().UTC()); err != nil {
		s.logger.Error("failed to release playoff lock",
			slog.String("status", string(status)),
			slog.Any("error", err),
		)
	}
}

func (s *playoffService) LatestResults(ctx context.Context) (*models.PlayoffRun, error) {
	run, err := s.runRepo.LatestCompleted(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayoffRunNotFound) {
			return nil, ErrNoCompletedRun
		}
		return nil, fmt.Errorf("failed to load latest playoff run: %w", err)
	}
	return run, nil
}

// ListMatchesByRound groups every recorded playoff match by round label,
// earliest round first, matches in play order within each round.
func (s *playoffService) ListMatchesByRound(ctx context.Context) ([]models.PlayoffRound, error) {
	matches, err := s.matchRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list playoff matches: %w", err)
	}

	teamNames := s.teamNames(ctx)

	grouped := make(map[string][]models.PlayoffMatchView)
	for _, m := range matches {
		view := models.PlayoffMatchView{
			ID:         m.ID,
			RunID:      m.RunID,
			Order:      m.Order,
			Team1ID:    m.Team1ID,
			Team1Name:  teamNames[m.Team1ID],
			Team1Score: m.Team1Score,
			Team2ID:    m.Team2ID,
			Team2Name:  teamNames[m.Team2ID],
			Team2Score: m.Team2Score,
			CreatedAt:  m.CreatedAt,
		}
		grouped[m.RoundLabel] = append(grouped[m.RoundLabel], view)
	}

	rounds := make([]models.PlayoffRound, 0, len(grouped))
	for label, views := range grouped {
		sort.SliceStable(views, func(i, j int) bool {
			return views[i].Order < views[j].Order
		})
		rounds = append(rounds, models.PlayoffRound{Round: label, Matches: views})
	}

	// Larger bracket sizes play earlier.
	sort.SliceStable(rounds, func(i, j int) bool {
		return brackets.RoundSizeFromLabel(rounds[i].Round) > brackets.RoundSizeFromLabel(rounds[j].Round)
	})
	return rounds, nil
}

// teamNames is a best effort lookup: a missing name never blocks listing.
func (s *playoffService) teamNames(ctx context.Context) map[string]string {
	names := make(map[string]string)
	teams, err := s.teamRepo.ListAll(ctx)
	if err != nil {
		s.logger.Warn("failed to resolve team names", slog.Any("error", err))
		return names
	}
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	return names
}
