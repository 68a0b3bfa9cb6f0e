package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codearena/platform/brackets"
	"github.com/codearena/platform/models"
	"github.com/codearena/platform/repositories"
)

type fakeRunRepo struct {
	runs []*models.PlayoffRun
}

func (f *fakeRunRepo) Create(_ context.Context, run *models.PlayoffRun) error {
	copied := *run
	f.runs = append(f.runs, &copied)
	return nil
}

func (f *fakeRunRepo) Complete(_ context.Context, id string, finalTable []models.FinalTableEntry, completedAt time.Time) error {
	run := f.find(id)
	if run == nil {
		return repositories.ErrPlayoffRunNotFound
	}
	run.Status = models.RunStatusCompleted
	run.CompletedAt = &completedAt
	run.FinalTable = finalTable
	return nil
}

func (f *fakeRunRepo) MarkFailed(_ context.Context, id string, completedAt time.Time) error {
	run := f.find(id)
	if run == nil {
		return repositories.ErrPlayoffRunNotFound
	}
	run.Status = models.RunStatusFailed
	run.CompletedAt = &completedAt
	return nil
}

func (f *fakeRunRepo) GetByID(_ context.Context, id string) (*models.PlayoffRun, error) {
	if run := f.find(id); run != nil {
		return run, nil
	}
	return nil, repositories.ErrPlayoffRunNotFound
}

func (f *fakeRunRepo) LatestCompleted(_ context.Context) (*models.PlayoffRun, error) {
	for i := len(f.runs) - 1; i >= 0; i-- {
		if f.runs[i].Status == models.RunStatusCompleted {
			return f.runs[i], nil
		}
	}
	return nil, repositories.ErrPlayoffRunNotFound
}

func (f *fakeRunRepo) find(id string) *models.PlayoffRun {
	for _, run := range f.runs {
		if run.ID == id {
			return run
		}
	}
	return nil
}

type fakeMatchRepo struct {
	matches []*models.PlayoffMatch
}

func (f *fakeMatchRepo) Create(_ context.Context, match *models.PlayoffMatch) error {
	match.CreatedAt = time.Unix(int64(len(f.matches)), 0)
	copied := *match
	f.matches = append(f.matches, &copied)
	return nil
}

func (f *fakeMatchRepo) ListByRun(_ context.Context, runID string) ([]models.PlayoffMatch, error) {
	var out []models.PlayoffMatch
	for _, m := range f.matches {
		if m.RunID == runID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMatchRepo) ListAll(_ context.Context) ([]models.PlayoffMatch, error) {
	out := make([]models.PlayoffMatch, 0, len(f.matches))
	for i := len(f.matches) - 1; i >= 0; i-- {
		out = append(out, *f.matches[i])
	}
	return out, nil
}

type fakeControlRepo struct {
	locked   bool
	released []models.RunStatus
}

func (f *fakeControlRepo) AcquireLock(_ context.Context, _ time.Time) error {
	if f.locked {
		return repositories.ErrPlayoffLocked
	}
	f.locked = true
	return nil
}

func (f *fakeControlRepo) SetParticipants(_ context.Context, _ []string) error {
	return nil
}

func (f *fakeControlRepo) Release(_ context.Context, status models.RunStatus, _ time.Time) error {
	f.locked = false
	f.released = append(f.released, status)
	return nil
}

func (f *fakeControlRepo) Get(_ context.Context) (*models.PlayoffControl, error) {
	return nil, nil
}

type fakeSubmissionRepo struct {
	repositories.SubmissionRepository
	best []*models.TeamBestSubmission
}

func (f *fakeSubmissionRepo) BestPerTeam(_ context.Context) ([]*models.TeamBestSubmission, error) {
	out := make([]*models.TeamBestSubmission, len(f.best))
	copy(out, f.best)
	return out, nil
}

type fakeTeamRepo struct {
	repositories.TeamRepository
	teams []*models.Team
}

func (f *fakeTeamRepo) ListAll(_ context.Context) ([]*models.Team, error) {
	return f.teams, nil
}

// seedingPlayer resolves every pairing outcome from the seeds' own
// scores, so higher-seeded teams always advance.
type seedingPlayer struct{}

func (seedingPlayer) Play(_ context.Context, seed1, seed2 brackets.Seed) (*brackets.MatchOutcome, error) {
	return &brackets.MatchOutcome{
		Score1: seed1.Score,
		Score2: seed2.Score,
		RawLog: "tick\n1\n",
	}, nil
}

type brokenPlayer struct{}

func (brokenPlayer) Play(_ context.Context, _, _ brackets.Seed) (*brackets.MatchOutcome, error) {
	return nil, errors.New("engine exploded")
}

func bestSubmissions(n int) []*models.TeamBestSubmission {
	out := make([]*models.TeamBestSubmission, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, &models.TeamBestSubmission{
			TeamID:       fmt.Sprintf("T%d", i),
			TeamName:     fmt.Sprintf("Team %d", i),
			SubmissionID: fmt.Sprintf("S%d", i),
			UserID:       fmt.Sprintf("U%d", i),
			Score:        float64(110 - 10*i),
			ArtifactKey:  fmt.Sprintf("submissions/bot%d.py", i),
		})
	}
	return out
}

type playoffFixture struct {
	svc     PlayoffService
	runs    *fakeRunRepo
	matches *fakeMatchRepo
	control *fakeControlRepo
}

func newPlayoffFixture(player brackets.MatchPlayer, best []*models.TeamBestSubmission) *playoffFixture {
	runs := &fakeRunRepo{}
	matches := &fakeMatchRepo{}
	control := &fakeControlRepo{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewPlayoffService(
		runs, matches, control,
		&fakeSubmissionRepo{best: best},
		&fakeTeamRepo{},
		player, nil, logger,
	)
	return &playoffFixture{svc: svc, runs: runs, matches: matches, control: control}
}

func TestRunPlayoffs_FourTeams(t *testing.T) {
	f := newPlayoffFixture(seedingPlayer{}, bestSubmissions(4))

	run, err := f.svc.RunPlayoffs(context.Background(), models.RoleAdmin, 0)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompleted, run.Status)
	require.NotNil(t, run.CompletedAt)
	assert.Equal(t, []string{"T1", "T2", "T3", "T4"}, run.ParticipantIDs)

	require.Len(t, run.FinalTable, 4)
	wantOrder := []string{"T1", "T3", "T2", "T4"}
	for i, entry := range run.FinalTable {
		assert.Equal(t, i+1, entry.Position)
		assert.Equal(t, wantOrder[i], entry.TeamID)
	}

	require.Len(t, f.matches.matches, 3)
	assert.Equal(t, "Semifinal", f.matches.matches[0].RoundLabel)
	assert.Equal(t, 0, f.matches.matches[0].Order)
	assert.Equal(t, "Semifinal", f.matches.matches[1].RoundLabel)
	assert.Equal(t, 1, f.matches.matches[1].Order)
	assert.Equal(t, "Final", f.matches.matches[2].RoundLabel)
	for _, m := range f.matches.matches {
		assert.Equal(t, run.ID, m.RunID)
	}

	assert.False(t, f.control.locked)
	assert.Equal(t, []models.RunStatus{models.RunStatusCompleted}, f.control.released)
}

func TestRunPlayoffs_RequiresAdmin(t *testing.T) {
	f := newPlayoffFixture(seedingPlayer{}, bestSubmissions(4))

	_, err := f.svc.RunPlayoffs(context.Background(), models.RolePlayer, 0)
	assert.ErrorIs(t, err, ErrForbiddenOperation)
	assert.False(t, f.control.locked)
	assert.Empty(t, f.runs.runs)
}

func TestRunPlayoffs_NotEnoughTeams(t *testing.T) {
	f := newPlayoffFixture(seedingPlayer{}, bestSubmissions(1))

	_, err := f.svc.RunPlayoffs(context.Background(), models.RoleAdmin, 0)
	assert.ErrorIs(t, err, ErrNotEnoughTeams)

	// Precondition failures must leave no trace.
	assert.False(t, f.control.locked)
	assert.Empty(t, f.runs.runs)
	assert.Empty(t, f.matches.matches)
}

func TestRunPlayoffs_AlreadyRunning(t *testing.T) {
	f := newPlayoffFixture(seedingPlayer{}, bestSubmissions(4))
	f.control.locked = true

	_, err := f.svc.RunPlayoffs(context.Background(), models.RoleAdmin, 0)
	assert.ErrorIs(t, err, ErrPlayoffAlreadyActive)
	assert.Empty(t, f.runs.runs)
}

func TestRunPlayoffs_EngineFailureMarksRunFailed(t *testing.T) {
	f := newPlayoffFixture(brokenPlayer{}, bestSubmissions(4))

	_, err := f.svc.RunPlayoffs(context.Background(), models.RoleAdmin, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine exploded")

	require.Len(t, f.runs.runs, 1)
	assert.Equal(t, models.RunStatusFailed, f.runs.runs[0].Status)
	require.NotNil(t, f.runs.runs[0].CompletedAt)

	assert.False(t, f.control.locked)
	assert.Equal(t, []models.RunStatus{models.RunStatusFailed}, f.control.released)

	_, err = f.svc.LatestResults(context.Background())
	assert.ErrorIs(t, err, ErrNoCompletedRun)
}

func TestRunPlayoffs_LimitTruncatesField(t *testing.T) {
	f := newPlayoffFixture(seedingPlayer{}, bestSubmissions(5))

	run, err := f.svc.RunPlayoffs(context.Background(), models.RoleAdmin, 4)
	require.NoError(t, err)

	assert.Equal(t, []string{"T1", "T2", "T3", "T4"}, run.ParticipantIDs)
	assert.Len(t, run.FinalTable, 4)
}

func TestLatestResults_ReturnsMostRecentCompleted(t *testing.T) {
	f := newPlayoffFixture(seedingPlayer{}, bestSubmissions(2))

	first, err := f.svc.RunPlayoffs(context.Background(), models.RoleAdmin, 0)
	require.NoError(t, err)
	second, err := f.svc.RunPlayoffs(context.Background(), models.RoleAdmin, 0)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	latest, err := f.svc.LatestResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestListMatchesByRound_GroupsEarliestRoundFirst(t *testing.T) {
	f := newPlayoffFixture(seedingPlayer{}, bestSubmissions(8))

	_, err := f.svc.RunPlayoffs(context.Background(), models.RoleAdmin, 0)
	require.NoError(t, err)

	rounds, err := f.svc.ListMatchesByRound(context.Background())
	require.NoError(t, err)

	require.Len(t, rounds, 3)
	assert.Equal(t, "Quarterfinal", rounds[0].Round)
	assert.Equal(t, "Semifinal", rounds[1].Round)
	assert.Equal(t, "Final", rounds[2].Round)

	require.Len(t, rounds[0].Matches, 4)
	for i, m := range rounds[0].Matches {
		assert.Equal(t, i, m.Order)
	}
	assert.Len(t, rounds[1].Matches, 2)
	assert.Len(t, rounds[2].Matches, 1)
}
