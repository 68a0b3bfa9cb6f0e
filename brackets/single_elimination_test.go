package brackets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeSeeds builds n seeds T1..Tn with strictly descending scores, already
// in rank order the way the orchestrator hands them over.
func makeSeeds(n int) []Seed {
	seeds := make([]Seed, 0, n)
	for i := 1; i <= n; i++ {
		seeds = append(seeds, Seed{
			TeamID:       fmt.Sprintf("T%d", i),
			TeamName:     fmt.Sprintf("Team %d", i),
			SubmissionID: fmt.Sprintf("S%d", i),
			UserID:       fmt.Sprintf("U%d", i),
			Score:        float64(110 - 10*i),
			ArtifactKey:  fmt.Sprintf("submissions/bot%d.py", i),
		})
	}
	return seeds
}

// fixedScorePlayer resolves every pairing with a fixed score per team.
type fixedScorePlayer struct {
	scores map[string]float64
}

func (p *fixedScorePlayer) Play(_ context.Context, s1, s2 Seed) (*MatchOutcome, error) {
	return &MatchOutcome{
		Score1: p.scores[s1.TeamID],
		Score2: p.scores[s2.TeamID],
		RawLog: "step,log",
	}, nil
}

// seedScorePlayer replays each team's seeding score as its match score.
func seedScorePlayer(seeds []Seed) *fixedScorePlayer {
	scores := make(map[string]float64, len(seeds))
	for _, s := range seeds {
		scores[s.TeamID] = s.Score
	}
	return &fixedScorePlayer{scores: scores}
}

type recordedMatches struct {
	matches []PlayedMatch
}

func (r *recordedMatches) RecordMatch(_ context.Context, m *PlayedMatch) error {
	r.matches = append(r.matches, *m)
	return nil
}

func teamIDs(seeds []Seed) []string {
	ids := make([]string, len(seeds))
	for i, s := range seeds {
		ids[i] = s.TeamID
	}
	return ids
}

func TestRunBracket_FourSeeds(t *testing.T) {
	seeds := makeSeeds(4) // T1:100 T2:90 T3:80 T4:70
	table := NewRankingTable(seeds)
	rec := &recordedMatches{}
	engine := NewSingleElimination(seedScorePlayer(seeds), rec)

	res, err := engine.Run(context.Background(), seeds, table)
	require.NoError(t, err)

	assert.Equal(t, "T1", res.Champion.TeamID)
	assert.Equal(t, 2, res.Rounds)

	require.Len(t, res.Buckets, 2)
	assert.Equal(t, []string{"T2", "T4"}, teamIDs(res.Buckets[0]))
	assert.Equal(t, []string{"T3"}, teamIDs(res.Buckets[1]))

	// Pairings are positional and recorded in play order.
	require.Len(t, rec.matches, 3)
	assert.Equal(t, "Semifinal", rec.matches[0].RoundLabel)
	assert.Equal(t, 0, rec.matches[0].Order)
	assert.Equal(t, "T1", rec.matches[0].Seed1.TeamID)
	assert.Equal(t, "T2", rec.matches[0].Seed2.TeamID)
	assert.Equal(t, "Semifinal", rec.matches[1].RoundLabel)
	assert.Equal(t, 1, rec.matches[1].Order)
	assert.Equal(t, "T3", rec.matches[1].Seed1.TeamID)
	assert.Equal(t, "T4", rec.matches[1].Seed2.TeamID)
	assert.Equal(t, "Final", rec.matches[2].RoundLabel)
	assert.Equal(t, 0, rec.matches[2].Order)
	assert.Equal(t, "T1", rec.matches[2].Seed1.TeamID)
	assert.Equal(t, "T3", rec.matches[2].Seed2.TeamID)
}

func TestRunBracket_FiveSeeds_ByeAdvancesUnplayed(t *testing.T) {
	seeds := makeSeeds(5)
	table := NewRankingTable(seeds)
	rec := &recordedMatches{}
	engine := NewSingleElimination(seedScorePlayer(seeds), rec)

	res, err := engine.Run(context.Background(), seeds, table)
	require.NoError(t, err)

	assert.Equal(t, "T1", res.Champion.TeamID)
	assert.Equal(t, 3, res.Rounds)

	// T5 had byes in rounds 1 and 2; its only recorded match is the final.
	for _, m := range rec.matches {
		if m.RoundLabel != "Final" {
			assert.NotEqual(t, "T5", m.Seed1.TeamID)
			assert.NotEqual(t, "T5", m.Seed2.TeamID)
		}
	}
	last := rec.matches[len(rec.matches)-1]
	assert.Equal(t, "Final", last.RoundLabel)
	assert.Equal(t, "T5", last.Seed2.TeamID)

	// Byes produce no losers.
	require.Len(t, res.Buckets, 3)
	assert.Equal(t, []string{"T2", "T4"}, teamIDs(res.Buckets[0]))
	assert.Equal(t, []string{"T3"}, teamIDs(res.Buckets[1]))
	assert.Equal(t, []string{"T5"}, teamIDs(res.Buckets[2]))
}

func TestRunBracket_RoundAndMatchCounts(t *testing.T) {
	for n := 2; n <= 17; n++ {
		t.Run(fmt.Sprintf("%d seeds", n), func(t *testing.T) {
			seeds := makeSeeds(n)
			table := NewRankingTable(seeds)
			rec := &recordedMatches{}
			engine := NewSingleElimination(seedScorePlayer(seeds), rec)

			res, err := engine.Run(context.Background(), seeds, table)
			require.NoError(t, err)

			wantRounds := int(math.Ceil(math.Log2(float64(n))))
			assert.Equal(t, wantRounds, res.Rounds)
			assert.Equal(t, "T1", res.Champion.TeamID)

			// Every team except the champion loses exactly once, and byes
			// are never played, so exactly n-1 matches are recorded.
			assert.Len(t, rec.matches, n-1)

			eliminated := 0
			for _, bucket := range res.Buckets {
				eliminated += len(bucket)
			}
			assert.Equal(t, n-1, eliminated)
		})
	}
}

func TestRunBracket_TieGoesToFirstListed(t *testing.T) {
	seeds := makeSeeds(2)
	table := NewRankingTable(seeds)
	player := &fixedScorePlayer{scores: map[string]float64{"T1": 42, "T2": 42}}
	engine := NewSingleElimination(player, nil)

	res, err := engine.Run(context.Background(), seeds, table)
	require.NoError(t, err)
	assert.Equal(t, "T1", res.Champion.TeamID)
}

func TestRunBracket_BestScoreIsMonotonicMax(t *testing.T) {
	seeds := makeSeeds(2) // seeding scores 100 and 90
	table := NewRankingTable(seeds)

	// The loser posts a score below its seeding score; the winner above.
	player := &fixedScorePlayer{scores: map[string]float64{"T1": 120, "T2": 10}}
	engine := NewSingleElimination(player, nil)

	_, err := engine.Run(context.Background(), seeds, table)
	require.NoError(t, err)

	best1, err := table.BestScore("T1")
	require.NoError(t, err)
	assert.Equal(t, 120.0, best1)

	// The loser keeps its seeding score: best score never decreases.
	best2, err := table.BestScore("T2")
	require.NoError(t, err)
	assert.Equal(t, 90.0, best2)
}

func TestRunBracket_LoserBestScoreCanRise(t *testing.T) {
	seeds := makeSeeds(2)
	table := NewRankingTable(seeds)
	player := &fixedScorePlayer{scores: map[string]float64{"T1": 130, "T2": 125}}
	engine := NewSingleElimination(player, nil)

	_, err := engine.Run(context.Background(), seeds, table)
	require.NoError(t, err)

	best2, err := table.BestScore("T2")
	require.NoError(t, err)
	assert.Equal(t, 125.0, best2, "a lost match still counts toward the best score")
}

type failingPlayer struct {
	failAt int
	played int
	inner  MatchPlayer
}

func (p *failingPlayer) Play(ctx context.Context, s1, s2 Seed) (*MatchOutcome, error) {
	p.played++
	if p.played == p.failAt {
		return nil, errors.New("engine exited with status 1")
	}
	return p.inner.Play(ctx, s1, s2)
}

func TestRunBracket_PlayerErrorAbortsRun(t *testing.T) {
	seeds := makeSeeds(4)
	table := NewRankingTable(seeds)
	rec := &recordedMatches{}
	player := &failingPlayer{failAt: 2, inner: seedScorePlayer(seeds)}
	engine := NewSingleElimination(player, rec)

	res, err := engine.Run(context.Background(), seeds, table)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "engine exited")

	// The first pairing was recorded before the failure, nothing after.
	assert.Len(t, rec.matches, 1)
}

func TestRunBracket_RecorderErrorAbortsRun(t *testing.T) {
	seeds := makeSeeds(4)
	table := NewRankingTable(seeds)
	recorder := MatchRecorderFunc(func(context.Context, *PlayedMatch) error {
		return errors.New("insert failed")
	})
	engine := NewSingleElimination(seedScorePlayer(seeds), recorder)

	_, err := engine.Run(context.Background(), seeds, table)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert failed")
}

func TestRunBracket_RequiresTwoSeeds(t *testing.T) {
	engine := NewSingleElimination(seedScorePlayer(nil), nil)

	for _, n := range []int{0, 1} {
		seeds := makeSeeds(n)
		_, err := engine.Run(context.Background(), seeds, NewRankingTable(seeds))
		assert.ErrorIs(t, err, ErrNotEnoughSeeds)
	}
}

func TestRoundLabel(t *testing.T) {
	cases := map[int]string{
		2:  "Final",
		4:  "Semifinal",
		8:  "Quarterfinal",
		16: "Round of 16",
		3:  "Round of 3",
		5:  "Round of 5",
		32: "Round of 32",
	}
	for size, want := range cases {
		assert.Equal(t, want, RoundLabel(size))
		assert.Equal(t, size, RoundSizeFromLabel(want))
	}
	assert.Equal(t, 0, RoundSizeFromLabel("Consolation"))
}
