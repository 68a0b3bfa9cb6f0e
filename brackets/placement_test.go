package brackets

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePlacement_FourSeeds(t *testing.T) {
	seeds := makeSeeds(4) // T1:100 T2:90 T3:80 T4:70
	table := NewRankingTable(seeds)
	engine := NewSingleElimination(seedScorePlayer(seeds), nil)

	res, err := engine.Run(context.Background(), seeds, table)
	require.NoError(t, err)

	require.NoError(t, ResolvePlacement(table, res.Champion, res.Buckets))

	entries := table.Entries()
	require.Len(t, entries, 4)
	// Champion first, then the runner-up bucket, then first-round losers
	// ordered by best score descending.
	assert.Equal(t, "T1", entries[0].Seed.TeamID)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, "T3", entries[1].Seed.TeamID)
	assert.Equal(t, 2, entries[1].Position)
	assert.Equal(t, "T2", entries[2].Seed.TeamID)
	assert.Equal(t, 3, entries[2].Position)
	assert.Equal(t, "T4", entries[3].Seed.TeamID)
	assert.Equal(t, 4, entries[3].Position)
}

func TestResolvePlacement_DensePermutation(t *testing.T) {
	for n := 2; n <= 16; n++ {
		t.Run(fmt.Sprintf("%d seeds", n), func(t *testing.T) {
			seeds := makeSeeds(n)
			table := NewRankingTable(seeds)
			engine := NewSingleElimination(seedScorePlayer(seeds), nil)

			res, err := engine.Run(context.Background(), seeds, table)
			require.NoError(t, err)
			require.NoError(t, ResolvePlacement(table, res.Champion, res.Buckets))

			seen := make(map[int]string, n)
			for _, e := range table.Entries() {
				require.GreaterOrEqual(t, e.Position, 1)
				require.LessOrEqual(t, e.Position, n)
				_, dup := seen[e.Position]
				require.False(t, dup, "position %d assigned twice", e.Position)
				seen[e.Position] = e.Seed.TeamID
			}
			require.Len(t, seen, n)
			assert.Equal(t, res.Champion.TeamID, seen[1])
		})
	}
}

func TestResolvePlacement_LaterEliminationRanksHigher(t *testing.T) {
	seeds := makeSeeds(8)
	table := NewRankingTable(seeds)
	engine := NewSingleElimination(seedScorePlayer(seeds), nil)

	res, err := engine.Run(context.Background(), seeds, table)
	require.NoError(t, err)
	require.NoError(t, ResolvePlacement(table, res.Champion, res.Buckets))

	positionOf := make(map[string]int)
	for _, e := range table.Entries() {
		positionOf[e.Seed.TeamID] = e.Position
	}

	// Every finalist outranks every semifinal loser, which outranks every
	// quarterfinal loser, regardless of scores.
	for b := len(res.Buckets) - 1; b > 0; b-- {
		for _, later := range res.Buckets[b] {
			for _, earlier := range res.Buckets[b-1] {
				assert.Less(t, positionOf[later.TeamID], positionOf[earlier.TeamID],
					"%s (round %d loser) should outrank %s (round %d loser)",
					later.TeamID, b+1, earlier.TeamID, b)
			}
		}
	}
}

func TestResolvePlacement_BucketTiesKeepSeedOrder(t *testing.T) {
	seeds := makeSeeds(4)
	table := NewRankingTable(seeds)
	// Every match scores equal, so the first-listed seed always advances
	// and both first-round losers end up tied on best score.
	player := &fixedScorePlayer{scores: map[string]float64{
		"T1": 150, "T2": 150, "T3": 150, "T4": 150,
	}}
	engine := NewSingleElimination(player, nil)

	res, err := engine.Run(context.Background(), seeds, table)
	require.NoError(t, err)
	require.NoError(t, ResolvePlacement(table, res.Champion, res.Buckets))

	entries := table.Entries()
	assert.Equal(t, "T1", entries[0].Seed.TeamID)
	assert.Equal(t, "T3", entries[1].Seed.TeamID)
	// T2 and T4 share a bucket and a best score; the earlier seed wins the tie.
	assert.Equal(t, "T2", entries[2].Seed.TeamID)
	assert.Equal(t, "T4", entries[3].Seed.TeamID)
}

func TestResolvePlacement_UnknownChampion(t *testing.T) {
	seeds := makeSeeds(2)
	table := NewRankingTable(seeds)

	err := ResolvePlacement(table, Seed{TeamID: "stranger"}, nil)
	assert.ErrorIs(t, err, ErrUnknownTeam)
}
