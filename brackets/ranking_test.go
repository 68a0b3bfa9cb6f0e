package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankingTable_UpdateBestScore(t *testing.T) {
	seeds := makeSeeds(2)
	table := NewRankingTable(seeds)

	// Seeding score is the starting point.
	best, err := table.BestScore("T1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, best)

	// Lower scores never pull the best score down.
	require.NoError(t, table.UpdateBestScore("T1", 40))
	best, _ = table.BestScore("T1")
	assert.Equal(t, 100.0, best)

	require.NoError(t, table.UpdateBestScore("T1", 140))
	best, _ = table.BestScore("T1")
	assert.Equal(t, 140.0, best)
}

func TestRankingTable_UnknownTeam(t *testing.T) {
	table := NewRankingTable(makeSeeds(2))

	assert.ErrorIs(t, table.UpdateBestScore("nope", 1), ErrUnknownTeam)
	_, err := table.BestScore("nope")
	assert.ErrorIs(t, err, ErrUnknownTeam)
	assert.ErrorIs(t, table.setPosition("nope", 1), ErrUnknownTeam)
}

func TestRankingTable_EntriesKeepSeedOrderUntilPlaced(t *testing.T) {
	seeds := makeSeeds(3)
	table := NewRankingTable(seeds)

	entries := table.Entries()
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, seeds[i].TeamID, e.Seed.TeamID)
		assert.Equal(t, 0, e.Position)
	}

	// Placed entries sort ahead of unplaced ones.
	require.NoError(t, table.setPosition("T3", 1))
	entries = table.Entries()
	assert.Equal(t, "T3", entries[0].Seed.TeamID)
	assert.Equal(t, "T1", entries[1].Seed.TeamID)
	assert.Equal(t, "T2", entries[2].Seed.TeamID)
}
