package brackets

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownTeam = errors.New("team is not part of this ranking table")

// RankingEntry tracks one original seed across a whole run. BestScore starts
// at the seeding score and only ever moves up; Position stays 0 until
// placements are assigned.
type RankingEntry struct {
	Seed      Seed
	BestScore float64
	Position  int
}

// RankingTable is the run's shared ranking state. It is exclusively owned by
// the orchestrator/bracket-engine pair for the lifetime of one run and is
// mutated only through its methods, never through captured closures.
type RankingTable struct {
	entries []*RankingEntry
	byTeam  map[string]*RankingEntry
}

func NewRankingTable(seeds []Seed) *RankingTable {
	t := &RankingTable{
		entries: make([]*RankingEntry, 0, len(seeds)),
		byTeam:  make(map[string]*RankingEntry, len(seeds)),
	}
	for _, s := range seeds {
		e := &RankingEntry{Seed: s, BestScore: s.Score}
		t.entries = append(t.entries, e)
		t.byTeam[s.TeamID] = e
	}
	return t
}

// UpdateBestScore raises the team's best observed score to the given value
// if it beats the current one. Losses count too: a team's best score may
// come from a match it lost.
func (t *RankingTable) UpdateBestScore(teamID string, score float64) error {
	e, ok := t.byTeam[teamID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, teamID)
	}
	if score > e.BestScore {
		e.BestScore = score
	}
	return nil
}

// BestScore returns the team's best observed score so far.
func (t *RankingTable) BestScore(teamID string) (float64, error) {
	e, ok := t.byTeam[teamID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTeam, teamID)
	}
	return e.BestScore, nil
}

func (t *RankingTable) setPosition(teamID string, position int) error {
	e, ok := t.byTeam[teamID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, teamID)
	}
	e.Position = position
	return nil
}

// Len reports the number of seeds tracked by the table.
func (t *RankingTable) Len() int {
	return len(t.entries)
}

// Entries returns the table ordered by assigned position. Entries without a
// position yet keep their original seed order at the end.
func (t *RankingTable) Entries() []RankingEntry {
	out := make([]RankingEntry, len(t.entries))
	for i, e := range t.entries {
		out[i] = *e
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position == 0 {
			return false
		}
		if out[j].Position == 0 {
			return true
		}
		return out[i].Position < out[j].Position
	})
	return out
}
