package brackets

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotEnoughSeeds = errors.New("not enough seeds to run a single elimination bracket (minimum 2)")

// SingleElimination runs a bracket to completion: seeds enter round 1 in
// their given order, consecutive seeds are paired positionally, and rounds
// repeat until one champion remains. Pairings are resolved strictly
// sequentially; the engine subprocess behind MatchPlayer is expensive and
// the ranking table is not safe for concurrent writers.
type SingleElimination struct {
	player   MatchPlayer
	recorder MatchRecorder
}

func NewSingleElimination(player MatchPlayer, recorder MatchRecorder) *SingleElimination {
	return &SingleElimination{player: player, recorder: recorder}
}

// Result is the outcome of a completed bracket. Buckets holds the losers of
// each round, earliest round first; byes contribute no losers.
type Result struct {
	Champion Seed
	Buckets  [][]Seed
	Rounds   int
}

// Run drives the bracket until one participant remains. The caller must have
// ordered seeds by descending score and capped them already; no re-seeding
// happens here, position 0 plays position 1 and so on.
//
// Both participants' best scores are updated after every pairing, the
// loser's included. Any player or recorder error aborts the entire run;
// a half-finished bracket is never treated as final.
func (e *SingleElimination) Run(ctx context.Context, seeds []Seed, table *RankingTable) (*Result, error) {
	if len(seeds) < 2 {
		return nil, ErrNotEnoughSeeds
	}

	bracket := make([]Seed, len(seeds))
	copy(bracket, seeds)

	var buckets [][]Seed
	rounds := 0

	for len(bracket) > 1 {
		label := RoundLabel(len(bracket))
		winners := make([]Seed, 0, (len(bracket)+1)/2)
		losers := make([]Seed, 0, len(bracket)/2)

		for i := 0; i+1 < len(bracket); i += 2 {
			seed1, seed2 := bracket[i], bracket[i+1]
			order := i / 2

			outcome, err := e.player.Play(ctx, seed1, seed2)
			if err != nil {
				return nil, fmt.Errorf("%s, pairing %d (%s vs %s): %w", label, order, seed1.TeamID, seed2.TeamID, err)
			}

			if err := table.UpdateBestScore(seed1.TeamID, outcome.Score1); err != nil {
				return nil, err
			}
			if err := table.UpdateBestScore(seed2.TeamID, outcome.Score2); err != nil {
				return nil, err
			}

			if e.recorder != nil {
				played := &PlayedMatch{
					RoundLabel: label,
					Order:      order,
					Seed1:      seed1,
					Seed2:      seed2,
					Score1:     outcome.Score1,
					Score2:     outcome.Score2,
					RawLog:     outcome.RawLog,
				}
				if err := e.recorder.RecordMatch(ctx, played); err != nil {
					return nil, fmt.Errorf("record %s, pairing %d: %w", label, order, err)
				}
			}

			// Ties resolve in favor of the first-listed participant.
			if outcome.Score1 >= outcome.Score2 {
				winners = append(winners, seed1)
				losers = append(losers, seed2)
			} else {
				winners = append(winners, seed2)
				losers = append(losers, seed1)
			}
		}

		if len(bracket)%2 == 1 {
			// Odd bracket: the last seed gets a bye and advances unplayed.
			winners = append(winners, bracket[len(bracket)-1])
		}

		buckets = append(buckets, losers)
		bracket = winners
		rounds++
	}

	return &Result{Champion: bracket[0], Buckets: buckets, Rounds: rounds}, nil
}
