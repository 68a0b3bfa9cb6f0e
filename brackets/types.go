package brackets

import "context"

// Seed is an immutable participant snapshot taken at seeding time from a
// team's best-scoring submission.
type Seed struct {
	TeamID       string  `json:"team_id"`
	TeamName     string  `json:"team_name"`
	SubmissionID string  `json:"submission_id"`
	UserID       string  `json:"user_id"`
	Score        float64 `json:"score"`
	ArtifactKey  string  `json:"artifact_key"`
}

// MatchOutcome is the result of one played pairing as reported by the
// match engine: both final scores plus the raw engine log, kept verbatim
// so it can be persisted for later replay.
type MatchOutcome struct {
	Score1 float64
	Score2 float64
	RawLog string
}

// MatchPlayer resolves a single pairing. Seed1 is the first-listed
// (position-A) participant.
type MatchPlayer interface {
	Play(ctx context.Context, seed1, seed2 Seed) (*MatchOutcome, error)
}

// PlayedMatch describes one resolved pairing, emitted to the recorder in
// play order before the next pairing starts.
type PlayedMatch struct {
	RoundLabel string
	Order      int
	Seed1      Seed
	Seed2      Seed
	Score1     float64
	Score2     float64
	RawLog     string
}

// MatchRecorder receives every played pairing. Byes are never recorded.
type MatchRecorder interface {
	RecordMatch(ctx context.Context, match *PlayedMatch) error
}

// MatchRecorderFunc adapts a function to the MatchRecorder interface.
type MatchRecorderFunc func(ctx context.Context, match *PlayedMatch) error

func (f MatchRecorderFunc) RecordMatch(ctx context.Context, match *PlayedMatch) error {
	return f(ctx, match)
}
