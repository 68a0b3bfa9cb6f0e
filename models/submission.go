package models

import "time"

// Submission is one uploaded bot together with the score it earned in its
// scoring match against the house bot.
type Submission struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"team_id"`
	UserID      string    `json:"user_id"`
	ArtifactKey string    `json:"artifact_key"`
	Score       float64   `json:"score"`
	CreatedAt   time.Time `json:"created_at"`
}

// SubmissionLog keeps the raw engine log of a submission's scoring match so
// the replay view can be rendered later.
type SubmissionLog struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	RawLog       string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// TeamBestSubmission is a team's single best-scoring submission, the raw
// material for leaderboard rows and playoff seeds.
type TeamBestSubmission struct {
	TeamID       string  `json:"team_id"`
	TeamName     string  `json:"team_name"`
	SubmissionID string  `json:"submission_id"`
	UserID       string  `json:"user_id"`
	Score        float64 `json:"score"`
	ArtifactKey  string  `json:"artifact_key"`
}

type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	TeamID      string  `json:"team_id"`
	TeamName    string  `json:"team_name"`
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}
