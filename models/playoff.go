package models

import "time"

// RunStatus is the lifecycle of one playoff orchestration run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// PlayoffRun is the audit record of one tournament invocation and the
// source queried for "latest results". Exactly one exists per invocation.
type PlayoffRun struct {
	ID             string            `json:"id"`
	Status         RunStatus         `json:"status"`
	StartedAt      time.Time         `json:"started_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	ParticipantIDs []string          `json:"participant_ids"`
	FinalTable     []FinalTableEntry `json:"final_table,omitempty"`
}

// FinalTableEntry is one row of a completed run's final ranking.
type FinalTableEntry struct {
	Position int     `json:"position"`
	TeamID   string  `json:"team_id"`
	UserID   string  `json:"user_id"`
	Score    float64 `json:"score"`
	TeamName string  `json:"team_name"`
}

// PlayoffMatch is the persisted record of one played pairing. Rows are
// append-only facts and are never mutated after creation.
type PlayoffMatch struct {
	ID          string    `json:"id"`
	RunID       string    `json:"run_id"`
	RoundLabel  string    `json:"round"`
	Order       int       `json:"order"`
	Team1ID     string    `json:"team1_id"`
	Team1UserID string    `json:"team1_user_id"`
	Team1Score  float64   `json:"team1_score"`
	Team2ID     string    `json:"team2_id"`
	Team2UserID string    `json:"team2_user_id"`
	Team2Score  float64   `json:"team2_score"`
	RawLog      string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// PlayoffMatchView is a PlayoffMatch enriched with team names for display.
type PlayoffMatchView struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	Order      int       `json:"order"`
	Team1ID    string    `json:"team1_id"`
	Team1Name  string    `json:"team1_name"`
	Team1Score float64   `json:"team1_score"`
	Team2ID    string    `json:"team2_id"`
	Team2Name  string    `json:"team2_name"`
	Team2Score float64   `json:"team2_score"`
	CreatedAt  time.Time `json:"created_at"`
}

// PlayoffControl is the single durable control record for playoff runs. It
// doubles as the run lock: a run may only start by flipping its status to
// running via compare-and-swap, so two admins cannot start two concurrent
// tournaments.
type PlayoffControl struct {
	Key            string     `json:"key"`
	Status         RunStatus  `json:"status"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ParticipantIDs []string   `json:"participant_ids,omitempty"`
}

// PlayoffRound groups the played matches of one bracket round.
type PlayoffRound struct {
	Round   string             `json:"round"`
	Matches []PlayoffMatchView `json:"matches"`
}
