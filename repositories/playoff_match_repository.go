package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/codearena/platform/models"
)

type PlayoffMatchRepository interface {
	Create(ctx context.Context, match *models.PlayoffMatch) error
	ListByRun(ctx context.Context, runID string) ([]models.PlayoffMatch, error)
	// ListAll returns every recorded match, newest first.
	ListAll(ctx context.Context) ([]models.PlayoffMatch, error)
}

type postgresPlayoffMatchRepository struct {
	db *sql.DB
}

func NewPostgresPlayoffMatchRepository(db *sql.DB) PlayoffMatchRepository {
	return &postgresPlayoffMatchRepository{db: db}
}

func (r *postgresPlayoffMatchRepository) Create(ctx context.Context, match *models.PlayoffMatch) error {
	query := `
		INSERT INTO playoff_matches
			(id, run_id, round_label, match_order,
			 team1_id, team1_user_id, team1_score,
			 team2_id, team2_user_id, team2_score,
			 raw_log)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		match.ID, match.RunID, match.RoundLabel, match.Order,
		match.Team1ID, match.Team1UserID, match.Team1Score,
		match.Team2ID, match.Team2UserID, match.Team2Score,
		match.RawLog,
	).Scan(&match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert playoff match: %w", err)
	}
	return nil
}

func (r *postgresPlayoffMatchRepository) ListByRun(ctx context.Context, runID string) ([]models.PlayoffMatch, error) {
	query := `
		SELECT id, run_id, round_label, match_order,
		       team1_id, team1_user_id, team1_score,
		       team2_id, team2_user_id, team2_score,
		       created_at
		FROM playoff_matches
		WHERE run_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playoff matches for run %s: %w", runID, err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

func (r *postgresPlayoffMatchRepository) ListAll(ctx context.Context) ([]models.PlayoffMatch, error) {
	query := `
		SELECT id, run_id, round_label, match_order,
		       team1_id, team1_user_id, team1_score,
		       team2_id, team2_user_id, team2_score,
		       created_at
		FROM playoff_matches
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query playoff matches: %w", err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

func collectMatches(rows *sql.Rows) ([]models.PlayoffMatch, error) {
	var matches []models.PlayoffMatch
	for rows.Next() {
		var m models.PlayoffMatch
		err := rows.Scan(
			&m.ID, &m.RunID, &m.RoundLabel, &m.Order,
			&m.Team1ID, &m.Team1UserID, &m.Team1Score,
			&m.Team2ID, &m.Team2UserID, &m.Team2Score,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playoff match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating playoff matches: %w", err)
	}
	return matches, nil
}
