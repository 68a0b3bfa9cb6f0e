package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/codearena/platform/models"
)

var ErrPlayoffRunNotFound = errors.New("playoff run not found")

type PlayoffRunRepository interface {
	Create(ctx context.Context, run *models.PlayoffRun) error
	// Complete stores the final table and flips the run to completed.
	Complete(ctx context.Context, id string, finalTable []models.FinalTableEntry, completedAt time.Time) error
	// MarkFailed flips the run to the failed terminal status.
	MarkFailed(ctx context.Context, id string, completedAt time.Time) error
	GetByID(ctx context.Context, id string) (*models.PlayoffRun, error)
	// LatestCompleted returns the most recently completed run. Failed and
	// still-running runs never shadow older completed results.
	LatestCompleted(ctx context.Context) (*models.PlayoffRun, error)
}

type postgresPlayoffRunRepository struct {
	db *sql.DB
}

func NewPostgresPlayoffRunRepository(db *sql.DB) PlayoffRunRepository {
	return &postgresPlayoffRunRepository{db: db}
}

func (r *postgresPlayoffRunRepository) Create(ctx context.Context, run *models.PlayoffRun) error {
	query := `
		INSERT INTO playoff_runs (id, status, started_at, participant_ids)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Status, run.StartedAt, pq.Array(run.ParticipantIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to insert playoff run: %w", err)
	}
	return nil
}

func (r *postgresPlayoffRunRepository) Complete(ctx context.Context, id string, finalTable []models.FinalTableEntry, completedAt time.Time) error {
	tableJSON, err := json.Marshal(finalTable)
	if err != nil {
		return fmt.Errorf("failed to marshal final table: %w", err)
	}

	query := `
		UPDATE playoff_runs
		SET status = $1, completed_at = $2, final_table = $3
		WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, models.RunStatusCompleted, completedAt, tableJSON, id)
	if err != nil {
		return fmt.Errorf("failed to complete playoff run %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayoffRunNotFound)
}

func (r *postgresPlayoffRunRepository) MarkFailed(ctx context.Context, id string, completedAt time.Time) error {
	query := `
		UPDATE playoff_runs
		SET status = $1, completed_at = $2
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, models.RunStatusFailed, completedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark playoff run %s failed: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayoffRunNotFound)
}

func (r *postgresPlayoffRunRepository) GetByID(ctx context.Context, id string) (*models.PlayoffRun, error) {
	query := `
		SELECT id, status, started_at, completed_at, participant_ids, final_table
		FROM playoff_runs
		WHERE id = $1`
	return r.scanRun(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresPlayoffRunRepository) LatestCompleted(ctx context.Context) (*models.PlayoffRun, error) {
	query := `
		SELECT id, status, started_at, completed_at, participant_ids, final_table
		FROM playoff_runs
		WHERE status = $1
		ORDER BY completed_at DESC
		LIMIT 1`
	return r.scanRun(r.db.QueryRowContext(ctx, query, models.RunStatusCompleted))
}

func (r *postgresPlayoffRunRepository) scanRun(row *sql.Row) (*models.PlayoffRun, error) {
	run := &models.PlayoffRun{}
	var participantIDs pq.StringArray
	var tableJSON []byte

	err := row.Scan(&run.ID, &run.Status, &run.StartedAt, &run.CompletedAt, &participantIDs, &tableJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayoffRunNotFound
		}
		return nil, fmt.Errorf("failed to scan playoff run: %w", err)
	}

	run.ParticipantIDs = participantIDs
	if len(tableJSON) > 0 {
		if err := json.Unmarshal(tableJSON, &run.FinalTable); err != nil {
			return nil, fmt.Errorf("failed to unmarshal final table for run %s: %w", run.ID, err)
		}
	}
	return run, nil
}
