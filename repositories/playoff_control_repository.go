package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/codearena/platform/models"
)

var ErrPlayoffLocked = errors.New("a playoff run is already in progress")

const playoffControlKey = "playoffs"

// PlayoffControlRepository guards the single playoff lock row. Acquire is a
// compare-and-swap: it only succeeds when no run is currently in progress.
type PlayoffControlRepository interface {
	AcquireLock(ctx context.Context, startedAt time.Time) error
	SetParticipants(ctx context.Context, participantIDs []string) error
	Release(ctx context.Context, status models.RunStatus, completedAt time.Time) error
	Get(ctx context.Context) (*models.PlayoffControl, error)
}

type postgresPlayoffControlRepository struct {
	db *sql.DB
}

func NewPostgresPlayoffControlRepository(db *sql.DB) PlayoffControlRepository {
	return &postgresPlayoffControlRepository{db: db}
}

func (r *postgresPlayoffControlRepository) AcquireLock(ctx context.Context, startedAt time.Time) error {
	query := `
		INSERT INTO playoff_control AS pc (key, status, started_at, completed_at, participant_ids)
		VALUES ($1, $2, $3, NULL, NULL)
		ON CONFLICT (key) DO UPDATE
		SET status = $2, started_at = $3, completed_at = NULL, participant_ids = NULL
		WHERE pc.status <> $2`

	result, err := r.db.ExecContext(ctx, query, playoffControlKey, models.RunStatusRunning, startedAt)
	if err != nil {
		return fmt.Errorf("failed to acquire playoff lock: %w", err)
	}
	return checkAffectedRows(result, ErrPlayoffLocked)
}

func (r *postgresPlayoffControlRepository) SetParticipants(ctx context.Context, participantIDs []string) error {
	query := `UPDATE playoff_control SET participant_ids = $1 WHERE key = $2`

	_, err := r.db.ExecContext(ctx, query, pq.Array(participantIDs), playoffControlKey)
	if err != nil {
		return fmt.Errorf("failed to record playoff participants: %w", err)
	}
	return nil
}

func (r *postgresPlayoffControlRepository) Release(ctx context.Context, status models.RunStatus, completedAt time.Time) error {
	query := `UPDATE playoff_control SET status = $1, completed_at = $2 WHERE key = $3`

	_, err := r.db.ExecContext(ctx, query, status, completedAt, playoffControlKey)
	if err != nil {
		return fmt.Errorf("failed to release playoff lock: %w", err)
	}
	return nil
}

func (r *postgresPlayoffControlRepository) Get(ctx context.Context) (*models.PlayoffControl, error) {
	query := `
		SELECT key, status, started_at, completed_at, participant_ids
		FROM playoff_control
		WHERE key = $1`

	control := &models.PlayoffControl{}
	var participantIDs pq.StringArray
	err := r.db.QueryRowContext(ctx, query, playoffControlKey).Scan(
		&control.Key, &control.Status, &control.StartedAt, &control.CompletedAt, &participantIDs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query playoff control: %w", err)
	}
	control.ParticipantIDs = participantIDs
	return control, nil
}
