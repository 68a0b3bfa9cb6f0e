package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/codearena/platform/models"
)

var (
	ErrSubmissionNotFound    = errors.New("submission not found")
	ErrSubmissionLogNotFound = errors.New("submission log not found")
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	LatestByUser(ctx context.Context, userID string) (*models.Submission, error)
	ListByTeam(ctx context.Context, teamID string, limit int) ([]*models.Submission, error)
	// BestPerTeam returns each team's single best-scoring submission.
	// Teams without submissions are absent from the result.
	BestPerTeam(ctx context.Context) ([]*models.TeamBestSubmission, error)

	CreateLog(ctx context.Context, log *models.SubmissionLog) error
	GetLogBySubmission(ctx context.Context, submissionID string) (*models.SubmissionLog, error)
}

type postgresSubmissionRepository struct {
	db *sql.DB
}

func NewPostgresSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &postgresSubmissionRepository{db: db}
}

func (r *postgresSubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	query := `
		INSERT INTO submissions (id, team_id, user_id, artifact_key, score)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return r.db.QueryRowContext(ctx, query,
		submission.ID, submission.TeamID, submission.UserID, submission.ArtifactKey, submission.Score,
	).Scan(&submission.CreatedAt)
}

func (r *postgresSubmissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `
		SELECT id, team_id, user_id, artifact_key, score, created_at
		FROM submissions
		WHERE id = $1`
	return r.scanSubmission(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresSubmissionRepository) LatestByUser(ctx context.Context, userID string) (*models.Submission, error) {
	query := `
		SELECT id, team_id, user_id, artifact_key, score, created_at
		FROM submissions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`
	return r.scanSubmission(r.db.QueryRowContext(ctx, query, userID))
}

func (r *postgresSubmissionRepository) scanSubmission(row *sql.Row) (*models.Submission, error) {
	s := &models.Submission{}
	err := row.Scan(&s.ID, &s.TeamID, &s.UserID, &s.ArtifactKey, &s.Score, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to scan submission: %w", err)
	}
	return s, nil
}

func (r *postgresSubmissionRepository) ListByTeam(ctx context.Context, teamID string, limit int) ([]*models.Submission, error) {
	query := `
		SELECT id, team_id, user_id, artifact_key, score, created_at
		FROM submissions
		WHERE team_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions for team %s: %w", teamID, err)
	}
	defer rows.Close()

	submissions := make([]*models.Submission, 0)
	for rows.Next() {
		s := &models.Submission{}
		if err := rows.Scan(&s.ID, &s.TeamID, &s.UserID, &s.ArtifactKey, &s.Score, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission row: %w", err)
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

func (r *postgresSubmissionRepository) BestPerTeam(ctx context.Context) ([]*models.TeamBestSubmission, error) {
	query := `
		SELECT DISTINCT ON (s.team_id)
			s.team_id, t.name, s.id, s.user_id, s.score, s.artifact_key
		FROM submissions s
		JOIN teams t ON t.id = s.team_id
		ORDER BY s.team_id, s.score DESC, s.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query best submissions per team: %w", err)
	}
	defer rows.Close()

	best := make([]*models.TeamBestSubmission, 0)
	for rows.Next() {
		b := &models.TeamBestSubmission{}
		if err := rows.Scan(&b.TeamID, &b.TeamName, &b.SubmissionID, &b.UserID, &b.Score, &b.ArtifactKey); err != nil {
			return nil, fmt.Errorf("failed to scan best submission row: %w", err)
		}
		best = append(best, b)
	}
	return best, rows.Err()
}

func (r *postgresSubmissionRepository) CreateLog(ctx context.Context, log *models.SubmissionLog) error {
	query := `
		INSERT INTO match_logs (id, submission_id, raw_log)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	return r.db.QueryRowContext(ctx, query, log.ID, log.SubmissionID, log.RawLog).Scan(&log.CreatedAt)
}

func (r *postgresSubmissionRepository) GetLogBySubmission(ctx context.Context, submissionID string) (*models.SubmissionLog, error) {
	query := `
		SELECT id, submission_id, raw_log, created_at
		FROM match_logs
		WHERE submission_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	log := &models.SubmissionLog{}
	err := r.db.QueryRowContext(ctx, query, submissionID).Scan(
		&log.ID, &log.SubmissionID, &log.RawLog, &log.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionLogNotFound
		}
		return nil, fmt.Errorf("failed to scan submission log: %w", err)
	}
	return log, nil
}
