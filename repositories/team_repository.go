package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/codearena/platform/models"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameConflict   = errors.New("team name is already in use")
	ErrTeamFull           = errors.New("team is full")
	ErrTeamMemberConflict = errors.New("user is already a member of a team")
)

type TeamRepository interface {
	// Create inserts the team and its creator's membership atomically.
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id string) (*models.Team, error)
	// GetByUserID finds the team the user belongs to, if any.
	GetByUserID(ctx context.Context, userID string) (*models.Team, error)
	ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error)
	AddMember(ctx context.Context, teamID, userID string) error
	// SearchByName matches team names case-insensitively, skipping full teams.
	SearchByName(ctx context.Context, query string, limit int) ([]*models.Team, error)
	ListAll(ctx context.Context) ([]*models.Team, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO teams (id, name, created_by, member_count)
		VALUES ($1, $2, $3, 1)
		RETURNING created_at`,
		team.ID, team.Name, team.CreatedBy,
	).Scan(&team.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrTeamNameConflict
		}
		return fmt.Errorf("failed to insert team: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)`,
		team.ID, team.CreatedBy,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrTeamMemberConflict
		}
		return fmt.Errorf("failed to insert creator membership: %w", err)
	}

	team.MemberCount = 1
	return tx.Commit()
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	query := `
		SELECT id, name, created_by, member_count, created_at
		FROM teams
		WHERE id = $1`
	return r.scanTeam(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) GetByUserID(ctx context.Context, userID string) (*models.Team, error) {
	query := `
		SELECT t.id, t.name, t.created_by, t.member_count, t.created_at
		FROM teams t
		JOIN team_members m ON m.team_id = t.id
		WHERE m.user_id = $1`
	return r.scanTeam(r.db.QueryRowContext(ctx, query, userID))
}

func (r *postgresTeamRepository) scanTeam(row *sql.Row) (*models.Team, error) {
	team := &models.Team{}
	err := row.Scan(&team.ID, &team.Name, &team.CreatedBy, &team.MemberCount, &team.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}
	return team, nil
}

func (r *postgresTeamRepository) ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	query := `
		SELECT m.team_id, m.user_id, u.display_name, (t.created_by = m.user_id), m.joined_at
		FROM team_members m
		JOIN teams t ON t.id = m.team_id
		JOIN users u ON u.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY m.joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", err)
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.DisplayName, &m.IsLeader, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, teamID, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The capacity check and the increment are a single statement, so two
	// concurrent joins cannot both squeeze into the last slot.
	result, err := tx.ExecContext(ctx, `
		UPDATE teams SET member_count = member_count + 1
		WHERE id = $1 AND member_count < $2`,
		teamID, models.MaxTeamMembers,
	)
	if err != nil {
		return fmt.Errorf("failed to update member count: %w", err)
	}
	if err := checkAffectedRows(result, ErrTeamFull); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)`,
		teamID, userID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrTeamMemberConflict
		}
		return fmt.Errorf("failed to insert membership: %w", err)
	}

	return tx.Commit()
}

func (r *postgresTeamRepository) SearchByName(ctx context.Context, query string, limit int) ([]*models.Team, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_by, member_count, created_at
		FROM teams
		WHERE name ILIKE '%' || $1 || '%' AND member_count < $2
		ORDER BY name ASC
		LIMIT $3`,
		query, models.MaxTeamMembers, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search teams: %w", err)
	}
	defer rows.Close()
	return collectTeams(rows)
}

func (r *postgresTeamRepository) ListAll(ctx context.Context) ([]*models.Team, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_by, member_count, created_at
		FROM teams
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()
	return collectTeams(rows)
}

func collectTeams(rows *sql.Rows) ([]*models.Team, error) {
	teams := make([]*models.Team, 0)
	for rows.Next() {
		team := &models.Team{}
		if err := rows.Scan(&team.ID, &team.Name, &team.CreatedBy, &team.MemberCount, &team.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}
