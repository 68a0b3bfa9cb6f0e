package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/codearena/platform/models"
	"github.com/codearena/platform/repositories"
)

const (
	minTeamNameLength = 3
	maxTeamNameLength = 30

	teamSearchMinQuery = 2
	teamSearchLimit    = 10
)

type TeamService interface {
	Create(ctx context.Context, userID string, name string) (*models.Team, error)
	Join(ctx context.Context, userID string, teamID string) (*models.Team, error)
	MyTeam(ctx context.Context, userID string) (*models.Team, error)
	Search(ctx context.Context, query string) ([]*models.Team, error)
}

type teamService struct {
	teamRepo repositories.TeamRepository
}

func NewTeamService(teamRepo repositories.TeamRepository) TeamService {
	return &teamService{
		teamRepo: teamRepo,
	}
}

func (s *teamService) Create(ctx context.Context, userID string, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if len(name) < minTeamNameLength || len(name) > maxTeamNameLength {
		return nil, ErrTeamNameInvalid
	}

	if _, err := s.teamRepo.GetByUserID(ctx, userID); err == nil {
		return nil, ErrUserAlreadyInTeam
	} else if !errors.Is(err, repositories.ErrTeamNotFound) {
		return nil, fmt.Errorf("failed to check current team membership: %w", err)
	}

	team := &models.Team{
		ID:        xid.New().String(),
		Name:      name,
		CreatedBy: userID,
	}

	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) Join(ctx context.Context, userID string, teamID string) (*models.Team, error) {
	if _, err := s.teamRepo.GetByUserID(ctx, userID); err == nil {
		return nil, ErrUserAlreadyInTeam
	} else if !errors.Is(err, repositories.ErrTeamNotFound) {
		return nil, fmt.Errorf("failed to check current team membership: %w", err)
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team %s: %w", teamID, err)
	}

	if err := s.teamRepo.AddMember(ctx, teamID, userID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamFull):
			return nil, ErrTeamFull
		case errors.Is(err, repositories.ErrTeamMemberConflict):
			return nil, ErrUserAlreadyInTeam
		case errors.Is(err, repositories.ErrTeamNotFound):
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to join team %s: %w", teamID, err)
	}

	return s.withMembers(ctx, team)
}

func (s *teamService) MyTeam(ctx context.Context, userID string) (*models.Team, error) {
	team, err := s.teamRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrUserNotInTeam
		}
		return nil, fmt.Errorf("failed to load team for user %s: %w", userID, err)
	}
	return s.withMembers(ctx, team)
}

func (s *teamService) Search(ctx context.Context, query string) ([]*models.Team, error) {
	query = strings.TrimSpace(query)
	if len(query) < teamSearchMinQuery {
		return []*models.Team{}, nil
	}

	teams, err := s.teamRepo.SearchByName(ctx, query, teamSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search teams: %w", err)
	}
	return teams, nil
}

func (s *teamService) withMembers(ctx context.Context, team *models.Team) (*models.Team, error) {
	members, err := s.teamRepo.ListMembers(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members of team %s: %w", team.ID, err)
	}
	team.Members = members
	team.MemberCount = len(members)
	return team, nil
}
