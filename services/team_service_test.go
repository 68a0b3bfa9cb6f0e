package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codearena/platform/models"
	"github.com/codearena/platform/repositories"
)

type stubTeamRepo struct {
	repositories.TeamRepository
	byID     map[string]*models.Team
	byUser   map[string]*models.Team
	members  map[string][]models.TeamMember
	addErr   error
	searched string
}

func newStubTeamRepo() *stubTeamRepo {
	return &stubTeamRepo{
		byID:    make(map[string]*models.Team),
		byUser:  make(map[string]*models.Team),
		members: make(map[string][]models.TeamMember),
	}
}

func (s *stubTeamRepo) Create(_ context.Context, team *models.Team) error {
	for _, existing := range s.byID {
		if existing.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	s.byID[team.ID] = team
	s.byUser[team.CreatedBy] = team
	s.members[team.ID] = []models.TeamMember{{TeamID: team.ID, UserID: team.CreatedBy, IsLeader: true}}
	return nil
}

func (s *stubTeamRepo) GetByID(_ context.Context, id string) (*models.Team, error) {
	if team, ok := s.byID[id]; ok {
		return team, nil
	}
	return nil, repositories.ErrTeamNotFound
}

func (s *stubTeamRepo) GetByUserID(_ context.Context, userID string) (*models.Team, error) {
	if team, ok := s.byUser[userID]; ok {
		return team, nil
	}
	return nil, repositories.ErrTeamNotFound
}

func (s *stubTeamRepo) ListMembers(_ context.Context, teamID string) ([]models.TeamMember, error) {
	return s.members[teamID], nil
}

func (s *stubTeamRepo) AddMember(_ context.Context, teamID, userID string) error {
	if s.addErr != nil {
		return s.addErr
	}
	team, ok := s.byID[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	s.byUser[userID] = team
	s.members[teamID] = append(s.members[teamID], models.TeamMember{TeamID: teamID, UserID: userID})
	return nil
}

func (s *stubTeamRepo) SearchByName(_ context.Context, query string, _ int) ([]*models.Team, error) {
	s.searched = query
	return []*models.Team{}, nil
}

func TestTeamCreate(t *testing.T) {
	repo := newStubTeamRepo()
	svc := NewTeamService(repo)

	team, err := svc.Create(context.Background(), "U1", "  The Crushers  ")
	require.NoError(t, err)

	assert.NotEmpty(t, team.ID)
	assert.Equal(t, "The Crushers", team.Name)
	assert.Equal(t, "U1", team.CreatedBy)
}

func TestTeamCreate_NameLength(t *testing.T) {
	svc := NewTeamService(newStubTeamRepo())

	_, err := svc.Create(context.Background(), "U1", "ab")
	assert.ErrorIs(t, err, ErrTeamNameInvalid)

	_, err = svc.Create(context.Background(), "U1", "this team name is way past the thirty limit")
	assert.ErrorIs(t, err, ErrTeamNameInvalid)
}

func TestTeamCreate_AlreadyInTeam(t *testing.T) {
	repo := newStubTeamRepo()
	svc := NewTeamService(repo)

	_, err := svc.Create(context.Background(), "U1", "First Team")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "U1", "Second Team")
	assert.ErrorIs(t, err, ErrUserAlreadyInTeam)
}

func TestTeamCreate_NameConflict(t *testing.T) {
	repo := newStubTeamRepo()
	svc := NewTeamService(repo)

	_, err := svc.Create(context.Background(), "U1", "Taken Name")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "U2", "Taken Name")
	assert.ErrorIs(t, err, ErrTeamNameConflict)
}

func TestTeamJoin(t *testing.T) {
	repo := newStubTeamRepo()
	svc := NewTeamService(repo)

	created, err := svc.Create(context.Background(), "U1", "Joinable")
	require.NoError(t, err)

	team, err := svc.Join(context.Background(), "U2", created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, team.ID)
	assert.Equal(t, 2, team.MemberCount)
	require.Len(t, team.Members, 2)
	assert.Equal(t, "U2", team.Members[1].UserID)
}

func TestTeamJoin_Full(t *testing.T) {
	repo := newStubTeamRepo()
	svc := NewTeamService(repo)

	created, err := svc.Create(context.Background(), "U1", "Packed")
	require.NoError(t, err)

	repo.addErr = repositories.ErrTeamFull
	_, err = svc.Join(context.Background(), "U2", created.ID)
	assert.ErrorIs(t, err, ErrTeamFull)
}

func TestTeamSearch_ShortQuerySkipsRepo(t *testing.T) {
	repo := newStubTeamRepo()
	svc := NewTeamService(repo)

	teams, err := svc.Search(context.Background(), " a ")
	require.NoError(t, err)

	assert.Empty(t, teams)
	assert.Empty(t, repo.searched)
}
