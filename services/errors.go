package services

import "errors"

// Shared errors used across services and HTTP mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTeamNameInvalid    = errors.New("team name must be between 3 and 30 characters")
	ErrUserAlreadyInTeam  = errors.New("user is already in a team")
	ErrUserNotInTeam      = errors.New("user is not in a team")
	ErrTeamFull           = errors.New("team already has the maximum number of members")
	ErrNotEnoughTeams     = errors.New("at least two teams with submissions are required")

	// Conflicts
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrTeamNameConflict     = errors.New("team name is already in use")
	ErrPlayoffAlreadyActive = errors.New("a playoff run is already in progress")

	// Authentication and authorization
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Entity-specific lookups
	ErrUserNotFound       = errors.New("user not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrNoCompletedRun     = errors.New("no completed playoff run exists")
)
