package models

import "time"

// MaxTeamMembers caps how many users may join a single team.
const MaxTeamMembers = 3

type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedBy   string    `json:"created_by"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`

	Members []TeamMember `json:"members,omitempty"`
}

type TeamMember struct {
	TeamID      string    `json:"team_id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	IsLeader    bool      `json:"is_leader"`
	JoinedAt    time.Time `json:"joined_at"`
}
