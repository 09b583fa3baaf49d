package models

import "time"

type Team struct {
	ID            int       `json:"id" db:"id"`
	CompetitionID int       `json:"competition_id" db:"competition_id"`
	Name          string    `json:"name" db:"name"`
	CaptainUserID int       `json:"captain_user_id" db:"captain_user_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	// Populated by list/detail queries, not a table column.
	MemberCount int          `json:"member_count" db:"-"`
	Members     []TeamMember `json:"members,omitempty" db:"-"`
}

// TeamMember is one (team, user) membership row. The captain always has one.
type TeamMember struct {
	ID        int       `json:"id" db:"id"`
	TeamID    int       `json:"team_id" db:"team_id"`
	UserID    int       `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
