package models

import "time"

type TeamInvite struct {
	ID        int       `json:"id" db:"id"`
	TeamID    int       `json:"team_id" db:"team_id"`
	Token     string    `json:"token" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (i *TeamInvite) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
