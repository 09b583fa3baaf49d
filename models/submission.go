package models

import "time"

type Submission struct {
	ID            int       `json:"id" db:"id"`
	CompetitionID int       `json:"competition_id" db:"competition_id"`
	AuthorUserID  int       `json:"author_user_id" db:"author_user_id"`
	TeamID        *int      `json:"team_id,omitempty" db:"team_id"`
	Title         string    `json:"title" db:"title"`
	Description   string    `json:"description" db:"description"`
	RepoURL       *string   `json:"repo_url,omitempty" db:"repo_url"`
	DemoURL       *string   `json:"demo_url,omitempty" db:"demo_url"`
	VideoURL      *string   `json:"video_url,omitempty" db:"video_url"`
	SubmittedAt   time.Time `json:"submitted_at" db:"submitted_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
