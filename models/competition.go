package models

import "time"

// CompetitionStatus matches the ENUM in the database.
type CompetitionStatus string

const (
	StatusDraft      CompetitionStatus = "draft"
	StatusOpen       CompetitionStatus = "open"
	StatusInProgress CompetitionStatus = "in_progress"
	StatusJudging    CompetitionStatus = "judging"
	StatusCompleted  CompetitionStatus = "completed"
)

type CompetitionVisibility string

const (
	VisibilityPublic  CompetitionVisibility = "public"
	VisibilityPrivate CompetitionVisibility = "private"
)

type Competition struct {
	ID                   int                   `json:"id" db:"id"`
	Title                string                `json:"title" db:"title"`
	Description          *string               `json:"description,omitempty" db:"description"`
	HostUserID           int                   `json:"host_user_id" db:"host_user_id"`
	HostOrgID            *int                  `json:"host_org_id,omitempty" db:"host_org_id"`
	StartDate            time.Time             `json:"start_date" db:"start_date"`
	EndDate              time.Time             `json:"end_date" db:"end_date"`
	RegistrationDeadline *time.Time            `json:"registration_deadline,omitempty" db:"registration_deadline"`
	MaxParticipants      *int                  `json:"max_participants,omitempty" db:"max_participants"`
	Status               CompetitionStatus     `json:"status" db:"status"`
	Visibility           CompetitionVisibility `json:"visibility" db:"visibility"`
	CreatedAt            time.Time             `json:"created_at" db:"created_at"`
	BannerKey            *string               `json:"-" db:"banner_key"`
	BannerURL            *string               `json:"banner_url,omitempty" db:"-"`
}
