package models

import "time"

// JudgingCriterion is one weighted dimension submissions are scored on.
// Weight drives relative influence; MaxScore bounds raw judge scores.
type JudgingCriterion struct {
	ID            int       `json:"id" db:"id"`
	CompetitionID int       `json:"competition_id" db:"competition_id"`
	Name          string    `json:"name" db:"name"`
	Description   *string   `json:"description,omitempty" db:"description"`
	Weight        int       `json:"weight" db:"weight"`
	MaxScore      int       `json:"max_score" db:"max_score"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// JudgingScore is one judge's rating of one submission on one criterion.
// The (submission, judge, criterion) triple is unique; re-submitting replaces.
type JudgingScore struct {
	ID           int       `json:"id" db:"id"`
	SubmissionID int       `json:"submission_id" db:"submission_id"`
	JudgeUserID  int       `json:"judge_user_id" db:"judge_user_id"`
	CriterionID  int       `json:"criterion_id" db:"criterion_id"`
	Score        int       `json:"score" db:"score"`
	Comment      *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
