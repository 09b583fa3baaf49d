package models

import "time"

// RankingEntry is one row of a competition ranking. While the competition is
// in judging it is computed on demand; at the completed transition the rows
// are frozen into the final_rankings table and served from there.
type RankingEntry struct {
	ID             int        `json:"id,omitempty" db:"id"`
	CompetitionID  int        `json:"competition_id" db:"competition_id"`
	SubmissionID   int        `json:"submission_id" db:"submission_id"`
	Rank           int        `json:"rank" db:"rank"`
	AggregateScore float64    `json:"aggregate_score" db:"aggregate_score"`
	FrozenAt       *time.Time `json:"frozen_at,omitempty" db:"frozen_at"`

	Submission *Submission `json:"submission,omitempty" db:"-"`
}
