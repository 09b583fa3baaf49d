package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/codeclash/competition-system/models"
)

var ErrRankingNotFrozen = errors.New("no frozen ranking for this competition")

// RankingRepository stores the frozen ranking snapshot written at the
// completed transition. Methods take an SQLExecutor because the snapshot is
// written inside the transition transaction.
type RankingRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, entries []*models.RankingEntry) error
	ListByCompetition(ctx context.Context, competitionID int) ([]*models.RankingEntry, error)
	DeleteByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) error
	Exists(ctx context.Context, competitionID int) (bool, error)
}

type postgresRankingRepository struct {
	db *sql.DB
}

func NewPostgresRankingRepository(db *sql.DB) RankingRepository {
	return &postgresRankingRepository{db: db}
}

func (r *postgresRankingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRankingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, entries []*models.RankingEntry) error {
	if len(entries) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)

	query := `
		INSERT INTO final_rankings (competition_id, submission_id, rank, aggregate_score, frozen_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	frozenAt := time.Now()
	for _, entry := range entries {
		if entry.FrozenAt == nil {
			entry.FrozenAt = &frozenAt
		}
		err := executor.QueryRowContext(ctx, query,
			entry.CompetitionID,
			entry.SubmissionID,
			entry.Rank,
			entry.AggregateScore,
			entry.FrozenAt,
		).Scan(&entry.ID)
		if err != nil {
			return fmt.Errorf("failed to freeze ranking entry for submission %d: %w", entry.SubmissionID, err)
		}
	}
	return nil
}

func (r *postgresRankingRepository) ListByCompetition(ctx context.Context, competitionID int) ([]*models.RankingEntry, error) {
	query := `
		SELECT r.id, r.competition_id, r.submission_id, r.rank, r.aggregate_score, r.frozen_at,
			s.id, s.competition_id, s.author_user_id, s.team_id, s.title, s.description,
			s.repo_url, s.demo_url, s.video_url, s.submitted_at, s.updated_at
		FROM final_rankings r
		JOIN submissions s ON s.id = r.submission_id
		WHERE r.competition_id = $1
		ORDER BY r.rank ASC`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list frozen rankings: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.RankingEntry, 0)
	for rows.Next() {
		var entry models.RankingEntry
		var sub models.Submission
		if err := rows.Scan(
			&entry.ID, &entry.CompetitionID, &entry.SubmissionID, &entry.Rank, &entry.AggregateScore, &entry.FrozenAt,
			&sub.ID, &sub.CompetitionID, &sub.AuthorUserID, &sub.TeamID, &sub.Title, &sub.Description,
			&sub.RepoURL, &sub.DemoURL, &sub.VideoURL, &sub.SubmittedAt, &sub.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan frozen ranking row: %w", err)
		}
		entry.Submission = &sub
		entries = append(entries, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating frozen ranking rows: %w", err)
	}
	return entries, nil
}

func (r *postgresRankingRepository) DeleteByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM final_rankings WHERE competition_id = $1`
	if _, err := executor.ExecContext(ctx, query, competitionID); err != nil {
		return fmt.Errorf("failed to delete frozen rankings: %w", err)
	}
	return nil
}

func (r *postgresRankingRepository) Exists(ctx context.Context, competitionID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM final_rankings WHERE competition_id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, competitionID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check frozen rankings: %w", err)
	}
	return exists, nil
}
