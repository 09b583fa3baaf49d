package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/codeclash/competition-system/models"
	"github.com/lib/pq"
)

var (
	ErrScoreSubmissionInvalid = errors.New("judging score submission conflict or invalid")
	ErrScoreCriterionInvalid  = errors.New("judging score criterion conflict or invalid")
)

type ScoreRepository interface {
	// Upsert inserts the (submission, judge, criterion) score or replaces
	// the existing row for that key. Last write wins; a judge can never
	// produce two rows for the same key. It takes an SQLExecutor so the
	// write lands in the transaction that holds the competition row lock.
	Upsert(ctx context.Context, exec SQLExecutor, score *models.JudgingScore) error
	ListBySubmission(ctx context.Context, submissionID int) ([]*models.JudgingScore, error)
	CountByCriterion(ctx context.Context, criterionID int) (int, error)
}

type postgresScoreRepository struct {
	db *sql.DB
}

func NewPostgresScoreRepository(db *sql.DB) ScoreRepository {
	return &postgresScoreRepository{db: db}
}

func (r *postgresScoreRepository) Upsert(ctx context.Context, exec SQLExecutor, score *models.JudgingScore) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO judging_scores (submission_id, judge_user_id, criterion_id, score, comment)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (submission_id, judge_user_id, criterion_id)
		DO UPDATE SET score = EXCLUDED.score, comment = EXCLUDED.comment, updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		score.SubmissionID,
		score.JudgeUserID,
		score.CriterionID,
		score.Score,
		score.Comment,
	).Scan(&score.ID, &score.CreatedAt, &score.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			switch pqErr.Constraint {
			case "judging_scores_submission_id_fkey":
				return ErrScoreSubmissionInvalid
			case "judging_scores_criterion_id_fkey":
				return ErrScoreCriterionInvalid
			}
		}
		return fmt.Errorf("failed to upsert judging score: %w", err)
	}
	return nil
}

func (r *postgresScoreRepository) ListBySubmission(ctx context.Context, submissionID int) ([]*models.JudgingScore, error) {
	query := `
		SELECT id, submission_id, judge_user_id, criterion_id, score, comment, created_at, updated_at
		FROM judging_scores
		WHERE submission_id = $1
		ORDER BY criterion_id ASC, judge_user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list judging scores: %w", err)
	}
	defer rows.Close()

	scores := make([]*models.JudgingScore, 0)
	for rows.Next() {
		var s models.JudgingScore
		if err := rows.Scan(
			&s.ID,
			&s.SubmissionID,
			&s.JudgeUserID,
			&s.CriterionID,
			&s.Score,
			&s.Comment,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan judging score row: %w", err)
		}
		scores = append(scores, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating judging score rows: %w", err)
	}
	return scores, nil
}

func (r *postgresScoreRepository) CountByCriterion(ctx context.Context, criterionID int) (int, error) {
	query := `SELECT COUNT(*) FROM judging_scores WHERE criterion_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, criterionID).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count judging scores: %w", err)
	}
	return count, nil
}
