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
	ErrSubmissionNotFound           = errors.New("submission not found")
	ErrSubmissionCompetitionInvalid = errors.New("submission competition conflict or invalid")
	ErrSubmissionTeamInvalid        = errors.New("submission team conflict or invalid")
)

type SubmissionRepository interface {
	Create(ctx context.Context, sub *models.Submission) error
	GetByID(ctx context.Context, id int) (*models.Submission, error)
	Update(ctx context.Context, sub *models.Submission) error
	ListByCompetition(ctx context.Context, competitionID int) ([]*models.Submission, error)
}

type postgresSubmissionRepository struct {
	db *sql.DB
}

func NewPostgresSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &postgresSubmissionRepository{db: db}
}

func (r *postgresSubmissionRepository) scanSubmission(rowScanner interface {
	Scan(dest ...interface{}) error
}, sub *models.Submission) error {
	return rowScanner.Scan(
		&sub.ID,
		&sub.CompetitionID,
		&sub.AuthorUserID,
		&sub.TeamID,
		&sub.Title,
		&sub.Description,
		&sub.RepoURL,
		&sub.DemoURL,
		&sub.VideoURL,
		&sub.SubmittedAt,
		&sub.UpdatedAt,
	)
}

func (r *postgresSubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	query := `
		INSERT INTO submissions
			(competition_id, author_user_id, team_id, title, description, repo_url, demo_url, video_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, submitted_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		sub.CompetitionID,
		sub.AuthorUserID,
		sub.TeamID,
		sub.Title,
		sub.Description,
		sub.RepoURL,
		sub.DemoURL,
		sub.VideoURL,
	).Scan(&sub.ID, &sub.SubmittedAt, &sub.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			switch pqErr.Constraint {
			case "submissions_competition_id_fkey":
				return ErrSubmissionCompetitionInvalid
			case "submissions_team_id_fkey":
				return ErrSubmissionTeamInvalid
			}
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *postgresSubmissionRepository) GetByID(ctx context.Context, id int) (*models.Submission, error) {
	query := `
		SELECT id, competition_id, author_user_id, team_id, title, description,
			repo_url, demo_url, video_url, submitted_at, updated_at
		FROM submissions WHERE id = $1`

	sub := &models.Submission{}
	row := r.db.QueryRowContext(ctx, query, id)
	if err := r.scanSubmission(row, sub); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to find submission: %w", err)
	}
	return sub, nil
}

func (r *postgresSubmissionRepository) Update(ctx context.Context, sub *models.Submission) error {
	query := `
		UPDATE submissions
		SET title = $1, description = $2, repo_url = $3, demo_url = $4, video_url = $5, updated_at = NOW()
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		sub.Title,
		sub.Description,
		sub.RepoURL,
		sub.DemoURL,
		sub.VideoURL,
		sub.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	return checkAffectedRows(result, ErrSubmissionNotFound)
}

func (r *postgresSubmissionRepository) ListByCompetition(ctx context.Context, competitionID int) ([]*models.Submission, error) {
	query := `
		SELECT id, competition_id, author_user_id, team_id, title, description,
			repo_url, demo_url, video_url, submitted_at, updated_at
		FROM submissions
		WHERE competition_id = $1
		ORDER BY submitted_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	submissions := make([]*models.Submission, 0)
	for rows.Next() {
		var sub models.Submission
		if err := r.scanSubmission(rows, &sub); err != nil {
			return nil, fmt.Errorf("failed to scan submission row: %w", err)
		}
		submissions = append(submissions, &sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submission rows: %w", err)
	}
	return submissions, nil
}
