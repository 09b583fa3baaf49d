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
	ErrCriterionNotFound           = errors.New("judging criterion not found")
	ErrCriterionCompetitionInvalid = errors.New("judging criterion competition conflict or invalid")
)

type CriterionRepository interface {
	Create(ctx context.Context, criterion *models.JudgingCriterion) error
	GetByID(ctx context.Context, id int) (*models.JudgingCriterion, error)
	ListByCompetition(ctx context.Context, competitionID int) ([]*models.JudgingCriterion, error)
	Update(ctx context.Context, criterion *models.JudgingCriterion) error
	Delete(ctx context.Context, id int) error
}

type postgresCriterionRepository struct {
	db *sql.DB
}

func NewPostgresCriterionRepository(db *sql.DB) CriterionRepository {
	return &postgresCriterionRepository{db: db}
}

func (r *postgresCriterionRepository) scanCriterion(rowScanner interface {
	Scan(dest ...interface{}) error
}, c *models.JudgingCriterion) error {
	return rowScanner.Scan(
		&c.ID,
		&c.CompetitionID,
		&c.Name,
		&c.Description,
		&c.Weight,
		&c.MaxScore,
		&c.CreatedAt,
	)
}

func (r *postgresCriterionRepository) Create(ctx context.Context, criterion *models.JudgingCriterion) error {
	query := `
		INSERT INTO judging_criteria (competition_id, name, description, weight, max_score)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		criterion.CompetitionID,
		criterion.Name,
		criterion.Description,
		criterion.Weight,
		criterion.MaxScore,
	).Scan(&criterion.ID, &criterion.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "judging_criteria_competition_id_fkey" {
				return ErrCriterionCompetitionInvalid
			}
		}
		return fmt.Errorf("failed to create judging criterion: %w", err)
	}
	return nil
}

func (r *postgresCriterionRepository) GetByID(ctx context.Context, id int) (*models.JudgingCriterion, error) {
	query := `
		SELECT id, competition_id, name, description, weight, max_score, created_at
		FROM judging_criteria WHERE id = $1`

	c := &models.JudgingCriterion{}
	row := r.db.QueryRowContext(ctx, query, id)
	if err := r.scanCriterion(row, c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCriterionNotFound
		}
		return nil, fmt.Errorf("failed to find judging criterion: %w", err)
	}
	return c, nil
}

func (r *postgresCriterionRepository) ListByCompetition(ctx context.Context, competitionID int) ([]*models.JudgingCriterion, error) {
	query := `
		SELECT id, competition_id, name, description, weight, max_score, created_at
		FROM judging_criteria
		WHERE competition_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list judging criteria: %w", err)
	}
	defer rows.Close()

	criteria := make([]*models.JudgingCriterion, 0)
	for rows.Next() {
		var c models.JudgingCriterion
		if err := r.scanCriterion(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan judging criterion row: %w", err)
		}
		criteria = append(criteria, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating judging criterion rows: %w", err)
	}
	return criteria, nil
}

func (r *postgresCriterionRepository) Update(ctx context.Context, criterion *models.JudgingCriterion) error {
	query := `
		UPDATE judging_criteria
		SET name = $1, description = $2, weight = $3, max_score = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		criterion.Name,
		criterion.Description,
		criterion.Weight,
		criterion.MaxScore,
		criterion.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update judging criterion: %w", err)
	}
	return checkAffectedRows(result, ErrCriterionNotFound)
}

func (r *postgresCriterionRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM judging_criteria WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete judging criterion: %w", err)
	}
	return checkAffectedRows(result, ErrCriterionNotFound)
}
