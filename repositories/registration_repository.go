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
	ErrRegistrationNotFound           = errors.New("registration not found")
	ErrRegistrationConflict           = errors.New("registration conflict: user already registered for this competition")
	ErrRegistrationCompetitionInvalid = errors.New("registration competition conflict or invalid")
)

type RegistrationRepository interface {
	// Create inserts an active registration. A partial unique index on
	// (competition_id, user_id) WHERE status = 'registered' backs the
	// one-active-registration-per-user invariant; a violation surfaces as
	// ErrRegistrationConflict.
	Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error
	FindActive(ctx context.Context, exec SQLExecutor, competitionID, userID int) (*models.Registration, error)
	CountActive(ctx context.Context, exec SQLExecutor, competitionID int) (int, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RegistrationStatus) error
	ListByCompetition(ctx context.Context, competitionID int, statusFilter *models.RegistrationStatus) ([]*models.Registration, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO registrations (competition_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		reg.CompetitionID,
		reg.UserID,
		reg.Status,
	).Scan(&reg.ID, &reg.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "registrations_active_competition_user_idx" {
					return ErrRegistrationConflict
				}
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "registrations_competition_id_fkey" {
					return ErrRegistrationCompetitionInvalid
				}
			}
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) scanRegistration(rowScanner interface {
	Scan(dest ...interface{}) error
}, reg *models.Registration) error {
	return rowScanner.Scan(
		&reg.ID,
		&reg.CompetitionID,
		&reg.UserID,
		&reg.Status,
		&reg.CreatedAt,
	)
}

func (r *postgresRegistrationRepository) FindActive(ctx context.Context, exec SQLExecutor, competitionID, userID int) (*models.Registration, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, competition_id, user_id, status, created_at
		FROM registrations
		WHERE competition_id = $1 AND user_id = $2 AND status = $3`

	reg := &models.Registration{}
	row := executor.QueryRowContext(ctx, query, competitionID, userID, models.RegistrationStatusRegistered)
	if err := r.scanRegistration(row, reg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) CountActive(ctx context.Context, exec SQLExecutor, competitionID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT COUNT(*) FROM registrations WHERE competition_id = $1 AND status = $2`

	var count int
	err := executor.QueryRowContext(ctx, query, competitionID, models.RegistrationStatusRegistered).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active registrations: %w", err)
	}
	return count, nil
}

func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RegistrationStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE registrations SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update registration status: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) ListByCompetition(ctx context.Context, competitionID int, statusFilter *models.RegistrationStatus) ([]*models.Registration, error) {
	query := `
		SELECT id, competition_id, user_id, status, created_at
		FROM registrations
		WHERE competition_id = $1`
	args := []interface{}{competitionID}

	if statusFilter != nil {
		query += ` AND status = $2`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	registrations := make([]*models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		if err := r.scanRegistration(rows, &reg); err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		registrations = append(registrations, &reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return registrations, nil
}
