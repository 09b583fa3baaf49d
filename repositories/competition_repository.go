package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codeclash/competition-system/models"
)

var (
	ErrCompetitionNotFound    = errors.New("competition not found")
	ErrCompetitionHostInvalid = errors.New("competition host conflict or invalid")
)

type CompetitionFilter struct {
	Status     *models.CompetitionStatus
	Visibility *models.CompetitionVisibility
	HostUserID *int
	// StartedBefore/EndedBefore drive the automatic status scheduler.
	StartedBefore *time.Time
	EndedBefore   *time.Time
	Limit         int
	Offset        int
}

type CompetitionRepository interface {
	Create(ctx context.Context, c *models.Competition) error
	GetByID(ctx context.Context, id int) (*models.Competition, error)
	// GetByIDForUpdate locks the competition row for the duration of the
	// surrounding transaction. Registration admission and status transitions
	// serialize on this lock.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Competition, error)
	// GetByIDForShare takes a shared lock on the competition row. Writers
	// that must not interleave with a status transition (judging score
	// upserts) read through this; the transition's FOR UPDATE lock blocks
	// until they commit, and vice versa.
	GetByIDForShare(ctx context.Context, exec SQLExecutor, id int) (*models.Competition, error)
	List(ctx context.Context, filter CompetitionFilter) ([]*models.Competition, error)
	Update(ctx context.Context, c *models.Competition) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.CompetitionStatus) error
	UpdateBannerKey(ctx context.Context, id int, key *string) error
	Delete(ctx context.Context, id int) error
}

type postgresCompetitionRepository struct {
	db *sql.DB
}

func NewPostgresCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &postgresCompetitionRepository{db: db}
}

const competitionColumns = `id, title, description, host_user_id, host_org_id, start_date, end_date,
		registration_deadline, max_participants, status, visibility, created_at, banner_key`

func (r *postgresCompetitionRepository) scanCompetition(rowScanner interface {
	Scan(dest ...interface{}) error
}, c *models.Competition) error {
	return rowScanner.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.HostUserID,
		&c.HostOrgID,
		&c.StartDate,
		&c.EndDate,
		&c.RegistrationDeadline,
		&c.MaxParticipants,
		&c.Status,
		&c.Visibility,
		&c.CreatedAt,
		&c.BannerKey,
	)
}

func (r *postgresCompetitionRepository) Create(ctx context.Context, c *models.Competition) error {
	query := `
		INSERT INTO competitions
			(title, description, host_user_id, host_org_id, start_date, end_date,
			 registration_deadline, max_participants, status, visibility)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		c.Title,
		c.Description,
		c.HostUserID,
		c.HostOrgID,
		c.StartDate,
		c.EndDate,
		c.RegistrationDeadline,
		c.MaxParticipants,
		c.Status,
		c.Visibility,
	).Scan(&c.ID, &c.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create competition: %w", err)
	}
	return nil
}

func (r *postgresCompetitionRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Competition, error) {
	c := &models.Competition{}
	row := exec.QueryRowContext(ctx, query, args...)
	if err := r.scanCompetition(row, c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to find competition: %w", err)
	}
	return c, nil
}

func (r *postgresCompetitionRepository) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE id = $1`
	return r.findOne(ctx, r.db, query, id)
}

func (r *postgresCompetitionRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Competition, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, exec, query, id)
}

func (r *postgresCompetitionRepository) GetByIDForShare(ctx context.Context, exec SQLExecutor, id int) (*models.Competition, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE id = $1 FOR SHARE`
	return r.findOne(ctx, exec, query, id)
}

func (r *postgresCompetitionRepository) List(ctx context.Context, filter CompetitionFilter) ([]*models.Competition, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + competitionColumns + ` FROM competitions WHERE 1=1`)

	args := make([]interface{}, 0, 4)
	argCounter := 1

	if filter.Status != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND status = $%d", argCounter))
		args = append(args, *filter.Status)
		argCounter++
	}
	if filter.Visibility != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND visibility = $%d", argCounter))
		args = append(args, *filter.Visibility)
		argCounter++
	}
	if filter.HostUserID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND host_user_id = $%d", argCounter))
		args = append(args, *filter.HostUserID)
		argCounter++
	}
	if filter.StartedBefore != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND start_date <= $%d", argCounter))
		args = append(args, *filter.StartedBefore)
		argCounter++
	}
	if filter.EndedBefore != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND end_date <= $%d", argCounter))
		args = append(args, *filter.EndedBefore)
		argCounter++
	}

	queryBuilder.WriteString(" ORDER BY start_date DESC, id DESC")

	if filter.Limit > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filter.Limit)
		argCounter++
	}
	if filter.Offset > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	defer rows.Close()

	competitions := make([]*models.Competition, 0)
	for rows.Next() {
		var c models.Competition
		if err := r.scanCompetition(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan competition row: %w", err)
		}
		competitions = append(competitions, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating competition rows: %w", err)
	}
	return competitions, nil
}

func (r *postgresCompetitionRepository) Update(ctx context.Context, c *models.Competition) error {
	query := `
		UPDATE competitions
		SET title = $1, description = $2, start_date = $3, end_date = $4,
			registration_deadline = $5, max_participants = $6, visibility = $7
		WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		c.Title,
		c.Description,
		c.StartDate,
		c.EndDate,
		c.RegistrationDeadline,
		c.MaxParticipants,
		c.Visibility,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update competition: %w", err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.CompetitionStatus) error {
	if exec == nil {
		exec = r.db
	}
	query := `UPDATE competitions SET status = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update competition status: %w", err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) UpdateBannerKey(ctx context.Context, id int, key *string) error {
	query := `UPDATE competitions SET banner_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return fmt.Errorf("failed to update competition banner key: %w", err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM competitions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete competition: %w", err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}
