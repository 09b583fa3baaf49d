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
	ErrTeamNotFound           = errors.New("team not found")
	ErrTeamNameConflict       = errors.New("team name is already taken in this competition")
	ErrTeamCompetitionInvalid = errors.New("team competition conflict or invalid")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	// GetByIDForUpdate locks the team row so membership mutations
	// (join/leave/transfer) serialize per team.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	ListByCompetition(ctx context.Context, competitionID int) ([]*models.Team, error)
	UpdateCaptain(ctx context.Context, exec SQLExecutor, teamID, captainUserID int) error
	UpdateLogoKey(ctx context.Context, id int, key *string) error
	// HasCaptaincy reports whether the user captains any team in the
	// competition. Used to block withdrawal that would orphan a team.
	HasCaptaincy(ctx context.Context, exec SQLExecutor, competitionID, userID int) (bool, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO teams (competition_id, name, captain_user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		team.CompetitionID,
		team.Name,
		team.CaptainUserID,
	).Scan(&team.ID, &team.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "teams_competition_id_name_key" {
					return ErrTeamNameConflict
				}
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "teams_competition_id_fkey" {
					return ErrTeamCompetitionInvalid
				}
			}
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) scanTeam(rowScanner interface {
	Scan(dest ...interface{}) error
}, team *models.Team) error {
	return rowScanner.Scan(
		&team.ID,
		&team.CompetitionID,
		&team.Name,
		&team.CaptainUserID,
		&team.CreatedAt,
		&team.LogoKey,
		&team.MemberCount,
	)
}

const teamSelectSQL = `
	SELECT t.id, t.competition_id, t.name, t.captain_user_id, t.created_at, t.logo_key,
		(SELECT COUNT(*) FROM team_members m WHERE m.team_id = t.id) AS member_count
	FROM teams t`

func (r *postgresTeamRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Team, error) {
	team := &models.Team{}
	row := exec.QueryRowContext(ctx, query, args...)
	if err := r.scanTeam(row, team); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return team, nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	return r.findOne(ctx, r.db, teamSelectSQL+` WHERE t.id = $1`, id)
}

func (r *postgresTeamRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	executor := r.getExecutor(exec)
	// FOR UPDATE OF t: the member_count subquery must stay outside the lock.
	return r.findOne(ctx, executor, teamSelectSQL+` WHERE t.id = $1 FOR UPDATE OF t`, id)
}

func (r *postgresTeamRepository) ListByCompetition(ctx context.Context, competitionID int) ([]*models.Team, error) {
	rows, err := r.db.QueryContext(ctx, teamSelectSQL+` WHERE t.competition_id = $1 ORDER BY t.created_at ASC`, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var team models.Team
		if err := r.scanTeam(rows, &team); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, &team)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team rows: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) UpdateCaptain(ctx context.Context, exec SQLExecutor, teamID, captainUserID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE teams SET captain_user_id = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, captainUserID, teamID)
	if err != nil {
		return fmt.Errorf("failed to update team captain: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, id int, key *string) error {
	query := `UPDATE teams SET logo_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return fmt.Errorf("failed to update team logo key: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) HasCaptaincy(ctx context.Context, exec SQLExecutor, competitionID, userID int) (bool, error) {
	executor := r.getExecutor(exec)
	query := `SELECT EXISTS (SELECT 1 FROM teams WHERE competition_id = $1 AND captain_user_id = $2)`

	var exists bool
	if err := executor.QueryRowContext(ctx, query, competitionID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check captaincy: %w", err)
	}
	return exists, nil
}
