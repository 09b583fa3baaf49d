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
	ErrTeamMemberNotFound    = errors.New("team member not found")
	ErrTeamMemberConflict    = errors.New("user is already a member of this team")
	ErrTeamMemberTeamInvalid = errors.New("team member team conflict or invalid")
)

type TeamMemberRepository interface {
	Create(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
	Exists(ctx context.Context, exec SQLExecutor, teamID, userID int) (bool, error)
	Delete(ctx context.Context, exec SQLExecutor, teamID, userID int) error
	ListByTeam(ctx context.Context, teamID int) ([]*models.TeamMember, error)
	// DeleteByCompetitionAndUser removes the user's memberships across all
	// teams of one competition. Runs inside the withdrawal transaction.
	DeleteByCompetitionAndUser(ctx context.Context, exec SQLExecutor, competitionID, userID int) error
}

type postgresTeamMemberRepository struct {
	db *sql.DB
}

func NewPostgresTeamMemberRepository(db *sql.DB) TeamMemberRepository {
	return &postgresTeamMemberRepository{db: db}
}

func (r *postgresTeamMemberRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamMemberRepository) Create(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO team_members (team_id, user_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		member.TeamID,
		member.UserID,
	).Scan(&member.ID, &member.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "team_members_team_id_user_id_key" {
					return ErrTeamMemberConflict
				}
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "team_members_team_id_fkey" {
					return ErrTeamMemberTeamInvalid
				}
			}
		}
		return fmt.Errorf("failed to create team member: %w", err)
	}
	return nil
}

func (r *postgresTeamMemberRepository) Exists(ctx context.Context, exec SQLExecutor, teamID, userID int) (bool, error) {
	executor := r.getExecutor(exec)
	query := `SELECT EXISTS (SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`

	var exists bool
	if err := executor.QueryRowContext(ctx, query, teamID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check team membership: %w", err)
	}
	return exists, nil
}

func (r *postgresTeamMemberRepository) Delete(ctx context.Context, exec SQLExecutor, teamID, userID int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`
	result, err := executor.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete team member: %w", err)
	}
	return checkAffectedRows(result, ErrTeamMemberNotFound)
}

func (r *postgresTeamMemberRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.TeamMember, error) {
	query := `
		SELECT id, team_id, user_id, created_at
		FROM team_members
		WHERE team_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.ID, &m.TeamID, &m.UserID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team member row: %w", err)
		}
		members = append(members, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team member rows: %w", err)
	}
	return members, nil
}

func (r *postgresTeamMemberRepository) DeleteByCompetitionAndUser(ctx context.Context, exec SQLExecutor, competitionID, userID int) error {
	executor := r.getExecutor(exec)
	query := `
		DELETE FROM team_members m
		USING teams t
		WHERE m.team_id = t.id AND t.competition_id = $1 AND m.user_id = $2`

	if _, err := executor.ExecContext(ctx, query, competitionID, userID); err != nil {
		return fmt.Errorf("failed to delete memberships for user %d in competition %d: %w", userID, competitionID, err)
	}
	return nil
}
