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
	ErrInviteNotFound      = errors.New("invite not found")
	ErrInviteTokenConflict = errors.New("invite token already exists")
	ErrInviteTeamInvalid   = errors.New("invite team conflict or invalid")
)

type InviteRepository interface {
	Create(ctx context.Context, invite *models.TeamInvite) error
	GetByID(ctx context.Context, id int) (*models.TeamInvite, error)
	GetByToken(ctx context.Context, token string) (*models.TeamInvite, error)
	ListByTeam(ctx context.Context, teamID int) ([]*models.TeamInvite, error)
	Delete(ctx context.Context, id int) error
}

type postgresInviteRepository struct {
	db *sql.DB
}

func NewPostgresInviteRepository(db *sql.DB) InviteRepository {
	return &postgresInviteRepository{db: db}
}

func (r *postgresInviteRepository) Create(ctx context.Context, invite *models.TeamInvite) error {
	query := `
		INSERT INTO team_invites (team_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		invite.TeamID,
		invite.Token,
		invite.ExpiresAt,
	).Scan(&invite.ID, &invite.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "team_invites_token_key" {
					return ErrInviteTokenConflict
				}
			case "23503":
				if pqErr.Constraint == "team_invites_team_id_fkey" {
					return ErrInviteTeamInvalid
				}
			}
		}
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}

func (r *postgresInviteRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.TeamInvite, error) {
	invite := &models.TeamInvite{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&invite.ID,
		&invite.TeamID,
		&invite.Token,
		&invite.ExpiresAt,
		&invite.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}
	return invite, nil
}

func (r *postgresInviteRepository) GetByID(ctx context.Context, id int) (*models.TeamInvite, error) {
	query := `SELECT id, team_id, token, expires_at, created_at FROM team_invites WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresInviteRepository) GetByToken(ctx context.Context, token string) (*models.TeamInvite, error) {
	query := `SELECT id, team_id, token, expires_at, created_at FROM team_invites WHERE token = $1`
	return r.findOne(ctx, query, token)
}

func (r *postgresInviteRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.TeamInvite, error) {
	query := `SELECT id, team_id, token, expires_at, created_at FROM team_invites WHERE team_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	defer rows.Close()

	invites := make([]*models.TeamInvite, 0)
	for rows.Next() {
		var invite models.TeamInvite
		if err := rows.Scan(&invite.ID, &invite.TeamID, &invite.Token, &invite.ExpiresAt, &invite.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invite row: %w", err)
		}
		invites = append(invites, &invite)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invite rows: %w", err)
	}
	return invites, nil
}

func (r *postgresInviteRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM team_invites WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete invite: %w", err)
	}
	return checkAffectedRows(result, ErrInviteNotFound)
}
