package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/codeclash/competition-system/models"
	"github.com/codeclash/competition-system/repositories"
)

const (
	inviteTokenLength = 16 // bytes, 32 hex characters
	inviteDuration    = 7 * 24 * time.Hour
)

var ErrInviteTokenGeneration = errors.New("failed to generate unique invite token")

type InviteService interface {
	CreateInvite(ctx context.Context, teamID, currentUserID int) (*models.TeamInvite, error)
	AcceptInvite(ctx context.Context, token string, userID int) (*models.Team, error)
	DeleteInvite(ctx context.Context, inviteID, currentUserID int) error
	ListTeamInvites(ctx context.Context, teamID, currentUserID int) ([]*models.TeamInvite, error)
}

type inviteService struct {
	inviteRepo  repositories.InviteRepository
	teamService TeamService
	teamRepo    repositories.TeamRepository
	now         Clock
}

func NewInviteService(
	inviteRepo repositories.InviteRepository,
	teamService TeamService,
	teamRepo repositories.TeamRepository,
) InviteService {
	return &inviteService{
		inviteRepo:  inviteRepo,
		teamService: teamService,
		teamRepo:    teamRepo,
		now:         time.Now,
	}
}

func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (s *inviteService) CreateInvite(ctx context.Context, teamID, currentUserID int) (*models.TeamInvite, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}
	if team.CaptainUserID != currentUserID {
		return nil, ErrNotTeamCaptain
	}

	token, err := generateSecureToken(inviteTokenLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInviteTokenGeneration, err)
	}

	invite := &models.TeamInvite{
		TeamID:    teamID,
		Token:     token,
		ExpiresAt: s.now().Add(inviteDuration),
	}
	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}
	return invite, nil
}

// AcceptInvite joins the user to the invited team. The usual join rules
// apply: the user needs an active registration in the team's competition.
func (s *inviteService) AcceptInvite(ctx context.Context, token string, userID int) (*models.Team, error) {
	invite, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("find invite: %w", err)
	}
	if invite.IsExpired(s.now()) {
		return nil, ErrInviteExpired
	}

	if err := s.teamService.JoinTeam(ctx, invite.TeamID, userID); err != nil {
		return nil, err
	}
	return s.teamService.GetTeam(ctx, invite.TeamID)
}

func (s *inviteService) DeleteInvite(ctx context.Context, inviteID, currentUserID int) error {
	invite, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return ErrInviteNotFound
		}
		return fmt.Errorf("find invite: %w", err)
	}
	team, err := s.teamRepo.GetByID(ctx, invite.TeamID)
	if err != nil {
		return mapTeamRepoError(err)
	}
	if team.CaptainUserID != currentUserID {
		return ErrNotTeamCaptain
	}
	if err := s.inviteRepo.Delete(ctx, inviteID); err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return ErrInviteNotFound
		}
		return fmt.Errorf("delete invite: %w", err)
	}
	return nil
}

func (s *inviteService) ListTeamInvites(ctx context.Context, teamID, currentUserID int) ([]*models.TeamInvite, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}
	if team.CaptainUserID != currentUserID {
		return nil, ErrNotTeamCaptain
	}
	return s.inviteRepo.ListByTeam(ctx, teamID)
}
