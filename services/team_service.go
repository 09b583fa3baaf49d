package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/codeclash/competition-system/models"
	"github.com/codeclash/competition-system/repositories"
	"github.com/codeclash/competition-system/storage"
)

type TeamService interface {
	CreateTeam(ctx context.Context, competitionID, userID int, name string) (*models.Team, error)
	GetTeam(ctx context.Context, teamID int) (*models.Team, error)
	ListTeams(ctx context.Context, competitionID int) ([]*models.Team, error)
	JoinTeam(ctx context.Context, teamID, userID int) error
	LeaveTeam(ctx context.Context, teamID, userID int) error
	TransferCaptaincy(ctx context.Context, teamID, captainUserID, newCaptainUserID int) (*models.Team, error)
	UploadLogo(ctx context.Context, teamID, userID int, contentType string, logo io.Reader) (*models.Team, error)
}

type teamService struct {
	txm        TxManager
	teamRepo   repositories.TeamRepository
	memberRepo repositories.TeamMemberRepository
	regRepo    repositories.RegistrationRepository
	compRepo   repositories.CompetitionRepository
	uploader   storage.FileUploader
}

func NewTeamService(
	txm TxManager,
	teamRepo repositories.TeamRepository,
	memberRepo repositories.TeamMemberRepository,
	regRepo repositories.RegistrationRepository,
	compRepo repositories.CompetitionRepository,
	uploader storage.FileUploader,
) TeamService {
	return &teamService{
		txm:        txm,
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		regRepo:    regRepo,
		compRepo:   compRepo,
		uploader:   uploader,
	}
}

// CreateTeam creates a team captained by the caller. The team row and the
// captain's membership are inserted in the same transaction: a team must
// never exist with zero members.
func (s *teamService) CreateTeam(ctx context.Context, competitionID, userID int, name string) (*models.Team, error) {
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	if _, err := s.compRepo.GetByID(ctx, competitionID); err != nil {
		return nil, mapCompetitionRepoError(err)
	}
	if err := s.requireActiveRegistration(ctx, competitionID, userID); err != nil {
		return nil, err
	}

	team := &models.Team{
		CompetitionID: competitionID,
		Name:          name,
		CaptainUserID: userID,
	}
	err := s.txm.InTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			if errors.Is(err, repositories.ErrTeamNameConflict) {
				return ErrTeamNameConflict
			}
			return fmt.Errorf("create team: %w", err)
		}
		member := &models.TeamMember{TeamID: team.ID, UserID: userID}
		if err := s.memberRepo.Create(ctx, exec, member); err != nil {
			return fmt.Errorf("create captain membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	team.MemberCount = 1
	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}
	members, err := s.memberRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	team.Members = make([]models.TeamMember, 0, len(members))
	for _, m := range members {
		team.Members = append(team.Members, *m)
	}
	s.populateLogoURL(team)
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context, competitionID int) ([]*models.Team, error) {
	if _, err := s.compRepo.GetByID(ctx, competitionID); err != nil {
		return nil, mapCompetitionRepoError(err)
	}
	teams, err := s.teamRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	for _, t := range teams {
		s.populateLogoURL(t)
	}
	return teams, nil
}

// JoinTeam adds the user to the team. Membership mutations serialize on the
// team row lock.
func (s *teamService) JoinTeam(ctx context.Context, teamID, userID int) error {
	return s.txm.InTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		team, err := s.teamRepo.GetByIDForUpdate(ctx, exec, teamID)
		if err != nil {
			return mapTeamRepoError(err)
		}
		if err := s.requireActiveRegistrationExec(ctx, exec, team.CompetitionID, userID); err != nil {
			return err
		}
		member := &models.TeamMember{TeamID: teamID, UserID: userID}
		if err := s.memberRepo.Create(ctx, exec, member); err != nil {
			if errors.Is(err, repositories.ErrTeamMemberConflict) {
				return ErrAlreadyTeamMember
			}
			return fmt.Errorf("create membership: %w", err)
		}
		return nil
	})
}

// LeaveTeam removes the user's membership. Idempotent for non-members; the
// captain can never leave while still captain.
func (s *teamService) LeaveTeam(ctx context.Context, teamID, userID int) error {
	return s.txm.InTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		team, err := s.teamRepo.GetByIDForUpdate(ctx, exec, teamID)
		if err != nil {
			return mapTeamRepoError(err)
		}
		if team.CaptainUserID == userID {
			return ErrCaptainCannotLeave
		}
		if err := s.memberRepo.Delete(ctx, exec, teamID, userID); err != nil {
			if errors.Is(err, repositories.ErrTeamMemberNotFound) {
				return nil
			}
			return fmt.Errorf("delete membership: %w", err)
		}
		return nil
	})
}

// TransferCaptaincy hands the captain role to another existing member. The
// prior captain stays on as an ordinary member and is then free to leave or
// withdraw.
func (s *teamService) TransferCaptaincy(ctx context.Context, teamID, captainUserID, newCaptainUserID int) (*models.Team, error) {
	var team *models.Team

	err := s.txm.InTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		current, err := s.teamRepo.GetByIDForUpdate(ctx, exec, teamID)
		if err != nil {
			return mapTeamRepoError(err)
		}
		if current.CaptainUserID != captainUserID {
			return ErrNotTeamCaptain
		}
		isMember, err := s.memberRepo.Exists(ctx, exec, teamID, newCaptainUserID)
		if err != nil {
			return fmt.Errorf("check membership: %w", err)
		}
		if !isMember {
			return ErrNotTeamMember
		}
		if err := s.teamRepo.UpdateCaptain(ctx, exec, teamID, newCaptainUserID); err != nil {
			return mapTeamRepoError(err)
		}
		current.CaptainUserID = newCaptainUserID
		team = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *teamService) UploadLogo(ctx context.Context, teamID, userID int, contentType string, logo io.Reader) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}
	if team.CaptainUserID != userID {
		return nil, ErrNotTeamCaptain
	}

	key := fmt.Sprintf("teams/%d/logo", team.ID)
	result, err := s.uploader.Upload(ctx, key, contentType, logo)
	if err != nil {
		return nil, fmt.Errorf("upload team logo: %w", err)
	}
	if err := s.teamRepo.UpdateLogoKey(ctx, team.ID, &result.Key); err != nil {
		return nil, mapTeamRepoError(err)
	}
	team.LogoKey = &result.Key
	s.populateLogoURL(team)
	return team, nil
}

func (s *teamService) requireActiveRegistration(ctx context.Context, competitionID, userID int) error {
	return s.requireActiveRegistrationExec(ctx, nil, competitionID, userID)
}

func (s *teamService) requireActiveRegistrationExec(ctx context.Context, exec repositories.SQLExecutor, competitionID, userID int) error {
	_, err := s.regRepo.FindActive(ctx, exec, competitionID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrNotRegistered
		}
		return fmt.Errorf("find registration: %w", err)
	}
	return nil
}

func (s *teamService) populateLogoURL(team *models.Team) {
	if team == nil || team.LogoKey == nil || *team.LogoKey == "" || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*team.LogoKey)
	team.LogoURL = &url
}

func mapTeamRepoError(err error) error {
	if errors.Is(err, repositories.ErrTeamNotFound) {
		return ErrTeamNotFound
	}
	return err
}
