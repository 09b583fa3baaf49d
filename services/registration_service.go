package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codeclash/competition-system/models"
	"github.com/codeclash/competition-system/repositories"
)

type RegistrationService interface {
	Register(ctx context.Context, competitionID, userID int) (*models.Registration, error)
	Withdraw(ctx context.Context, competitionID, userID int) error
	GetMyRegistration(ctx context.Context, competitionID, userID int) (*models.Registration, error)
	IsRegistered(ctx context.Context, competitionID, userID int) (bool, error)
	Count(ctx context.Context, competitionID int) (int, error)
	ListByCompetition(ctx context.Context, competitionID int) ([]*models.Registration, error)
}

type registrationService struct {
	txm        TxManager
	compRepo   repositories.CompetitionRepository
	regRepo    repositories.RegistrationRepository
	teamRepo   repositories.TeamRepository
	memberRepo repositories.TeamMemberRepository
	now        Clock
}

func NewRegistrationService(
	txm TxManager,
	compRepo repositories.CompetitionRepository,
	regRepo repositories.RegistrationRepository,
	teamRepo repositories.TeamRepository,
	memberRepo repositories.TeamMemberRepository,
) RegistrationService {
	return &registrationService{
		txm:        txm,
		compRepo:   compRepo,
		regRepo:    regRepo,
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		now:        time.Now,
	}
}

// Register admits a user into a competition. The whole check-then-insert
// sequence runs in one transaction holding the competition row lock, so two
// racers for the last capacity slot serialize and exactly one wins.
func (s *registrationService) Register(ctx context.Context, competitionID, userID int) (*models.Registration, error) {
	var registration *models.Registration

	err := s.txm.InTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		competition, err := s.compRepo.GetByIDForUpdate(ctx, exec, competitionID)
		if err != nil {
			return mapCompetitionRepoError(err)
		}

		if err := s.checkAdmissionWindow(competition); err != nil {
			return err
		}

		if competition.MaxParticipants != nil {
			count, err := s.regRepo.CountActive(ctx, exec, competitionID)
			if err != nil {
				return fmt.Errorf("count active registrations: %w", err)
			}
			if count >= *competition.MaxParticipants {
				return ErrCompetitionFull
			}
		}

		reg := &models.Registration{
			CompetitionID: competitionID,
			UserID:        userID,
			Status:        models.RegistrationStatusRegistered,
		}
		if err := s.regRepo.Create(ctx, exec, reg); err != nil {
			if errors.Is(err, repositories.ErrRegistrationConflict) {
				return ErrAlreadyRegistered
			}
			return fmt.Errorf("create registration: %w", err)
		}
		registration = reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return registration, nil
}

// checkAdmissionWindow makes the late-registration cutoff explicit:
// registration is open for the whole open phase, and continues into
// in_progress only while an explicit registration deadline is set and has
// not passed. Without a deadline, registration closes when open ends.
func (s *registrationService) checkAdmissionWindow(c *models.Competition) error {
	now := s.now()

	switch c.Status {
	case models.StatusOpen:
		if c.RegistrationDeadline != nil && now.After(*c.RegistrationDeadline) {
			return ErrRegistrationDeadlinePassed
		}
		return nil
	case models.StatusInProgress:
		if c.RegistrationDeadline == nil {
			return ErrRegistrationNotOpen
		}
		if now.After(*c.RegistrationDeadline) {
			return ErrRegistrationDeadlinePassed
		}
		return nil
	default:
		return ErrRegistrationNotOpen
	}
}

// Withdraw marks the registration withdrawn. Idempotent: withdrawing a user
// who is not actively registered succeeds with no effect. A user who still
// captains a team must transfer captaincy first; ordinary memberships in the
// competition are removed along with the registration.
func (s *registrationService) Withdraw(ctx context.Context, competitionID, userID int) error {
	return s.txm.InTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		reg, err := s.regRepo.FindActive(ctx, exec, competitionID, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrRegistrationNotFound) {
				return nil
			}
			return fmt.Errorf("find registration: %w", err)
		}

		captain, err := s.teamRepo.HasCaptaincy(ctx, exec, competitionID, userID)
		if err != nil {
			return fmt.Errorf("check captaincy: %w", err)
		}
		if captain {
			return ErrCaptainCannotWithdraw
		}

		if err := s.regRepo.UpdateStatus(ctx, exec, reg.ID, models.RegistrationStatusWithdrawn); err != nil {
			return fmt.Errorf("withdraw registration: %w", err)
		}
		if err := s.memberRepo.DeleteByCompetitionAndUser(ctx, exec, competitionID, userID); err != nil {
			return fmt.Errorf("remove memberships: %w", err)
		}
		return nil
	})
}

func (s *registrationService) GetMyRegistration(ctx context.Context, competitionID, userID int) (*models.Registration, error) {
	reg, err := s.regRepo.FindActive(ctx, nil, competitionID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return reg, nil
}

func (s *registrationService) IsRegistered(ctx context.Context, competitionID, userID int) (bool, error) {
	_, err := s.regRepo.FindActive(ctx, nil, competitionID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("find registration: %w", err)
	}
	return true, nil
}

func (s *registrationService) Count(ctx context.Context, competitionID int) (int, error) {
	return s.regRepo.CountActive(ctx, nil, competitionID)
}

func (s *registrationService) ListByCompetition(ctx context.Context, competitionID int) ([]*models.Registration, error) {
	if _, err := s.compRepo.GetByID(ctx, competitionID); err != nil {
		return nil, mapCompetitionRepoError(err)
	}
	status := models.RegistrationStatusRegistered
	return s.regRepo.ListByCompetition(ctx, competitionID, &status)
}
