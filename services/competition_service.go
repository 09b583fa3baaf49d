package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/codeclash/competition-system/models"
	"github.com/codeclash/competition-system/repositories"
	"github.com/codeclash/competition-system/storage"
)

// RankingFinalizer freezes the ranking snapshot inside the completed
// transition's transaction. Implemented by the judging service.
type RankingFinalizer interface {
	FinalizeRankings(ctx context.Context, exec repositories.SQLExecutor, competitionID int) error
}

type CreateCompetitionInput struct {
	Title                string                        `json:"title"`
	Description          *string                       `json:"description"`
	StartDate            time.Time                     `json:"start_date"`
	EndDate              time.Time                     `json:"end_date"`
	RegistrationDeadline *time.Time                    `json:"registration_deadline"`
	MaxParticipants      *int                          `json:"max_participants"`
	HostOrgID            *int                          `json:"host_org_id"`
	Visibility           *models.CompetitionVisibility `json:"visibility"`
}

type UpdateCompetitionInput struct {
	Title                *string                       `json:"title"`
	Description          *string                       `json:"description"`
	StartDate            *time.Time                    `json:"start_date"`
	EndDate              *time.Time                    `json:"end_date"`
	RegistrationDeadline *time.Time                    `json:"registration_deadline"`
	MaxParticipants      *int                          `json:"max_participants"`
	Visibility           *models.CompetitionVisibility `json:"visibility"`
}

type ListCompetitionsFilter struct {
	Status     *models.CompetitionStatus
	Visibility *models.CompetitionVisibility
	HostUserID *int
	Limit      int
	Offset     int
}

type CompetitionService interface {
	Create(ctx context.Context, hostUserID int, input CreateCompetitionInput) (*models.Competition, error)
	GetByID(ctx context.Context, id int) (*models.Competition, error)
	List(ctx context.Context, filter ListCompetitionsFilter) ([]*models.Competition, error)
	Update(ctx context.Context, id int, input UpdateCompetitionInput) (*models.Competition, error)
	Transition(ctx context.Context, id int, target models.CompetitionStatus) (*models.Competition, error)
	UploadBanner(ctx context.Context, id int, contentType string, banner io.Reader) (*models.Competition, error)
	AutoAdvanceByDates(ctx context.Context) error
}

type competitionService struct {
	txm       TxManager
	repo      repositories.CompetitionRepository
	regRepo   repositories.RegistrationRepository
	finalizer RankingFinalizer
	uploader  storage.FileUploader
	logger    *slog.Logger
	now       Clock
}

func NewCompetitionService(
	txm TxManager,
	repo repositories.CompetitionRepository,
	regRepo repositories.RegistrationRepository,
	finalizer RankingFinalizer,
	uploader storage.FileUploader,
	logger *slog.Logger,
) CompetitionService {
	return &competitionService{
		txm:       txm,
		repo:      repo,
		regRepo:   regRepo,
		finalizer: finalizer,
		uploader:  uploader,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *competitionService) Create(ctx context.Context, hostUserID int, input CreateCompetitionInput) (*models.Competition, error) {
	if input.Title == "" {
		return nil, ErrCompetitionTitleRequired
	}
	if err := validateCompetitionDates(input.StartDate, input.EndDate, input.RegistrationDeadline); err != nil {
		return nil, err
	}
	if input.MaxParticipants != nil && *input.MaxParticipants <= 0 {
		return nil, ErrCompetitionInvalidCapacity
	}

	visibility := models.VisibilityPublic
	if input.Visibility != nil {
		visibility = *input.Visibility
	}

	competition := &models.Competition{
		Title:                input.Title,
		Description:          input.Description,
		HostUserID:           hostUserID,
		HostOrgID:            input.HostOrgID,
		StartDate:            input.StartDate,
		EndDate:              input.EndDate,
		RegistrationDeadline: input.RegistrationDeadline,
		MaxParticipants:      input.MaxParticipants,
		Status:               models.StatusDraft,
		Visibility:           visibility,
	}

	if err := s.repo.Create(ctx, competition); err != nil {
		return nil, fmt.Errorf("create competition: %w", err)
	}
	s.populateBannerURL(competition)
	return competition, nil
}

func (s *competitionService) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	competition, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapCompetitionRepoError(err)
	}
	s.populateBannerURL(competition)
	return competition, nil
}

func (s *competitionService) List(ctx context.Context, filter ListCompetitionsFilter) ([]*models.Competition, error) {
	competitions, err := s.repo.List(ctx, repositories.CompetitionFilter{
		Status:     filter.Status,
		Visibility: filter.Visibility,
		HostUserID: filter.HostUserID,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	for _, c := range competitions {
		s.populateBannerURL(c)
	}
	return competitions, nil
}

func (s *competitionService) Update(ctx context.Context, id int, input UpdateCompetitionInput) (*models.Competition, error) {
	competition, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapCompetitionRepoError(err)
	}

	// Once completed, only administrative metadata may change. Capacity and
	// dates are frozen so the competition's outcome cannot be rewritten.
	if competition.Status == models.StatusCompleted {
		if input.StartDate != nil || input.EndDate != nil ||
			input.RegistrationDeadline != nil || input.MaxParticipants != nil || input.Visibility != nil {
			return nil, ErrCompetitionLocked
		}
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, ErrCompetitionTitleRequired
		}
		competition.Title = *input.Title
	}
	if input.Description != nil {
		competition.Description = input.Description
	}
	if input.StartDate != nil {
		competition.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		competition.EndDate = *input.EndDate
	}
	if input.RegistrationDeadline != nil {
		competition.RegistrationDeadline = input.RegistrationDeadline
	}
	if input.Visibility != nil {
		competition.Visibility = *input.Visibility
	}
	if err := validateCompetitionDates(competition.StartDate, competition.EndDate, competition.RegistrationDeadline); err != nil {
		return nil, err
	}

	if input.MaxParticipants != nil {
		if *input.MaxParticipants <= 0 {
			return nil, ErrCompetitionInvalidCapacity
		}
		count, err := s.regRepo.CountActive(ctx, nil, id)
		if err != nil {
			return nil, fmt.Errorf("count registrations for capacity check: %w", err)
		}
		if *input.MaxParticipants < count {
			return nil, ErrCapacityBelowRegistered
		}
		competition.MaxParticipants = input.MaxParticipants
	}

	if err := s.repo.Update(ctx, competition); err != nil {
		return nil, mapCompetitionRepoError(err)
	}
	s.populateBannerURL(competition)
	return competition, nil
}

func (s *competitionService) Transition(ctx context.Context, id int, target models.CompetitionStatus) (*models.Competition, error) {
	if !isValidCompetitionStatus(target) {
		return nil, ErrCompetitionInvalidStatus
	}

	var competition *models.Competition
	err := s.txm.InTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		current, err := s.repo.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			return mapCompetitionRepoError(err)
		}
		if !isValidStatusTransition(current.Status, target) {
			return fmt.Errorf("%w: %s -> %s", ErrCompetitionInvalidTransition, current.Status, target)
		}
		if err := s.repo.UpdateStatus(ctx, exec, id, target); err != nil {
			return mapCompetitionRepoError(err)
		}
		// Entering completed freezes the ranking inside the same transaction.
		if target == models.StatusCompleted {
			if err := s.finalizer.FinalizeRankings(ctx, exec, id); err != nil {
				return fmt.Errorf("freeze rankings: %w", err)
			}
		}
		current.Status = target
		competition = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("competition status changed",
		slog.Int("competition_id", id),
		slog.String("status", string(target)))
	s.populateBannerURL(competition)
	return competition, nil
}

func (s *competitionService) UploadBanner(ctx context.Context, id int, contentType string, banner io.Reader) (*models.Competition, error) {
	competition, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapCompetitionRepoError(err)
	}

	key := fmt.Sprintf("competitions/%d/banner", competition.ID)
	result, err := s.uploader.Upload(ctx, key, contentType, banner)
	if err != nil {
		return nil, fmt.Errorf("upload competition banner: %w", err)
	}
	if err := s.repo.UpdateBannerKey(ctx, competition.ID, &result.Key); err != nil {
		return nil, mapCompetitionRepoError(err)
	}
	competition.BannerKey = &result.Key
	s.populateBannerURL(competition)
	return competition, nil
}

// AutoAdvanceByDates is the scheduler entry point: open competitions whose
// start date has passed move to in_progress, running ones whose end date has
// passed move to judging. Draft and completed competitions are never touched.
func (s *competitionService) AutoAdvanceByDates(ctx context.Context) error {
	now := s.now()

	advance := func(from, to models.CompetitionStatus, before time.Time) error {
		filter := repositories.CompetitionFilter{Status: &from}
		switch from {
		case models.StatusOpen:
			filter.StartedBefore = &before
		case models.StatusInProgress:
			filter.EndedBefore = &before
		}
		due, err := s.repo.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("list %s competitions due for %s: %w", from, to, err)
		}
		for _, c := range due {
			if _, err := s.Transition(ctx, c.ID, to); err != nil {
				// Keep advancing the rest; a single racing transition is fine.
				if errors.Is(err, ErrCompetitionInvalidTransition) {
					continue
				}
				s.logger.Error("auto-advance failed",
					slog.Int("competition_id", c.ID),
					slog.String("target", string(to)),
					slog.Any("error", err))
			}
		}
		return nil
	}

	if err := advance(models.StatusOpen, models.StatusInProgress, now); err != nil {
		return err
	}
	return advance(models.StatusInProgress, models.StatusJudging, now)
}

func (s *competitionService) populateBannerURL(c *models.Competition) {
	if c == nil || c.BannerKey == nil || *c.BannerKey == "" || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*c.BannerKey)
	c.BannerURL = &url
}
