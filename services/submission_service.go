package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/codeclash/competition-system/models"
	"github.com/codeclash/competition-system/repositories"
)

type SubmitInput struct {
	TeamID      *int    `json:"team_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	RepoURL     *string `json:"repo_url"`
	DemoURL     *string `json:"demo_url"`
	VideoURL    *string `json:"video_url"`
}

type UpdateSubmissionInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	RepoURL     *string `json:"repo_url"`
	DemoURL     *string `json:"demo_url"`
	VideoURL    *string `json:"video_url"`
}

type SubmissionService interface {
	Submit(ctx context.Context, competitionID, authorUserID int, input SubmitInput) (*models.Submission, error)
	Update(ctx context.Context, submissionID, userID int, input UpdateSubmissionInput) (*models.Submission, error)
	GetByID(ctx context.Context, submissionID int) (*models.Submission, error)
	ListByCompetition(ctx context.Context, competitionID int) ([]*models.Submission, error)
}

type submissionService struct {
	compRepo   repositories.CompetitionRepository
	regRepo    repositories.RegistrationRepository
	teamRepo   repositories.TeamRepository
	memberRepo repositories.TeamMemberRepository
	subRepo    repositories.SubmissionRepository
}

func NewSubmissionService(
	compRepo repositories.CompetitionRepository,
	regRepo repositories.RegistrationRepository,
	teamRepo repositories.TeamRepository,
	memberRepo repositories.TeamMemberRepository,
	subRepo repositories.SubmissionRepository,
) SubmissionService {
	return &submissionService{
		compRepo:   compRepo,
		regRepo:    regRepo,
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		subRepo:    subRepo,
	}
}

// Submit files a project for the competition. Multiple submissions per
// team or individual are allowed; each is judged independently.
func (s *submissionService) Submit(ctx context.Context, competitionID, authorUserID int, input SubmitInput) (*models.Submission, error) {
	competition, err := s.compRepo.GetByID(ctx, competitionID)
	if err != nil {
		return nil, mapCompetitionRepoError(err)
	}
	if err := checkSubmissionWindow(competition.Status); err != nil {
		return nil, err
	}
	if input.Title == "" {
		return nil, ErrSubmissionTitleRequired
	}
	if input.Description == "" {
		return nil, ErrSubmissionDescriptionRequired
	}

	if _, err := s.regRepo.FindActive(ctx, nil, competitionID, authorUserID); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}

	if input.TeamID != nil {
		team, err := s.teamRepo.GetByID(ctx, *input.TeamID)
		if err != nil {
			return nil, mapTeamRepoError(err)
		}
		if team.CompetitionID != competitionID {
			return nil, ErrTeamCompetitionMismatch
		}
		isMember, err := s.memberRepo.Exists(ctx, nil, team.ID, authorUserID)
		if err != nil {
			return nil, fmt.Errorf("check membership: %w", err)
		}
		if !isMember {
			return nil, ErrNotTeamMember
		}
	}

	sub := &models.Submission{
		CompetitionID: competitionID,
		AuthorUserID:  authorUserID,
		TeamID:        input.TeamID,
		Title:         input.Title,
		Description:   input.Description,
		RepoURL:       input.RepoURL,
		DemoURL:       input.DemoURL,
		VideoURL:      input.VideoURL,
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	return sub, nil
}

func (s *submissionService) Update(ctx context.Context, submissionID, userID int, input UpdateSubmissionInput) (*models.Submission, error) {
	sub, err := s.subRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, mapSubmissionRepoError(err)
	}
	if sub.AuthorUserID != userID {
		return nil, ErrNotSubmissionAuthor
	}

	competition, err := s.compRepo.GetByID(ctx, sub.CompetitionID)
	if err != nil {
		return nil, mapCompetitionRepoError(err)
	}
	if err := checkSubmissionWindow(competition.Status); err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, ErrSubmissionTitleRequired
		}
		sub.Title = *input.Title
	}
	if input.Description != nil {
		if *input.Description == "" {
			return nil, ErrSubmissionDescriptionRequired
		}
		sub.Description = *input.Description
	}
	if input.RepoURL != nil {
		sub.RepoURL = input.RepoURL
	}
	if input.DemoURL != nil {
		sub.DemoURL = input.DemoURL
	}
	if input.VideoURL != nil {
		sub.VideoURL = input.VideoURL
	}

	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, mapSubmissionRepoError(err)
	}
	return sub, nil
}

func (s *submissionService) GetByID(ctx context.Context, submissionID int) (*models.Submission, error) {
	sub, err := s.subRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, mapSubmissionRepoError(err)
	}
	return sub, nil
}

func (s *submissionService) ListByCompetition(ctx context.Context, competitionID int) ([]*models.Submission, error) {
	if _, err := s.compRepo.GetByID(ctx, competitionID); err != nil {
		return nil, mapCompetitionRepoError(err)
	}
	return s.subRepo.ListByCompetition(ctx, competitionID)
}

// checkSubmissionWindow: submissions are filed (and edited) only while the
// competition is in_progress. Entering judging closes intake for good.
func checkSubmissionWindow(status models.CompetitionStatus) error {
	switch status {
	case models.StatusInProgress:
		return nil
	case models.StatusJudging, models.StatusCompleted:
		return ErrSubmissionsClosed
	default:
		return ErrSubmissionsNotOpen
	}
}

func mapSubmissionRepoError(err error) error {
	if errors.Is(err, repositories.ErrSubmissionNotFound) {
		return ErrSubmissionNotFound
	}
	return err
}
