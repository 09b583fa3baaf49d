package services

import "errors"

// Shared errors used across services and the HTTP mapping.
var (
	// Not found
	ErrCompetitionNotFound  = errors.New("competition not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrCriterionNotFound    = errors.New("judging criterion not found")
	ErrInviteNotFound       = errors.New("invite not found")

	// Competition validation and lifecycle
	ErrCompetitionTitleRequired     = errors.New("competition title is required")
	ErrCompetitionInvalidDateRange  = errors.New("competition end date must not be before start date")
	ErrCompetitionInvalidDeadline   = errors.New("registration deadline must not be after the start date")
	ErrCompetitionInvalidCapacity   = errors.New("competition max participants must be positive")
	ErrCompetitionInvalidStatus     = errors.New("invalid competition status provided")
	ErrCompetitionInvalidTransition = errors.New("invalid competition status transition")
	ErrCompetitionLocked            = errors.New("competition is completed; only title and description may change")
	ErrCapacityBelowRegistered      = errors.New("max participants cannot drop below the current registration count")

	// Registration admission
	ErrRegistrationNotOpen        = errors.New("competition registration is not open")
	ErrRegistrationDeadlinePassed = errors.New("competition registration deadline has passed")
	ErrCompetitionFull            = errors.New("competition registration is full")
	ErrAlreadyRegistered          = errors.New("user is already registered for this competition")
	ErrCaptainCannotWithdraw      = errors.New("team captain must transfer captaincy before withdrawing")

	// Team formation
	ErrNotRegistered      = errors.New("an active registration is required")
	ErrTeamNameRequired   = errors.New("team name is required")
	ErrTeamNameConflict   = errors.New("team name is already taken in this competition")
	ErrAlreadyTeamMember  = errors.New("user is already a member of this team")
	ErrCaptainCannotLeave = errors.New("team captain cannot leave; transfer captaincy first")
	ErrNotTeamCaptain     = errors.New("only the team captain can perform this action")
	ErrNotTeamMember      = errors.New("user is not a member of this team")
	ErrInviteExpired      = errors.New("invite has expired")

	// Submissions
	ErrSubmissionsNotOpen            = errors.New("competition has not started; submissions are not open yet")
	ErrSubmissionsClosed             = errors.New("competition submissions are closed")
	ErrSubmissionTitleRequired       = errors.New("submission title is required")
	ErrSubmissionDescriptionRequired = errors.New("submission description is required")
	ErrNotSubmissionAuthor           = errors.New("only the submission author can perform this action")
	ErrTeamCompetitionMismatch       = errors.New("team does not belong to this competition")

	// Judging
	ErrCriterionNameRequired    = errors.New("criterion name is required")
	ErrCriterionInvalidWeight   = errors.New("criterion weight must be a positive integer")
	ErrCriterionInvalidMaxScore = errors.New("criterion max score must be a positive integer")
	ErrCriteriaDefinitionClosed = errors.New("criteria cannot change once judging has started")
	ErrCriterionInUse           = errors.New("criterion already has scores and is immutable")
	ErrNotJudgingPhase          = errors.New("competition is not in the judging phase")
	ErrScoreOutOfRange          = errors.New("score is outside the criterion's allowed range")
)
