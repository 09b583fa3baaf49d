package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/codeclash/competition-system/models"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	txm           *fakeTxManager
	competitions  *fakeCompetitionRepo
	registrations *fakeRegistrationRepo
	teams         *fakeTeamRepo
	members       *fakeTeamMemberRepo
	invites       *fakeInviteRepo
	submissions   *fakeSubmissionRepo
	criteria      *fakeCriterionRepo
	scores        *fakeScoreRepo
	rankings      *fakeRankingRepo
	uploader      *fakeUploader

	competitionSvc  CompetitionService
	registrationSvc RegistrationService
	teamSvc         TeamService
	inviteSvc       InviteService
	submissionSvc   SubmissionService
	judgingSvc      JudgingService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		txm:           &fakeTxManager{},
		competitions:  newFakeCompetitionRepo(),
		registrations: newFakeRegistrationRepo(),
		teams:         newFakeTeamRepo(),
		invites:       newFakeInviteRepo(),
		submissions:   newFakeSubmissionRepo(),
		criteria:      newFakeCriterionRepo(),
		scores:        newFakeScoreRepo(),
		rankings:      newFakeRankingRepo(),
		uploader:      newFakeUploader(),
	}
	env.members = newFakeTeamMemberRepo(env.teams)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env.judgingSvc = NewJudgingService(
		env.txm,
		env.competitions,
		env.submissions,
		env.criteria,
		env.scores,
		env.rankings,
		logger,
	)
	env.competitionSvc = NewCompetitionService(
		env.txm,
		env.competitions,
		env.registrations,
		env.judgingSvc,
		env.uploader,
		logger,
	)
	env.registrationSvc = NewRegistrationService(
		env.txm,
		env.competitions,
		env.registrations,
		env.teams,
		env.members,
	)
	env.teamSvc = NewTeamService(
		env.txm,
		env.teams,
		env.members,
		env.registrations,
		env.competitions,
		env.uploader,
	)
	env.inviteSvc = NewInviteService(env.invites, env.teamSvc, env.teams)
	env.submissionSvc = NewSubmissionService(
		env.competitions,
		env.registrations,
		env.teams,
		env.members,
		env.submissions,
	)
	return env
}

// pinClocks fixes "now" for the services that consult a clock.
func (env *testEnv) pinClocks(now time.Time) {
	clock := func() time.Time { return now }
	env.competitionSvc.(*competitionService).now = clock
	env.registrationSvc.(*registrationService).now = clock
	env.inviteSvc.(*inviteService).now = clock
}

type competitionOpts struct {
	status          models.CompetitionStatus
	startDate       time.Time
	endDate         time.Time
	deadline        *time.Time
	maxParticipants *int
}

func (env *testEnv) seedCompetition(t *testing.T, opts competitionOpts) *models.Competition {
	t.Helper()
	if opts.startDate.IsZero() {
		opts.startDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	}
	if opts.endDate.IsZero() {
		opts.endDate = opts.startDate.Add(72 * time.Hour)
	}
	c := &models.Competition{
		Title:                "Spring Code Clash",
		HostUserID:           1,
		StartDate:            opts.startDate,
		EndDate:              opts.endDate,
		RegistrationDeadline: opts.deadline,
		MaxParticipants:      opts.maxParticipants,
		Status:               opts.status,
		Visibility:           models.VisibilityPublic,
	}
	if c.Status == "" {
		c.Status = models.StatusDraft
	}
	require.NoError(t, env.competitions.Create(context.Background(), c))
	return c
}

func (env *testEnv) seedRegistration(t *testing.T, competitionID, userID int) *models.Registration {
	t.Helper()
	reg := &models.Registration{
		CompetitionID: competitionID,
		UserID:        userID,
		Status:        models.RegistrationStatusRegistered,
	}
	require.NoError(t, env.registrations.Create(context.Background(), nil, reg))
	return reg
}

func (env *testEnv) seedSubmission(t *testing.T, competitionID, authorUserID int, submittedAt time.Time) *models.Submission {
	t.Helper()
	sub := &models.Submission{
		CompetitionID: competitionID,
		AuthorUserID:  authorUserID,
		Title:         "entry",
		Description:   "a project",
		SubmittedAt:   submittedAt,
	}
	require.NoError(t, env.submissions.Create(context.Background(), sub))
	return sub
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func timePtr(v time.Time) *time.Time { return &v }
