package services

import (
	"context"
	"strings"
	"testing"

	"github.com/codeclash/competition-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registeredUser(t *testing.T, env *testEnv, competitionID, userID int) {
	t.Helper()
	env.seedRegistration(t, competitionID, userID)
}

func TestCreateTeam_CaptainIsFirstMember(t *testing.T) {
	env := newTestEnv()
	c := env.seedCompetition(t, competitionOpts{status: models.StatusOpen})
	registeredUser(t, env, c.ID, 1)
	ctx := context.Background()

	team, err := env.teamSvc.CreateTeam(ctx, c.ID, 1, "gophers")
	require.NoError(t, err)
	assert.Equal(t, 1, team.CaptainUserID)
	assert.Equal(t, 1, team.MemberCount)

	got, err := env.teamSvc.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, got.Members, 1)
	assert.Equal(t, 1, got.Members[0].UserID)
}

func TestCreateTeam_Validation(t *testing.T) {
	env := newTestEnv()
	c := env.seedCompetition(t, competitionOpts{status: models.StatusOpen})
	registeredUser(t, env, c.ID, 1)
	ctx := context.Background()

	_, err := env.teamSvc.CreateTeam(ctx, c.ID, 1, "")
	assert.ErrorIs(t, err, ErrTeamNameRequired)

	_, err = env.teamSvc.CreateTeam(ctx, c.ID, 2, "rustaceans")
	assert.ErrorIs(t, err, ErrNotRegistered)

	_, err = env.teamSvc.CreateTeam(ctx, 999, 1, "gophers")
	assert.ErrorIs(t, err, ErrCompetitionNotFound)
}

func TestCreateTeam_NameUniquePerCompetition(t *testing.T) {
	env := newTestEnv()
	c1 := env.seedCompetition(t, competitionOpts{status: models.StatusOpen})
	c2 := env.seedCompetition(t, competitionOpts{status: models.StatusOpen})
	registeredUser(t, env, c1.ID, 1)
	registeredUser(t, env, c1.ID, 2)
	registeredUser(t, env, c2.ID, 3)
	ctx := context.Background()

	_, err := env.teamSvc.CreateTeam(ctx, c1.ID, 1, "gophers")
	require.NoError(t, err)

	_, err = env.teamSvc.CreateTeam(ctx, c1.ID, 2, "gophers")
	assert.ErrorIs(t, err, ErrTeamNameConflict)

	// Same name in a different competition is fine.
	_, err = env.teamSvc.CreateTeam(ctx, c2.ID, 3, "gophers")
	assert.NoError(t, err)
}

func TestJoinTeam(t *testing.T) {
	env := newTestEnv()
	c := env.seedCompetition(t, competitionOpts{status: models.StatusOpen})
	registeredUser(t, env, c.ID, 1)
	registeredUser(t, env, c.ID, 2)
	ctx := context.Background()

	team, err := env.teamSvc.CreateTeam(ctx, c.ID, 1, "gophers")
	require.NoError(t, err)

	require.NoError(t, env.teamSvc.JoinTeam(ctx, team.ID, 2))

	err = env.teamSvc.JoinTeam(ctx, team.ID, 2)
	assert.ErrorIs(t, err, ErrAlreadyTeamMember)

	err = env.teamSvc.JoinTeam(ctx, team.ID, 3)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestLeaveTeam(t *testing.T) {
	env := newTestEnv()
	c := env.seedCompetition(t, competitionOpts{status: models.StatusOpen})
	registeredUser(t, env, c.ID, 1)
	registeredUser(t, env, c.ID, 2)
	ctx := context.Background()

	team, err := env.teamSvc.CreateTeam(ctx, c.ID, 1, "gophers")
	require.NoError(t, err)
	require.NoError(t, env.teamSvc.JoinTeam(ctx, team.ID, 2))

	err = env.teamSvc.LeaveTeam(ctx, team.ID, 1)
	assert.ErrorIs(t, err, ErrCaptainCannotLeave)

	require.NoError(t, env.teamSvc.LeaveTeam(ctx, team.ID, 2))
	// Leaving again is a no-op.
	require.NoError(t, env.teamSvc.LeaveTeam(ctx, team.ID, 2))

	got, err := env.teamSvc.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 1)
}

func TestTransferCaptaincy(t *testing.T) {
	env := newTestEnv()
	c := env.seedCompetition(t, competitionOpts{status: models.StatusOpen})
	registeredUser(t, env, c.ID, 1)
	registeredUser(t, env, c.ID, 2)
	ctx := context.Background()

	team, err := env.teamSvc.CreateTeam(ctx, c.ID, 1, "gophers")
	require.NoError(t, err)
	require.NoError(t, env.teamSvc.JoinTeam(ctx, team.ID, 2))

	_, err = env.teamSvc.TransferCaptaincy(ctx, team.ID, 2, 1)
	assert.ErrorIs(t, err, ErrNotTeamCaptain)

	_, err = env.teamSvc.TransferCaptaincy(ctx, team.ID, 1, 3)
	assert.ErrorIs(t, err, ErrNotTeamMember)

	got, err := env.teamSvc.TransferCaptaincy(ctx, team.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CaptainUserID)

	// The prior captain is an ordinary member now and free to leave.
	require.NoError(t, env.teamSvc.LeaveTeam(ctx, team.ID, 1))
}

func TestTransferCaptaincy_ThenWithdraw(t *testing.T) {
	env := newTestEnv()
	c := env.seedCompetition(t, competitionOpts{status: models.StatusOpen})
	ctx := context.Background()

	_, err := env.registrationSvc.Register(ctx, c.ID, 1)
	require.NoError(t, err)
	_, err = env.registrationSvc.Register(ctx, c.ID, 2)
	require.NoError(t, err)

	team, err := env.teamSvc.CreateTeam(ctx, c.ID, 1, "gophers")
	require.NoError(t, err)
	require.NoError(t, env.teamSvc.JoinTeam(ctx, team.ID, 2))

	require.ErrorIs(t, env.registrationSvc.Withdraw(ctx, c.ID, 1), ErrCaptainCannotWithdraw)

	_, err = env.teamSvc.TransferCaptaincy(ctx, team.ID, 1, 2)
	require.NoError(t, err)

	assert.NoError(t, env.registrationSvc.Withdraw(ctx, c.ID, 1))
}

func TestUploadLogo_CaptainOnly(t *testing.T) {
	env := newTestEnv()
	c := env.seedCompetition(t, competitionOpts{status: models.StatusOpen})
	registeredUser(t, env, c.ID, 1)
	registeredUser(t, env, c.ID, 2)
	ctx := context.Background()

	team, err := env.teamSvc.CreateTeam(ctx, c.ID, 1, "gophers")
	require.NoError(t, err)
	require.NoError(t, env.teamSvc.JoinTeam(ctx, team.ID, 2))

	_, err = env.teamSvc.UploadLogo(ctx, team.ID, 2, "image/png", strings.NewReader("png"))
	assert.ErrorIs(t, err, ErrNotTeamCaptain)

	got, err := env.teamSvc.UploadLogo(ctx, team.ID, 1, "image/png", strings.NewReader("png"))
	require.NoError(t, err)
	require.NotNil(t, got.LogoURL)
	assert.Contains(t, *got.LogoURL, "teams/")
}
