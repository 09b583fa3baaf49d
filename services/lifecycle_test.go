package services

import (
	"context"
	"testing"
	"time"

	"github.com/codeclash/competition-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Walks one competition through its whole life: draft, registration, team
// formation, submissions, judging, and the frozen final ranking.
func TestCompetitionLifecycle_EndToEnd(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	competition, err := env.competitionSvc.Create(ctx, 1, CreateCompetitionInput{
		Title:           "Spring Code Clash",
		StartDate:       start,
		EndDate:         start.Add(72 * time.Hour),
		MaxParticipants: intPtr(10),
	})
	require.NoError(t, err)

	// Nobody can register a draft.
	_, err = env.registrationSvc.Register(ctx, competition.ID, 2)
	require.ErrorIs(t, err, ErrRegistrationNotOpen)

	_, err = env.competitionSvc.Transition(ctx, competition.ID, models.StatusOpen)
	require.NoError(t, err)

	for userID := 2; userID <= 5; userID++ {
		_, err = env.registrationSvc.Register(ctx, competition.ID, userID)
		require.NoError(t, err)
	}

	team, err := env.teamSvc.CreateTeam(ctx, competition.ID, 2, "gophers")
	require.NoError(t, err)
	invite, err := env.inviteSvc.CreateInvite(ctx, team.ID, 2)
	require.NoError(t, err)
	_, err = env.inviteSvc.AcceptInvite(ctx, invite.Token, 3)
	require.NoError(t, err)

	// Submissions open with in_progress.
	_, err = env.submissionSvc.Submit(ctx, competition.ID, 2, SubmitInput{Title: "early", Description: "d"})
	require.ErrorIs(t, err, ErrSubmissionsNotOpen)

	_, err = env.competitionSvc.Transition(ctx, competition.ID, models.StatusInProgress)
	require.NoError(t, err)

	teamSub, err := env.submissionSvc.Submit(ctx, competition.ID, 2, SubmitInput{
		Title: "team entry", Description: "our project", TeamID: intPtr(team.ID),
	})
	require.NoError(t, err)
	soloSub, err := env.submissionSvc.Submit(ctx, competition.ID, 4, SubmitInput{
		Title: "solo entry", Description: "my project",
	})
	require.NoError(t, err)

	creativity, err := env.judgingSvc.DefineCriterion(ctx, competition.ID, DefineCriterionInput{
		Name: "creativity", Weight: 2, MaxScore: 10,
	})
	require.NoError(t, err)
	execution, err := env.judgingSvc.DefineCriterion(ctx, competition.ID, DefineCriterionInput{
		Name: "execution", Weight: 1, MaxScore: 10,
	})
	require.NoError(t, err)

	_, err = env.competitionSvc.Transition(ctx, competition.ID, models.StatusJudging)
	require.NoError(t, err)

	scoreAll := func(judgeID, subID, creativityScore, executionScore int) {
		t.Helper()
		_, err := env.judgingSvc.SubmitScore(ctx, subID, judgeID, SubmitScoreInput{
			CriterionID: creativity.ID, Score: creativityScore,
		})
		require.NoError(t, err)
		_, err = env.judgingSvc.SubmitScore(ctx, subID, judgeID, SubmitScoreInput{
			CriterionID: execution.ID, Score: executionScore,
		})
		require.NoError(t, err)
	}
	scoreAll(50, teamSub.ID, 8, 6)
	scoreAll(51, teamSub.ID, 6, 8)
	scoreAll(50, soloSub.ID, 9, 9)
	scoreAll(51, soloSub.ID, 9, 10)

	// team: creativity mean 7, execution mean 7 -> (0.7*2 + 0.7*1)/3 = 0.7
	teamAgg, err := env.judgingSvc.ComputeAggregate(ctx, teamSub.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, teamAgg, 1e-9)

	// solo: creativity mean 9, execution mean 9.5 -> (0.9*2 + 0.95*1)/3
	soloAgg, err := env.judgingSvc.ComputeAggregate(ctx, soloSub.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.9166666, soloAgg, 1e-6)

	_, err = env.competitionSvc.Transition(ctx, competition.ID, models.StatusCompleted)
	require.NoError(t, err)

	final, err := env.judgingSvc.Rank(ctx, competition.ID)
	require.NoError(t, err)
	require.Len(t, final, 2)
	assert.Equal(t, soloSub.ID, final[0].SubmissionID)
	assert.Equal(t, 1, final[0].Rank)
	assert.Equal(t, teamSub.ID, final[1].SubmissionID)
	assert.Equal(t, 2, final[1].Rank)
	assert.NotNil(t, final[0].FrozenAt)

	// The completed competition accepts only metadata edits and no further
	// lifecycle movement.
	_, err = env.competitionSvc.Transition(ctx, competition.ID, models.StatusOpen)
	assert.ErrorIs(t, err, ErrCompetitionInvalidTransition)
	_, err = env.competitionSvc.Update(ctx, competition.ID, UpdateCompetitionInput{MaxParticipants: intPtr(99)})
	assert.ErrorIs(t, err, ErrCompetitionLocked)
}
