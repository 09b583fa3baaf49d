package routes

import (
	"net/http"

	"github.com/codeclash/competition-system/handlers"
	"github.com/codeclash/competition-system/middleware"
	"github.com/codeclash/competition-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes wires the full HTTP surface onto the given router.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	competitionHandler *handlers.CompetitionHandler,
	registrationHandler *handlers.RegistrationHandler,
	teamHandler *handlers.TeamHandler,
	inviteHandler *handlers.InviteHandler,
	submissionHandler *handlers.SubmissionHandler,
	judgingHandler *handlers.JudgingHandler,
) {
	hostOnly := middleware.RequireRole(models.RoleHost, models.RoleAdmin)
	judgeOnly := middleware.RequireRole(models.RoleJudge, models.RoleAdmin)

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Route("/competitions", func(r chi.Router) {
		r.Get("/", competitionHandler.ListCompetitions)
		r.Get("/{competitionID}", competitionHandler.GetCompetitionByID)
		r.Get("/{competitionID}/registrations", registrationHandler.ListRegistrations)
		r.Get("/{competitionID}/teams", teamHandler.ListTeams)
		r.Get("/{competitionID}/submissions", submissionHandler.ListSubmissions)
		r.Get("/{competitionID}/criteria", judgingHandler.ListCriteria)
		r.Get("/{competitionID}/rankings", judgingHandler.GetRankings)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.With(hostOnly).Post("/", competitionHandler.CreateCompetition)
			r.With(hostOnly).Patch("/{competitionID}", competitionHandler.UpdateCompetition)
			r.With(hostOnly).Post("/{competitionID}/transition", competitionHandler.TransitionCompetition)
			r.With(hostOnly).Post("/{competitionID}/banner", competitionHandler.UploadBanner)

			r.Post("/{competitionID}/registrations", registrationHandler.Register)
			r.Delete("/{competitionID}/registrations", registrationHandler.Withdraw)
			r.Get("/{competitionID}/registrations/me", registrationHandler.GetMyRegistration)

			r.Post("/{competitionID}/teams", teamHandler.CreateTeam)
			r.Post("/{competitionID}/submissions", submissionHandler.Submit)
			r.With(hostOnly).Post("/{competitionID}/criteria", judgingHandler.DefineCriterion)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{teamID}", teamHandler.GetTeamByID)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/{teamID}/members", teamHandler.JoinTeam)
			r.Delete("/{teamID}/members", teamHandler.LeaveTeam)
			r.Post("/{teamID}/captain", teamHandler.TransferCaptaincy)
			r.Post("/{teamID}/logo", teamHandler.UploadLogo)
			r.Post("/{teamID}/invites", inviteHandler.CreateInvite)
			r.Get("/{teamID}/invites", inviteHandler.ListTeamInvites)
		})
	})

	router.Route("/invites", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Post("/accept", inviteHandler.AcceptInvite)
		r.Delete("/{inviteID}", inviteHandler.DeleteInvite)
	})

	router.Route("/submissions", func(r chi.Router) {
		r.Get("/{submissionID}", submissionHandler.GetSubmissionByID)
		r.Get("/{submissionID}/scores", judgingHandler.ListScores)
		r.Get("/{submissionID}/aggregate", judgingHandler.GetAggregate)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Patch("/{submissionID}", submissionHandler.UpdateSubmission)
			r.With(judgeOnly).Post("/{submissionID}/scores", judgingHandler.SubmitScore)
		})
	})

	router.Route("/criteria", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.With(hostOnly).Delete("/{criterionID}", judgingHandler.DeleteCriterion)
	})
}
