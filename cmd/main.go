package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeclash/competition-system/config"
	"github.com/codeclash/competition-system/db"
	"github.com/codeclash/competition-system/handlers"
	"github.com/codeclash/competition-system/middleware"
	"github.com/codeclash/competition-system/repositories"
	"github.com/codeclash/competition-system/routes"
	"github.com/codeclash/competition-system/services"
	"github.com/codeclash/competition-system/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const schedulerInterval = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	uploader, err := storage.NewR2Uploader(storage.R2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("R2 uploader initialized")

	txManager := db.NewTxManager(dbConn)

	competitionRepo := repositories.NewPostgresCompetitionRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	memberRepo := repositories.NewPostgresTeamMemberRepository(dbConn)
	inviteRepo := repositories.NewPostgresInviteRepository(dbConn)
	submissionRepo := repositories.NewPostgresSubmissionRepository(dbConn)
	criterionRepo := repositories.NewPostgresCriterionRepository(dbConn)
	scoreRepo := repositories.NewPostgresScoreRepository(dbConn)
	rankingRepo := repositories.NewPostgresRankingRepository(dbConn)
	logger.Info("repositories initialized")

	judgingService := services.NewJudgingService(
		txManager,
		competitionRepo,
		submissionRepo,
		criterionRepo,
		scoreRepo,
		rankingRepo,
		logger,
	)
	// The judging service doubles as the ranking finalizer that runs inside
	// the completion transaction.
	competitionService := services.NewCompetitionService(
		txManager,
		competitionRepo,
		registrationRepo,
		judgingService,
		uploader,
		logger,
	)
	registrationService := services.NewRegistrationService(
		txManager,
		competitionRepo,
		registrationRepo,
		teamRepo,
		memberRepo,
	)
	teamService := services.NewTeamService(
		txManager,
		teamRepo,
		memberRepo,
		registrationRepo,
		competitionRepo,
		uploader,
	)
	inviteService := services.NewInviteService(inviteRepo, teamService, teamRepo)
	submissionService := services.NewSubmissionService(
		competitionRepo,
		registrationRepo,
		teamRepo,
		memberRepo,
		submissionRepo,
	)
	logger.Info("services initialized")

	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("competition status scheduler started", slog.Duration("interval", schedulerInterval))

		if err := competitionService.AutoAdvanceByDates(context.Background()); err != nil {
			logger.Error("scheduler: initial run failed", slog.Any("error", err))
		}

		for range ticker.C {
			if err := competitionService.AutoAdvanceByDates(context.Background()); err != nil {
				logger.Error("scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	auth := middleware.NewAuthenticator(cfg.JWTSecretKey)

	competitionHandler := handlers.NewCompetitionHandler(competitionService)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	teamHandler := handlers.NewTeamHandler(teamService)
	inviteHandler := handlers.NewInviteHandler(inviteService)
	submissionHandler := handlers.NewSubmissionHandler(submissionService)
	judgingHandler := handlers.NewJudgingHandler(judgingService)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	routes.SetupRoutes(
		router,
		auth,
		competitionHandler,
		registrationHandler,
		teamHandler,
		inviteHandler,
		submissionHandler,
		judgingHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
