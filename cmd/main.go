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

	_ "github.com/lib/pq"

	"github.com/speechteam/tournament-signup/config"
	"github.com/speechteam/tournament-signup/db"
	"github.com/speechteam/tournament-signup/handlers"
	"github.com/speechteam/tournament-signup/live"
	"github.com/speechteam/tournament-signup/repositories"
	"github.com/speechteam/tournament-signup/routes"
	"github.com/speechteam/tournament-signup/services"
)

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

	version, err := db.RunMigrations(dbConn)
	if err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied", slog.Uint64("version", uint64(version)))

	hub := live.NewHub(logger)
	go hub.Run()
	logger.Info("WebSocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	formRepo := repositories.NewPostgresFormRepository(dbConn)
	signupRepo := repositories.NewPostgresSignupRepository(dbConn)
	judgeRepo := repositories.NewPostgresJudgeRequestRepository(dbConn)
	performanceRepo := repositories.NewPostgresPerformanceRepository(dbConn)
	transactor := repositories.NewSQLTransactor(dbConn)
	logger.Info("repositories initialized")

	validator := services.NewSignupValidator(userRepo, tournamentRepo, eventRepo, formRepo, signupRepo)
	requirementsService := services.NewRequirementsService(userRepo, tournamentRepo, eventRepo, formRepo)
	draftCodec := services.NewDraftCodec(cfg.DraftSigningKey, services.DefaultDraftTTL)
	committer := services.NewSignupCommitter(validator, transactor, signupRepo, judgeRepo, formRepo, eventRepo, hub, logger)
	workflow := services.NewSignupWorkflow(validator, committer, draftCodec, tournamentRepo, eventRepo, userRepo)
	partnerService := services.NewPartnerSearchService(userRepo)
	tournamentService := services.NewTournamentService(tournamentRepo, formRepo)
	resultsService := services.NewResultsService(cfg.Scoring, transactor, performanceRepo, tournamentRepo, userRepo, logger)
	logger.Info("services initialized")

	router := routes.InitRoutes(routes.Handlers{
		Signup:     handlers.NewSignupHandler(requirementsService, validator, workflow),
		Partner:    handlers.NewPartnerHandler(partnerService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Results:    handlers.NewResultsHandler(resultsService),
		WebSocket:  handlers.NewWebSocketHandler(hub),
	}, cfg.JWTSecretKey)
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
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
