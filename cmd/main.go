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

	"github.com/codearena/platform/brackets"
	"github.com/codearena/platform/config"
	"github.com/codearena/platform/db"
	"github.com/codearena/platform/engine"
	"github.com/codearena/platform/handlers"
	"github.com/codearena/platform/repositories"
	api "github.com/codearena/platform/routes"
	"github.com/codearena/platform/services"
	"github.com/codearena/platform/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

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
		}
	}()
	logger.Info("database connection established")

	fileStore, err := storage.NewCloudflareR2Store(storage.CloudflareR2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 store", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 store initialized")

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	matchRunner := engine.NewRunner(engine.Config{
		Command:       cfg.EngineCommand,
		ScriptPath:    cfg.EngineScriptPath,
		SystemBotPath: cfg.SystemBotPath,
		ScratchDir:    cfg.EngineScratchDir,
		MatchTimeout:  cfg.MatchTimeout,
	}, fileStore, logger)

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	submissionRepo := repositories.NewPostgresSubmissionRepository(dbConn)
	playoffRunRepo := repositories.NewPostgresPlayoffRunRepository(dbConn)
	playoffMatchRepo := repositories.NewPostgresPlayoffMatchRepository(dbConn)
	playoffControlRepo := repositories.NewPostgresPlayoffControlRepository(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(userRepo)
	teamService := services.NewTeamService(teamRepo)
	submissionService := services.NewSubmissionService(submissionRepo, teamRepo, fileStore, matchRunner, logger)
	leaderboardService := services.NewLeaderboardService(submissionRepo, userRepo, logger)
	playoffService := services.NewPlayoffService(
		playoffRunRepo,
		playoffMatchRepo,
		playoffControlRepo,
		submissionRepo,
		teamRepo,
		services.NewEnginePlayer(matchRunner),
		wsHub,
		logger,
	)
	logger.Info("services initialized")

	router := api.InitRoutes(api.Handlers{
		Auth:        handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		Team:        handlers.NewTeamHandler(teamService),
		Submission:  handlers.NewSubmissionHandler(submissionService),
		Leaderboard: handlers.NewLeaderboardHandler(leaderboardService),
		Playoff:     handlers.NewPlayoffHandler(playoffService, cfg.PlayoffMaxParticipants),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, logger),
	}, cfg.JWTSecretKey)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// Playoff runs and submission scoring keep requests open while
		// matches play out, so no write timeout.
		WriteTimeout: 0,
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
