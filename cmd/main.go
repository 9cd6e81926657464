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

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/padelpoint/tournament-service/brackets"
	"github.com/padelpoint/tournament-service/config"
	"github.com/padelpoint/tournament-service/db"
	"github.com/padelpoint/tournament-service/handlers"
	"github.com/padelpoint/tournament-service/repositories"
	api "github.com/padelpoint/tournament-service/routes"
	"github.com/padelpoint/tournament-service/services"
	"github.com/padelpoint/tournament-service/storage"
)

const statusSweepInterval = 30 * time.Second

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
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.HasR2() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage is not configured, poster uploads are disabled")
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("websocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)
	txRunner := repositories.NewSQLTxRunner(dbConn)

	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey)
	tournamentService := services.NewTournamentService(tournamentRepo, teamRepo, uploader, logger)
	teamService := services.NewTeamService(txRunner, teamRepo, tournamentRepo, matchRepo)
	courtService := services.NewCourtService(courtRepo)
	drawService := services.NewDrawService(
		txRunner,
		tournamentRepo,
		teamRepo,
		matchRepo,
		courtRepo,
		brackets.NewSingleEliminationGenerator(),
		wsHub,
		logger,
	)
	logger.Info("services initialized")

	// Status sweeper: moves tournaments to active once their start date
	// passes.
	go func() {
		ticker := time.NewTicker(statusSweepInterval)
		defer ticker.Stop()

		if err := tournamentService.ActivateStartedTournaments(context.Background()); err != nil {
			logger.Error("status sweep failed", slog.Any("error", err))
		}
		for range ticker.C {
			if err := tournamentService.ActivateStartedTournaments(context.Background()); err != nil {
				logger.Error("status sweep failed", slog.Any("error", err))
			}
		}
	}()

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Team:       handlers.NewTeamHandler(teamService),
		Draw:       handlers.NewDrawHandler(drawService),
		Match:      handlers.NewMatchHandler(drawService),
		Court:      handlers.NewCourtHandler(courtService),
		WebSocket:  handlers.NewWebSocketHandler(wsHub),
	}, cfg.JWTSecretKey, cfg.CORSOrigins)
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
}
