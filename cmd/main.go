package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/config"
	"github.com/Dosada05/swiss-tournament/db"
	"github.com/Dosada05/swiss-tournament/handlers"
	"github.com/Dosada05/swiss-tournament/repositories"
	api "github.com/Dosada05/swiss-tournament/routes"
	"github.com/Dosada05/swiss-tournament/services"
	"github.com/Dosada05/swiss-tournament/storage"
)

const tokenTTL = 12 * time.Hour

type backend struct {
	players     repositories.PlayerStore
	tournaments repositories.TournamentRepository
	closer      io.Closer
}

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("storage_backend", cfg.StorageBackend),
		slog.Int("default_rounds", cfg.DefaultRounds))

	ctx := context.Background()

	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage backend", slog.String("backend", cfg.StorageBackend), slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if store.closer == nil {
			return
		}
		if err := store.closer.Close(); err != nil {
			logger.Error("failed to close storage backend", slog.Any("error", err))
		} else {
			logger.Info("storage backend closed")
		}
	}()

	if cfg.RosterFile != "" {
		players, err := repositories.LoadRosterFile(cfg.RosterFile)
		if err != nil {
			logger.Error("failed to load roster file", slog.String("path", cfg.RosterFile), slog.Any("error", err))
			os.Exit(1)
		}
		if err := store.players.Upsert(ctx, players); err != nil {
			logger.Error("failed to import roster", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("roster imported", slog.String("path", cfg.RosterFile), slog.Int("players", len(players)))
	}

	var archiver services.Archiver
	if cfg.R2 != nil {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = services.NewStorageArchiver(uploader, logger)
		logger.Info("Cloudflare R2 archive enabled", slog.String("bucket", cfg.R2.BucketName))
	} else {
		logger.Info("closed tournament archive disabled")
	}

	random := brackets.NewTimeSeededSource()
	if cfg.PairingSeed != nil {
		random = brackets.NewSeededSource(*cfg.PairingSeed)
		logger.Info("pairing random source seeded", slog.Uint64("seed", *cfg.PairingSeed))
	}

	wsHub := brackets.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	tournamentService := services.NewTournamentService(services.ManagerDeps{
		Roster:    store.players,
		Store:     store.tournaments,
		Generator: brackets.NewSwissGenerator(),
		Random:    random,
		Notifier:  wsHub,
		Archiver:  archiver,
		Clock:     time.Now,
		Logger:    logger,
	}, cfg.DefaultRounds)
	authService := services.NewAuthService(cfg.OrganizerPasswordHash, cfg.JWTSecretKey, tokenTTL)
	logger.Info("Services initialized")

	authHandler := handlers.NewAuthHandler(authService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, tournamentService)

	router := chi.NewRouter()
	api.SetupRoutes(router, cfg.JWTSecretKey, authHandler, tournamentHandler, webSocketHandler)
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
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
			wsHub.Stop()
			return
		}
		logger.Info("server stopped gracefully")
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
		} else {
			logger.Info("server shutdown complete")
		}
	}
	wsHub.Stop()
	logger.Info("application exited")
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx, dbConn); err != nil {
			_ = dbConn.Close()
			return nil, err
		}
		logger.Info("database connection established")
		return postgresBackend(dbConn), nil

	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		logger.Info("redis connection established", slog.String("addr", opts.Addr))
		return &backend{
			players:     repositories.NewRedisPlayerRepository(rdb),
			tournaments: repositories.NewRedisTournamentRepository(rdb),
			closer:      rdb,
		}, nil

	default:
		players, tournaments := repositories.NewMemoryRepositories()
		logger.Warn("using in-memory storage, state is lost on restart")
		return &backend{players: players, tournaments: tournaments}, nil
	}
}

func postgresBackend(dbConn *sql.DB) *backend {
	return &backend{
		players:     repositories.NewPostgresPlayerRepository(dbConn),
		tournaments: repositories.NewPostgresTournamentRepository(dbConn),
		closer:      dbConn,
	}
}
