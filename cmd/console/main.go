package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"learninghouse/console/internal/cache"
	"learninghouse/console/internal/client"
	"learninghouse/console/internal/config"
	"learninghouse/console/internal/database"
	"learninghouse/console/internal/guard"
	"learninghouse/console/internal/handlers"
	"learninghouse/console/internal/jobs"
	"learninghouse/console/internal/log"
	"learninghouse/console/internal/queue"
	"learninghouse/console/internal/repository"
	"learninghouse/console/internal/security"
	"learninghouse/console/internal/server"
	"learninghouse/console/internal/session"
	"learninghouse/console/internal/tokenstore"
	"learninghouse/console/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "console")

	ctx := context.Background()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		if cfg.Session.Backend == "redis" {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		logger.Warn().Err(err).Msg("redis unavailable, running without job queue")
	}

	var dbPool *pgxpool.Pool
	if cfg.Postgres.DSN != "" {
		dbPool, err = database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect postgres")
		}
		if err := database.Migrate(ctx, dbPool); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate postgres")
		}
	}

	store := tokenstore.New(sessionStorage(cfg, redisClient, logger))
	sessions := session.NewManager(
		store,
		client.New(cfg.Service),
		logger.With().Str("component", "session").Logger(),
		session.WithRevokeTimeout(cfg.Session.RevokeTimeout),
	)
	role, err := sessions.RestoreSession(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("restore session failed")
	}
	logger.Info().Str("role", role.String()).Msg("session restored")

	authorizer := transport.NewAuthorizer(sessions, nil,
		transport.WithUnprotectedPaths(cfg.Service.UnprotectedPaths),
		transport.WithRefreshFailurePolicy(transport.RefreshFailurePolicy(cfg.Session.RefreshFailure)),
		transport.WithLogger(logger.With().Str("component", "authorizer").Logger()),
	)
	api := client.New(cfg.Service, client.WithTransport(authorizer))

	modes := cache.NewModeCache(redisClient, 10*time.Minute)
	deps := handlers.Dependencies{
		Sessions: sessions,
		Store:    store,
		API:      api,
		Guard: guard.New(sessions,
			guard.WithLoginRoute(cfg.Session.LoginRoute),
			guard.WithLandingRoute(cfg.Session.LandingRoute),
		),
		Modes: modes,
		DB:    dbPool,
		Cache: redisClient,
	}

	schedulerOpts := []jobs.Option{
		jobs.WithSessionWatch(sessions),
		jobs.WithModePoll(api, modes),
	}
	if redisClient != nil {
		producer := queue.NewProducer(redisClient, cfg.Queue)
		deps.Queue = producer
		schedulerOpts = append(schedulerOpts, jobs.WithQueue(producer))
	}
	if dbPool != nil {
		deps.History = repository.NewJobRunRepository(dbPool)
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, deps)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(cfg.Jobs, logger.With().Str("component", "scheduler").Logger(), schedulerOpts...)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, sessions, dbPool, redisClient)
}

// sessionStorage picks the token store backend. A sealing secret encrypts
// every value before it reaches the backend.
func sessionStorage(cfg *config.AppConfig, redisClient *redis.Client, logger zerolog.Logger) tokenstore.Storage {
	var storage tokenstore.Storage = tokenstore.NewMemoryStorage()
	if cfg.Session.Backend == "redis" && redisClient != nil {
		storage = tokenstore.NewRedisStorage(redisClient, cfg.Session.ID, cfg.Session.IdleTTL)
	}

	if cfg.Session.SealingSecret == "" {
		if cfg.Session.Backend == "redis" {
			logger.Warn().Msg("session tokens are stored in redis unsealed")
		}
		return storage
	}

	sealer, err := security.NewSealer(cfg.Session.SealingSecret, "learninghouse-console:"+cfg.Session.ID)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init session sealer")
	}
	return tokenstore.NewSealedStorage(storage, sealer)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, sessions *session.Manager, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop(shutdownCtx)
	sessions.Close()

	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("console exited cleanly")
}
