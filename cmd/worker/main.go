package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"learninghouse/console/internal/cache"
	"learninghouse/console/internal/client"
	"learninghouse/console/internal/config"
	"learninghouse/console/internal/database"
	"learninghouse/console/internal/log"
	"learninghouse/console/internal/models"
	"learninghouse/console/internal/queue"
	"learninghouse/console/internal/repository"
	"learninghouse/console/internal/session"
	"learninghouse/console/internal/storage"
	"learninghouse/console/internal/tasks"
	"learninghouse/console/internal/tokenstore"
	"learninghouse/console/internal/transport"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		panic(err)
	}

	logger := log.NewWithLevel(cfg.Logging.Level, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClient.Close()

	// The worker acts as an API key session that only lives in memory.
	sessions := session.NewManager(tokenstore.New(tokenstore.NewMemoryStorage()), client.New(cfg.Service), logger)
	defer sessions.Close()

	role, err := sessions.LoginAPIKey(ctx, cfg.APIKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("api key login failed")
	}
	if !role.IsMinimumRole(models.RoleTrainer) {
		logger.Warn().Str("role", role.String()).Msg("api key cannot train, training jobs will fail")
	}

	api := client.New(cfg.Service, client.WithTransport(transport.NewAuthorizer(sessions, nil,
		transport.WithUnprotectedPaths(cfg.Service.UnprotectedPaths),
		transport.WithLogger(logger),
	)))

	var opts []tasks.Option
	if cfg.Storage.Endpoint != "" {
		objectStore, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure bucket failed")
		}
		opts = append(opts, tasks.WithArchive(objectStore))
	}
	if cfg.Postgres.DSN != "" {
		dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect postgres")
		}
		defer dbPool.Close()
		if err := database.Migrate(ctx, dbPool); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate postgres")
		}
		opts = append(opts, tasks.WithRecorder(repository.NewJobRunRepository(dbPool)))
	}

	processor := tasks.NewProcessor(logger, cfg.Queue.SigningSecret, api, opts...)
	consumer := queue.NewConsumer(redisClient, cfg.Queue, logger, processor)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("consumer stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn().Msg("consumer did not stop in time")
	}
}
