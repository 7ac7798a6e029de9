package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/luxequeer/deployer/internal/orchestrator"
	"github.com/luxequeer/deployer/internal/queue/tasks"
	"github.com/luxequeer/deployer/internal/repository"
	"github.com/luxequeer/deployer/internal/services"
	"github.com/luxequeer/deployer/pkg/config"
	"github.com/luxequeer/deployer/pkg/database"
	"github.com/luxequeer/deployer/pkg/logger"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if !cfg.QueueEnabled() {
		log.Fatal("REDIS_ADDR is required for the worker")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	_ = rdb.Close()

	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.AppEnv)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}

	deployer, err := orchestrator.FromConfig(ctx, cfg)
	if err != nil {
		log.Fatal("failed to build deployer", zap.Error(err))
	}

	// The worker only records runs, it never enqueues them.
	deploySvc := services.NewDeploymentService(repository.NewDeploymentRepository(db), nil,
		services.WithStaleAfter(cfg.DeploymentStaleAfter))

	mux := asynq.NewServeMux()
	mux.Use(tasks.LogTask)
	tasks.NewDeployTaskHandler(deployer, deploySvc).Register(mux)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		},
		asynq.Config{
			// Runs share one site tree; ASYNQ_CONCURRENCY defaults to 1.
			Concurrency:     cfg.AsynqConcurrency,
			Queues:          map[string]int{services.QueueDeployments: 1},
			ShutdownTimeout: cfg.ShutdownTimeout,
			Logger:          logger.Component("asynq").Sugar(),
		},
	)

	log.Info("asynq worker starting", zap.Int("concurrency", cfg.AsynqConcurrency))
	if err := srv.Start(mux); err != nil {
		log.Fatal("worker failed to start", zap.Error(err))
	}

	<-ctx.Done()
	log.Info("shutdown signal received, draining in-flight runs", zap.Duration("timeout", cfg.ShutdownTimeout))
	srv.Shutdown()
}
