package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/luxequeer/deployer/internal/api"
	"github.com/luxequeer/deployer/internal/api/handlers"
	mw "github.com/luxequeer/deployer/internal/api/middleware"
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

	log.Info("Starting Luxe Queer deployer API",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("website_dir", cfg.WebsiteDir),
	)

	// Background work (inline runs) lives until shutdown begins.
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	jwtSecret, fallback, err := cfg.SigningSecret()
	if err != nil {
		log.Fatal("refusing to start", zap.Error(err))
	}
	if fallback {
		log.Warn("JWT_SECRET not set, using the development key")
	}
	if cfg.OperatorPasswordHash == "" {
		log.Warn("OPERATOR_PASSWORD_HASH not set, operator login disabled")
	}

	deployer, err := orchestrator.FromConfig(ctx, cfg)
	if err != nil {
		log.Fatal("failed to build deployer", zap.Error(err))
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	dep := api.Dependencies{
		HMACSecret:  jwtSecret,
		Health:      handlers.NewHealthHandler(nil),
		Auth:        handlers.NewAuthHandler(services.NewAuthService(cfg.OperatorPasswordHash, jwtSecret), v),
		Preview:     handlers.NewPreviewHandler(osfs.New(cfg.WebsiteDir)),
		Metrics:     deployer.Metrics().Handler(),
		RateLimiter: mw.NewRateLimiter(10, 20),
		CORSOrigins: cfg.CORSAllowedOrigins,
	}

	var inline *tasks.Inline
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, run history and content endpoints disabled")
	} else {
		db, err := database.Open(ctx, cfg.DatabaseURL, cfg.AppEnv)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		log.Info("Database connected successfully")

		if database.IsSQLite(cfg.DatabaseURL) {
			if err := repository.Migrate(db); err != nil {
				log.Fatal("sqlite migration failed", zap.Error(err))
			}
		}
		if sqlDB, err := db.DB(); err == nil {
			dep.Health = handlers.NewHealthHandler(sqlDB)
		}

		deployRepo := repository.NewDeploymentRepository(db)
		staleAfter := services.WithStaleAfter(cfg.DeploymentStaleAfter)
		var queue services.Enqueuer
		if cfg.QueueEnabled() {
			client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
			defer client.Close()
			queue = client
		} else {
			log.Info("REDIS_ADDR not set, deployments run inside the API process")
			mux := asynq.NewServeMux()
			mux.Use(tasks.LogTask)
			inline = tasks.NewInline(ctx, mux)
			queue = inline
			tasks.NewDeployTaskHandler(deployer, services.NewDeploymentService(deployRepo, nil, staleAfter)).Register(mux)
		}

		dep.Deployments = handlers.NewDeploymentsHandler(services.NewDeploymentService(deployRepo, queue, staleAfter))
		dep.Content = handlers.NewContentHandler(services.NewContentService(repository.NewContentRepository(db), nil), v)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(dep),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}

	if inline != nil {
		stop()
		inline.Wait()
	}
}
