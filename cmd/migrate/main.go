package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/luxequeer/deployer/internal/repository"
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

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Open(context.Background(), cfg.DatabaseURL, cfg.AppEnv)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := repository.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	fmt.Fprintln(os.Stdout, "migrations completed")
}
