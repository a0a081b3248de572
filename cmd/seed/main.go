// Command seed loads sample registry content into PostgreSQL.
// It applies migrations first and does nothing when users already exist.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/crucial707/mlregistry/internal/config"
	"github.com/crucial707/mlregistry/internal/db"
	"github.com/crucial707/mlregistry/internal/logging"
	"github.com/crucial707/mlregistry/internal/repo"
	"github.com/crucial707/mlregistry/internal/seed"
	"github.com/crucial707/mlregistry/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("seed failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	data := seed.Default()
	if cfg.SeedFile != "" {
		var err error
		if data, err = seed.Load(cfg.SeedFile); err != nil {
			return err
		}
	}

	database, err := db.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := db.Migrate(db.URL(cfg)); err != nil {
		return err
	}

	st := repo.NewStore(database)
	done, err := seeded(ctx, st)
	if err != nil {
		return err
	}
	if done {
		logger.Info("database already has users, skipping seed", "db", cfg.DBName)
		return nil
	}

	if err := seed.Apply(ctx, st, data); err != nil {
		return err
	}
	logger.Info("database seeded",
		"db", cfg.DBName,
		"users", len(data.Users),
		"models", len(data.Models),
		"deployments", len(data.Deployments),
		"executions", len(data.Executions))
	return nil
}

func seeded(ctx context.Context, st store.Store) (bool, error) {
	users, err := st.Users.List(ctx)
	if err != nil {
		return false, err
	}
	return len(users) > 0, nil
}
