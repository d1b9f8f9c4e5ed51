package cmd

import (
	"fmt"
	"log/slog"

	"github.com/aviary-ai/aviary/db"
	"github.com/aviary-ai/aviary/internal/config"
)

// runMigrate applies pending database migrations and exits.
func runMigrate(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger.Info("applying migrations", "database", cfg.PostgresDBName)
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations up to date")
	return nil
}
