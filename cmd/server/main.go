// Package main is the entry point for the trypzy scheduling server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trypzy/backend/internal/config"
	"github.com/trypzy/backend/internal/storage"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	envFile    string
	dataDir    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	// Allow overriding version via environment (e.g., injected by container build/runtime)
	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	root := &cobra.Command{
		Use:           "trypzy",
		Short:         "Trip date-scheduling service",
		Version:       version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded when present")
	root.PersistentFlags().StringVar(&opts.dataDir, "data", "", "Data directory for SQLite database (overrides config)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newTripCmd(opts),
	)
	return root
}

// load resolves the configuration with command-line overrides applied.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath, o.envFile)
	if err != nil {
		return nil, err
	}
	if o.dataDir != "" {
		cfg.Storage.DataDir = o.dataDir
	}
	return cfg, nil
}

// openDB opens the database and applies pending migrations.
func openDB(cfg *config.Config) (*storage.DB, error) {
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %q: %w", cfg.Storage.DataDir, err)
	}
	db, err := storage.NewDB(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
