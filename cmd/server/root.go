package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"contentflow/internal/config"
	"contentflow/internal/db"
)

// rootCmd runs the server when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "contentflow",
	Short: "content approval service",
	Example: `contentflow serve
contentflow migrate
contentflow seed --config tenants.yaml`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	seedCmd.Flags().String("config", "", "tenant YAML file (defaults to CONFIG_FILE or config.yaml)")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		setupLogger(cfg)

		database, err := db.New(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("migrations completed")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create tenants and clients from the YAML config and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		setupLogger(cfg)

		path, _ := cmd.Flags().GetString("config")
		yc, err := loadYAML(path)
		if err != nil {
			return err
		}
		if yc == nil {
			return fmt.Errorf("no tenant config found")
		}

		database, err := db.New(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		return database.SeedFromConfig(cmd.Context(), yc)
	},
}

func loadYAML(path string) (*config.YAMLConfig, error) {
	if path == "" {
		return config.LoadYAMLConfig()
	}
	return config.LoadYAMLConfigFrom(path)
}

// openDatabase connects, migrates and applies the optional YAML seed.
// The YAML config is returned too (nil when absent) for role grants on login.
func openDatabase(ctx context.Context, cfg *config.Config) (*db.DB, *config.YAMLConfig, error) {
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("migrations completed")

	yc, err := config.LoadYAMLConfig()
	if err != nil {
		slog.Warn("failed to load tenant config", "error", err)
		return database, nil, nil
	}
	if yc != nil {
		if err := database.SeedFromConfig(ctx, yc); err != nil {
			slog.Warn("failed to seed tenants from config", "error", err)
		}
	}
	return database, yc, nil
}

func setupLogger(cfg *config.Config) {
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}
