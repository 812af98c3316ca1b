// Command ledctl runs maintenance tasks against the LED platform database and queues.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/noah-isme/led-platform-api/internal/config"
	"github.com/noah-isme/led-platform-api/internal/database"
)

type env struct {
	cfg    config.Config
	logger zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "ledctl",
		Short:         "Maintenance commands for the LED platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			e.cfg = cfg
			e.logger = zerolog.New(os.Stdout).With().Timestamp().Str("app", "ledctl").Logger()
			if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
				e.logger = e.logger.Level(level)
			}
			return nil
		},
	}

	root.AddCommand(
		newMigrateCommand(e),
		newSeedCommand(e),
		newWorkerCommand(e),
		newPurgeCommand(e),
		newReindexCommand(e),
	)
	return root
}

func (e *env) openDB() (*gorm.DB, error) {
	db, err := database.ConnectPostgres(e.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func newMigrateCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := e.openDB()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			e.logger.Info().Msg("schema up to date")
			return nil
		},
	}
}
