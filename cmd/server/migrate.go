package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastygo/planner/internal/config"
	pgInfra "github.com/fastygo/planner/internal/infrastructure/postgres"
	"github.com/fastygo/planner/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(pgInfra.Up), string(pgInfra.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if cfg.Storage != config.StoragePostgres {
				return fmt.Errorf("migrations need STORAGE_DRIVER=%s, got %s", config.StoragePostgres, cfg.Storage)
			}

			zapLogger, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding, Output: cfg.Logger.Output})
			if err != nil {
				return err
			}
			defer zapLogger.Sync()

			return pgInfra.Migrate(cfg, pgInfra.Direction(args[0]), steps, zapLogger)
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 0, "number of migrations to apply (down defaults to 1)")
	return cmd
}
