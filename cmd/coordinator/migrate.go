package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foodlink/donation-coordinator/migrations"
	"github.com/foodlink/donation-coordinator/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		db, err := database.New(database.Config{
			Path:        cfg.Database.Path,
			BusyTimeout: cfg.Database.BusyTimeout,
		}, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := database.NewMigrator(db, logger).RunMigrations(migrations.FS, ".")
		if err != nil {
			return err
		}

		logger.Info("Migrations complete", zap.Int("applied", applied))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
