package main

import (
	"github.com/spf13/cobra"

	"github.com/emilythestrangee/stackit/backend/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the PostgreSQL schema",
}

var rollbackSteps int

func init() {
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return database.RunMigrations(cfg.Database.DSN(), logger)
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return database.RollbackMigrations(cfg.Database.DSN(), rollbackSteps, logger)
		},
	}
	down.Flags().IntVar(&rollbackSteps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(up, down)
}
