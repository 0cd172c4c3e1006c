package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/pisda/db"
	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "Apply the schema for the configured storage driver",
		Long: `PostgreSQL runs the embedded goose migrations, SQLite is auto-migrated
from the row models and the JSON driver needs no schema.`,
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := appConfig
	log := logger.LoggerWrapper()

	switch cfg.Storage.Driver {
	case internal.StorageDriverJSON:
		log.Info("JSON storage has no schema to migrate", "data_dir", cfg.Storage.DataDir)
		return nil

	case internal.StorageDriverSQLite:
		store, err := openStorage(cfg.Storage, log)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.autoMigrate(); err != nil {
			return fmt.Errorf("sqlite auto-migration: %w", err)
		}
		log.Info("sqlite schema is up to date")
		return nil
	}

	conn, err := goose.OpenDBWithDriver("pgx", cfg.Storage.Source)
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer conn.Close()

	goose.SetBaseFS(db.Migrations)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	command := "up"
	if migrateRollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, conn, db.MigrationsDir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
