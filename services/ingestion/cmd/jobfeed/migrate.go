package main

import (
	"fmt"

	"jobfeed/common/database/schema"
	"jobfeed/common/database/schema/migrations"
	"jobfeed/services/ingestion/internal/errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rollback bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply ClickHouse run-history migrations",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&rollback, "down", false, "roll back the most recently applied migration")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	if cfg.ClickHouseDSN == "" {
		return errors.Config("CLICKHOUSE_DSN is required for migrate", nil)
	}

	ctx := cmd.Context()
	ch, err := newClickHouse(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to clickhouse", zap.Error(err))
		return err
	}
	defer ch.Close()

	migrator := schema.NewMigrator(ch.Conn(), logger.Named("migrator"))

	if rollback {
		return rollbackLatest(cmd, migrator, logger)
	}

	applied, err := migrator.Migrate(ctx, migrations.All)
	if err != nil {
		logger.Error("migration failed", zap.Int("applied", applied), zap.Error(err))
		return err
	}
	logger.Info("migrations complete", zap.Int("applied", applied))
	return nil
}

func rollbackLatest(cmd *cobra.Command, migrator *schema.Migrator, logger *zap.Logger) error {
	ctx := cmd.Context()
	if err := migrator.CreateMigrationsTable(ctx); err != nil {
		return err
	}
	applied, err := migrator.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for i := len(migrations.All) - 1; i >= 0; i-- {
		m := migrations.All[i]
		if _, ok := applied[m.Version]; !ok {
			continue
		}
		if err := migrator.RollbackMigration(ctx, m); err != nil {
			return err
		}
		logger.Info("rolled back migration", zap.Int("version", m.Version), zap.String("description", m.Description))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), "no applied migrations to roll back")
	return nil
}
