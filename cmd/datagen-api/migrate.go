package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/synthmesh/datagen-api/internal/config"
	"github.com/synthmesh/datagen-api/internal/store"
	"github.com/synthmesh/datagen-api/pkg/log"
	"github.com/synthmesh/datagen-api/pkg/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		logger := log.InitLog(cfg.Service.LogLevel)
		defer func() { _ = logger.Sync() }()

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		// without a migrations folder fall back to the schema auto-migration
		if cfg.Service.MigrationFolder == "" {
			if err := s.InitialMigration(); err != nil {
				zap.S().Fatalw("running initial migration", "error", err)
			}
			zap.S().Info("Db migrated")
			return nil
		}

		var pool *pgxpool.Pool
		if cfg.Database.Type == "pgsql" {
			dsn := fmt.Sprintf("host=%s user=%s password=%s port=%s dbname=%s",
				cfg.Database.Hostname,
				cfg.Database.User,
				cfg.Database.Password,
				cfg.Database.Port,
				cfg.Database.Name,
			)
			pool, err = pgxpool.New(context.Background(), dsn)
			if err != nil {
				zap.S().Fatalw("creating pgx pool", "error", err)
			}
			defer pool.Close()
		}

		if err := migrations.MigrateStore(db, cfg.Service.MigrationFolder, pool); err != nil {
			zap.S().Fatalw("migrating store", "error", err)
		}

		zap.S().Info("Db migrated")
		return nil
	},
}
