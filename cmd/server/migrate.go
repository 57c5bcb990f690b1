package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yatube-backend/internal/data"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()
		cfg.MySQL.AutoMigrate = false
		db, err := data.NewMySQL(cfg.MySQL, log)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := data.Migrate(db); err != nil {
			return err
		}
		log.Info("schema migrated", zap.String("dsnHost", redactDSN(cfg.MySQL.DSN)))
		return nil
	},
}
