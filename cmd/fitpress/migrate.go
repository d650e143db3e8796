package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/fitpress/database"
	"github.com/eringen/fitpress/log"
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "migrate",
	Long:  `apply pending database migrations`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Database.Driver == "" {
			cfg.Database.Driver = string(database.SQLite)
		}

		db, err := database.OpenAndMigrate(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		log.Logger.Info("database migrated",
			zap.String("driver", string(db.Dialect())))
		return nil
	},
}

func init() {
	rootCMD.AddCommand(migrateCMD)
}
