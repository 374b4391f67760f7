package main

import (
	"github.com/spf13/cobra"

	"clubportal/internal/db"
)

// migrateCmd applies the schema for every model.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, gormDB, err := openDB()
		if err != nil {
			return err
		}
		if err := db.Migrate(gormDB.WithContext(cmd.Context())); err != nil {
			return err
		}
		logger().Info("migrations applied", "models", len(db.Models()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
