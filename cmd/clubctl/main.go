package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"clubportal/internal/config"
	"clubportal/internal/db"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "clubctl",
	Short:         "Operator tasks for the club portal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "clubctl: %v\n", err)
		os.Exit(1)
	}
}

// openDB loads configuration and connects to MySQL.
func openDB() (*config.Config, *gorm.DB, error) {
	cfg := config.Load()
	gormDB, err := db.NewMySQL(cfg.MySQLDSN, cfg.DBDebug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

func logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}
