package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clubportal/internal/repository"
	"clubportal/internal/service"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Maintain the audit trail",
}

var purgeDays int

// auditPurgeCmd is meant for cron: it deletes old entries and leaves a
// LOGS_CLEANED record behind.
var auditPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete audit logs older than --days",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, gormDB, err := openDB()
		if err != nil {
			return err
		}
		audit := service.NewAuditService(repository.NewAuditLogRepository(gormDB), logger())
		deleted, err := audit.PurgeOlderThanDays(cmd.Context(), nil, purgeDays, "")
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d logs older than %d days\n", deleted, purgeDays)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditPurgeCmd)
	auditPurgeCmd.Flags().IntVar(&purgeDays, "days", 90, "retention window in days")
}
