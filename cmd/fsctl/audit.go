package main

import (
	"fmt"
	"time"

	"firesafety-backend/internal/audit"
	"firesafety-backend/internal/models"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and purge the activity log",
}

var (
	auditFilter audit.Filter
	auditLimit  int
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print audit entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		if s.data == nil {
			return errNoData
		}
		who, err := actor(s.data)
		if err != nil {
			return err
		}

		entries := audit.Query(s.data.AuditLogs, who, auditFilter)
		if auditLimit > 0 && len(entries) > auditLimit {
			entries = entries[:auditLimit]
		}
		for _, e := range entries {
			fmt.Printf("%s  %-9s %-8s %-30s %s", e.Timestamp, e.Action, e.EntityType, e.EntityName, e.UserID)
			if e.Details != "" {
				fmt.Printf("  (%s)", e.Details)
			}
			fmt.Println()
		}
		return nil
	},
}

var (
	purgeCriteria audit.PurgeCriteria
	purgeConfirm  int
)

var auditPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete audit entries by user and age",
	Long: `Delete audit entries matching --user and --age. Without --confirm the
command only reports how many entries match; pass that count to --confirm
to delete them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		if s.data == nil {
			return errNoData
		}
		who, err := actor(s.data)
		if err != nil {
			return err
		}
		if !who.IsAdmin() {
			return fmt.Errorf("%s is not an admin", who.TechnicianID)
		}

		now := time.Now()
		candidates, err := audit.PurgeCandidates(s.data.AuditLogs, purgeCriteria, now)
		if err != nil {
			return err
		}
		if purgeConfirm == 0 {
			fmt.Println(audit.Describe(purgeCriteria, len(candidates)))
			fmt.Printf("Re-run with --confirm %d to delete.\n", len(candidates))
			return nil
		}

		deleted := 0
		_, err = s.store.Update(ctx, func(d *models.AppData) error {
			kept, n, err := audit.Purge(d.AuditLogs, who, purgeCriteria, purgeConfirm, now)
			if err != nil {
				return err
			}
			d.AuditLogs = kept
			deleted = n
			if n > 0 {
				audit.Record(d, models.ActionCleared, models.EntitySystem, "Audit log", who,
					fmt.Sprintf("Purged %d entries", n), now)
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d audit entries\n", deleted)
		return nil
	},
}

func init() {
	auditListCmd.Flags().StringVar(&auditFilter.Search, "search", "", "substring match")
	auditListCmd.Flags().StringVar(&auditFilter.Action, "action", "", "Created, Updated, Cleared, Archived, Deleted or Restored")
	auditListCmd.Flags().StringVar(&auditFilter.EntityType, "entity", "", "Customer, Asset, User or System")
	auditListCmd.Flags().IntVarP(&auditLimit, "limit", "n", 50, "maximum entries to print (0 for all)")

	auditPurgeCmd.Flags().StringVar(&purgeCriteria.UserID, "user", "", "only entries by this technician id")
	auditPurgeCmd.Flags().StringVar(&purgeCriteria.Age, "age", "", "1w, 1m, 3m, 6m, 1y or All")
	auditPurgeCmd.Flags().IntVar(&purgeConfirm, "confirm", 0, "expected number of entries to delete")

	auditCmd.AddCommand(auditListCmd, auditPurgeCmd)
	rootCmd.AddCommand(auditCmd)
}
