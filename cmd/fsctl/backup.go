package main

import (
	"fmt"
	"sort"

	"firesafety-backend/internal/backup"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup <dropbox|supabase>",
	Short: "Push the snapshot to a backup target now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if name != backup.AdapterDropbox && name != backup.AdapterSupabase {
			return fmt.Errorf("%w: %s", backup.ErrUnknownAdapter, name)
		}

		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		who, err := actor(s.data)
		if err != nil {
			return err
		}

		res := backup.NewService(s.store).Push(ctx, name, who)
		if !res.Success {
			return fmt.Errorf("%s backup failed (%s): %s", name, res.Kind, res.Message)
		}
		fmt.Println(res.Message)
		return nil
	},
}

var backupDueCmd = &cobra.Command{
	Use:   "due",
	Short: "Push every target whose automatic interval has elapsed",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		results := backup.NewScheduler(backup.NewService(s.store), 0).RunOnce(ctx)
		if len(results) == 0 {
			fmt.Println("Nothing due")
			return nil
		}

		names := make([]string, 0, len(results))
		for name := range results {
			names = append(names, name)
		}
		sort.Strings(names)

		failed := 0
		for _, name := range names {
			res := results[name]
			status := "ok"
			if !res.Success {
				status = string(res.Kind)
				failed++
			}
			fmt.Printf("%-10s %-14s %s\n", name, status, res.Message)
		}
		if failed > 0 {
			return fmt.Errorf("%d backup(s) failed", failed)
		}
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupDueCmd)
	rootCmd.AddCommand(backupCmd)
}
