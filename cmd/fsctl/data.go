package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"firesafety-backend/internal/audit"
	"firesafety-backend/internal/database"
	"firesafety-backend/internal/interchange"
	"firesafety-backend/internal/merge"
	"firesafety-backend/internal/models"
	"firesafety-backend/internal/storage"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the slot table",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			return err
		}
		fmt.Println("Migrations applied")
		return nil
	},
}

var seedForce bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the demo snapshot",
	Long:  "Write the demo snapshot. An existing snapshot is only replaced with --force.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, slot, err := openSlot()
		if err != nil {
			return err
		}
		defer db.Close()

		_, exists, err := slot.Get(ctx, storage.DataKey)
		if err != nil {
			return err
		}
		if exists && !seedForce {
			return fmt.Errorf("a snapshot already exists; use --force to replace it")
		}

		store := storage.NewStore(slot)
		defer store.Close()
		if _, err := store.Save(ctx, database.DemoSnapshot(time.Now())); err != nil {
			return err
		}
		fmt.Println("Demo snapshot written")
		return nil
	},
}

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the snapshot as JSON or an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFormat != models.FormatJSON && exportFormat != models.FormatXLSX {
			return fmt.Errorf("format must be json or xlsx, got %q", exportFormat)
		}
		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		if s.data == nil {
			return errNoData
		}

		body, err := interchange.Encode(s.data, exportFormat)
		if err != nil {
			return err
		}
		out := exportOut
		if out == "" {
			out = interchange.Filename(exportFormat, models.StampISO(time.Now()))
		}
		if err := os.WriteFile(out, body, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Printf("Exported %d customers, %d units, %d inspections to %s\n",
			len(s.data.Customers), len(s.data.Extinguishers), len(s.data.Records), out)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge a JSON or xlsx backup into the snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		format, err := formatFromPath(path)
		if err != nil {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var incoming *models.AppData
		if format == models.FormatXLSX {
			incoming, err = interchange.ImportWorkbook(bytes.NewReader(raw))
		} else {
			incoming, err = interchange.ImportJSON(bytes.NewReader(raw))
		}
		if err != nil {
			return fmt.Errorf("could not read %s: %w", path, err)
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

		merged, err := s.store.Update(ctx, func(d *models.AppData) error {
			now := time.Now()
			*d = *merge.MergeAt(d, incoming, now)
			audit.Record(d, models.ActionUpdated, models.EntitySystem, "Data import", who,
				fmt.Sprintf("Imported %s from %s", format, filepath.Base(path)), now)
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Printf("Merged: %d customers, %d units, %d inspections\n",
			len(merged.Customers), len(merged.Extinguishers), len(merged.Records))
		return nil
	},
}

func formatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return models.FormatJSON, nil
	case ".xlsx":
		return models.FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported file type %q (want .json or .xlsx)", filepath.Ext(path))
}

func init() {
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "replace an existing snapshot")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", models.FormatJSON, "json or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default fire_safety_backup_<ts>.<format>)")

	rootCmd.AddCommand(migrateCmd, seedCmd, exportCmd, importCmd)
}
