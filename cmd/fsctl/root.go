package main

import (
	"context"
	"errors"
	"fmt"

	"firesafety-backend/internal/audit"
	"firesafety-backend/internal/config"
	"firesafety-backend/internal/database"
	"firesafety-backend/internal/logger"
	"firesafety-backend/internal/models"
	"firesafety-backend/internal/storage"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var (
	cfg      *config.Config
	dbURL    string
	actingAs string
)

var rootCmd = &cobra.Command{
	Use:   "fsctl",
	Short: "Fire safety data service administration",
	Long: `fsctl operates on the same snapshot slot as the API server: it can
migrate and seed the database, export and import data, push backups,
purge the audit log and register users.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger.Setup("fsctl", cfg.LogLevel, "console")
		if dbURL != "" {
			cfg.DatabaseURL = dbURL
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "database-url", "", "slot database (overrides FIRESAFE_DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&actingAs, "as", "", "technician id recorded as the actor (default: system)")
}

// session is an open database with a loaded store.
type session struct {
	db    *sqlx.DB
	slot  *storage.SQLSlot
	store *storage.Store
	data  *models.AppData
}

func (s *session) Close() {
	s.store.Close()
	_ = s.db.Close()
}

func openSlot() (*sqlx.DB, *storage.SQLSlot, error) {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, storage.NewSQLSlot(db), nil
}

// openStore connects, migrates and loads the snapshot. An empty slot is
// seeded the same way the server does it.
func openStore(ctx context.Context) (*session, error) {
	db, slot, err := openSlot()
	if err != nil {
		return nil, err
	}
	store := storage.NewStore(slot, storage.WithSessionWindow(cfg.SessionWindow))
	data, err := store.Load(ctx)
	if err != nil {
		store.Close()
		_ = db.Close()
		return nil, err
	}
	return &session{db: db, slot: slot, store: store, data: data}, nil
}

var errNoData = errors.New("stored snapshot is unreadable; import a backup first")

// actor resolves --as against the registered users. Without --as the
// system actor is used.
func actor(data *models.AppData) (models.User, error) {
	if actingAs == "" {
		return audit.SystemActor, nil
	}
	if data == nil {
		return models.User{}, errNoData
	}
	u := data.FindUserByTechnicianID(actingAs)
	if u == nil {
		return models.User{}, fmt.Errorf("no registered user with technician id %s", actingAs)
	}
	return u.ToSessionUser(), nil
}
