package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DriverFor picks the SQL driver from the DSN: postgres URLs go to lib/pq,
// everything else is treated as a SQLite file.
func DriverFor(dbURL string) string {
	if strings.HasPrefix(dbURL, "postgres://") || strings.HasPrefix(dbURL, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// sqliteDSN turns a bare path into a file: URI with WAL and foreign keys.
func sqliteDSN(dbURL string) (string, error) {
	if strings.HasPrefix(dbURL, "file:") {
		return dbURL, nil
	}
	if dir := filepath.Dir(dbURL); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", dbURL), nil
}

func Connect(dbURL string) (*sqlx.DB, error) {
	driver := DriverFor(dbURL)
	dsn := dbURL
	if driver == DriverSQLite {
		var err error
		if dsn, err = sqliteDSN(dbURL); err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("driver", driver).
		Int("dsn_length", len(dbURL)).
		Msg("🔌 connecting to slot database")

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		log.Error().Err(err).Str("driver", driver).Msg("❌ database connection failed")
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// one writer at a time; the store already serializes writes
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("driver", driver).Msg("✅ database connection established")
	return db, nil
}

func Migrate(db *sqlx.DB) error {
	migrations := []string{
		// One row per slot key: the snapshot, the session and the
		// biometric credential ids all live here as JSON text.
		`CREATE TABLE IF NOT EXISTS kv_slots (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_kv_slots_updated_at ON kv_slots(updated_at)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
