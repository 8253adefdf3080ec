package database

import (
	"path/filepath"
	"testing"
	"time"

	"firesafety-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDriverFor(t *testing.T) {
	assert.Equal(t, DriverPostgres, DriverFor("postgres://u:p@localhost/fs"))
	assert.Equal(t, DriverPostgres, DriverFor("postgresql://localhost/fs"))
	assert.Equal(t, DriverSQLite, DriverFor("data/firesafety.db"))
	assert.Equal(t, DriverSQLite, DriverFor("file::memory:"))
}

func TestConnectAndMigrate_SQLite(t *testing.T) {
	db, err := Connect(filepath.Join(t.TempDir(), "nested", "fs.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db), "migrations are idempotent")

	_, err = db.Exec(`INSERT INTO kv_slots (key, value, updated_at) VALUES ('k', 'v', 1)`)
	require.NoError(t, err)

	var value string
	require.NoError(t, db.Get(&value, `SELECT value FROM kv_slots WHERE key = 'k'`))
	assert.Equal(t, "v", value)
}

func TestDemoSnapshot(t *testing.T) {
	d := DemoSnapshot(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	assert.Len(t, d.Customers, 2)
	assert.Len(t, d.Extinguishers, 4)
	for _, e := range d.Extinguishers {
		c, _ := d.FindCustomer(e.CustomerID)
		assert.NotNil(t, c, "unit %s points at a seeded customer", e.ID)
	}

	admin := d.FindUserByTechnicianID("TECH-001")
	require.NotNil(t, admin)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Empty(t, admin.PIN)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PINHash), []byte("1234")))

	assert.Len(t, d.CustomChecklists["Emergency Light"], 3)
	require.NotNil(t, d.NotificationSettings)
	assert.False(t, d.NotificationSettings.Enabled)
}
