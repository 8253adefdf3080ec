package main

import (
	"os"
	"path/filepath"
	"testing"

	"firesafety-backend/internal/interchange"
	"firesafety-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestFormatFromPath(t *testing.T) {
	f, err := formatFromPath("backup.JSON")
	require.NoError(t, err)
	assert.Equal(t, models.FormatJSON, f)

	f, err = formatFromPath("/tmp/fire_safety_backup.xlsx")
	require.NoError(t, err)
	assert.Equal(t, models.FormatXLSX, f)

	_, err = formatFromPath("notes.csv")
	assert.Error(t, err)
}

func TestSeedAddUserExport(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "fs.db")
	out := filepath.Join(dir, "export.json")

	require.NoError(t, run(t, "seed", "--database-url", db))
	assert.Error(t, run(t, "seed", "--database-url", db), "existing snapshot needs --force")

	require.NoError(t, run(t, "users", "add", "--database-url", db,
		"--first", "Sam", "--last", "Lee", "--tech-id", "TECH-003", "--pin", "9876"))
	assert.Error(t, run(t, "users", "add", "--database-url", db,
		"--first", "Sam", "--tech-id", "TECH-003", "--pin", "9876"), "duplicate technician id")

	require.NoError(t, run(t, "export", "--database-url", db, "-o", out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	data, err := interchange.ImportJSON(f)
	require.NoError(t, err)

	u := data.FindUserByTechnicianID("TECH-003")
	require.NotNil(t, u)
	assert.NotEmpty(t, u.PINHash)
	assert.Empty(t, u.PIN)
	assert.Contains(t, data.Technicians, "Sam Lee")
}
