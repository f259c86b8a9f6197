// Package testutil provides shared helpers for tests that need a real
// database. Each test gets its own file-backed SQLite database in a temp
// directory with all migrations applied.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/misty-step/scry-sub000/internal/db"
)

// NewDB opens a fresh migrated database for the test and closes it on cleanup.
func NewDB(t *testing.T) *db.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open("file:" + path)
	require.NoError(t, err, "opening test database")

	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}
