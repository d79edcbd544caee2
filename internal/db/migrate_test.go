package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threewords/journal/internal/db"
	"github.com/threewords/journal/internal/db/dbtest"
)

func tableExists(t *testing.T, conn interface {
	Get(dest any, query string, args ...any) error
}, name string) bool {
	t.Helper()
	var count int
	err := conn.Get(&count, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name)
	require.NoError(t, err)
	return count == 1
}

func TestRunMigrations(t *testing.T) {
	conn := dbtest.New(t)

	for _, table := range []string{"users", "records", "oauth_tokens"} {
		assert.True(t, tableExists(t, conn, table), table)
	}

	// Running again is a no-op.
	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))
}

func TestMigrateDown(t *testing.T) {
	conn := dbtest.New(t)

	require.NoError(t, db.MigrateDown(conn.DB, "sqlite"))
	assert.False(t, tableExists(t, conn, "oauth_tokens"))
	assert.True(t, tableExists(t, conn, "records"))

	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))
	assert.True(t, tableExists(t, conn, "oauth_tokens"))
}
