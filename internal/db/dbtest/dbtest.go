// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/threewords/journal/internal/db"
)

// New returns a fresh in-memory SQLite database with every migration applied.
// It is closed when the test ends.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := db.Init("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })

	err = db.RunMigrations(conn.DB, "sqlite")
	require.NoError(t, err)
	return conn
}
