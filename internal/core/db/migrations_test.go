package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrateUp(t *testing.T) {
	conn, err := Open("sqlite://" + filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, MigrateUp(conn))

	// All schema tables exist after migration.
	for _, table := range []string{"customers", "orders", "segments", "pending_customers", "pending_orders"} {
		var name string
		err := conn.Get(&name, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table)
		require.NoError(t, err, "table %s missing", table)
	}

	// Re-running is a no-op, not an error.
	require.NoError(t, MigrateUp(conn))
}

func TestMigrateStatus(t *testing.T) {
	conn, err := Open("sqlite://" + filepath.Join(t.TempDir(), "status.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	before, err := MigrateStatus(conn)
	require.NoError(t, err)
	require.NotEmpty(t, before)
	for _, s := range before {
		require.False(t, s.Applied)
	}

	require.NoError(t, MigrateUp(conn))

	after, err := MigrateStatus(conn)
	require.NoError(t, err)
	for _, s := range after {
		require.True(t, s.Applied, "migration %s not applied", s.ID)
		require.NotNil(t, s.AppliedAt)
	}
}
