package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestInitMigrationGuardsCounters(t *testing.T) {
	body, err := fs.ReadFile(migrationsFS, "migrations/0001_init.up.sql")
	require.NoError(t, err)
	sql := string(body)

	assert.Contains(t, sql, "CHECK (quantity >= 0)")
	assert.Contains(t, sql, "CHECK (availability >= 0)")
	assert.Contains(t, sql, "CHECK (rating BETWEEN 1 AND 5)")
}

func TestSessionMigrationStoresValuesServerSide(t *testing.T) {
	body, err := fs.ReadFile(migrationsFS, "migrations/0002_http_sessions.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS http_sessions")
	assert.Contains(t, string(body), "expires_at")
}
