package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p@db:5432/picks?sslmode=disable",
		DSN(ClientConfig{Host: "db", Database: "picks", User: "u", Password: "p"}))
	assert.Equal(t, "postgres://u:p@db:6543/picks?sslmode=require",
		DSN(ClientConfig{Host: "db", Port: 6543, Database: "picks", User: "u", Password: "p", SSLMode: "require"}))
	assert.Equal(t, "postgres://x", DSN(ClientConfig{DSN: "postgres://x", Host: "ignored"}))
}

func TestMigrationFiles(t *testing.T) {
	names, err := migrationFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_picks.sql", "002_runs.sql"}, names)

	data, err := migrationsFS.ReadFile("migrations/001_picks.sql")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "UNIQUE (event_id, selection)"))
}
