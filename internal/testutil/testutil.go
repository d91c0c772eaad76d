// Package testutil provisions real-backend fixtures for the integration
// suites. Those suites need a scratch Postgres reachable through
// EMBER_TEST_DB_URL (a postgres:// URL) and skip cleanly when it is
// absent.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/emberapp/ember-go/internal/auth"
	"github.com/emberapp/ember-go/internal/config"
	"github.com/emberapp/ember-go/internal/db"
)

// EnvTestDB names the scratch database URL for integration tests.
const EnvTestDB = "EMBER_TEST_DB_URL"

// Configure points the data layer at the test backend and isolates the
// session file. Skips the test when no test database is available.
// Returns the backend URL.
func Configure(t *testing.T) string {
	t.Helper()

	dsn := os.Getenv(EnvTestDB)
	if dsn == "" {
		t.Skipf("%s not set, skipping backend integration test", EnvTestDB)
	}

	t.Setenv(config.EnvConfigFile, "")
	t.Setenv(config.EnvBackendURL, dsn)
	t.Setenv(config.EnvAnonKey, "integration-test-key")
	t.Setenv(auth.EnvSessionFile, filepath.Join(t.TempDir(), "session.json"))

	db.Reset()
	t.Cleanup(db.Reset)
	return dsn
}

// EnsureSchema applies the backend schema to the test database.
func EnsureSchema(t *testing.T, dsn string) {
	t.Helper()

	admin, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer admin.Close()
	require.NoError(t, db.EnsureSchema(context.Background(), admin))
}

// NewBoundClient returns the memoized handle bound to a fresh identity
// whose users row already exists. Each call gets its own identity, so
// suites sharing the scratch database stay isolated under row-level
// scoping.
func NewBoundClient(t *testing.T) (*db.Client, string) {
	t.Helper()

	dsn := Configure(t)
	EnsureSchema(t, dsn)

	client := db.Handle()
	require.NotNil(t, client, "handle must exist once configured")

	userID := uuid.NewString()
	require.NoError(t, client.BindIdentity(context.Background(), userID))

	pool, err := client.Session()
	require.NoError(t, err)
	_, err = pool.ExecContext(context.Background(),
		`INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, userID)
	require.NoError(t, err)

	return client, userID
}

// RowLevelSecurityActive reports whether the test role is subject to the
// row-level policies. Superusers bypass RLS wholesale, which makes
// scoping assertions meaningless; callers skip in that case.
func RowLevelSecurityActive(t *testing.T, client *db.Client) bool {
	t.Helper()

	pool, err := client.Session()
	require.NoError(t, err)

	var super string
	require.NoError(t, pool.QueryRow(`SHOW is_superuser`).Scan(&super))
	return super != "on"
}
