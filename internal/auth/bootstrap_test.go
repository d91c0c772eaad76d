package auth_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberapp/ember-go/internal/auth"
	"github.com/emberapp/ember-go/internal/config"
	"github.com/emberapp/ember-go/internal/db"
	"github.com/emberapp/ember-go/internal/testutil"
)

func TestInitializeUserNotConfigured(t *testing.T) {
	t.Setenv(config.EnvConfigFile, "")
	t.Setenv(config.EnvBackendURL, "")
	t.Setenv(config.EnvAnonKey, "")
	t.Setenv(auth.EnvSessionFile, filepath.Join(t.TempDir(), "session.json"))
	db.Reset()
	t.Cleanup(db.Reset)

	// A quiet no-op, not an error: no session is created, nothing dialed.
	res, err := auth.InitializeUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, auth.StatusNotConfigured, res.Status)
	assert.Nil(t, res.User)

	s, err := auth.CurrentSession("any")
	require.NoError(t, err)
	assert.Nil(t, s, "bootstrap must not create a session when unconfigured")
}

func TestInitializeUserIdempotent(t *testing.T) {
	dsn := testutil.Configure(t)
	testutil.EnsureSchema(t, dsn)
	ctx := context.Background()

	first, err := auth.InitializeUser(ctx)
	require.NoError(t, err)
	require.Equal(t, auth.StatusReady, first.Status)
	require.NotNil(t, first.User)
	assert.NotEmpty(t, first.User.ID)
	assert.False(t, first.User.CreatedAt.IsZero())
	assert.False(t, first.User.UpdatedAt.IsZero())

	second, err := auth.InitializeUser(ctx)
	require.NoError(t, err)
	require.Equal(t, auth.StatusReady, second.Status)

	// Same identity, same row, and exactly one row for it.
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, first.User.CreatedAt, second.User.CreatedAt)

	pool, err := db.Handle().Session()
	require.NoError(t, err)
	var count int
	require.NoError(t, pool.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE id = $1`, first.User.ID).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestInitializeUserAdoptsExistingRow(t *testing.T) {
	dsn := testutil.Configure(t)
	testutil.EnsureSchema(t, dsn)
	ctx := context.Background()

	// Sign in first so the identity is fixed, then create the row behind
	// bootstrap's back, as a concurrent bootstrap would have.
	client := db.Handle()
	require.NotNil(t, client)
	sess, err := auth.SignInAnonymously(client.AnonKey())
	require.NoError(t, err)
	require.NoError(t, client.BindIdentity(ctx, sess.UserID))

	pool, err := client.Session()
	require.NoError(t, err)
	_, err = pool.ExecContext(ctx, `INSERT INTO users (id) VALUES ($1)`, sess.UserID)
	require.NoError(t, err)

	res, err := auth.InitializeUser(ctx)
	require.NoError(t, err)
	require.Equal(t, auth.StatusReady, res.Status)
	assert.Equal(t, sess.UserID, res.User.ID)
}
