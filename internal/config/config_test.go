package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFromEnv(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv(EnvBackendURL, "postgres://db.example.com/ember")
	t.Setenv(EnvAnonKey, "anon-key")

	cfg := Resolve()
	assert.Equal(t, "postgres://db.example.com/ember", cfg.BackendURL)
	assert.Equal(t, "anon-key", cfg.AnonKey)
	assert.True(t, cfg.IsConfigured())
}

func TestResolveUnconfigured(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv(EnvBackendURL, "")
	t.Setenv(EnvAnonKey, "")

	cfg := Resolve()
	assert.False(t, cfg.IsConfigured())
}

func TestIsConfiguredNeedsBoth(t *testing.T) {
	assert.False(t, Config{BackendURL: "postgres://x"}.IsConfigured())
	assert.False(t, Config{AnonKey: "k"}.IsConfigured())
	assert.True(t, Config{BackendURL: "postgres://x", AnonKey: "k"}.IsConfigured())
}

func TestResolveFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ember.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"backend_url: postgres://file.example.com/ember\nanon_key: file-key\n"), 0o600))

	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvBackendURL, "")
	t.Setenv(EnvAnonKey, "")

	cfg := Resolve()
	assert.Equal(t, "postgres://file.example.com/ember", cfg.BackendURL)
	assert.Equal(t, "file-key", cfg.AnonKey)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ember.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"backend_url: postgres://file.example.com/ember\nanon_key: file-key\n"), 0o600))

	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvBackendURL, "postgres://env.example.com/ember")
	t.Setenv(EnvAnonKey, "")

	cfg := Resolve()
	// Env wins for the URL; the key still comes from the file.
	assert.Equal(t, "postgres://env.example.com/ember", cfg.BackendURL)
	assert.Equal(t, "file-key", cfg.AnonKey)
}

func TestBuildInjectionWins(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv(EnvBackendURL, "postgres://env.example.com/ember")
	t.Setenv(EnvAnonKey, "env-key")

	buildBackendURL = "postgres://build.example.com/ember"
	buildAnonKey = "build-key"
	defer func() {
		buildBackendURL = ""
		buildAnonKey = ""
	}()

	cfg := Resolve()
	assert.Equal(t, "postgres://build.example.com/ember", cfg.BackendURL)
	assert.Equal(t, "build-key", cfg.AnonKey)
}

func TestMalformedFileContributesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ember.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o600))

	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvBackendURL, "postgres://env.example.com/ember")
	t.Setenv(EnvAnonKey, "env-key")

	cfg := Resolve()
	assert.Equal(t, "postgres://env.example.com/ember", cfg.BackendURL)
	assert.True(t, cfg.IsConfigured())
}
