// Package config resolves the two connection parameters the data layer
// needs: the backend URL and the anonymous signing key.
//
// Resolution is layered, later wins: optional YAML file, process
// environment, build-injected values. Build-time injection takes
// precedence so release builds cannot be repointed by a stray variable.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Injected at build time via:
//
//	go build -ldflags "-X github.com/emberapp/ember-go/internal/config.buildBackendURL=... \
//	                   -X github.com/emberapp/ember-go/internal/config.buildAnonKey=..."
var (
	buildBackendURL string
	buildAnonKey    string
)

const (
	// EnvBackendURL names the Postgres URL of the managed backend.
	EnvBackendURL = "EMBER_BACKEND_URL"
	// EnvAnonKey names the shared key that signs anonymous session tokens.
	EnvAnonKey = "EMBER_ANON_KEY"
	// EnvConfigFile optionally points at a YAML file for local development.
	EnvConfigFile = "EMBER_CONFIG"
)

// Config is the resolved connection configuration.
type Config struct {
	BackendURL string
	AnonKey    string
}

// IsConfigured reports whether both parameters are present. The data
// layer degrades to a quiet no-op mode when this is false.
func (c Config) IsConfigured() bool {
	return c.BackendURL != "" && c.AnonKey != ""
}

// configFile mirrors the YAML schema. Kept separate from Config so the
// file format can grow without leaking into the runtime type.
type configFile struct {
	BackendURL string `yaml:"backend_url"`
	AnonKey    string `yaml:"anon_key"`
}

// Resolve reads the configuration sources fresh on every call. It has no
// side effects and never fails: an unreadable or malformed file simply
// contributes nothing.
func Resolve() Config {
	var cfg Config

	if path := os.Getenv(EnvConfigFile); path != "" {
		if fc, err := loadFile(path); err == nil {
			cfg.BackendURL = fc.BackendURL
			cfg.AnonKey = fc.AnonKey
		}
	}

	if v := os.Getenv(EnvBackendURL); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv(EnvAnonKey); v != "" {
		cfg.AnonKey = v
	}

	if buildBackendURL != "" {
		cfg.BackendURL = buildBackendURL
	}
	if buildAnonKey != "" {
		cfg.AnonKey = buildAnonKey
	}

	return cfg
}

func loadFile(path string) (configFile, error) {
	var fc configFile
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file: %w", err)
	}
	return fc, nil
}
