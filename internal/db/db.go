// Package db provides the process-wide connection handle to the managed
// backend.
//
// The handle is constructed lazily on first request and memoized for the
// process lifetime. When the connection parameters are absent the
// provider returns nil on every call; it never panics and never retries.
// Callers reach the pool through Client.Session, which turns the nil and
// unbound cases into tagged faults instead of crashes.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	_ "github.com/lib/pq"

	"github.com/emberapp/ember-go/internal/config"
	"github.com/emberapp/ember-go/internal/fault"
)

var logger = slog.Default().With("component", "db")

var (
	mu       sync.Mutex
	handle   *Client
	resolved bool
)

// Handle returns the memoized client, constructing it on first call.
// Returns nil when the layer is not configured or the backend URL is
// malformed; both outcomes are logged once and then stay silent.
func Handle() *Client {
	mu.Lock()
	defer mu.Unlock()

	if resolved {
		return handle
	}
	resolved = true

	cfg := config.Resolve()
	if !cfg.IsConfigured() {
		logger.Warn("backend not configured, data layer runs in no-op mode")
		return nil
	}

	c, err := newClient(cfg)
	if err != nil {
		logger.Warn("backend handle construction failed", "error", err)
		return nil
	}
	handle = c
	return handle
}

// Reset discards the memoized handle so the next Handle call resolves
// configuration again. Test hook; also closes any open pool.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	if handle != nil {
		_ = handle.Close()
	}
	handle = nil
	resolved = false
}

// Client is the shared connection handle. It is read-mostly and safe for
// concurrent use: the only mutation after construction is BindIdentity,
// which bootstrap performs once per session.
type Client struct {
	cfg config.Config

	mu     sync.Mutex
	db     *sql.DB
	userID string
}

// newClient validates the backend URL up front so that a malformed
// configuration surfaces at construction, not on the first query.
func newClient(cfg config.Config) (*Client, error) {
	u, err := url.Parse(cfg.BackendURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return nil, fmt.Errorf("backend url scheme %q is not postgres", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("backend url has no host")
	}
	return &Client{cfg: cfg}, nil
}

// BindIdentity opens the connection pool scoped to the given identity.
// Every connection in the pool carries ember.user_id as a startup
// parameter, which is what the backend's row-level policies key on.
// Rebinding to the same identity is a no-op.
func (c *Client) BindIdentity(ctx context.Context, userID string) error {
	if c == nil {
		return fault.New(fault.NotConfigured, "backend not configured")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil && c.userID == userID {
		return nil
	}

	dsn, err := identityDSN(c.cfg.BackendURL, userID)
	if err != nil {
		return fault.Wrap(fault.Transport, "build session dsn", err)
	}

	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return fault.Wrap(fault.Transport, "open backend pool", err)
	}
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return fault.Wrap(fault.Transport, "connect to backend", err)
	}

	if c.db != nil {
		_ = c.db.Close()
	}
	c.db = pool
	c.userID = userID
	logger.Debug("session bound", "user_id", userID)
	return nil
}

// Session returns the identity-scoped pool. Nil receivers are valid and
// report NotConfigured, so call sites can use Handle() unchecked.
func (c *Client) Session() (*sql.DB, error) {
	if c == nil {
		return nil, fault.New(fault.NotConfigured, "backend not configured")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil, fault.New(fault.AuthFailure, "no active session, run bootstrap first")
	}
	return c.db, nil
}

// UserID returns the identity the pool is bound to, or "" if unbound.
func (c *Client) UserID() string {
	if c == nil {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// AnonKey exposes the signing key for the auth package.
func (c *Client) AnonKey() string {
	if c == nil {
		return ""
	}
	return c.cfg.AnonKey
}

// BaseDSN returns the unscoped backend URL. The realtime listener dials
// its own connection from this; change payloads carry user_id so the
// listener filters rather than binds.
func (c *Client) BaseDSN() (string, error) {
	if c == nil {
		return "", fault.New(fault.NotConfigured, "backend not configured")
	}
	return c.cfg.BackendURL, nil
}

// Close releases the pool. The handle stays memoized; Reset discards it.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	c.userID = ""
	return err
}

// identityDSN appends the ember.user_id startup parameter to the backend
// URL, preserving any options the URL already carries.
func identityDSN(base, userID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	opts := q.Get("options")
	if opts != "" {
		opts += " "
	}
	opts += "-c ember.user_id=" + userID
	q.Set("options", opts)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
