package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/emberapp/ember-go/internal/db"
	"github.com/emberapp/ember-go/internal/fault"
	"github.com/emberapp/ember-go/internal/models"
)

// Status distinguishes "nothing to do" from "it worked". NotConfigured is
// a valid non-error state, not a failure.
type Status string

const (
	StatusNotConfigured Status = "not_configured"
	StatusReady         Status = "ready"
)

// BootstrapResult is what InitializeUser reports. User is nil exactly
// when Status is StatusNotConfigured.
type BootstrapResult struct {
	Status Status
	User   *models.User
}

// InitializeUser ensures an identity and its users row both exist.
// Idempotent: any number of calls has the same effect as one.
//
// The users lookup and insert are not atomic. If a concurrent bootstrap
// wins the insert between our read and our write, the insert fails with
// a uniqueness conflict; that is treated as success and resolved by
// re-reading the now-existing row.
func InitializeUser(ctx context.Context) (BootstrapResult, error) {
	client := db.Handle()
	if client == nil {
		return BootstrapResult{Status: StatusNotConfigured}, nil
	}
	return initializeWith(ctx, client)
}

func initializeWith(ctx context.Context, client *db.Client) (BootstrapResult, error) {
	sess, err := CurrentSession(client.AnonKey())
	if err != nil {
		return BootstrapResult{}, fault.Wrap(fault.AuthFailure, "load persisted session", err)
	}
	if sess == nil {
		sess, err = SignInAnonymously(client.AnonKey())
		if err != nil {
			return BootstrapResult{}, err
		}
	}

	if err := client.BindIdentity(ctx, sess.UserID); err != nil {
		return BootstrapResult{}, err
	}

	user, err := fetchUser(ctx, client, sess.UserID)
	if err == nil {
		return BootstrapResult{Status: StatusReady, User: &user}, nil
	}
	if !fault.Is(err, fault.NotFound) {
		return BootstrapResult{}, err
	}

	user, err = insertUser(ctx, client, sess.UserID)
	if err == nil {
		logger.Info("profile row created", "user_id", sess.UserID)
		return BootstrapResult{Status: StatusReady, User: &user}, nil
	}
	if fault.Is(err, fault.Conflict) {
		// Lost the race to a concurrent bootstrap; the row exists now.
		logger.Debug("profile insert raced, re-reading", "user_id", sess.UserID)
		user, err = fetchUser(ctx, client, sess.UserID)
		if err != nil {
			return BootstrapResult{}, err
		}
		return BootstrapResult{Status: StatusReady, User: &user}, nil
	}
	return BootstrapResult{}, err
}

func fetchUser(ctx context.Context, client *db.Client, userID string) (models.User, error) {
	var user models.User

	pool, err := client.Session()
	if err != nil {
		return user, err
	}

	err = pool.QueryRowContext(ctx,
		`SELECT id, COALESCE(email, ''), created_at, updated_at FROM users WHERE id = $1`,
		userID,
	).Scan(&user.ID, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user, fault.New(fault.NotFound, "no profile row for identity")
	}
	if err != nil {
		return user, fault.FromPQ("fetch profile row", err)
	}
	return user, nil
}

// insertUser writes the id-only row; every other column defaults
// server-side.
func insertUser(ctx context.Context, client *db.Client, userID string) (models.User, error) {
	var user models.User

	pool, err := client.Session()
	if err != nil {
		return user, err
	}

	err = pool.QueryRowContext(ctx,
		`INSERT INTO users (id) VALUES ($1)
		 RETURNING id, COALESCE(email, ''), created_at, updated_at`,
		userID,
	).Scan(&user.ID, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return user, fault.FromPQ("insert profile row", err)
	}
	return user, nil
}
