// Package auth manages the anonymous identity: session token lifecycle,
// on-disk persistence, the idempotent user bootstrap, and the optional
// upgrade to an email+password account.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/emberapp/ember-go/internal/db"
	"github.com/emberapp/ember-go/internal/fault"
	"github.com/emberapp/ember-go/internal/models"
)

var logger = slog.Default().With("component", "auth")

// CurrentSession returns the persisted session, if any. Tokens inside
// the refresh window are re-signed and saved transparently; a token
// signed with a different key is treated as no session at all.
func CurrentSession(key string) (*Session, error) {
	s, err := loadSession()
	if err != nil || s == nil {
		return nil, err
	}

	claims, err := ValidateToken(key, s.Token)
	if err != nil {
		// An expired token is recoverable: the identity id is still on
		// disk and we hold the signing key. A file with no id is not.
		if s.UserID == "" {
			return nil, nil
		}
		token, mintErr := GenerateToken(key, s.UserID, s.Email)
		if mintErr != nil {
			return nil, nil
		}
		s.Token = token
		if err := saveSession(s); err != nil {
			return nil, err
		}
		logger.Debug("session token re-signed after expiry", "user_id", s.UserID)
		return s, nil
	}

	if needsRefresh(claims, time.Now()) {
		token, err := GenerateToken(key, claims.UserID, claims.Email)
		if err != nil {
			return nil, err
		}
		s.Token = token
		if err := saveSession(s); err != nil {
			return nil, err
		}
		logger.Debug("session token refreshed", "user_id", claims.UserID)
	}
	return s, nil
}

// SignInAnonymously mints a fresh identity and persists it. The id is
// generated client-side so the first token can be signed before any
// round trip.
func SignInAnonymously(key string) (*Session, error) {
	userID := uuid.NewString()
	token, err := GenerateToken(key, userID, "")
	if err != nil {
		return nil, fault.Wrap(fault.AuthFailure, "mint anonymous token", err)
	}

	s := &Session{UserID: userID, Token: token}
	if err := saveSession(s); err != nil {
		return nil, fault.Wrap(fault.AuthFailure, "persist anonymous session", err)
	}
	logger.Info("anonymous identity created", "user_id", userID)
	return s, nil
}

// SignOut discards the persisted session. The users row stays; the same
// identity cannot be recovered afterwards.
func SignOut() error {
	return clearSession()
}

// UpgradeToEmail links the current anonymous identity to an email and
// password, so the journal can be reached from another device. The row
// keeps its id and all owned data.
func UpgradeToEmail(ctx context.Context, client *db.Client, email, password string) (models.User, error) {
	var user models.User

	if email == "" || password == "" {
		return user, fault.New(fault.ConstraintViolation, "email and password are required")
	}

	sess, err := CurrentSession(client.AnonKey())
	if err != nil {
		return user, fault.Wrap(fault.AuthFailure, "load session", err)
	}
	if sess == nil {
		return user, fault.New(fault.AuthFailure, "no active session to upgrade")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user, fault.Wrap(fault.Unknown, "hash password", err)
	}

	pool, err := client.Session()
	if err != nil {
		return user, err
	}

	err = pool.QueryRowContext(ctx,
		`UPDATE users SET email = $1, password = $2 WHERE id = $3
		 RETURNING id, COALESCE(email, ''), created_at, updated_at`,
		email, string(hashed), sess.UserID,
	).Scan(&user.ID, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fault.New(fault.NotFound, "no profile row for identity")
	}
	if err != nil {
		if fault.IsUniqueViolation(err) {
			return models.User{}, fault.Wrap(fault.Conflict, "email already registered", err)
		}
		return models.User{}, fault.FromPQ("upgrade identity", err)
	}

	token, err := GenerateToken(client.AnonKey(), sess.UserID, email)
	if err != nil {
		return models.User{}, fault.Wrap(fault.AuthFailure, "re-mint session token", err)
	}
	sess.Email = email
	sess.Token = token
	if err := saveSession(sess); err != nil {
		return models.User{}, fault.Wrap(fault.AuthFailure, "persist upgraded session", err)
	}

	logger.Info("identity upgraded", "user_id", sess.UserID)
	return user, nil
}
