package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/emberapp/ember-go/internal/fault"
)

const (
	tokenIssuer = "ember"
	tokenTTL    = 24 * time.Hour

	// refreshWindow is how close to expiry a token may get before
	// CurrentSession re-signs it. Wide enough that a token loaded at app
	// start survives a full day of use.
	refreshWindow = 6 * time.Hour
)

// Claims is the session token payload. UserID doubles as the JWT subject;
// Email is present only after an identity upgrade.
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Anonymous bool   `json:"anon"`
	jwt.RegisteredClaims
}

// GenerateToken mints an HS256 session token for the given identity,
// signed with the deployment's anon key.
func GenerateToken(key, userID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Email:     email,
		Anonymous: email == "",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(key))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature and expiry and returns the claims.
func ValidateToken(key, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(key), nil
	})
	if err != nil {
		return nil, fault.Wrap(fault.AuthFailure, "invalid session token", err)
	}
	if !token.Valid {
		return nil, fault.New(fault.AuthFailure, "invalid session token")
	}
	return claims, nil
}

// needsRefresh reports whether the token expires inside the refresh
// window and should be re-signed.
func needsRefresh(claims *Claims, now time.Time) bool {
	if claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Time.Sub(now) < refreshWindow
}
