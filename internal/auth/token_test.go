package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberapp/ember-go/internal/fault"
)

const testKey = "test-anon-key"

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(testKey, "user-1", "")
	require.NoError(t, err)

	claims, err := ValidateToken(testKey, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.True(t, claims.Anonymous)
	assert.Empty(t, claims.Email)
}

func TestTokenCarriesEmailAfterUpgrade(t *testing.T) {
	token, err := GenerateToken(testKey, "user-1", "a@example.com")
	require.NoError(t, err)

	claims, err := ValidateToken(testKey, token)
	require.NoError(t, err)
	assert.False(t, claims.Anonymous)
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestTokenWrongKeyRejected(t *testing.T) {
	token, err := GenerateToken(testKey, "user-1", "")
	require.NoError(t, err)

	_, err = ValidateToken("other-key", token)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.AuthFailure))
}

func TestExpiredTokenRejected(t *testing.T) {
	now := time.Now()
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * tokenTTL)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testKey))
	require.NoError(t, err)

	_, err = ValidateToken(testKey, token)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.AuthFailure))
}

func TestNeedsRefresh(t *testing.T) {
	now := time.Now()

	fresh := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}}
	assert.False(t, needsRefresh(fresh, now))

	closing := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(refreshWindow / 2)),
	}}
	assert.True(t, needsRefresh(closing, now))

	assert.True(t, needsRefresh(&Claims{}, now))
}
