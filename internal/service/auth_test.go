package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumire/lostfound/internal/domain"
	"github.com/sumire/lostfound/internal/memstore"
)

func newAuth() *AuthService {
	return NewAuthService(memstore.NewUserStore(), AuthConfig{
		JWTSecret:      "test-secret",
		GoogleClientID: "google-client",
		GitHubClientID: "github-client",
		FrontendURL:    "http://localhost:5173",
	})
}

func TestIssueAndValidateTokens(t *testing.T) {
	auth := newAuth()

	pair, err := auth.IssueTokens(42)
	require.NoError(t, err)

	id, err := auth.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	// a refresh token is not an access token
	_, err = auth.ValidateToken(pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	refreshed, err := auth.RefreshAccessToken(pair.RefreshToken)
	require.NoError(t, err)
	id, err = auth.ValidateToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = auth.RefreshAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestValidateTokenRejectsForeignAndExpired(t *testing.T) {
	auth := newAuth()

	other := NewAuthService(memstore.NewUserStore(), AuthConfig{JWTSecret: "other-secret"})
	pair, err := other.IssueTokens(1)
	require.NoError(t, err)
	_, err = auth.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  1,
		"type": tokenTypeAccess,
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})
	str, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = auth.ValidateToken(str)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = auth.ValidateToken("garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthURL(t *testing.T) {
	auth := newAuth()

	u, err := auth.AuthURL(domain.AuthProviderGoogle, "state-123")
	require.NoError(t, err)
	assert.Contains(t, u, "client_id=google-client")
	assert.Contains(t, u, "state=state-123")

	u, err = auth.AuthURL(domain.AuthProviderGitHub, "s")
	require.NoError(t, err)
	assert.Contains(t, u, "github.com")

	_, err = auth.AuthURL("myspace", "s")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
