package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoplist-service/internal/models"
)

func newTokenOnlyAuthService(secret string) *AuthService {
	return &AuthService{
		secret:     []byte(secret),
		accessTTL:  30 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
	}
}

func testUser() *models.User {
	tenantID := uuid.New()
	u := &models.User{
		TenantID: &tenantID,
		Username: "alice",
		Email:    "alice@example.com",
		Role:     models.RoleUser,
		IsActive: true,
	}
	u.ID = uuid.New()
	return u
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTokenOnlyAuthService("test-secret")
	user := testUser()

	token, err := s.signToken(user, TokenTypeAccess, s.accessTTL)
	require.NoError(t, err)

	claims, err := s.parseToken(token)
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, user.TenantID.String(), claims.TenantID)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID, "every token needs a jti for revocation")
}

func TestTokenPairHasDistinctIDs(t *testing.T) {
	s := newTokenOnlyAuthService("test-secret")
	user := testUser()

	access, refresh, err := s.issuePair(user)
	require.NoError(t, err)

	ac, err := s.parseToken(access)
	require.NoError(t, err)
	rc, err := s.parseToken(refresh)
	require.NoError(t, err)

	assert.Equal(t, TokenTypeAccess, ac.TokenType)
	assert.Equal(t, TokenTypeRefresh, rc.TokenType)
	assert.NotEqual(t, ac.ID, rc.ID, "access and refresh must be independently revocable")
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := newTokenOnlyAuthService("secret-a")
	verifier := newTokenOnlyAuthService("secret-b")

	token, err := issuer.signToken(testUser(), TokenTypeAccess, time.Minute)
	require.NoError(t, err)

	_, err = verifier.parseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	s := newTokenOnlyAuthService("test-secret")

	token, err := s.signToken(testUser(), TokenTypeAccess, -time.Minute)
	require.NoError(t, err)

	_, err = s.parseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	s := newTokenOnlyAuthService("test-secret")

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := s.parseToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", raw)
	}
}
