package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contabilflow/backend/shared/models"
)

func newTestMiddleware(t *testing.T) *AuthMiddleware {
	t.Setenv("JWT_SECRET", "test-secret")
	am, err := NewAuthMiddleware(nil)
	require.NoError(t, err)
	return am
}

func TestIssueAndParseTokenRoundTrip(t *testing.T) {
	am := newTestMiddleware(t)

	user := &models.User{
		ID:            "u-1",
		Name:          "Maria Souza",
		Email:         "maria@acme.com.br",
		Role:          models.RoleManager,
		WorkspaceSlug: "acme",
	}

	token, err := am.IssueToken(user, time.Hour)
	require.NoError(t, err)

	claims, err := am.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "maria@acme.com.br", claims.Email)
	assert.Equal(t, models.RoleManager, claims.Role)
	assert.Equal(t, "acme", claims.WorkspaceSlug)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	am := newTestMiddleware(t)

	token, err := am.IssueToken(&models.User{ID: "u-1", WorkspaceSlug: "acme"}, -time.Minute)
	require.NoError(t, err)

	_, err = am.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	am := newTestMiddleware(t)
	token, err := am.IssueToken(&models.User{ID: "u-1", WorkspaceSlug: "acme"}, time.Hour)
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "other-secret")
	other, err := NewAuthMiddleware(nil)
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestNewAuthMiddlewareRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := NewAuthMiddleware(nil)
	assert.Error(t, err)
}

func TestRoleRankOrdering(t *testing.T) {
	assert.Greater(t, roleRank(models.RoleAdmin), roleRank(models.RoleManager))
	assert.Greater(t, roleRank(models.RoleManager), roleRank(models.RoleUser))
	assert.Greater(t, roleRank(models.RoleUser), roleRank(models.UserRole("unknown")))
}
