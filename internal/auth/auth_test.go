package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: "alice",
		Name:     "Alice",
		Role:     models.RoleUser,
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	u := testUser()

	token, expiresAt, err := issuer.Issue(u)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	id, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, "Alice", id.Name)
	assert.Equal(t, models.RoleUser, id.Role)
}

func TestTokenIssuer_RejectsBadTokens(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, _, err := issuer.Issue(testUser())
	require.NoError(t, err)

	tests := []struct {
		name   string
		parser *TokenIssuer
		token  string
	}{
		{"garbage", issuer, "not-a-token"},
		{"wrong secret", NewTokenIssuer("other", time.Hour), token},
		{"empty", issuer, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parser.Parse(tt.token)
			assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
		})
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := issuer.Issue(testUser())
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.NoError(t, CheckPassword(hash, "hunter22"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), apperrors.ErrUnauthenticated)

	_, err = HashPassword(strings.Repeat("é", 40))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestIdentity_CanModerate(t *testing.T) {
	owner := uuid.New()
	user := &Identity{UserID: owner, Role: models.RoleUser}
	other := &Identity{UserID: uuid.New(), Role: models.RoleUser}
	admin := &Identity{UserID: uuid.New(), Role: models.RoleAdmin}

	assert.True(t, user.CanModerate(owner))
	assert.False(t, other.CanModerate(owner))
	assert.True(t, admin.CanModerate(owner))

	var none *Identity
	assert.False(t, none.CanModerate(owner))
}

func TestIdentity_DisplayName(t *testing.T) {
	assert.Equal(t, "Alice", (&Identity{Username: "alice", Name: "Alice"}).DisplayName())
	assert.Equal(t, "alice", (&Identity{Username: "alice"}).DisplayName())
}
