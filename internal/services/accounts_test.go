package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/auth"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

func validSignUp() SignUpInput {
	return SignUpInput{
		Email:    "Alice@Example.com",
		Password: "secret123",
		Username: "alice_01",
		Name:     "Alice",
	}
}

func TestSignUp(t *testing.T) {
	f := newFixture(t)

	session, err := f.svc.Accounts.SignUp(f.ctx, validSignUp())
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "alice@example.com", session.User.Email)
	assert.Equal(t, models.RoleUser, session.User.Role)
	assert.NotEqual(t, "secret123", session.User.PasswordHash)

	id, err := auth.NewTokenIssuer("test-secret", 0).Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, id.UserID)
}

func TestSignUp_Duplicate(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Accounts.SignUp(f.ctx, validSignUp())
	require.NoError(t, err)

	again := validSignUp()
	again.Username = "someone_else"
	_, err = f.svc.Accounts.SignUp(f.ctx, again)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	again = validSignUp()
	again.Email = "other@example.com"
	again.Username = "ALICE_01"
	_, err = f.svc.Accounts.SignUp(f.ctx, again)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestSignUp_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*SignUpInput)
		field  string
	}{
		{"bad email", func(in *SignUpInput) { in.Email = "not-an-email" }, "email"},
		{"short password", func(in *SignUpInput) { in.Password = "12345" }, "password"},
		// 40 runes but 80 bytes, past what bcrypt accepts
		{"password over 72 bytes", func(in *SignUpInput) { in.Password = strings.Repeat("é", 40) }, "password"},
		{"short username", func(in *SignUpInput) { in.Username = "al" }, "username"},
		{"username charset", func(in *SignUpInput) { in.Username = "alice smith" }, "username"},
		{"missing name", func(in *SignUpInput) { in.Name = "  " }, "name"},
		{"bad avatar", func(in *SignUpInput) { in.AvatarURL = "not a url" }, "avatar_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validSignUp()
			tt.mutate(&input)
			_, err := f.svc.Accounts.SignUp(f.ctx, input)
			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestSignIn(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Accounts.SignUp(f.ctx, validSignUp())
	require.NoError(t, err)

	session, err := f.svc.Accounts.SignIn(f.ctx, SignInInput{Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "alice_01", session.User.Username)

	_, err = f.svc.Accounts.SignIn(f.ctx, SignInInput{Email: "alice@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	_, err = f.svc.Accounts.SignIn(f.ctx, SignInInput{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	_, err = f.svc.Accounts.SignIn(f.ctx, SignInInput{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	session, err := f.svc.Accounts.SignUp(f.ctx, validSignUp())
	require.NoError(t, err)
	actor := auth.IdentityFor(session.User)

	name := "Alice Liddell"
	avatar := "https://example.com/a.png"
	u, err := f.svc.Accounts.UpdateProfile(f.ctx, actor, ProfileInput{Name: &name, AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", u.Name)
	assert.Equal(t, avatar, u.AvatarURL)

	blank := " "
	_, err = f.svc.Accounts.UpdateProfile(f.ctx, actor, ProfileInput{Name: &blank})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	profile, err := f.svc.Accounts.Profile(f.ctx, actor.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", profile.Name)

	_, err = f.svc.Accounts.UpdateProfile(f.ctx, nil, ProfileInput{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}
