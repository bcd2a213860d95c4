package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/auth"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/store"
)

type SignUpInput struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=6,bcryptlen"`
	Username  string `json:"username" validate:"required,min=3,max=30,username"`
	Name      string `json:"name" validate:"required,max=100"`
	Gender    string `json:"gender" validate:"omitempty,max=20"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput changes only the fields that are set.
type ProfileInput struct {
	Name      *string `json:"name" validate:"omitnil,min=1,max=100"`
	Gender    *string `json:"gender" validate:"omitempty,max=20"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

// AuthSession is what a successful sign up or sign in hands back.
type AuthSession struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type Accounts struct {
	store  store.Store
	tokens *auth.TokenIssuer
}

func NewAccounts(s store.Store, tokens *auth.TokenIssuer) *Accounts {
	return &Accounts{store: s, tokens: tokens}
}

func (a *Accounts) SignUp(ctx context.Context, input SignUpInput) (*AuthSession, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Username = strings.TrimSpace(input.Username)
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Username:     input.Username,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Gender:       input.Gender,
		AvatarURL:    input.AvatarURL,
	}
	if err := a.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("email or username already taken: %w", apperrors.ErrConflict)
		}
		return nil, err
	}
	return a.session(u)
}

// SignIn reports ErrUnauthenticated for an unknown email or a wrong password alike.
func (a *Accounts) SignIn(ctx context.Context, input SignInInput) (*AuthSession, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	u, err := a.store.GetUserByEmail(ctx, strings.TrimSpace(input.Email))
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthenticated)
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, input.Password); err != nil {
		if errors.Is(err, apperrors.ErrUnauthenticated) {
			return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthenticated)
		}
		return nil, err
	}
	return a.session(u)
}

func (a *Accounts) session(u *models.User) (*AuthSession, error) {
	token, expiresAt, err := a.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &AuthSession{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

func (a *Accounts) Profile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return a.store.GetUser(ctx, id)
}

func (a *Accounts) UpdateProfile(ctx context.Context, actor *auth.Identity, input ProfileInput) (*models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	u, err := a.store.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		u.Name = *input.Name
	}
	if input.Gender != nil {
		u.Gender = *input.Gender
	}
	if input.AvatarURL != nil {
		u.AvatarURL = *input.AvatarURL
	}

	if err := a.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
