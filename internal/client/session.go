package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/services"
)

type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Snapshot is the session state handed to listeners. User is set only
// when State is StateAuthenticated.
type Snapshot struct {
	State State
	User  *models.User
}

type Credentials struct {
	Email    string
	Password string
}

type Profile struct {
	Username  string
	Name      string
	Gender    string
	AvatarURL string
}

// Session tracks who is signed in on this client. It starts in
// StateLoading until Restore, SignIn or SignUp settles it.
type Session struct {
	api    *Client
	tokens TokenStore

	mu        sync.Mutex
	current   Snapshot
	listeners map[int]func(Snapshot)
	nextID    int
}

func NewSession(api *Client, tokens TokenStore) *Session {
	return &Session{
		api:       api,
		tokens:    tokens,
		current:   Snapshot{State: StateLoading},
		listeners: make(map[int]func(Snapshot)),
	}
}

// Restore resumes a persisted session. A token the server rejects is
// discarded. Other failures leave the session unauthenticated and are returned.
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.tokens.Load()
	if errors.Is(err, ErrNoToken) {
		s.set(Snapshot{State: StateUnauthenticated})
		return nil
	}
	if err != nil {
		s.set(Snapshot{State: StateUnauthenticated})
		return err
	}

	s.api.SetToken(token)
	user, err := s.api.Me(ctx)
	switch {
	case errors.Is(err, apperrors.ErrUnauthenticated):
		s.api.SetToken("")
		s.set(Snapshot{State: StateUnauthenticated})
		return s.tokens.Clear()
	case err != nil:
		s.set(Snapshot{State: StateUnauthenticated})
		return fmt.Errorf("restoring session: %w", err)
	}

	s.set(Snapshot{State: StateAuthenticated, User: user})
	return nil
}

// SignIn authenticates and persists the token. On failure the previous
// state is kept.
func (s *Session) SignIn(ctx context.Context, creds Credentials) error {
	auth, err := s.api.SignIn(ctx, creds.Email, creds.Password)
	if err != nil {
		return err
	}
	return s.establish(auth)
}

func (s *Session) SignUp(ctx context.Context, creds Credentials, profile Profile) error {
	auth, err := s.api.SignUp(ctx, services.SignUpInput{
		Email:     creds.Email,
		Password:  creds.Password,
		Username:  profile.Username,
		Name:      profile.Name,
		Gender:    profile.Gender,
		AvatarURL: profile.AvatarURL,
	})
	if err != nil {
		return err
	}
	return s.establish(auth)
}

func (s *Session) establish(auth *services.AuthSession) error {
	if err := s.tokens.Save(auth.Token); err != nil {
		return fmt.Errorf("persisting token: %w", err)
	}
	s.api.SetToken(auth.Token)
	s.set(Snapshot{State: StateAuthenticated, User: auth.User})
	return nil
}

// SignOut forgets the token locally. The server keeps no session state.
func (s *Session) SignOut(ctx context.Context) error {
	s.api.SetToken("")
	s.set(Snapshot{State: StateUnauthenticated})
	return s.tokens.Clear()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.State
}

// Current returns the signed in user, or nil.
func (s *Session) Current() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.User
}

// Subscribe registers fn to run after every state change and returns a
// function that removes it.
func (s *Session) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) set(next Snapshot) {
	s.mu.Lock()
	s.current = next
	listeners := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}
