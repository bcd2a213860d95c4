package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/config"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/server"
	"github.com/emilythestrangee/stackit/backend/internal/services"
	"github.com/emilythestrangee/stackit/backend/internal/store"
	"github.com/emilythestrangee/stackit/backend/internal/store/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestAPI(t *testing.T) string {
	t.Helper()
	cfg := &config.Config{
		Env:         "test",
		StoreDriver: config.DriverMemory,
		Server:      config.ServerConfig{AllowedOrigins: []string{"*"}},
		Auth:        config.AuthConfig{JWTSecret: "client-test-secret", TokenTTL: time.Hour},
		Pagination:  config.PaginationConfig{DefaultPageSize: 20, MaxPageSize: 100},
		RateLimit:   config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}
	ts := httptest.NewServer(server.New(cfg, zap.NewNop(), memstore.New(), nil).RegisterRoutes())
	t.Cleanup(ts.Close)
	return ts.URL
}

func signUp(t *testing.T, baseURL, username string) *Client {
	t.Helper()
	c := New(baseURL, nil)
	auth, err := c.SignUp(context.Background(), services.SignUpInput{
		Email:    username + "@example.com",
		Password: "secret123",
		Username: username,
		Name:     username,
	})
	require.NoError(t, err)
	c.SetToken(auth.Token)
	return c
}

func TestClient_QuestionLifecycle(t *testing.T) {
	ctx := context.Background()
	baseURL := newTestAPI(t)
	owner := signUp(t, baseURL, "owner")
	helper := signUp(t, baseURL, "helper")

	q, err := owner.CreateQuestion(ctx, services.QuestionInput{
		Title: "How do goroutines get scheduled?",
		Body:  "Looking for an overview of the Go scheduler.",
		Tags:  []string{"Go", "runtime"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "runtime"}, []string(q.Tags))

	a, err := helper.CreateAnswer(ctx, q.ID, "Read about the GMP model.")
	require.NoError(t, err)

	res, err := helper.Vote(ctx, models.TargetQuestion, q.ID, models.DirectionUp)
	require.NoError(t, err)
	assert.Equal(t, services.VoteRecorded, res.Outcome)
	assert.Equal(t, 1, res.NetVotes)

	err = helper.AcceptAnswer(ctx, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	require.NoError(t, owner.AcceptAnswer(ctx, a.ID))

	detail, err := owner.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.True(t, detail.HasAcceptedAnswer)
	require.Len(t, detail.Answers, 1)
	assert.True(t, detail.Answers[0].IsAccepted)

	page, err := New(baseURL, nil).ListQuestions(ctx, store.QuestionFilter{Tags: []string{"go"}}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	page, err = New(baseURL, nil).ListQuestions(ctx, store.QuestionFilter{UnansweredOnly: true}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	count, err := owner.UnreadCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	feed, err := helper.Notifications(ctx, true, 1, 10)
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, models.NotificationAccepted, feed.Items[0].Kind)
	require.NoError(t, helper.MarkRead(ctx, feed.Items[0].ID))

	updated, err := owner.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)
}

func TestClient_ValidationErrorCarriesFields(t *testing.T) {
	baseURL := newTestAPI(t)
	c := signUp(t, baseURL, "writer")

	_, err := c.CreateQuestion(context.Background(), services.QuestionInput{Title: "short"})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Fields, "title")
	assert.Contains(t, apiErr.Fields, "tags")
}

func TestSession_SignInPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	baseURL := newTestAPI(t)
	signUp(t, baseURL, "alice")

	tokens := NewKeyringTokenStore(keyring.NewArrayKeyring(nil))
	session := NewSession(New(baseURL, nil), tokens)
	assert.Equal(t, StateLoading, session.State())

	var seen []State
	unsubscribe := session.Subscribe(func(s Snapshot) { seen = append(seen, s.State) })

	require.NoError(t, session.SignIn(ctx, Credentials{Email: "alice@example.com", Password: "secret123"}))
	assert.Equal(t, StateAuthenticated, session.State())
	require.NotNil(t, session.Current())
	assert.Equal(t, "alice", session.Current().Username)

	stored, err := tokens.Load()
	require.NoError(t, err)
	assert.NotEmpty(t, stored)

	// a fresh process picks the token back up
	restored := NewSession(New(baseURL, nil), tokens)
	require.NoError(t, restored.Restore(ctx))
	assert.Equal(t, StateAuthenticated, restored.State())
	assert.Equal(t, "alice", restored.Current().Username)

	require.NoError(t, session.SignOut(ctx))
	assert.Equal(t, StateUnauthenticated, session.State())
	assert.Nil(t, session.Current())
	_, err = tokens.Load()
	assert.ErrorIs(t, err, ErrNoToken)

	unsubscribe()
	require.NoError(t, session.SignIn(ctx, Credentials{Email: "alice@example.com", Password: "secret123"}))
	assert.Equal(t, []State{StateAuthenticated, StateUnauthenticated}, seen)
}

func TestSession_FailedSignInKeepsState(t *testing.T) {
	ctx := context.Background()
	baseURL := newTestAPI(t)
	signUp(t, baseURL, "bob")

	session := NewSession(New(baseURL, nil), &MemoryTokenStore{})
	require.NoError(t, session.Restore(ctx))
	assert.Equal(t, StateUnauthenticated, session.State())

	err := session.SignIn(ctx, Credentials{Email: "bob@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	assert.Equal(t, StateUnauthenticated, session.State())
	assert.Nil(t, session.Current())
}

func TestSession_RestoreDiscardsRejectedToken(t *testing.T) {
	tokens := &MemoryTokenStore{}
	require.NoError(t, tokens.Save("not-a-jwt"))

	session := NewSession(New(newTestAPI(t), nil), tokens)
	require.NoError(t, session.Restore(context.Background()))
	assert.Equal(t, StateUnauthenticated, session.State())

	_, err := tokens.Load()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestSession_SignUpAuthenticates(t *testing.T) {
	session := NewSession(New(newTestAPI(t), nil), &MemoryTokenStore{})

	err := session.SignUp(context.Background(),
		Credentials{Email: "carol@example.com", Password: "secret123"},
		Profile{Username: "carol", Name: "Carol"})
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, session.State())
	assert.Equal(t, "carol", session.Current().Username)

	other := NewSession(New(newTestAPI(t), nil), &MemoryTokenStore{})
	err = other.SignUp(context.Background(),
		Credentials{Email: "bad", Password: "x"},
		Profile{Username: "c"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, StateLoading, other.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "State(9)", State(9).String())
}
