package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/stackit/backend/internal/auth"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/store/memstore"
)

type fixture struct {
	ctx   context.Context
	store *memstore.Store
	svc   *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memstore.New())
}

func newFixtureWithStore(t *testing.T, s *memstore.Store) *fixture {
	t.Helper()
	return &fixture{
		ctx:   context.Background(),
		store: s,
		svc: New(s, Options{
			Paging: Paging{DefaultPageSize: 3, MaxPageSize: 5},
			Tokens: auth.NewTokenIssuer("test-secret", time.Hour),
		}),
	}
}

func (f *fixture) user(t *testing.T, username string) *auth.Identity {
	t.Helper()
	u := &models.User{
		Username: username,
		Name:     strings.ToUpper(username[:1]) + username[1:],
		Email:    username + "@example.com",
		Role:     models.RoleUser,
	}
	require.NoError(t, f.store.CreateUser(f.ctx, u))
	return auth.IdentityFor(u)
}

func (f *fixture) admin(t *testing.T, username string) *auth.Identity {
	t.Helper()
	id := f.user(t, username)
	id.Role = models.RoleAdmin
	return id
}

func (f *fixture) question(t *testing.T, author *auth.Identity, title string, tags ...string) *models.Question {
	t.Helper()
	if len(tags) == 0 {
		tags = []string{"general"}
	}
	q, err := f.svc.Questions.CreateQuestion(f.ctx, author, QuestionInput{
		Title: title,
		Body:  "<p>" + title + " with enough body text to pass validation</p>",
		Tags:  tags,
	})
	require.NoError(t, err)
	return q
}

func (f *fixture) answer(t *testing.T, author *auth.Identity, q *models.Question, body string) *models.Answer {
	t.Helper()
	a, err := f.svc.Answers.CreateAnswer(f.ctx, author, q.ID, AnswerInput{Body: body})
	require.NoError(t, err)
	return a
}

func (f *fixture) notifications(t *testing.T, recipient *auth.Identity) []models.Notification {
	t.Helper()
	items, _, err := f.store.ListNotifications(f.ctx, recipient.UserID, false, 0, 100)
	require.NoError(t, err)
	return items
}

func (f *fixture) acceptedAnswers(t *testing.T, q *models.Question) []models.Answer {
	t.Helper()
	answers, err := f.store.ListAnswers(f.ctx, q.ID)
	require.NoError(t, err)

	var accepted []models.Answer
	for _, a := range answers {
		if a.IsAccepted {
			accepted = append(accepted, a)
		}
	}
	return accepted
}

