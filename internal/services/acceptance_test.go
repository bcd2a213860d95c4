package services

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

func TestAcceptAnswer_NotifiesAnswerAuthor(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	helper := f.user(t, "helper")
	q := f.question(t, owner, "Why is my effect looping?")
	ans := f.answer(t, helper, q, "Add a dependency array.")

	require.NoError(t, f.svc.Acceptance.AcceptAnswer(f.ctx, owner, ans.ID))

	accepted := f.acceptedAnswers(t, q)
	require.Len(t, accepted, 1)
	assert.Equal(t, ans.ID, accepted[0].ID)

	var kinds []models.NotificationKind
	var message string
	for _, n := range f.notifications(t, helper) {
		kinds = append(kinds, n.Kind)
		if n.Kind == models.NotificationAccepted {
			message = n.Message
			assert.Equal(t, owner.UserID, n.ActorID)
			require.NotNil(t, n.AnswerID)
			assert.Equal(t, ans.ID, *n.AnswerID)
		}
	}
	assert.Equal(t, []models.NotificationKind{models.NotificationAccepted}, kinds)
	assert.Equal(t, `Owner accepted your answer to "Why is my effect looping?"`, message)
}

func TestAcceptAnswer_MostRecentWins(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	helper := f.user(t, "helper")
	q := f.question(t, owner, "Two candidate answers")
	first := f.answer(t, helper, q, "first answer")
	second := f.answer(t, helper, q, "second answer")

	require.NoError(t, f.svc.Acceptance.AcceptAnswer(f.ctx, owner, first.ID))
	require.NoError(t, f.svc.Acceptance.AcceptAnswer(f.ctx, owner, second.ID))

	accepted := f.acceptedAnswers(t, q)
	require.Len(t, accepted, 1)
	assert.Equal(t, second.ID, accepted[0].ID)
}

func TestAcceptAnswer_NonOwnerForbidden(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	helper := f.user(t, "helper")
	q := f.question(t, owner, "Only I may accept")
	ans := f.answer(t, helper, q, "some answer")

	err := f.svc.Acceptance.AcceptAnswer(f.ctx, helper, ans.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Empty(t, f.acceptedAnswers(t, q))
	assert.Empty(t, f.notifications(t, helper))

	admin := f.admin(t, "admin")
	err = f.svc.Acceptance.AcceptAnswer(f.ctx, admin, ans.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestAcceptAnswer_AlreadyAcceptedIsNoop(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	helper := f.user(t, "helper")
	q := f.question(t, owner, "Accepting twice here")
	ans := f.answer(t, helper, q, "the answer")

	require.NoError(t, f.svc.Acceptance.AcceptAnswer(f.ctx, owner, ans.ID))
	require.NoError(t, f.svc.Acceptance.AcceptAnswer(f.ctx, owner, ans.ID))

	assert.Len(t, f.acceptedAnswers(t, q), 1)
	assert.Len(t, f.notifications(t, helper), 1)
}

func TestAcceptAnswer_OwnAnswerDoesNotNotify(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	q := f.question(t, owner, "Answering myself")
	ans := f.answer(t, owner, q, "figured it out")

	require.NoError(t, f.svc.Acceptance.AcceptAnswer(f.ctx, owner, ans.ID))
	assert.Len(t, f.acceptedAnswers(t, q), 1)
	assert.Empty(t, f.notifications(t, owner))
}

func TestAcceptAnswer_Errors(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")

	assert.ErrorIs(t, f.svc.Acceptance.AcceptAnswer(f.ctx, nil, uuid.New()), apperrors.ErrUnauthenticated)
	assert.ErrorIs(t, f.svc.Acceptance.AcceptAnswer(f.ctx, owner, uuid.New()), apperrors.ErrNotFound)
}

func TestAcceptAnswer_ConcurrentAcceptsLeaveOne(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	helper := f.user(t, "helper")
	q := f.question(t, owner, "Many answers at once")

	answers := make([]*models.Answer, 10)
	for i := range answers {
		answers[i] = f.answer(t, helper, q, "candidate")
	}

	var wg sync.WaitGroup
	for _, a := range answers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.svc.Acceptance.AcceptAnswer(f.ctx, owner, a.ID))
		}()
	}
	wg.Wait()

	assert.Len(t, f.acceptedAnswers(t, q), 1)
}

func TestUnacceptAnswer(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	helper := f.user(t, "helper")
	q := f.question(t, owner, "Changing my mind")
	ans := f.answer(t, helper, q, "an answer")

	require.NoError(t, f.svc.Acceptance.AcceptAnswer(f.ctx, owner, ans.ID))
	assert.ErrorIs(t, f.svc.Acceptance.UnacceptAnswer(f.ctx, helper, ans.ID), apperrors.ErrForbidden)

	require.NoError(t, f.svc.Acceptance.UnacceptAnswer(f.ctx, owner, ans.ID))
	assert.Empty(t, f.acceptedAnswers(t, q))

	// idempotent
	require.NoError(t, f.svc.Acceptance.UnacceptAnswer(f.ctx, owner, ans.ID))
}
