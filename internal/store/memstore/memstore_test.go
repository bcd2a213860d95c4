package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/store"
)

func TestTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()

	u := &models.User{Username: "alice", Email: "alice@example.com", Role: models.RoleUser}
	require.NoError(t, s.CreateUser(ctx, u))

	boom := errors.New("boom")
	err := s.Tx(ctx, func(tx store.Store) error {
		q := &models.Question{Title: "rolled back", AuthorID: u.ID, Tags: []string{"go"}}
		require.NoError(t, tx.CreateQuestion(ctx, q))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, total, err := s.ListQuestions(ctx, store.QuestionFilter{}, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateUser_Conflict(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreateUser(ctx, &models.User{Username: "alice", Email: "alice@example.com"}))
	err := s.CreateUser(ctx, &models.User{Username: "ALICE", Email: "other@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCreateVote_UniquePerVoterAndTarget(t *testing.T) {
	ctx := context.Background()
	s := New()
	voter, target := uuid.New(), uuid.New()

	require.NoError(t, s.CreateVote(ctx, &models.Vote{VoterID: voter, TargetKind: models.TargetAnswer, TargetID: target, Value: 1}))
	err := s.CreateVote(ctx, &models.Vote{VoterID: voter, TargetKind: models.TargetAnswer, TargetID: target, Value: -1})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// same target id under the other kind is a different target
	require.NoError(t, s.CreateVote(ctx, &models.Vote{VoterID: voter, TargetKind: models.TargetQuestion, TargetID: target, Value: -1}))

	net, err := s.NetVotes(ctx, models.TargetAnswer, []uuid.UUID{target})
	require.NoError(t, err)
	assert.Equal(t, 1, net[target])
}

func TestSetAcceptance_SecondAcceptedAnswerConflicts(t *testing.T) {
	ctx := context.Background()
	s := New()

	q := &models.Question{Title: "q", AuthorID: uuid.New(), Tags: []string{"go"}}
	require.NoError(t, s.CreateQuestion(ctx, q))
	a1 := &models.Answer{QuestionID: q.ID, AuthorID: uuid.New(), Body: "one"}
	a2 := &models.Answer{QuestionID: q.ID, AuthorID: uuid.New(), Body: "two"}
	require.NoError(t, s.CreateAnswer(ctx, a1))
	require.NoError(t, s.CreateAnswer(ctx, a2))

	require.NoError(t, s.SetAcceptance(ctx, a1.ID, true))
	assert.ErrorIs(t, s.SetAcceptance(ctx, a2.ID, true), apperrors.ErrConflict)

	stats, err := s.AnswerStats(ctx, []uuid.UUID{q.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, stats[q.ID].AnswerCount)
	assert.True(t, stats[q.ID].HasAccepted)
}

func TestListQuestions_NewestFirstAndPaged(t *testing.T) {
	ctx := context.Background()
	s := New()
	author := uuid.New()

	var ids []uuid.UUID
	for _, title := range []string{"first", "second", "third"} {
		q := &models.Question{Title: title, AuthorID: author, Tags: []string{"go"}}
		require.NoError(t, s.CreateQuestion(ctx, q))
		ids = append(ids, q.ID)
	}

	page, total, err := s.ListQuestions(ctx, store.QuestionFilter{}, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)

	page, _, err = s.ListQuestions(ctx, store.QuestionFilter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[0], page[0].ID)

	page, _, err = s.ListQuestions(ctx, store.QuestionFilter{}, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, page)

	page, _, err = s.ListQuestions(ctx, store.QuestionFilter{}, -4, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
}
