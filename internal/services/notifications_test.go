package services

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
)

func TestNotificationFeed(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	helper := f.user(t, "helper")
	q := f.question(t, owner, "Collecting notifications")
	for range 4 {
		f.answer(t, helper, q, "another answer")
	}

	feed := f.svc.Notifications

	count, err := feed.UnreadCount(f.ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)

	page, err := feed.List(f.ctx, owner, false, 1, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.EqualValues(t, 4, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt), "newest first")

	newest := page.Items[0].ID
	assert.ErrorIs(t, feed.MarkRead(f.ctx, helper, newest), apperrors.ErrForbidden)
	assert.ErrorIs(t, feed.MarkRead(f.ctx, owner, uuid.New()), apperrors.ErrNotFound)
	require.NoError(t, feed.MarkRead(f.ctx, owner, newest))
	require.NoError(t, feed.MarkRead(f.ctx, owner, newest))

	unread, err := feed.List(f.ctx, owner, true, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, unread.Total)
	for _, n := range unread.Items {
		assert.NotEqual(t, newest, n.ID)
	}

	changed, err := feed.MarkAllRead(f.ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 3, changed)

	count, err = feed.UnreadCount(f.ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, count)

	changed, err = feed.MarkAllRead(f.ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestNotificationFeed_PageTooLarge(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")

	_, err := f.svc.Notifications.List(f.ctx, owner, false, math.MaxInt/2, 3)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	page, err := f.svc.Notifications.List(f.ctx, owner, false, 1000, 3)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestNotificationFeed_RequiresActor(t *testing.T) {
	f := newFixture(t)
	feed := f.svc.Notifications

	_, err := feed.List(f.ctx, nil, false, 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	_, err = feed.UnreadCount(f.ctx, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	assert.ErrorIs(t, feed.MarkRead(f.ctx, nil, uuid.New()), apperrors.ErrUnauthenticated)
	_, err = feed.MarkAllRead(f.ctx, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}
