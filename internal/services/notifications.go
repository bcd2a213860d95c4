package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/auth"
	"github.com/emilythestrangee/stackit/backend/internal/metrics"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/store"
)

// NotificationFeed reads and acknowledges the actor's notifications.
type NotificationFeed struct {
	store  store.Store
	paging Paging
}

func NewNotificationFeed(s store.Store, paging Paging) *NotificationFeed {
	return &NotificationFeed{store: s, paging: paging.withDefaults()}
}

// List returns the actor's notifications, newest first.
func (f *NotificationFeed) List(ctx context.Context, actor *auth.Identity, unreadOnly bool, page, pageSize int) (*Page[models.Notification], error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	offset, limit, err := f.paging.window(page, pageSize)
	if err != nil {
		return nil, err
	}

	items, total, err := f.store.ListNotifications(ctx, actor.UserID, unreadOnly, offset, limit)
	if err != nil {
		return nil, err
	}
	return newPage(items, page, limit, total), nil
}

func (f *NotificationFeed) UnreadCount(ctx context.Context, actor *auth.Identity) (int64, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	return f.store.CountUnread(ctx, actor.UserID)
}

// MarkRead marks one of the actor's notifications read. Marking an
// already read notification is a no-op.
func (f *NotificationFeed) MarkRead(ctx context.Context, actor *auth.Identity, id uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	n, err := f.store.GetNotification(ctx, id)
	if err != nil {
		return err
	}
	if n.RecipientID != actor.UserID {
		return fmt.Errorf("notification %s belongs to another user: %w", id, apperrors.ErrForbidden)
	}
	if n.IsRead {
		return nil
	}
	return f.store.MarkNotificationRead(ctx, id)
}

// MarkAllRead returns how many notifications changed.
func (f *NotificationFeed) MarkAllRead(ctx context.Context, actor *auth.Identity) (int64, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	return f.store.MarkAllNotificationsRead(ctx, actor.UserID)
}

// outbox collects notifications written inside a transaction so they are
// only counted once it commits.
type outbox struct {
	kinds []models.NotificationKind
}

// add appends n unless the actor would be notifying themselves.
func (o *outbox) add(ctx context.Context, tx store.Store, n *models.Notification) error {
	if n.RecipientID == n.ActorID {
		return nil
	}
	if err := tx.CreateNotification(ctx, n); err != nil {
		return err
	}
	o.kinds = append(o.kinds, n.Kind)
	return nil
}

func (o *outbox) committed() {
	for _, kind := range o.kinds {
		metrics.NotificationCreated(string(kind))
	}
}
