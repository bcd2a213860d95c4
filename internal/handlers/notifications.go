package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/middleware"
	"github.com/emilythestrangee/stackit/backend/internal/services"
)

type NotificationHandler struct {
	feed   *services.NotificationFeed
	logger *zap.Logger
}

func NewNotificationHandler(feed *services.NotificationFeed, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{feed: feed, logger: logger}
}

// ListNotifications returns the caller's notifications, newest first.
// Query: unread, page, page_size.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	page, pageSize, ok := pageParams(c)
	if !ok {
		return
	}
	unreadOnly, ok := boolQuery(c, "unread")
	if !ok {
		return
	}

	result, err := h.feed.List(c.Request.Context(), middleware.CurrentIdentity(c), unreadOnly, page, pageSize)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.feed.UnreadCount(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.feed.MarkRead(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "is_read": true})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	changed, err := h.feed.MarkAllRead(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": changed})
}
