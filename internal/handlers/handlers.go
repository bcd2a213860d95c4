package handlers

import (
	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/services"
)

// Handler combines all handler types
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Question     *QuestionHandler
	Answer       *AnswerHandler
	Vote         *VoteHandler
	Notification *NotificationHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(svc *services.Services, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Accounts, logger),
		User:         NewUserHandler(svc.Accounts, logger),
		Question:     NewQuestionHandler(svc.Aggregator, svc.Questions, logger),
		Answer:       NewAnswerHandler(svc.Answers, svc.Acceptance, logger),
		Vote:         NewVoteHandler(svc.Votes, logger),
		Notification: NewNotificationHandler(svc.Notifications, logger),
	}
}
