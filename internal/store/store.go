// Package store defines the persistence boundary the services are written against.
// Implementations translate their native failures into apperrors sentinels:
// missing rows become ErrNotFound, unique violations ErrConflict, and
// infrastructure failures ErrBackendUnavailable.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/emilythestrangee/stackit/backend/internal/models"
)

// QuestionFilter narrows ListQuestions. All set criteria must hold.
type QuestionFilter struct {
	// SearchText matches title or body, case-insensitive substring.
	SearchText string
	// Tags matches questions sharing at least one tag.
	Tags []string
	// UnansweredOnly drops questions with any answer.
	UnansweredOnly bool
}

// AnswerStats is the per-question answer aggregate.
type AnswerStats struct {
	QuestionID  uuid.UUID
	AnswerCount int
	HasAccepted bool
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// ListUsers returns the users that exist among ids, in no particular order.
	ListUsers(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	// FindUsersByUsername matches usernames case-insensitively.
	FindUsersByUsername(ctx context.Context, usernames []string) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
}

type QuestionStore interface {
	CreateQuestion(ctx context.Context, q *models.Question) error
	GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error)
	// LockQuestion loads the question and holds a row lock until the
	// surrounding transaction ends.
	LockQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error)
	UpdateQuestion(ctx context.Context, q *models.Question) error
	DeleteQuestion(ctx context.Context, id uuid.UUID) error
	// ListQuestions returns one page, newest first, and the total match count.
	ListQuestions(ctx context.Context, filter QuestionFilter, offset, limit int) ([]models.Question, int64, error)
	TagCounts(ctx context.Context, limit int) ([]TagCount, error)
}

type AnswerStore interface {
	CreateAnswer(ctx context.Context, a *models.Answer) error
	GetAnswer(ctx context.Context, id uuid.UUID) (*models.Answer, error)
	UpdateAnswer(ctx context.Context, a *models.Answer) error
	DeleteAnswer(ctx context.Context, id uuid.UUID) error
	DeleteAnswersByQuestion(ctx context.Context, questionID uuid.UUID) error
	// ListAnswers returns the answers of a question, oldest first.
	ListAnswers(ctx context.Context, questionID uuid.UUID) ([]models.Answer, error)
	ClearAcceptance(ctx context.Context, questionID uuid.UUID) error
	SetAcceptance(ctx context.Context, answerID uuid.UUID, accepted bool) error
	AnswerStats(ctx context.Context, questionIDs []uuid.UUID) (map[uuid.UUID]AnswerStats, error)
}

type VoteStore interface {
	// FindVote returns the voter's vote on the target, locking it inside a transaction.
	FindVote(ctx context.Context, voterID uuid.UUID, kind models.TargetKind, targetID uuid.UUID) (*models.Vote, error)
	CreateVote(ctx context.Context, v *models.Vote) error
	UpdateVote(ctx context.Context, v *models.Vote) error
	DeleteVote(ctx context.Context, id uuid.UUID) error
	DeleteVotesForTargets(ctx context.Context, kind models.TargetKind, targetIDs []uuid.UUID) error
	// NetVotes sums vote values per target. Targets without votes are absent.
	NetVotes(ctx context.Context, kind models.TargetKind, targetIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	// ListNotifications returns one page for the recipient, newest first, and the total.
	ListNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, offset, limit int) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

// Store is the full persistence boundary.
type Store interface {
	UserStore
	QuestionStore
	AnswerStore
	VoteStore
	NotificationStore

	// Tx runs fn atomically. Writes made through tx are discarded when fn
	// returns an error. Calling Tx on a transactional store reuses it.
	Tx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
