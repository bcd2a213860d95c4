// Package services implements the StackIt domain: the vote ledger, answer
// acceptance, the question/answer aggregator, notifications and accounts.
// Every mutating call takes the acting identity explicitly.
package services

import (
	"math"

	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/auth"
	"github.com/emilythestrangee/stackit/backend/internal/store"
)

// Services bundles the domain services over one store.
type Services struct {
	Votes         *VoteLedger
	Acceptance    *AcceptanceTracker
	Aggregator    *Aggregator
	Questions     *QuestionService
	Answers       *AnswerService
	Notifications *NotificationFeed
	Accounts      *Accounts
}

type Options struct {
	Paging Paging
	Tokens *auth.TokenIssuer
	Logger *zap.Logger
}

func New(s store.Store, opts Options) *Services {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	paging := opts.Paging.withDefaults()

	return &Services{
		Votes:         NewVoteLedger(s, logger),
		Acceptance:    NewAcceptanceTracker(s, logger),
		Aggregator:    NewAggregator(s, paging),
		Questions:     NewQuestionService(s, logger),
		Answers:       NewAnswerService(s, logger),
		Notifications: NewNotificationFeed(s, paging),
		Accounts:      NewAccounts(s, opts.Tokens),
	}
}

func requireActor(actor *auth.Identity) error {
	if actor == nil {
		return apperrors.ErrUnauthenticated
	}
	return nil
}

// Page is one 1-indexed page of results.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Paging holds the page size bounds applied to list calls.
type Paging struct {
	DefaultPageSize int
	MaxPageSize     int
}

func (p Paging) withDefaults() Paging {
	if p.DefaultPageSize < 1 {
		p.DefaultPageSize = 20
	}
	if p.MaxPageSize < p.DefaultPageSize {
		p.MaxPageSize = p.DefaultPageSize
	}
	return p
}

// window converts a 1-indexed page request into offset and limit.
// pageSize <= 0 selects the default; larger sizes are capped.
func (p Paging) window(page, pageSize int) (offset, limit int, err error) {
	if page < 1 {
		return 0, 0, apperrors.NewValidationError("page", "must be at least 1")
	}
	switch {
	case pageSize <= 0:
		pageSize = p.DefaultPageSize
	case pageSize > p.MaxPageSize:
		pageSize = p.MaxPageSize
	}
	if page-1 > math.MaxInt32/pageSize {
		return 0, 0, apperrors.NewValidationError("page", "is too large")
	}
	return (page - 1) * pageSize, pageSize, nil
}

func newPage[T any](items []T, page, pageSize int, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}
