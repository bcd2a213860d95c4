package services

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/store"
)

const defaultTagLimit = 50

// QuestionSummary is a question with its derived counts.
type QuestionSummary struct {
	models.Question
	Author            models.UserSummary `json:"author"`
	NetVotes          int                `json:"net_votes"`
	AnswerCount       int                `json:"answer_count"`
	HasAcceptedAnswer bool               `json:"has_accepted_answer"`
}

type AnswerView struct {
	models.Answer
	Author   models.UserSummary `json:"author"`
	NetVotes int                `json:"net_votes"`
}

// QuestionDetail is a question with its answers in display order.
type QuestionDetail struct {
	QuestionSummary
	Answers []AnswerView `json:"answers"`
}

// Aggregator derives vote counts, answer counts and acceptance for display.
// Nothing is cached; every call reads the store.
type Aggregator struct {
	store  store.Store
	paging Paging
}

func NewAggregator(s store.Store, paging Paging) *Aggregator {
	return &Aggregator{store: s, paging: paging.withDefaults()}
}

// ListQuestions returns one page of questions matching every set criterion
// of filter, newest first.
func (a *Aggregator) ListQuestions(ctx context.Context, filter store.QuestionFilter, page, pageSize int) (*Page[QuestionSummary], error) {
	offset, limit, err := a.paging.window(page, pageSize)
	if err != nil {
		return nil, err
	}

	filter.SearchText = strings.TrimSpace(filter.SearchText)
	filter.Tags = NormalizeTags(filter.Tags)

	questions, total, err := a.store.ListQuestions(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}

	summaries, err := a.summarize(ctx, questions)
	if err != nil {
		return nil, err
	}
	return newPage(summaries, page, limit, total), nil
}

// GetQuestionDetail returns the question and its answers ordered accepted
// first, then by net votes descending, then oldest first.
func (a *Aggregator) GetQuestionDetail(ctx context.Context, questionID uuid.UUID) (*QuestionDetail, error) {
	question, err := a.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	summaries, err := a.summarize(ctx, []models.Question{*question})
	if err != nil {
		return nil, err
	}

	answers, err := a.store.ListAnswers(ctx, questionID)
	if err != nil {
		return nil, err
	}

	answerIDs := make([]uuid.UUID, len(answers))
	authorIDs := make([]uuid.UUID, len(answers))
	for i, ans := range answers {
		answerIDs[i] = ans.ID
		authorIDs[i] = ans.AuthorID
	}

	net, err := a.store.NetVotes(ctx, models.TargetAnswer, answerIDs)
	if err != nil {
		return nil, err
	}
	authors, err := a.authors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]AnswerView, len(answers))
	for i, ans := range answers {
		views[i] = AnswerView{
			Answer:   ans,
			Author:   authorSummary(authors, ans.AuthorID),
			NetVotes: net[ans.ID],
		}
	}
	slices.SortStableFunc(views, compareAnswers)

	return &QuestionDetail{
		QuestionSummary: summaries[0],
		Answers:         views,
	}, nil
}

func compareAnswers(x, y AnswerView) int {
	if x.IsAccepted != y.IsAccepted {
		if x.IsAccepted {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(y.NetVotes, x.NetVotes); c != 0 {
		return c
	}
	if c := x.CreatedAt.Compare(y.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(x.ID.String(), y.ID.String())
}

// ListTags returns tags with their question counts, most used first.
func (a *Aggregator) ListTags(ctx context.Context, limit int) ([]store.TagCount, error) {
	if limit <= 0 || limit > defaultTagLimit {
		limit = defaultTagLimit
	}
	return a.store.TagCounts(ctx, limit)
}

// summarize attaches derived counts with one grouped query per aggregate.
func (a *Aggregator) summarize(ctx context.Context, questions []models.Question) ([]QuestionSummary, error) {
	ids := make([]uuid.UUID, len(questions))
	authorIDs := make([]uuid.UUID, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
		authorIDs[i] = q.AuthorID
	}

	stats, err := a.store.AnswerStats(ctx, ids)
	if err != nil {
		return nil, err
	}
	net, err := a.store.NetVotes(ctx, models.TargetQuestion, ids)
	if err != nil {
		return nil, err
	}
	authors, err := a.authors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]QuestionSummary, len(questions))
	for i, q := range questions {
		summaries[i] = QuestionSummary{
			Question:          q,
			Author:            authorSummary(authors, q.AuthorID),
			NetVotes:          net[q.ID],
			AnswerCount:       stats[q.ID].AnswerCount,
			HasAcceptedAnswer: stats[q.ID].HasAccepted,
		}
	}
	return summaries, nil
}

func (a *Aggregator) authors(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	slices.SortFunc(ids, func(x, y uuid.UUID) int { return strings.Compare(x.String(), y.String()) })
	ids = slices.Compact(ids)

	users, err := a.store.ListUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

func authorSummary(authors map[uuid.UUID]models.User, id uuid.UUID) models.UserSummary {
	if u, ok := authors[id]; ok {
		return u.Summary()
	}
	return models.UserSummary{ID: id}
}
