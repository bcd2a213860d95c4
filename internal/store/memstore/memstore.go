// Package memstore is an in-process store.Store. It backs the "memory" driver for
// local development and the service and handler tests. Transactions are
// serialized on a single mutex and roll back by restoring a snapshot.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/store"
)

type state struct {
	users         map[uuid.UUID]models.User
	questions     map[uuid.UUID]models.Question
	answers       map[uuid.UUID]models.Answer
	votes         map[uuid.UUID]models.Vote
	notifications map[uuid.UUID]models.Notification
	last          time.Time
}

func newState() *state {
	return &state{
		users:         make(map[uuid.UUID]models.User),
		questions:     make(map[uuid.UUID]models.Question),
		answers:       make(map[uuid.UUID]models.Answer),
		votes:         make(map[uuid.UUID]models.Vote),
		notifications: make(map[uuid.UUID]models.Notification),
	}
}

func (st *state) clone() *state {
	c := &state{
		users:         make(map[uuid.UUID]models.User, len(st.users)),
		questions:     make(map[uuid.UUID]models.Question, len(st.questions)),
		answers:       make(map[uuid.UUID]models.Answer, len(st.answers)),
		votes:         make(map[uuid.UUID]models.Vote, len(st.votes)),
		notifications: make(map[uuid.UUID]models.Notification, len(st.notifications)),
		last:          st.last,
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.questions {
		v.Tags = slices.Clone(v.Tags)
		c.questions[k] = v
	}
	for k, v := range st.answers {
		c.answers[k] = v
	}
	for k, v := range st.votes {
		c.votes[k] = v
	}
	for k, v := range st.notifications {
		c.notifications[k] = v
	}
	return c
}

type core struct {
	mu sync.Mutex
	st *state
}

// Store implements store.Store in memory.
type Store struct {
	c    *core
	inTx bool
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{c: &core{st: newState()}}
}

// lock takes the store mutex unless the caller already holds it through Tx.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.c.mu.Lock()
	return s.c.mu.Unlock
}

// now returns strictly increasing timestamps so ordering by creation time is total.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.c.st.last) {
		t = s.c.st.last.Add(time.Microsecond)
	}
	s.c.st.last = t
	return t
}

func (s *Store) Tx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	snapshot := s.c.st.clone()
	if err := fn(&Store{c: s.c, inTx: true}); err != nil {
		s.c.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func notFound(what string, id uuid.UUID) error {
	return fmt.Errorf("%s %s: %w", what, id, apperrors.ErrNotFound)
}

func window[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	defer s.lock()()

	for _, existing := range s.c.st.users {
		if strings.EqualFold(existing.Email, u.Email) || strings.EqualFold(existing.Username, u.Username) {
			return fmt.Errorf("user %s: %w", u.Username, apperrors.ErrConflict)
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	s.c.st.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	defer s.lock()()

	u, ok := s.c.st.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer s.lock()()

	for _, u := range s.c.st.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, apperrors.ErrNotFound)
}

func (s *Store) ListUsers(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	defer s.lock()()

	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.c.st.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (s *Store) FindUsersByUsername(ctx context.Context, usernames []string) ([]models.User, error) {
	defer s.lock()()

	var users []models.User
	for _, u := range s.c.st.users {
		for _, name := range usernames {
			if strings.EqualFold(u.Username, name) {
				users = append(users, u)
				break
			}
		}
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	defer s.lock()()

	existing, ok := s.c.st.users[u.ID]
	if !ok {
		return notFound("user", u.ID)
	}
	existing.Name = u.Name
	existing.Gender = u.Gender
	existing.AvatarURL = u.AvatarURL
	existing.Role = u.Role
	existing.UpdatedAt = s.now()
	s.c.st.users[u.ID] = existing
	*u = existing
	return nil
}

// Questions

func (s *Store) CreateQuestion(ctx context.Context, q *models.Question) error {
	defer s.lock()()

	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	q.CreatedAt = s.now()
	q.UpdatedAt = q.CreatedAt
	stored := *q
	stored.Tags = slices.Clone(q.Tags)
	s.c.st.questions[q.ID] = stored
	return nil
}

func (s *Store) GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	defer s.lock()()

	q, ok := s.c.st.questions[id]
	if !ok {
		return nil, notFound("question", id)
	}
	q.Tags = slices.Clone(q.Tags)
	return &q, nil
}

// LockQuestion is GetQuestion: the store mutex already excludes other transactions.
func (s *Store) LockQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	return s.GetQuestion(ctx, id)
}

func (s *Store) UpdateQuestion(ctx context.Context, q *models.Question) error {
	defer s.lock()()

	existing, ok := s.c.st.questions[q.ID]
	if !ok {
		return notFound("question", q.ID)
	}
	existing.Title = q.Title
	existing.Body = q.Body
	existing.Tags = slices.Clone(q.Tags)
	existing.UpdatedAt = s.now()
	s.c.st.questions[q.ID] = existing
	*q = existing
	q.Tags = slices.Clone(existing.Tags)
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()

	if _, ok := s.c.st.questions[id]; !ok {
		return notFound("question", id)
	}
	delete(s.c.st.questions, id)
	return nil
}

func (s *Store) hasAnswers(questionID uuid.UUID) bool {
	for _, a := range s.c.st.answers {
		if a.QuestionID == questionID {
			return true
		}
	}
	return false
}

func matchesQuestion(q models.Question, filter store.QuestionFilter) bool {
	if filter.SearchText != "" {
		needle := strings.ToLower(filter.SearchText)
		if !strings.Contains(strings.ToLower(q.Title), needle) &&
			!strings.Contains(strings.ToLower(q.Body), needle) {
			return false
		}
	}
	if len(filter.Tags) > 0 {
		overlap := false
		for _, tag := range filter.Tags {
			if slices.Contains(q.Tags, tag) {
				overlap = true
				break
			}
		}
		if !overlap {
			return false
		}
	}
	return true
}

func (s *Store) ListQuestions(ctx context.Context, filter store.QuestionFilter, offset, limit int) ([]models.Question, int64, error) {
	defer s.lock()()

	var matched []models.Question
	for _, q := range s.c.st.questions {
		if !matchesQuestion(q, filter) {
			continue
		}
		if filter.UnansweredOnly && s.hasAnswers(q.ID) {
			continue
		}
		q.Tags = slices.Clone(q.Tags)
		matched = append(matched, q)
	}

	slices.SortFunc(matched, func(a, b models.Question) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID.String(), a.ID.String())
	})

	return window(matched, offset, limit), int64(len(matched)), nil
}

func (s *Store) TagCounts(ctx context.Context, limit int) ([]store.TagCount, error) {
	defer s.lock()()

	counts := make(map[string]int)
	for _, q := range s.c.st.questions {
		for _, tag := range q.Tags {
			counts[tag]++
		}
	}

	tags := make([]store.TagCount, 0, len(counts))
	for tag, n := range counts {
		tags = append(tags, store.TagCount{Tag: tag, Count: n})
	}
	slices.SortFunc(tags, func(a, b store.TagCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Tag, b.Tag)
	})
	return window(tags, 0, limit), nil
}

// Answers

func (s *Store) CreateAnswer(ctx context.Context, a *models.Answer) error {
	defer s.lock()()

	if _, ok := s.c.st.questions[a.QuestionID]; !ok {
		return notFound("question", a.QuestionID)
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	s.c.st.answers[a.ID] = *a
	return nil
}

func (s *Store) GetAnswer(ctx context.Context, id uuid.UUID) (*models.Answer, error) {
	defer s.lock()()

	a, ok := s.c.st.answers[id]
	if !ok {
		return nil, notFound("answer", id)
	}
	return &a, nil
}

func (s *Store) UpdateAnswer(ctx context.Context, a *models.Answer) error {
	defer s.lock()()

	existing, ok := s.c.st.answers[a.ID]
	if !ok {
		return notFound("answer", a.ID)
	}
	existing.Body = a.Body
	existing.UpdatedAt = s.now()
	s.c.st.answers[a.ID] = existing
	*a = existing
	return nil
}

func (s *Store) DeleteAnswer(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()

	if _, ok := s.c.st.answers[id]; !ok {
		return notFound("answer", id)
	}
	delete(s.c.st.answers, id)
	return nil
}

func (s *Store) DeleteAnswersByQuestion(ctx context.Context, questionID uuid.UUID) error {
	defer s.lock()()

	for id, a := range s.c.st.answers {
		if a.QuestionID == questionID {
			delete(s.c.st.answers, id)
		}
	}
	return nil
}

func (s *Store) ListAnswers(ctx context.Context, questionID uuid.UUID) ([]models.Answer, error) {
	defer s.lock()()

	answers := []models.Answer{}
	for _, a := range s.c.st.answers {
		if a.QuestionID == questionID {
			answers = append(answers, a)
		}
	}
	slices.SortFunc(answers, func(a, b models.Answer) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return answers, nil
}

func (s *Store) ClearAcceptance(ctx context.Context, questionID uuid.UUID) error {
	defer s.lock()()

	for id, a := range s.c.st.answers {
		if a.QuestionID == questionID && a.IsAccepted {
			a.IsAccepted = false
			s.c.st.answers[id] = a
		}
	}
	return nil
}

func (s *Store) SetAcceptance(ctx context.Context, answerID uuid.UUID, accepted bool) error {
	defer s.lock()()

	a, ok := s.c.st.answers[answerID]
	if !ok {
		return notFound("answer", answerID)
	}
	if accepted {
		for id, other := range s.c.st.answers {
			if id != answerID && other.QuestionID == a.QuestionID && other.IsAccepted {
				return fmt.Errorf("question %s already has an accepted answer: %w", a.QuestionID, apperrors.ErrConflict)
			}
		}
	}
	a.IsAccepted = accepted
	s.c.st.answers[answerID] = a
	return nil
}

func (s *Store) AnswerStats(ctx context.Context, questionIDs []uuid.UUID) (map[uuid.UUID]store.AnswerStats, error) {
	defer s.lock()()

	wanted := make(map[uuid.UUID]bool, len(questionIDs))
	for _, id := range questionIDs {
		wanted[id] = true
	}

	stats := make(map[uuid.UUID]store.AnswerStats)
	for _, a := range s.c.st.answers {
		if !wanted[a.QuestionID] {
			continue
		}
		st := stats[a.QuestionID]
		st.QuestionID = a.QuestionID
		st.AnswerCount++
		st.HasAccepted = st.HasAccepted || a.IsAccepted
		stats[a.QuestionID] = st
	}
	return stats, nil
}

// Votes

func (s *Store) FindVote(ctx context.Context, voterID uuid.UUID, kind models.TargetKind, targetID uuid.UUID) (*models.Vote, error) {
	defer s.lock()()

	for _, v := range s.c.st.votes {
		if v.VoterID == voterID && v.TargetKind == kind && v.TargetID == targetID {
			return &v, nil
		}
	}
	return nil, fmt.Errorf("vote on %s %s: %w", kind, targetID, apperrors.ErrNotFound)
}

func (s *Store) CreateVote(ctx context.Context, v *models.Vote) error {
	defer s.lock()()

	for _, existing := range s.c.st.votes {
		if existing.VoterID == v.VoterID && existing.TargetKind == v.TargetKind && existing.TargetID == v.TargetID {
			return fmt.Errorf("vote on %s %s: %w", v.TargetKind, v.TargetID, apperrors.ErrConflict)
		}
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = s.now()
	v.UpdatedAt = v.CreatedAt
	s.c.st.votes[v.ID] = *v
	return nil
}

func (s *Store) UpdateVote(ctx context.Context, v *models.Vote) error {
	defer s.lock()()

	existing, ok := s.c.st.votes[v.ID]
	if !ok {
		return notFound("vote", v.ID)
	}
	existing.Value = v.Value
	existing.UpdatedAt = s.now()
	s.c.st.votes[v.ID] = existing
	*v = existing
	return nil
}

func (s *Store) DeleteVote(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()

	if _, ok := s.c.st.votes[id]; !ok {
		return notFound("vote", id)
	}
	delete(s.c.st.votes, id)
	return nil
}

func (s *Store) DeleteVotesForTargets(ctx context.Context, kind models.TargetKind, targetIDs []uuid.UUID) error {
	defer s.lock()()

	for id, v := range s.c.st.votes {
		if v.TargetKind == kind && slices.Contains(targetIDs, v.TargetID) {
			delete(s.c.st.votes, id)
		}
	}
	return nil
}

func (s *Store) NetVotes(ctx context.Context, kind models.TargetKind, targetIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	defer s.lock()()

	net := make(map[uuid.UUID]int)
	for _, v := range s.c.st.votes {
		if v.TargetKind == kind && slices.Contains(targetIDs, v.TargetID) {
			net[v.TargetID] += v.Value
		}
	}
	return net, nil
}

// Notifications

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	defer s.lock()()

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = s.now()
	s.c.st.notifications[n.ID] = *n
	return nil
}

func (s *Store) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	defer s.lock()()

	n, ok := s.c.st.notifications[id]
	if !ok {
		return nil, notFound("notification", id)
	}
	return &n, nil
}

func (s *Store) ListNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, offset, limit int) ([]models.Notification, int64, error) {
	defer s.lock()()

	var matched []models.Notification
	for _, n := range s.c.st.notifications {
		if n.RecipientID != recipientID || (unreadOnly && n.IsRead) {
			continue
		}
		matched = append(matched, n)
	}
	slices.SortFunc(matched, func(a, b models.Notification) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID.String(), a.ID.String())
	})
	return window(matched, offset, limit), int64(len(matched)), nil
}

func (s *Store) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	defer s.lock()()

	var n int64
	for _, notification := range s.c.st.notifications {
		if notification.RecipientID == recipientID && !notification.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()

	n, ok := s.c.st.notifications[id]
	if !ok {
		return notFound("notification", id)
	}
	n.IsRead = true
	s.c.st.notifications[id] = n
	return nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	defer s.lock()()

	var changed int64
	for id, n := range s.c.st.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			s.c.st.notifications[id] = n
			changed++
		}
	}
	return changed, nil
}
