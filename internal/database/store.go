package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/store"
)

// Store implements store.Store on PostgreSQL through gorm.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// NewStore wraps an existing gorm handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// wrap classifies a gorm error into the apperrors taxonomy.
func wrap(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case apperrors.Classified(err):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w", what, apperrors.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, apperrors.ErrConflict)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%s: %w", what, apperrors.ErrValidation)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", what, err)
	default:
		return fmt.Errorf("%s: %w: %w", what, apperrors.ErrBackendUnavailable, err)
	}
}

// affected turns a zero-row write into ErrNotFound.
func affected(res *gorm.DB, what string) error {
	if res.Error != nil {
		return wrap(res.Error, what)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", what, apperrors.ErrNotFound)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Store) Tx(ctx context.Context, fn func(tx store.Store) error) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
	return wrap(err, "transaction")
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrap(err, "ping")
	}
	return wrap(sqlDB.PingContext(ctx), "ping")
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return wrap(s.conn(ctx).Create(u).Error, "create user")
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, wrap(err, fmt.Sprintf("user %s", id))
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).Where("LOWER(email) = LOWER(?)", email).First(&u).Error; err != nil {
		return nil, wrap(err, fmt.Sprintf("user with email %s", email))
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, wrap(err, "list users")
	}
	return users, nil
}

func (s *Store) FindUsersByUsername(ctx context.Context, usernames []string) ([]models.User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(usernames))
	for i, name := range usernames {
		lowered[i] = strings.ToLower(name)
	}
	var users []models.User
	if err := s.conn(ctx).Where("LOWER(username) IN ?", lowered).Find(&users).Error; err != nil {
		return nil, wrap(err, "find users by username")
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	res := s.conn(ctx).Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"name":       u.Name,
		"gender":     u.Gender,
		"avatar_url": u.AvatarURL,
		"role":       u.Role,
		"updated_at": time.Now().UTC(),
	})
	what := fmt.Sprintf("user %s", u.ID)
	if err := affected(res, what); err != nil {
		return err
	}
	return wrap(s.conn(ctx).First(u, "id = ?", u.ID).Error, what)
}

// Questions

func (s *Store) CreateQuestion(ctx context.Context, q *models.Question) error {
	return wrap(s.conn(ctx).Create(q).Error, "create question")
}

func (s *Store) GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	var q models.Question
	if err := s.conn(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, wrap(err, fmt.Sprintf("question %s", id))
	}
	return &q, nil
}

func (s *Store) LockQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	var q models.Question
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&q, "id = ?", id).Error
	if err != nil {
		return nil, wrap(err, fmt.Sprintf("question %s", id))
	}
	return &q, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, q *models.Question) error {
	res := s.conn(ctx).Model(&models.Question{}).Where("id = ?", q.ID).Updates(map[string]any{
		"title":      q.Title,
		"body":       q.Body,
		"tags":       q.Tags,
		"updated_at": time.Now().UTC(),
	})
	what := fmt.Sprintf("question %s", q.ID)
	if err := affected(res, what); err != nil {
		return err
	}
	return wrap(s.conn(ctx).First(q, "id = ?", q.ID).Error, what)
}

func (s *Store) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	res := s.conn(ctx).Delete(&models.Question{}, "id = ?", id)
	return affected(res, fmt.Sprintf("question %s", id))
}

func (s *Store) ListQuestions(ctx context.Context, filter store.QuestionFilter, offset, limit int) ([]models.Question, int64, error) {
	query := s.conn(ctx).Model(&models.Question{})

	if filter.SearchText != "" {
		pattern := "%" + likeEscaper.Replace(filter.SearchText) + "%"
		query = query.Where("(title ILIKE ? OR body ILIKE ?)", pattern, pattern)
	}
	if len(filter.Tags) > 0 {
		query = query.Where("tags && ?", pq.StringArray(filter.Tags))
	}
	if filter.UnansweredOnly {
		query = query.Where("NOT EXISTS (SELECT 1 FROM answers WHERE answers.question_id = questions.id)")
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrap(err, "count questions")
	}

	questions := []models.Question{}
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&questions).Error
	if err != nil {
		return nil, 0, wrap(err, "list questions")
	}
	return questions, total, nil
}

func (s *Store) TagCounts(ctx context.Context, limit int) ([]store.TagCount, error) {
	tags := []store.TagCount{}
	err := s.conn(ctx).Raw(`
		SELECT tag, COUNT(*) AS count
		FROM questions, unnest(tags) AS tag
		GROUP BY tag
		ORDER BY count DESC, tag ASC
		LIMIT ?`, limit).Scan(&tags).Error
	if err != nil {
		return nil, wrap(err, "tag counts")
	}
	return tags, nil
}

// Answers

func (s *Store) CreateAnswer(ctx context.Context, a *models.Answer) error {
	return wrap(s.conn(ctx).Create(a).Error, "create answer")
}

func (s *Store) GetAnswer(ctx context.Context, id uuid.UUID) (*models.Answer, error) {
	var a models.Answer
	if err := s.conn(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, wrap(err, fmt.Sprintf("answer %s", id))
	}
	return &a, nil
}

func (s *Store) UpdateAnswer(ctx context.Context, a *models.Answer) error {
	res := s.conn(ctx).Model(&models.Answer{}).Where("id = ?", a.ID).Updates(map[string]any{
		"body":       a.Body,
		"updated_at": time.Now().UTC(),
	})
	what := fmt.Sprintf("answer %s", a.ID)
	if err := affected(res, what); err != nil {
		return err
	}
	return wrap(s.conn(ctx).First(a, "id = ?", a.ID).Error, what)
}

func (s *Store) DeleteAnswer(ctx context.Context, id uuid.UUID) error {
	res := s.conn(ctx).Delete(&models.Answer{}, "id = ?", id)
	return affected(res, fmt.Sprintf("answer %s", id))
}

func (s *Store) DeleteAnswersByQuestion(ctx context.Context, questionID uuid.UUID) error {
	err := s.conn(ctx).Where("question_id = ?", questionID).Delete(&models.Answer{}).Error
	return wrap(err, "delete answers")
}

func (s *Store) ListAnswers(ctx context.Context, questionID uuid.UUID) ([]models.Answer, error) {
	answers := []models.Answer{}
	err := s.conn(ctx).
		Where("question_id = ?", questionID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, wrap(err, "list answers")
	}
	return answers, nil
}

func (s *Store) ClearAcceptance(ctx context.Context, questionID uuid.UUID) error {
	err := s.conn(ctx).Model(&models.Answer{}).
		Where("question_id = ? AND is_accepted", questionID).
		Update("is_accepted", false).Error
	return wrap(err, "clear acceptance")
}

func (s *Store) SetAcceptance(ctx context.Context, answerID uuid.UUID, accepted bool) error {
	res := s.conn(ctx).Model(&models.Answer{}).
		Where("id = ?", answerID).
		Update("is_accepted", accepted)
	return affected(res, fmt.Sprintf("answer %s", answerID))
}

func (s *Store) AnswerStats(ctx context.Context, questionIDs []uuid.UUID) (map[uuid.UUID]store.AnswerStats, error) {
	stats := make(map[uuid.UUID]store.AnswerStats, len(questionIDs))
	if len(questionIDs) == 0 {
		return stats, nil
	}

	var rows []store.AnswerStats
	err := s.conn(ctx).Model(&models.Answer{}).
		Select("question_id, COUNT(*) AS answer_count, BOOL_OR(is_accepted) AS has_accepted").
		Where("question_id IN ?", questionIDs).
		Group("question_id").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap(err, "answer stats")
	}
	for _, row := range rows {
		stats[row.QuestionID] = row
	}
	return stats, nil
}

// Votes

func (s *Store) FindVote(ctx context.Context, voterID uuid.UUID, kind models.TargetKind, targetID uuid.UUID) (*models.Vote, error) {
	var v models.Vote
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("voter_id = ? AND target_kind = ? AND target_id = ?", voterID, kind, targetID).
		First(&v).Error
	if err != nil {
		return nil, wrap(err, fmt.Sprintf("vote on %s %s", kind, targetID))
	}
	return &v, nil
}

func (s *Store) CreateVote(ctx context.Context, v *models.Vote) error {
	return wrap(s.conn(ctx).Create(v).Error, fmt.Sprintf("vote on %s %s", v.TargetKind, v.TargetID))
}

func (s *Store) UpdateVote(ctx context.Context, v *models.Vote) error {
	res := s.conn(ctx).Model(&models.Vote{}).Where("id = ?", v.ID).Updates(map[string]any{
		"value":      v.Value,
		"updated_at": time.Now().UTC(),
	})
	return affected(res, fmt.Sprintf("vote %s", v.ID))
}

func (s *Store) DeleteVote(ctx context.Context, id uuid.UUID) error {
	res := s.conn(ctx).Delete(&models.Vote{}, "id = ?", id)
	return affected(res, fmt.Sprintf("vote %s", id))
}

func (s *Store) DeleteVotesForTargets(ctx context.Context, kind models.TargetKind, targetIDs []uuid.UUID) error {
	if len(targetIDs) == 0 {
		return nil
	}
	err := s.conn(ctx).
		Where("target_kind = ? AND target_id IN ?", kind, targetIDs).
		Delete(&models.Vote{}).Error
	return wrap(err, "delete votes")
}

func (s *Store) NetVotes(ctx context.Context, kind models.TargetKind, targetIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	net := make(map[uuid.UUID]int, len(targetIDs))
	if len(targetIDs) == 0 {
		return net, nil
	}

	var rows []struct {
		TargetID uuid.UUID
		Net      int
	}
	err := s.conn(ctx).Model(&models.Vote{}).
		Select("target_id, COALESCE(SUM(value), 0) AS net").
		Where("target_kind = ? AND target_id IN ?", kind, targetIDs).
		Group("target_id").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap(err, "net votes")
	}
	for _, row := range rows {
		net[row.TargetID] = row.Net
	}
	return net, nil
}

// Notifications

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	return wrap(s.conn(ctx).Create(n).Error, "create notification")
}

func (s *Store) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	if err := s.conn(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, wrap(err, fmt.Sprintf("notification %s", id))
	}
	return &n, nil
}

func (s *Store) ListNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, offset, limit int) ([]models.Notification, int64, error) {
	query := s.conn(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("NOT is_read")
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrap(err, "count notifications")
	}

	notifications := []models.Notification{}
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, wrap(err, "list notifications")
	}
	return notifications, total, nil
}

func (s *Store) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND NOT is_read", recipientID).
		Count(&n).Error
	return n, wrap(err, "count unread notifications")
}

func (s *Store) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	res := s.conn(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Update("is_read", true)
	return affected(res, fmt.Sprintf("notification %s", id))
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	res := s.conn(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND NOT is_read", recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return 0, wrap(res.Error, "mark notifications read")
	}
	return res.RowsAffected, nil
}
