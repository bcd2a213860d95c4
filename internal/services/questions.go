package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/auth"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/store"
)

// QuestionInput is the editable part of a question.
type QuestionInput struct {
	Title string   `json:"title" validate:"required,min=10,max=200"`
	Body  string   `json:"body" validate:"required,min=20"`
	Tags  []string `json:"tags" validate:"min=1,max=5,dive,max=35"`
}

func (in *QuestionInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = normalizeBody(in.Body)
	in.Tags = NormalizeTags(in.Tags)
}

type QuestionService struct {
	store  store.Store
	logger *zap.Logger
}

func NewQuestionService(s store.Store, logger *zap.Logger) *QuestionService {
	return &QuestionService{store: s, logger: logger}
}

func (s *QuestionService) CreateQuestion(ctx context.Context, actor *auth.Identity, input QuestionInput) (*models.Question, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	input.normalize()
	if err := validateInput(input); err != nil {
		return nil, err
	}

	q := &models.Question{
		Title:    input.Title,
		Body:     input.Body,
		Tags:     input.Tags,
		AuthorID: actor.UserID,
	}
	if err := s.store.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// UpdateQuestion replaces title, body and tags. Only the author may edit.
func (s *QuestionService) UpdateQuestion(ctx context.Context, actor *auth.Identity, id uuid.UUID, input QuestionInput) (*models.Question, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	input.normalize()
	if err := validateInput(input); err != nil {
		return nil, err
	}

	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.AuthorID != actor.UserID {
		return nil, fmt.Errorf("only the author can edit question %s: %w", id, apperrors.ErrForbidden)
	}

	q.Title = input.Title
	q.Body = input.Body
	q.Tags = input.Tags
	if err := s.store.UpdateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// DeleteQuestion removes the question with its answers and every vote on
// them. The author or an admin may delete.
func (s *QuestionService) DeleteQuestion(ctx context.Context, actor *auth.Identity, id uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	err := s.store.Tx(ctx, func(tx store.Store) error {
		q, err := tx.LockQuestion(ctx, id)
		if err != nil {
			return err
		}
		if !actor.CanModerate(q.AuthorID) {
			return fmt.Errorf("only the author can delete question %s: %w", id, apperrors.ErrForbidden)
		}

		answers, err := tx.ListAnswers(ctx, id)
		if err != nil {
			return err
		}
		answerIDs := make([]uuid.UUID, len(answers))
		for i, a := range answers {
			answerIDs[i] = a.ID
		}

		if err := tx.DeleteVotesForTargets(ctx, models.TargetAnswer, answerIDs); err != nil {
			return err
		}
		if err := tx.DeleteAnswersByQuestion(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteVotesForTargets(ctx, models.TargetQuestion, []uuid.UUID{id}); err != nil {
			return err
		}
		return tx.DeleteQuestion(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Question deleted",
		zap.String("question_id", id.String()),
		zap.String("actor_id", actor.UserID.String()))
	return nil
}
