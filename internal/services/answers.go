package services

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/auth"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/store"
)

// mentionPattern matches @username not preceded by a word character,
// so email addresses in the body are not mentions. The run of name
// characters is matched in full and length-checked afterwards, so a prefix
// of a longer name is never a mention.
var mentionPattern = regexp.MustCompile(`(?:^|[^a-zA-Z0-9_@])@([a-zA-Z0-9_]+)`)

type AnswerInput struct {
	Body string `json:"body" validate:"required"`
}

type AnswerService struct {
	store  store.Store
	logger *zap.Logger
}

func NewAnswerService(s store.Store, logger *zap.Logger) *AnswerService {
	return &AnswerService{store: s, logger: logger}
}

// CreateAnswer posts an answer and, in the same transaction, notifies the
// question author and any users mentioned in the body.
func (s *AnswerService) CreateAnswer(ctx context.Context, actor *auth.Identity, questionID uuid.UUID, input AnswerInput) (*models.Answer, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	input.Body = normalizeBody(input.Body)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var (
		box    outbox
		answer *models.Answer
	)
	err := s.store.Tx(ctx, func(tx store.Store) error {
		question, err := tx.GetQuestion(ctx, questionID)
		if err != nil {
			return err
		}

		answer = &models.Answer{
			QuestionID: question.ID,
			AuthorID:   actor.UserID,
			Body:       input.Body,
		}
		if err := tx.CreateAnswer(ctx, answer); err != nil {
			return err
		}

		err = box.add(ctx, tx, &models.Notification{
			RecipientID: question.AuthorID,
			ActorID:     actor.UserID,
			Kind:        models.NotificationAnswer,
			Message:     fmt.Sprintf(`%s answered your question "%s"`, actor.DisplayName(), question.Title),
			QuestionID:  &question.ID,
			AnswerID:    &answer.ID,
		})
		if err != nil {
			return err
		}

		return s.notifyMentions(ctx, tx, &box, actor, question, answer)
	})
	if err != nil {
		return nil, err
	}

	box.committed()
	return answer, nil
}

func (s *AnswerService) notifyMentions(ctx context.Context, tx store.Store, box *outbox, actor *auth.Identity, question *models.Question, answer *models.Answer) error {
	usernames := mentionedUsernames(answer.Body)
	if len(usernames) == 0 {
		return nil
	}

	users, err := tx.FindUsersByUsername(ctx, usernames)
	if err != nil {
		return err
	}

	notified := map[uuid.UUID]bool{
		actor.UserID:      true,
		question.AuthorID: true,
	}
	for _, u := range users {
		if notified[u.ID] {
			continue
		}
		notified[u.ID] = true

		err := box.add(ctx, tx, &models.Notification{
			RecipientID: u.ID,
			ActorID:     actor.UserID,
			Kind:        models.NotificationMention,
			Message:     fmt.Sprintf(`%s mentioned you in an answer to "%s"`, actor.DisplayName(), question.Title),
			QuestionID:  &question.ID,
			AnswerID:    &answer.ID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func mentionedUsernames(body string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range mentionPattern.FindAllStringSubmatch(body, -1) {
		if len(m[1]) < 3 || len(m[1]) > 30 {
			continue
		}
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// UpdateAnswer replaces the body. Only the author may edit.
func (s *AnswerService) UpdateAnswer(ctx context.Context, actor *auth.Identity, id uuid.UUID, input AnswerInput) (*models.Answer, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	input.Body = normalizeBody(input.Body)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	answer, err := s.store.GetAnswer(ctx, id)
	if err != nil {
		return nil, err
	}
	if answer.AuthorID != actor.UserID {
		return nil, fmt.Errorf("only the author can edit answer %s: %w", id, apperrors.ErrForbidden)
	}

	answer.Body = input.Body
	if err := s.store.UpdateAnswer(ctx, answer); err != nil {
		return nil, err
	}
	return answer, nil
}

// DeleteAnswer removes the answer and its votes. The author or an admin may delete.
func (s *AnswerService) DeleteAnswer(ctx context.Context, actor *auth.Identity, id uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	return s.store.Tx(ctx, func(tx store.Store) error {
		answer, err := tx.GetAnswer(ctx, id)
		if err != nil {
			return err
		}
		if !actor.CanModerate(answer.AuthorID) {
			return fmt.Errorf("only the author can delete answer %s: %w", id, apperrors.ErrForbidden)
		}

		if err := tx.DeleteVotesForTargets(ctx, models.TargetAnswer, []uuid.UUID{id}); err != nil {
			return err
		}
		return tx.DeleteAnswer(ctx, id)
	})
}
