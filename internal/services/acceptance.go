package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/auth"
	"github.com/emilythestrangee/stackit/backend/internal/metrics"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/store"
)

// AcceptanceTracker keeps at most one accepted answer per question.
type AcceptanceTracker struct {
	store  store.Store
	logger *zap.Logger
}

func NewAcceptanceTracker(s store.Store, logger *zap.Logger) *AcceptanceTracker {
	return &AcceptanceTracker{store: s, logger: logger}
}

// AcceptAnswer marks the answer accepted and clears any previously accepted
// answer of the same question. Only the question author may accept.
// Accepting the already accepted answer changes nothing.
func (t *AcceptanceTracker) AcceptAnswer(ctx context.Context, actor *auth.Identity, answerID uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	var (
		box      outbox
		accepted bool
	)
	err := t.store.Tx(ctx, func(tx store.Store) error {
		answer, question, err := lockForAcceptance(ctx, tx, actor, answerID)
		if err != nil {
			return err
		}
		if answer.IsAccepted {
			return nil
		}

		if err := tx.ClearAcceptance(ctx, question.ID); err != nil {
			return err
		}
		if err := tx.SetAcceptance(ctx, answer.ID, true); err != nil {
			return err
		}
		accepted = true

		return box.add(ctx, tx, &models.Notification{
			RecipientID: answer.AuthorID,
			ActorID:     actor.UserID,
			Kind:        models.NotificationAccepted,
			Message:     fmt.Sprintf(`%s accepted your answer to "%s"`, actor.DisplayName(), question.Title),
			QuestionID:  &question.ID,
			AnswerID:    &answer.ID,
		})
	})
	if err != nil {
		return err
	}

	if accepted {
		box.committed()
		metrics.AnswerAccepted()
		t.logger.Debug("Answer accepted",
			zap.String("answer_id", answerID.String()),
			zap.String("actor_id", actor.UserID.String()))
	}
	return nil
}

// UnacceptAnswer clears acceptance of the answer. It is a no-op when the
// answer is not accepted.
func (t *AcceptanceTracker) UnacceptAnswer(ctx context.Context, actor *auth.Identity, answerID uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	return t.store.Tx(ctx, func(tx store.Store) error {
		answer, _, err := lockForAcceptance(ctx, tx, actor, answerID)
		if err != nil {
			return err
		}
		if !answer.IsAccepted {
			return nil
		}
		return tx.SetAcceptance(ctx, answer.ID, false)
	})
}

// lockForAcceptance locks the parent question, checks the actor owns it and
// returns the answer as seen under the lock.
func lockForAcceptance(ctx context.Context, tx store.Store, actor *auth.Identity, answerID uuid.UUID) (*models.Answer, *models.Question, error) {
	answer, err := tx.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, nil, err
	}

	question, err := tx.LockQuestion(ctx, answer.QuestionID)
	if err != nil {
		return nil, nil, err
	}
	if question.AuthorID != actor.UserID {
		return nil, nil, fmt.Errorf("only the question author can change the accepted answer: %w", apperrors.ErrForbidden)
	}

	// re-read now that concurrent accepts on this question are serialized
	answer, err = tx.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, nil, err
	}
	return answer, question, nil
}
