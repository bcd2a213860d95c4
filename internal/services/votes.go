package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/auth"
	"github.com/emilythestrangee/stackit/backend/internal/metrics"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/store"
)

type VoteOutcome string

const (
	VoteRecorded  VoteOutcome = "recorded"
	VoteRetracted VoteOutcome = "retracted"
	VoteChanged   VoteOutcome = "changed"
)

// VoteResult is the authoritative state after a toggle.
// Direction is nil when the voter no longer has a vote on the target.
type VoteResult struct {
	TargetKind models.TargetKind `json:"target_kind"`
	TargetID   uuid.UUID         `json:"target_id"`
	Outcome    VoteOutcome       `json:"outcome"`
	Direction  *models.Direction `json:"direction"`
	NetVotes   int               `json:"net_votes"`
}

// VoteLedger records at most one vote per voter and target.
type VoteLedger struct {
	store  store.Store
	logger *zap.Logger
}

func NewVoteLedger(s store.Store, logger *zap.Logger) *VoteLedger {
	return &VoteLedger{store: s, logger: logger}
}

// CastVote toggles the actor's vote on a target: no vote records one,
// the same direction retracts it, the other direction flips it.
func (l *VoteLedger) CastVote(ctx context.Context, actor *auth.Identity, kind models.TargetKind, targetID uuid.UUID, direction models.Direction) (*VoteResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, apperrors.NewValidationError("target_kind", "must be question or answer")
	}
	if !direction.Valid() {
		return nil, apperrors.NewValidationError("direction", "must be up or down")
	}

	var result *VoteResult
	toggle := func(tx store.Store) error {
		r, err := l.toggle(ctx, tx, actor.UserID, kind, targetID, direction)
		result = r
		return err
	}

	err := l.store.Tx(ctx, toggle)
	if errors.Is(err, apperrors.ErrConflict) {
		// a concurrent first vote by the same voter won the insert
		l.logger.Debug("Vote insert conflicted, retrying",
			zap.String("voter_id", actor.UserID.String()),
			zap.String("target_id", targetID.String()))
		err = l.store.Tx(ctx, toggle)
	}
	if err != nil {
		return nil, err
	}

	metrics.VoteCast(string(kind), string(result.Outcome))
	return result, nil
}

func (l *VoteLedger) toggle(ctx context.Context, tx store.Store, voterID uuid.UUID, kind models.TargetKind, targetID uuid.UUID, direction models.Direction) (*VoteResult, error) {
	if err := targetExists(ctx, tx, kind, targetID); err != nil {
		return nil, err
	}

	result := &VoteResult{TargetKind: kind, TargetID: targetID}

	existing, err := tx.FindVote(ctx, voterID, kind, targetID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		vote := &models.Vote{
			VoterID:    voterID,
			TargetKind: kind,
			TargetID:   targetID,
			Value:      direction.Weight(),
		}
		if err := tx.CreateVote(ctx, vote); err != nil {
			return nil, err
		}
		result.Outcome = VoteRecorded
		result.Direction = &direction
	case err != nil:
		return nil, err
	case existing.Direction() == direction:
		if err := tx.DeleteVote(ctx, existing.ID); err != nil {
			return nil, err
		}
		result.Outcome = VoteRetracted
	default:
		existing.Value = direction.Weight()
		if err := tx.UpdateVote(ctx, existing); err != nil {
			return nil, err
		}
		result.Outcome = VoteChanged
		result.Direction = &direction
	}

	net, err := tx.NetVotes(ctx, kind, []uuid.UUID{targetID})
	if err != nil {
		return nil, err
	}
	result.NetVotes = net[targetID]
	return result, nil
}

// NetVotes returns sum(value) per target. Targets without votes map to zero.
func (l *VoteLedger) NetVotes(ctx context.Context, kind models.TargetKind, targetIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	if !kind.Valid() {
		return nil, apperrors.NewValidationError("target_kind", "must be question or answer")
	}
	net, err := l.store.NetVotes(ctx, kind, targetIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range targetIDs {
		if _, ok := net[id]; !ok {
			net[id] = 0
		}
	}
	return net, nil
}

func targetExists(ctx context.Context, s store.Store, kind models.TargetKind, id uuid.UUID) error {
	var err error
	switch kind {
	case models.TargetQuestion:
		_, err = s.GetQuestion(ctx, id)
	case models.TargetAnswer:
		_, err = s.GetAnswer(ctx, id)
	default:
		return fmt.Errorf("unknown target kind %q: %w", kind, apperrors.ErrValidation)
	}
	return err
}
