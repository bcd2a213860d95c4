package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/middleware"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/services"
)

type VoteHandler struct {
	votes  *services.VoteLedger
	logger *zap.Logger
}

func NewVoteHandler(votes *services.VoteLedger, logger *zap.Logger) *VoteHandler {
	return &VoteHandler{votes: votes, logger: logger}
}

// CastVote toggles the caller's vote on a question or answer (PROTECTED)
func (h *VoteHandler) CastVote(c *gin.Context) {
	var input struct {
		TargetKind models.TargetKind `json:"target_kind" binding:"required"`
		TargetID   uuid.UUID         `json:"target_id" binding:"required"`
		Direction  models.Direction  `json:"direction" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "target_kind, target_id and direction are required")
		return
	}

	result, err := h.votes.CastVote(c.Request.Context(), middleware.CurrentIdentity(c), input.TargetKind, input.TargetID, input.Direction)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
