package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/middleware"
	"github.com/emilythestrangee/stackit/backend/internal/services"
)

type AnswerHandler struct {
	answers    *services.AnswerService
	acceptance *services.AcceptanceTracker
	logger     *zap.Logger
}

func NewAnswerHandler(answers *services.AnswerService, acceptance *services.AcceptanceTracker, logger *zap.Logger) *AnswerHandler {
	return &AnswerHandler{answers: answers, acceptance: acceptance, logger: logger}
}

// CreateAnswer posts an answer to a question (PROTECTED - requires authentication)
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	questionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input services.AnswerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	answer, err := h.answers.CreateAnswer(c.Request.Context(), middleware.CurrentIdentity(c), questionID, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, answer)
}

// UpdateAnswer edits an answer body (PROTECTED - requires ownership)
func (h *AnswerHandler) UpdateAnswer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input services.AnswerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	answer, err := h.answers.UpdateAnswer(c.Request.Context(), middleware.CurrentIdentity(c), id, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}

// DeleteAnswer deletes an answer (PROTECTED - author or admin)
func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.answers.DeleteAnswer(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Answer deleted successfully"})
}

// AcceptAnswer marks the answer accepted (PROTECTED - question author only)
func (h *AnswerHandler) AcceptAnswer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.acceptance.AcceptAnswer(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer_id": id, "accepted": true})
}

// UnacceptAnswer clears acceptance (PROTECTED - question author only)
func (h *AnswerHandler) UnacceptAnswer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.acceptance.UnacceptAnswer(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer_id": id, "accepted": false})
}
