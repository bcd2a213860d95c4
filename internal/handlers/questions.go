package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/middleware"
	"github.com/emilythestrangee/stackit/backend/internal/services"
	"github.com/emilythestrangee/stackit/backend/internal/store"
)

type QuestionHandler struct {
	aggregator *services.Aggregator
	questions  *services.QuestionService
	logger     *zap.Logger
}

func NewQuestionHandler(aggregator *services.Aggregator, questions *services.QuestionService, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{aggregator: aggregator, questions: questions, logger: logger}
}

// ListQuestions returns a page of questions.
// Query: q (search text), tags, unanswered, page, page_size.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	page, pageSize, ok := pageParams(c)
	if !ok {
		return
	}
	unanswered, ok := boolQuery(c, "unanswered")
	if !ok {
		return
	}

	filter := store.QuestionFilter{
		SearchText:     c.Query("q"),
		Tags:           tagsQuery(c),
		UnansweredOnly: unanswered,
	}

	result, err := h.aggregator.ListQuestions(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetQuestion returns a question with its answers in display order
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.aggregator.GetQuestionDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// CreateQuestion creates a new question (PROTECTED - requires authentication)
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var input services.QuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	question, err := h.questions.CreateQuestion(ctx, middleware.CurrentIdentity(c), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	detail, err := h.aggregator.GetQuestionDetail(ctx, question.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, detail)
}

// UpdateQuestion edits an existing question (PROTECTED - requires ownership)
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input services.QuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.questions.UpdateQuestion(ctx, middleware.CurrentIdentity(c), id, input); err != nil {
		respondError(c, h.logger, err)
		return
	}

	detail, err := h.aggregator.GetQuestionDetail(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// DeleteQuestion deletes a question with its answers (PROTECTED - author or admin)
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.questions.DeleteQuestion(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}

// ListTags returns the most used tags with their question counts
func (h *QuestionHandler) ListTags(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}

	tags, err := h.aggregator.ListTags(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
