package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/services"
)

type UserHandler struct {
	accounts *services.Accounts
	logger   *zap.Logger
}

func NewUserHandler(accounts *services.Accounts, logger *zap.Logger) *UserHandler {
	return &UserHandler{accounts: accounts, logger: logger}
}

// publicProfile is what anyone may see of a user.
type publicProfile struct {
	models.UserSummary
	Gender    string    `json:"gender,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// GetUserProfile returns a user's public profile
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.accounts.Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, publicProfile{
		UserSummary: user.Summary(),
		Gender:      user.Gender,
		CreatedAt:   user.CreatedAt,
	})
}
