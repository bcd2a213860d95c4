package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/middleware"
	"github.com/emilythestrangee/stackit/backend/internal/services"
)

type AuthHandler struct {
	accounts *services.Accounts
	logger   *zap.Logger
}

func NewAuthHandler(accounts *services.Accounts, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

// SignUp handles user registration
func (h *AuthHandler) SignUp(c *gin.Context) {
	var input services.SignUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	session, err := h.accounts.SignUp(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// SignIn handles email and password login
func (h *AuthHandler) SignIn(c *gin.Context) {
	var input services.SignInInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	session, err := h.accounts.SignIn(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetMe returns the authenticated user's own profile
func (h *AuthHandler) GetMe(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	user, err := h.accounts.Profile(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateMe edits name, gender and avatar of the authenticated user
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var input services.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.accounts.UpdateProfile(c.Request.Context(), middleware.CurrentIdentity(c), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
