// Package middleware holds the gin middleware shared by all routes.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/stackit/backend/internal/auth"
)

const identityKey = "identity"

// Authenticate resolves the bearer token, when present, into an identity on
// the context. Missing or invalid tokens leave the request anonymous;
// RequireAuth decides whether that is acceptable.
func Authenticate(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		identity, err := tokens.Parse(token)
		if err == nil {
			SetIdentity(c, identity)
		}
		c.Next()
	}
}

// RequireAuth aborts with 401 unless Authenticate resolved an identity.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentIdentity(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

func SetIdentity(c *gin.Context, identity *auth.Identity) {
	c.Set(identityKey, identity)
}

// CurrentIdentity returns the request's identity or nil when anonymous.
func CurrentIdentity(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*auth.Identity)
	return identity
}

// extractBearerToken returns the token of an "Authorization: Bearer <token>"
// header, or "" when the header is missing or uses another scheme.
func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
