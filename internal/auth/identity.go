// Package auth resolves who is acting: JWT access tokens, password hashing,
// and the Identity passed explicitly into every service call.
package auth

import (
	"github.com/google/uuid"

	"github.com/emilythestrangee/stackit/backend/internal/models"
)

// Identity is the authenticated actor of a request.
type Identity struct {
	UserID   uuid.UUID   `json:"user_id"`
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
}

// IdentityFor builds the identity of a stored user.
func IdentityFor(u *models.User) *Identity {
	return &Identity{
		UserID:   u.ID,
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
	}
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == models.RoleAdmin
}

// DisplayName is the name shown in notification messages.
func (i *Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Username
}

// CanModerate reports whether the identity may delete content owned by ownerID.
func (i *Identity) CanModerate(ownerID uuid.UUID) bool {
	return i != nil && (i.UserID == ownerID || i.IsAdmin())
}
