package types

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/models"
)

// TokenClaims represents the claims in a JWT token.
// RegisteredClaims.ID carries the jti used for revocation.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
}

// IsAdmin reports whether the token belongs to an administrator
func (c *TokenClaims) IsAdmin() bool {
	return c.Role == string(models.RoleAdmin)
}

// Remaining returns how long the token stays valid
func (c *TokenClaims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}
