package service

import (
	"time"

	"github.com/google/uuid"
)

// Claims is the identity asserted by an access token.
type Claims struct {
	UserID uuid.UUID
	Roles  []string
}

// TokenService defines the interface for generating and validating access tokens.
// Tokens are minted by the identity provider; GenerateAccessToken backs the cmd/token tool.
type TokenService interface {
	// GenerateAccessToken creates a signed access token for a user and roles.
	GenerateAccessToken(userID uuid.UUID, roles []string, ttl time.Duration) (string, error)

	// ValidateToken checks the signature and expiry of a token and returns its claims.
	ValidateToken(tokenString string) (*Claims, error)
}
