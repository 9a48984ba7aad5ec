// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"loyalty/config"
	"loyalty/internal/domain/service"
	"loyalty/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenType = "access"

// ErrInvalidToken is returned for tokens that fail signature, expiry or claim checks.
var ErrInvalidToken = errors.New("invalid access token")

// accessClaims is the JWT payload shared with the identity provider.
type accessClaims struct {
	Roles []string `json:"roles,omitempty"`
	Type  string   `json:"type"`
	jwt.RegisteredClaims
}

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	accessSecret []byte // Secret key for verifying access tokens.
	now          func() time.Time
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("jwt access secret must be provided")
	}

	return &jwtService{
		accessSecret: []byte(cfg.SecretKey.Access),
		now:          time.Now,
	}, nil
}

// GenerateAccessToken signs an HS256 access token for userID.
func (s *jwtService) GenerateAccessToken(userID uuid.UUID, roles []string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := accessClaims{
		Roles: roles,
		Type:  accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}

	return signed, nil
}

// ValidateToken verifies an access token and extracts the caller identity.
func (s *jwtService) ValidateToken(tokenString string) (*service.Claims, error) {
	var claims accessClaims

	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.accessSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if claims.Type != accessTokenType {
		return nil, errors.Wrapf(ErrInvalidToken, "unexpected token type %q", claims.Type)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, "subject is not a user id")
	}

	return &service.Claims{
		UserID: userID,
		Roles:  claims.Roles,
	}, nil
}
