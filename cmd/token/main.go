package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"loyalty/config"
	"loyalty/internal/domain/entity"
	"loyalty/internal/infra/auth"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Mints an access token signed with the configured secret, for local testing
// of the API without the identity provider.
func main() {
	userFlag := flag.String("user", "", "User ID to put in the token subject (random when empty)")
	roleFlag := flag.String("role", entity.RoleCustomer.String(), "Role to grant (customer, business)")
	ttlFlag := flag.Duration("ttl", time.Hour, "Token lifetime")
	flag.Parse()

	token, err := mint(*userFlag, *roleFlag, *ttlFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}

func mint(rawUserID, rawRole string, ttl time.Duration) (string, error) {
	userID := uuid.New()
	if rawUserID != "" {
		parsed, err := uuid.Parse(rawUserID)
		if err != nil {
			return "", errors.Wrap(err, "invalid user ID")
		}
		userID = parsed
	}

	role := entity.Role(rawRole)
	if !role.IsValid() {
		return "", errors.Errorf("unknown role %q", rawRole)
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}

	cfg, err := config.New()
	if err != nil {
		return "", errors.Wrap(err, "failed to load config")
	}

	tokens, err := auth.NewJWTService(cfg)
	if err != nil {
		return "", errors.Wrap(err, "failed to create token service")
	}

	token, err := tokens.GenerateAccessToken(userID, []string{role.String()}, ttl)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate access token")
	}

	return token, nil
}
