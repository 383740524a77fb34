// Command devtoken prints a signed access token for local testing against the
// API. Production tokens come from the identity service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/internal/bootstrap"
	"github.com/storefront-labs/storefront-backend/pkg/auth"
	"github.com/storefront-labs/storefront-backend/pkg/config"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
)

func main() {
	userID := flag.String("user", "", "user id (random when empty)")
	role := flag.String("role", string(enums.RoleUser), "role: guest|user|admin")
	email := flag.String("email", "dev@storefront.local", "email claim")
	name := flag.String("name", "Dev User", "full_name claim")
	flag.Parse()

	cfg, logg, err := bootstrap.Env("devtoken")
	if err != nil {
		bootstrap.Exit(context.Background(), logg, "failed to load config", err)
	}
	if !cfg.App.IsDev() {
		logg.Warn(context.Background(), "devtoken refuses to run outside the dev environment")
		os.Exit(1)
	}

	token, err := mint(cfg.JWT, *userID, *role, *email, *name, time.Now().UTC())
	if err != nil {
		bootstrap.Exit(context.Background(), logg, "failed to mint token", err)
	}
	fmt.Println(token)
}

func mint(cfg config.JWTConfig, rawUserID, rawRole, email, name string, now time.Time) (string, error) {
	id := uuid.New()
	if rawUserID != "" {
		parsed, err := uuid.Parse(rawUserID)
		if err != nil {
			return "", fmt.Errorf("invalid -user: %w", err)
		}
		id = parsed
	}
	role, err := enums.ParseRole(rawRole)
	if err != nil {
		return "", err
	}
	return auth.MintAccessToken(cfg, now, auth.AccessTokenPayload{
		UserID:   id,
		Email:    email,
		FullName: name,
		Role:     role,
	})
}
