// cmd/gentoken/main.go: mints a development access token signed with JWT_SECRET.
// Usage: go run ./cmd/gentoken -user <uuid> [-owner <uuid>] [-role owner] [-ttl 24h]
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"backoffice/internal/config"
	"backoffice/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	userID := flag.String("user", "", "user id (random when empty)")
	ownerID := flag.String("owner", "", "owner scope; defaults to the user id")
	role := flag.String("role", "owner", "role claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if *userID == "" {
		*userID = uuid.NewString()
	}
	for _, id := range []string{*userID, *ownerID} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			log.Fatal().Str("id", id).Msg("ids must be UUIDs")
		}
	}

	token, err := mint(cfg.JWTSecret, *userID, *ownerID, *role, *ttl, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to sign token")
	}
	fmt.Println(token)
}

func mint(secret, userID, ownerID, role string, ttl time.Duration, now time.Time) (string, error) {
	active := true
	claims := middleware.JWTClaims{
		UserID:  userID,
		OwnerID: ownerID,
		Role:    role,
		Active:  &active,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
