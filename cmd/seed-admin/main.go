// Command seed-admin creates the bootstrap admin account from
// ADMIN_NAME, ADMIN_EMAIL and ADMIN_PASSWORD. It is idempotent: an
// existing account with the same email is left untouched.
package main

import (
	"context"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eatsy/identity-service/internal/config"
	"github.com/eatsy/identity-service/internal/domain"
	"github.com/eatsy/identity-service/internal/log"
	"github.com/eatsy/identity-service/internal/repo"
	"github.com/eatsy/identity-service/internal/security"
)

func main() {
	cfg := config.Load()

	logger, err := log.Init(cfg.Dev)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	name := os.Getenv("ADMIN_NAME")
	email := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	password := os.Getenv("ADMIN_PASSWORD")
	if name == "" || email == "" || password == "" {
		logger.Fatal("ADMIN_NAME, ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	defer store.Close(context.Background())

	if err := store.EnsureUserIndexes(ctx); err != nil {
		logger.Fatal("user indexes", zap.Error(err))
	}

	existing, err := store.FindUserByEmail(ctx, email, repo.Public)
	if err != nil {
		logger.Fatal("lookup", zap.Error(err))
	}
	if existing != nil {
		logger.Info("admin already exists", zap.String("email", email))
		return
	}

	hash, err := security.NewPasswordHasher(cfg.BcryptCost).Hash(password)
	if err != nil {
		logger.Fatal("hash", zap.Error(err))
	}
	u := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := store.CreateUser(ctx, u); err != nil {
		logger.Fatal("create admin", zap.Error(err))
	}
	logger.Info("admin created", zap.String("email", email), zap.String("id", u.ID.Hex()))
}
