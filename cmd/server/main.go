package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/eatsy/identity-service/internal/auth"
	"github.com/eatsy/identity-service/internal/config"
	api "github.com/eatsy/identity-service/internal/http"
	"github.com/eatsy/identity-service/internal/log"
	"github.com/eatsy/identity-service/internal/metrics"
	"github.com/eatsy/identity-service/internal/oauth"
	"github.com/eatsy/identity-service/internal/queue"
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

	metrics.MustRegister()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	defer store.Close(context.Background())

	if err := store.EnsureUserIndexes(ctx); err != nil {
		logger.Fatal("user indexes", zap.Error(err))
	}

	var limiter api.Limiter
	rds := repo.NewRedis(cfg.RedisAddr)
	if err := rds.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
	} else {
		limiter = rds
	}

	var events queue.Publisher = queue.NewNoop()
	if cfg.RabbitURL != "" {
		pub, err := queue.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			logger.Warn("rabbitmq unavailable, events disabled", zap.Error(err))
		} else {
			events = pub
		}
	}
	defer events.Close()

	hasher := security.NewPasswordHasher(cfg.BcryptCost)
	issuer := security.NewTokenIssuer(cfg.JWTSecret,
		time.Duration(cfg.SessionTTLDays)*24*time.Hour)
	svc := auth.NewService(store, hasher, issuer, events,
		time.Duration(cfg.OTPTTLMin)*time.Minute,
		time.Duration(cfg.ResetProofTTLMin)*time.Minute)

	google := oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret,
		cfg.GoogleRedirectURI, cfg.OAuthStateSecret)

	h := api.NewHandler(svc, google, limiter, cfg.RateLimitPerMin, cfg.ClientURL, cfg.Dev, store)
	r := api.NewRouter(h)

	srvErr := make(chan error, 1)
	go func() { srvErr <- r.Run(":" + cfg.Port) }()

	logger.Info("identity-service listening", zap.String("port", cfg.Port))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		logger.Error("server error", zap.Error(err))
	}
}
