package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"edge-auth/internal/analytics"
	"edge-auth/internal/auth"
	"edge-auth/internal/config"
	"edge-auth/internal/db"
	apihttp "edge-auth/internal/http"
	applogger "edge-auth/internal/logger"
	"edge-auth/internal/repository"
	"edge-auth/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg := mustLoadConfig()

	logger, err := applogger.New(cfg)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	cfg.Print(logger)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := db.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()
	if err := db.Ping(ctx, pool); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("db schema", zap.Error(err))
	}

	var (
		limiter     service.RateLimiter
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
			redisClient = nil
		}
		cancel()
	}
	if cfg.RateLimitEnabled.Bool() {
		if redisClient != nil {
			limiter = service.NewRedisRateLimiter(redisClient, cfg.RateLimitWindow(), cfg.RateLimitMaxRequests)
		} else {
			limiter = service.NewMemoryRateLimiter(cfg.RateLimitWindow(), cfg.RateLimitMaxRequests)
		}
	}

	userRepo := repository.NewPgUserRepository(pool, cfg.QueryTimeout())
	policy := auth.NewPolicy(cfg, auth.Deps{
		Users:  userRepo,
		Verify: auth.VerifyPassword,
	})
	tokens := service.NewSessionTokenService(cfg.AuthSecret, policy.MaxAge)
	engine := auth.NewEngine(policy, tokens, userRepo, logger)
	recorder := analytics.New(cfg, logger, redisClient, pool)

	secureCookies := cfg.IsProduction()
	authHandler := apihttp.NewAuthHandler(logger, engine, recorder, secureCookies, cfg.CacheTTL())
	router := apihttp.NewRouter(logger, engine, authHandler, limiter, secureCookies)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

// mustLoadConfig valida el entorno y termina el proceso si es inválido.
func mustLoadConfig() config.Config {
	cfg, err := config.LoadFromProcess()
	if err == nil {
		return cfg
	}

	bootstrap, _ := zap.NewProduction()
	defer bootstrap.Sync()

	var verr *config.ValidationError
	if errors.As(err, &verr) {
		for _, issue := range verr.Issues {
			bootstrap.Error("invalid environment variable",
				zap.String("field", issue.Path),
				zap.String("message", issue.Message),
			)
		}
	}
	bootstrap.Fatal("environment validation failed", zap.Error(err))
	return config.Config{}
}
