package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/consult-booking/internal/config"
	"github.com/wolfman30/consult-booking/internal/payments"
	"github.com/wolfman30/consult-booking/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSubmitGuard shares the duplicate-submit window through Redis when it
// is available and falls back to an in-process guard otherwise.
func BuildSubmitGuard(redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) payments.SubmitGuard {
	window := cfg.SubmitGuardWindow
	if redisClient == nil {
		if logger != nil {
			logger.Info("submit guard running in memory; duplicate checks are per instance")
		}
		return payments.NewMemorySubmitGuard(window)
	}
	return payments.NewRedisSubmitGuard(redisClient, window, logger)
}
