package payments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/consult-booking/pkg/logging"
)

// SubmitGuard rejects a repeated payment submission inside a short window.
type SubmitGuard interface {
	// Acquire reports whether the submission identified by key may proceed.
	Acquire(ctx context.Context, key string) (bool, error)
	// Release frees key so a failed attempt can be retried at once.
	Release(ctx context.Context, key string)
}

// SubmitKey identifies one submission for the guard.
func SubmitKey(sessionID string, method Method, amount int) string {
	return fmt.Sprintf("checkout:submit:%s:%s:%d", sessionID, method, amount)
}

// RedisSubmitGuard shares the guard across instances with SET NX.
type RedisSubmitGuard struct {
	redis  *redis.Client
	window time.Duration
	logger *logging.Logger
}

// NewRedisSubmitGuard creates a guard holding keys for window.
func NewRedisSubmitGuard(client *redis.Client, window time.Duration, logger *logging.Logger) *RedisSubmitGuard {
	if logger == nil {
		logger = logging.Default()
	}
	if window <= 0 {
		window = 10 * time.Second
	}
	return &RedisSubmitGuard{redis: client, window: window, logger: logger}
}

// Acquire implements SubmitGuard. Redis failures fail open.
func (g *RedisSubmitGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ctx, span := tracer.Start(ctx, "payments.submit_guard.acquire")
	defer span.End()

	ok, err := g.redis.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339Nano), g.window).Result()
	if err != nil {
		g.logger.Error("submit guard unavailable", "error", err, "key", key)
		span.SetAttributes(attribute.Bool("submit_guard.unavailable", true))
		return true, nil
	}
	if !ok {
		g.logger.Warn("duplicate checkout submission", "key", key)
		span.SetAttributes(attribute.Bool("submit_guard.duplicate", true))
	}
	return ok, nil
}

// Release implements SubmitGuard.
func (g *RedisSubmitGuard) Release(ctx context.Context, key string) {
	if err := g.redis.Del(ctx, key).Err(); err != nil {
		g.logger.Warn("submit guard release failed", "error", err, "key", key)
	}
}

// MemorySubmitGuard is the single-instance guard used when Redis is not configured.
type MemorySubmitGuard struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	held   map[string]time.Time
}

// NewMemorySubmitGuard creates an in-process guard.
func NewMemorySubmitGuard(window time.Duration) *MemorySubmitGuard {
	if window <= 0 {
		window = 10 * time.Second
	}
	return &MemorySubmitGuard{window: window, now: time.Now, held: make(map[string]time.Time)}
}

// Acquire implements SubmitGuard.
func (g *MemorySubmitGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	for k, expiry := range g.held {
		if !now.Before(expiry) {
			delete(g.held, k)
		}
	}
	if _, ok := g.held[key]; ok {
		return false, nil
	}
	g.held[key] = now.Add(g.window)
	return true, nil
}

// Release implements SubmitGuard.
func (g *MemorySubmitGuard) Release(_ context.Context, key string) {
	g.mu.Lock()
	delete(g.held, key)
	g.mu.Unlock()
}
