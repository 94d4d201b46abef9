package bootstrap

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/consult-booking/pkg/logging"
)

// Warmer preloads a cache before traffic arrives.
type Warmer interface {
	Warm(ctx context.Context) error
}

// WarmUp primes the doctor directory and checks Redis concurrently. Failures
// are logged and returned; the server can still start without them.
func WarmUp(ctx context.Context, doctors Warmer, redisClient *redis.Client, timeout time.Duration, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	if doctors != nil {
		g.Go(func() error {
			if err := doctors.Warm(gctx); err != nil {
				logger.Warn("doctor directory warm-up failed", "error", err)
				return err
			}
			return nil
		})
	}
	if redisClient != nil {
		g.Go(func() error {
			if err := redisClient.Ping(gctx).Err(); err != nil {
				logger.Warn("redis ping failed", "error", err)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
