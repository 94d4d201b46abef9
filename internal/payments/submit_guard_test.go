package payments

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestSubmitKey(t *testing.T) {
	assert.Equal(t, "checkout:submit:s1:stripe:3999", SubmitKey("s1", MethodStripe, 3999))
}

func TestRedisSubmitGuard_RejectsDuplicateInsideWindow(t *testing.T) {
	mr, client := setupTestRedis(t)
	guard := NewRedisSubmitGuard(client, 10*time.Second, nil)
	ctx := context.Background()
	key := SubmitKey("s1", MethodRazorpay, 499)

	ok, err := guard.Acquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.Acquire(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "second submission inside the window must be rejected")

	other, err := guard.Acquire(ctx, SubmitKey("s1", MethodRazorpay, 999))
	require.NoError(t, err)
	assert.True(t, other, "a different amount is a different submission")

	mr.FastForward(11 * time.Second)
	ok, err = guard.Acquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok, "window elapsed")
}

func TestRedisSubmitGuard_Release(t *testing.T) {
	_, client := setupTestRedis(t)
	guard := NewRedisSubmitGuard(client, time.Minute, nil)
	ctx := context.Background()

	ok, _ := guard.Acquire(ctx, "k")
	require.True(t, ok)
	guard.Release(ctx, "k")
	ok, _ = guard.Acquire(ctx, "k")
	assert.True(t, ok)
}

func TestRedisSubmitGuard_FailsOpen(t *testing.T) {
	mr, client := setupTestRedis(t)
	guard := NewRedisSubmitGuard(client, time.Minute, nil)
	mr.Close()

	ok, err := guard.Acquire(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok, "guard must allow submissions when redis is down")
}

func TestMemorySubmitGuard(t *testing.T) {
	guard := NewMemorySubmitGuard(5 * time.Second)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := guard.Acquire(ctx, "k")
	assert.True(t, ok)
	ok, _ = guard.Acquire(ctx, "k")
	assert.False(t, ok)

	now = now.Add(5 * time.Second)
	ok, _ = guard.Acquire(ctx, "k")
	assert.True(t, ok, "expired hold is swept")

	guard.Release(ctx, "k")
	ok, _ = guard.Acquire(ctx, "k")
	assert.True(t, ok)
}
