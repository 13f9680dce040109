package ratelimit

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*miniredis.Miniredis, *rateLimitService) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	svc := NewRateLimitService(client, RateLimitConfig{Enabled: true}, log)
	impl, ok := svc.(*rateLimitService)
	require.True(t, ok)
	return mr, impl
}

func TestRateLimitService_IncrementAndCheck(t *testing.T) {
	mr, svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Increment(ctx, "confirm:actor:a", time.Minute))
	}

	attempts, err := svc.GetAttempts(ctx, "confirm:actor:a")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	ok, err := svc.CheckLimit(ctx, "confirm:actor:a", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CheckLimit(ctx, "confirm:actor:b", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ttl := mr.TTL("adsops:ratelimit:confirm:actor:a")
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	mr.FastForward(time.Minute + time.Second)
	attempts, err = svc.GetAttempts(ctx, "confirm:actor:a")
	require.NoError(t, err)
	assert.Zero(t, attempts)
}

func TestRateLimitService_Block(t *testing.T) {
	mr, svc := newTestService(t)
	ctx := context.Background()

	blocked, err := svc.IsBlocked(ctx, "confirm:actor:a")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, svc.Block(ctx, "confirm:actor:a", 15*time.Minute, "too many confirmations"))

	blocked, err = svc.IsBlocked(ctx, "confirm:actor:a")
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Equal(t, "too many confirmations", mr.HGet("adsops:ratelimit:blocked:confirm:actor:a", "reason"))

	mr.FastForward(16 * time.Minute)
	blocked, err = svc.IsBlocked(ctx, "confirm:actor:a")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestNewRateLimitService_DisabledIsNoop(t *testing.T) {
	svc := NewRateLimitService(nil, RateLimitConfig{Enabled: true}, nil)
	_, isNoop := svc.(*noopRateLimitService)
	assert.True(t, isNoop)

	ok, err := svc.CheckLimit(context.Background(), "k", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
