package ratelimit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/brightloop/quizarena/internal/v1/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*RateLimiter, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		RateLimitWsConnect: "5-M",
		RateLimitWsEvent:   "5-M",
	}

	rl, err := NewRateLimiter(cfg, rc)
	require.NoError(t, err)

	return rl, mr
}

func TestNewRateLimiter_Memory(t *testing.T) {
	cfg := &config.Config{
		RateLimitWsConnect: "5-M",
		RateLimitWsEvent:   "5-M",
	}
	rl, err := NewRateLimiter(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, rl)
	assert.Nil(t, rl.redisClient)
}

func TestCheckConnect_EnforcesLimit(t *testing.T) {
	rl, mr := newTestLimiter(t)
	defer mr.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		assert.True(t, rl.CheckConnect(ctx, "1.2.3.4"))
	}
	assert.False(t, rl.CheckConnect(ctx, "1.2.3.4"))
}

func TestCheckConnect_SeparateKeysIndependent(t *testing.T) {
	rl, mr := newTestLimiter(t)
	defer mr.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		assert.True(t, rl.CheckConnect(ctx, "1.1.1.1"))
	}
	assert.True(t, rl.CheckConnect(ctx, "2.2.2.2"), "a different IP must have its own budget")
}

func TestCheckEvent_EnforcesLimit(t *testing.T) {
	rl, mr := newTestLimiter(t)
	defer mr.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		assert.True(t, rl.CheckEvent(ctx, "conn-1"))
	}
	assert.False(t, rl.CheckEvent(ctx, "conn-1"))
}

func TestCheck_FailsOpenWhenStoreUnreachable(t *testing.T) {
	rl, mr := newTestLimiter(t)
	mr.Close()

	ctx := context.Background()
	assert.True(t, rl.CheckConnect(ctx, "1.2.3.4"), "must fail open when the store is unreachable")
}
