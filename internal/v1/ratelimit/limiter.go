// Package ratelimit enforces per-IP connect and per-connection event rate
// limits using Redis (when configured) or an in-memory store, guarded by a
// circuit breaker so a Redis outage degrades to fail-open rather than
// rejecting every connection.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/brightloop/quizarena/internal/v1/config"
	"github.com/brightloop/quizarena/internal/v1/logging"
	"github.com/brightloop/quizarena/internal/v1/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// RateLimiter holds the websocket connect and event-ingestion limiters.
type RateLimiter struct {
	wsConnect   *limiter.Limiter
	wsEvent     *limiter.Limiter
	redisClient *redis.Client
	cb          *gobreaker.CircuitBreaker
}

// NewRateLimiter builds a RateLimiter backed by Redis when redisClient is
// non-nil, or an in-memory store in single-instance mode.
func NewRateLimiter(cfg *config.Config, redisClient *redis.Client) (*RateLimiter, error) {
	connectRate, err := limiter.NewRateFromFormatted(cfg.RateLimitWsConnect)
	if err != nil {
		return nil, fmt.Errorf("invalid WS connect rate: %w", err)
	}

	eventRate, err := limiter.NewRateFromFormatted(cfg.RateLimitWsEvent)
	if err != nil {
		return nil, fmt.Errorf("invalid WS event rate: %w", err)
	}

	var store limiter.Store
	if redisClient != nil {
		s, err := sredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{
			Prefix: "quizarena:ratelimit:",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis store: %w", err)
		}
		store = s
		logging.Info(context.Background(), "rate limiter using Redis store")
	} else {
		store = memory.NewStore()
		logging.Warn(context.Background(), "rate limiter using memory store (Redis disabled)")
	}

	st := gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     15 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			var stateVal float64
			switch to {
			case gobreaker.StateClosed:
				stateVal = 0
			case gobreaker.StateOpen:
				stateVal = 1
			case gobreaker.StateHalfOpen:
				stateVal = 2
			}
			metrics.CircuitBreakerState.WithLabelValues("redis").Set(stateVal)
		},
	}

	return &RateLimiter{
		wsConnect:   limiter.New(store, connectRate),
		wsEvent:     limiter.New(store, eventRate),
		redisClient: redisClient,
		cb:          gobreaker.NewCircuitBreaker(st),
	}, nil
}

// CheckConnect enforces the per-IP websocket connect rate. It fails open
// (allows the connection) if the underlying store is unreachable.
func (rl *RateLimiter) CheckConnect(ctx context.Context, ip string) bool {
	return rl.check(ctx, rl.wsConnect, ip, "websocket_connect")
}

// CheckEvent enforces the per-connection event-ingestion rate. It fails open
// if the underlying store is unreachable.
func (rl *RateLimiter) CheckEvent(ctx context.Context, connectionID string) bool {
	return rl.check(ctx, rl.wsEvent, connectionID, "websocket_event")
}

func (rl *RateLimiter) check(ctx context.Context, l *limiter.Limiter, key, endpoint string) bool {
	res, err := rl.cb.Execute(func() (interface{}, error) {
		return l.Get(ctx, key)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("redis").Inc()
		}
		logging.Error(ctx, "rate limiter store failed, failing open", zap.String("endpoint", endpoint), zap.Error(err))
		return true
	}

	limitCtx := res.(limiter.Context)
	metrics.RateLimitRequests.WithLabelValues(endpoint).Inc()
	if limitCtx.Reached {
		metrics.RateLimitExceeded.WithLabelValues(endpoint, "limit").Inc()
		return false
	}
	return true
}
