package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/brightloop/quizarena/internal/v1/analytics"
	"github.com/brightloop/quizarena/internal/v1/auth"
	"github.com/brightloop/quizarena/internal/v1/config"
	"github.com/brightloop/quizarena/internal/v1/httpapi"
	"github.com/brightloop/quizarena/internal/v1/logging"
	"github.com/brightloop/quizarena/internal/v1/middleware"
	"github.com/brightloop/quizarena/internal/v1/quizroom"
	"github.com/brightloop/quizarena/internal/v1/ratelimit"
	"github.com/brightloop/quizarena/internal/v1/recap"
	"github.com/brightloop/quizarena/internal/v1/registry"
	"github.com/brightloop/quizarena/internal/v1/snapshot"
)

// reconnectTokenTTL bounds how long a client may hold a reconnect bearer
// token before it needs a fresh one from a new room bind. Set generously
// past the disconnect grace periods so a client reconnecting right at the
// edge of its grace window never finds its own token already expired.
const reconnectTokenTTL = 4 * time.Hour

// gmSweepDeadline is how long a room survives with its GM disconnected
// before the stale sweep evicts it, distinct from the longer general
// inactivity deadline (StaleRoomAge).
const gmSweepDeadline = 3 * time.Minute

func main() {
	envPaths := []string{".env", "../../.env", "../.env"}
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			break
		}
	}

	cfg, err := config.ValidateEnv()
	if err != nil {
		panic(err)
	}

	if err := logging.Initialize(cfg.GoEnv == "development"); err != nil {
		panic(err)
	}
	ctx := context.Background()
	logging.Info(ctx, "starting quizarena server", zap.String("go_env", cfg.GoEnv))

	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logging.Warn(ctx, "redis ping failed at startup, continuing (rate limiter will fail open)", zap.Error(err))
		}
	}

	limiter, err := ratelimit.NewRateLimiter(cfg, redisClient)
	if err != nil {
		panic(err)
	}

	issuer := auth.NewTokenIssuer(cfg.ReconnectTokenSecret, reconnectTokenTTL)

	reg := registry.New(cfg.StaleRoomAge, gmSweepDeadline)

	analyticsSink, err := analytics.Open(cfg.AnalyticsPath)
	if err != nil {
		logging.Warn(ctx, "failed to open analytics sink, answer events will not be recorded", zap.Error(err))
	}
	defer func() {
		if analyticsSink != nil {
			_ = analyticsSink.Close()
		}
	}()

	recaps := recap.New()

	roomCfg := quizroom.RoomConfig{
		GMDisconnectGrace:     cfg.GMDisconnectGrace,
		PlayerDisconnectGrace: cfg.PlayerDisconnectGrace,
		RoundFinalizeGrace:    cfg.RoundFinalizeGrace,
	}
	allowedOrigins := auth.GetAllowedOriginsFromEnv("ALLOWED_ORIGINS", []string{"http://localhost:3000"})

	hub := quizroom.NewHub(reg, roomCfg, issuer, limiter, allowedOrigins)
	if analyticsSink != nil {
		hub = hub.WithAnalyticsSink(analyticsSink)
	}
	hub = hub.WithRecapSink(recaps)

	store := snapshot.New(cfg.SnapshotPath)
	if saved := store.Load(cfg.StaleRoomAge); len(saved) > 0 {
		hub.RestoreRooms(saved)
		logging.Info(ctx, "restored rooms from snapshot", zap.Int("count", len(saved)))
	}

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go hub.RunStaleSweep(sweepCtx, time.Minute)
	go store.RunPeriodicSave(sweepCtx, cfg.SnapshotInterval, func() []quizroom.RoomSnapshot {
		return hub.CollectSnapshots(ctx)
	})

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))
	router.Use(middleware.CorrelationID())
	router.Use(gin.Recovery())

	wsGroup := router.Group("/ws")
	{
		wsGroup.GET("/room", hub.ServeWs)
	}

	httpapi.Register(router, httpapi.Deps{
		Hub:           hub,
		Recaps:        recaps,
		AnalyticsPath: cfg.AnalyticsPath,
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logging.Info(ctx, "api server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error(ctx, "server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info(ctx, "shutting down server")

	cancelSweep()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(ctx, "server forced to shutdown", zap.Error(err))
	}

	logging.Info(ctx, "server exiting")
}
