// Package config validates process environment variables at startup.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds validated environment configuration for the quiz room server.
type Config struct {
	// Required variables
	ReconnectTokenSecret string
	Port                 string

	// Optional variables with defaults
	GoEnv    string
	LogLevel string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string

	AllowedOrigins string

	SnapshotPath     string
	SnapshotInterval time.Duration
	StaleRoomAge     time.Duration

	AnalyticsPath string

	GMDisconnectGrace     time.Duration
	PlayerDisconnectGrace time.Duration
	RoundFinalizeGrace    time.Duration

	// Rate limits (ulule/limiter formatted rate strings, e.g. "100-M")
	RateLimitWsConnect string
	RateLimitWsEvent   string
}

// ValidateEnv validates all required environment variables and returns a Config object.
// Returns an error if any required variable is missing or invalid.
func ValidateEnv() (*Config, error) {
	cfg := &Config{}
	var errors []string

	// Required: RECONNECT_TOKEN_SECRET (minimum 32 characters)
	cfg.ReconnectTokenSecret = os.Getenv("RECONNECT_TOKEN_SECRET")
	if cfg.ReconnectTokenSecret == "" {
		errors = append(errors, "RECONNECT_TOKEN_SECRET is required")
	} else if len(cfg.ReconnectTokenSecret) < 32 {
		errors = append(errors, fmt.Sprintf("RECONNECT_TOKEN_SECRET must be at least 32 characters (got %d)", len(cfg.ReconnectTokenSecret)))
	}

	// Required: PORT (valid port number)
	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		errors = append(errors, "PORT is required")
	} else {
		port, err := strconv.Atoi(cfg.Port)
		if err != nil || port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be a valid port number between 1 and 65535 (got '%s')", cfg.Port))
		}
	}

	// Conditional: REDIS_ADDR (required if REDIS_ENABLED=true)
	cfg.RedisEnabled = os.Getenv("REDIS_ENABLED") == "true"
	if cfg.RedisEnabled {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
		if cfg.RedisAddr == "" {
			cfg.RedisAddr = "localhost:6379"
			slog.Warn("REDIS_ADDR not set, using default", "addr", cfg.RedisAddr)
		} else if !isValidHostPort(cfg.RedisAddr) {
			errors = append(errors, fmt.Sprintf("REDIS_ADDR must be in format 'host:port' (got '%s')", cfg.RedisAddr))
		}
		cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	}

	cfg.GoEnv = getEnvOrDefault("GO_ENV", "production")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")

	cfg.SnapshotPath = getEnvOrDefault("SNAPSHOT_PATH", "./data/rooms.snapshot.json")
	cfg.AnalyticsPath = getEnvOrDefault("ANALYTICS_PATH", "./data/analytics.jsonl")

	var err error
	if cfg.SnapshotInterval, err = durationOrDefault("SNAPSHOT_INTERVAL", 30*time.Second); err != nil {
		errors = append(errors, err.Error())
	}
	if cfg.StaleRoomAge, err = durationOrDefault("STALE_ROOM_AGE", 24*time.Hour); err != nil {
		errors = append(errors, err.Error())
	}
	if cfg.GMDisconnectGrace, err = durationOrDefault("GM_DISCONNECT_GRACE", 2*time.Minute+10*time.Second); err != nil {
		errors = append(errors, err.Error())
	}
	if cfg.PlayerDisconnectGrace, err = durationOrDefault("PLAYER_DISCONNECT_GRACE", 2*time.Minute+15*time.Second); err != nil {
		errors = append(errors, err.Error())
	}
	if cfg.RoundFinalizeGrace, err = durationOrDefault("ROUND_FINALIZE_GRACE", 1*time.Second); err != nil {
		errors = append(errors, err.Error())
	}

	cfg.RateLimitWsConnect = getEnvOrDefault("RATE_LIMIT_WS_CONNECT", "60-M")
	cfg.RateLimitWsEvent = getEnvOrDefault("RATE_LIMIT_WS_EVENT", "600-M")

	if len(errors) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	logValidatedConfig(cfg)
	return cfg, nil
}

func durationOrDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration (got '%s')", key, v)
	}
	return d, nil
}

// isValidHostPort checks if a string is in the format "host:port"
func isValidHostPort(addr string) bool {
	parts := strings.Split(addr, ":")
	if len(parts) != 2 {
		return false
	}
	port, err := strconv.Atoi(parts[1])
	if err != nil || port < 1 || port > 65535 {
		return false
	}
	if parts[0] == "" {
		return false
	}
	return true
}

// logValidatedConfig logs the validated configuration with secrets redacted
func logValidatedConfig(cfg *Config) {
	slog.Info("environment configuration validated")
	slog.Info("configuration",
		"reconnect_secret", redactSecret(cfg.ReconnectTokenSecret),
		"port", cfg.Port,
		"redis_enabled", cfg.RedisEnabled,
		"redis_addr", cfg.RedisAddr,
		"go_env", cfg.GoEnv,
		"log_level", cfg.LogLevel,
		"snapshot_path", cfg.SnapshotPath,
		"snapshot_interval", cfg.SnapshotInterval,
		"stale_room_age", cfg.StaleRoomAge,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// redactSecret redacts a secret by showing only the first 8 characters
func redactSecret(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:8] + "***"
}
