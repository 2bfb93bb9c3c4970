package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/hausee/navigator-backend/internal/data/db"
	"github.com/hausee/navigator-backend/internal/platform/envutil"
	"github.com/hausee/navigator-backend/internal/services"
)

const (
	CacheModeSQLite = "sqlite"
	CacheModeRedis  = "redis"
	CacheModeMemory = "memory"
)

type Config struct {
	LogMode string
	Version string
	Port    string

	Postgres db.PostgresConfig

	LocalCacheMode string
	LocalCachePath string
	RedisAddr      string
	RedisCacheTTL  time.Duration

	Auth services.AuthConfig

	SessionIdleTTL  time.Duration
	SweepInterval   time.Duration
	ShutdownTimeout time.Duration

	CORSOrigins []string
	// MetricsAddr serves /metrics on its own listener; empty mounts it on
	// the API router instead.
	MetricsAddr string
}

func LoadConfig() (Config, error) {
	cfg := Config{
		LogMode: envutil.String("LOG_MODE", "development"),
		Version: envutil.String("APP_VERSION", "dev"),
		Port:    envutil.String("PORT", "8080"),
		Postgres: db.PostgresConfig{
			DSN:      envutil.String("POSTGRES_DSN", ""),
			Host:     envutil.String("POSTGRES_HOST", "localhost"),
			Port:     envutil.String("POSTGRES_PORT", "5432"),
			User:     envutil.String("POSTGRES_USER", "postgres"),
			Password: envutil.String("POSTGRES_PASSWORD", ""),
			Name:     envutil.String("POSTGRES_NAME", "hausee"),
			SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
		},
		LocalCacheMode: strings.ToLower(envutil.String("LOCAL_CACHE_MODE", CacheModeSQLite)),
		LocalCachePath: envutil.String("LOCAL_CACHE_PATH", "hausee_cache.db"),
		RedisAddr:      envutil.String("REDIS_ADDR", ""),
		RedisCacheTTL:  envutil.Duration("REDIS_CACHE_TTL", 720*time.Hour),
		Auth: services.AuthConfig{
			Secret:   envutil.String("AUTH_JWT_SECRET", ""),
			Issuer:   envutil.String("AUTH_JWT_ISSUER", ""),
			Audience: envutil.String("AUTH_JWT_AUDIENCE", ""),
		},
		SessionIdleTTL:  envutil.Duration("FORMS_SESSION_IDLE_TTL", 15*time.Minute),
		SweepInterval:   envutil.Duration("FORMS_SWEEP_INTERVAL", time.Minute),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		CORSOrigins:     envutil.List("CORS_ALLOWED_ORIGINS", nil),
		MetricsAddr:     envutil.String("METRICS_ADDR", ""),
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.LocalCacheMode {
	case CacheModeSQLite, CacheModeMemory:
	case CacheModeRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("LOCAL_CACHE_MODE=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown LOCAL_CACHE_MODE %q", c.LocalCacheMode)
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("missing AUTH_JWT_SECRET")
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("FORMS_SESSION_IDLE_TTL must be positive")
	}
	return nil
}
