package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/platform/logger"
)

type FormCacheConfig struct {
	Addr string
	// TTL bounds how long an untouched entry survives; 0 keeps it forever.
	TTL       time.Duration
	KeyPrefix string
}

// FormCache is a forms.LocalCache shared by every instance behind one
// Redis, so an edit cached on one node is visible to the next.
type FormCache struct {
	log     *logger.Logger
	rdb     *goredis.Client
	ttl     time.Duration
	prefix  string
	timeout time.Duration
}

type cachedRecord struct {
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func NewFormCache(log *logger.Logger, cfg FormCacheConfig) (*FormCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newFormCache(log, rdb, cfg), nil
}

func newFormCache(log *logger.Logger, rdb *goredis.Client, cfg FormCacheConfig) *FormCache {
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "forms:"
	}
	return &FormCache{
		log:     log.With("service", "RedisFormCache"),
		rdb:     rdb,
		ttl:     cfg.TTL,
		prefix:  prefix,
		timeout: 2 * time.Second,
	}
}

func (c *FormCache) Put(key string, rec forms.RawRecord) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis form cache not initialized")
	}
	raw, err := json.Marshal(cachedRecord{Payload: rec.Payload, UpdatedAt: rec.UpdatedAt.UTC()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.rdb.Set(ctx, c.prefix+key, raw, c.ttl).Err()
}

func (c *FormCache) Get(key string) (*forms.RawRecord, error) {
	if c == nil || c.rdb == nil {
		return nil, fmt.Errorf("redis form cache not initialized")
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var v cachedRecord
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode cached record: %w", err)
	}
	return &forms.RawRecord{Payload: v.Payload, UpdatedAt: v.UpdatedAt}, nil
}

func (c *FormCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
