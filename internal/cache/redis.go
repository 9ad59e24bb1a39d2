package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sundayezeilo/shortlinks/internal/config"
	"github.com/sundayezeilo/shortlinks/internal/metrics"
)

const (
	DefaultKeyPrefix = "url:"
	DefaultOpTimeout = 200 * time.Millisecond

	purgeBatchSize = 500
)

// client is the subset of *redis.Client the gateway uses.
type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// Redis is a Gateway backed by Redis.
type Redis struct {
	client    client
	keyPrefix string
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

var _ Gateway = (*Redis)(nil)

// RedisConfig holds optional settings for the Redis gateway.
type RedisConfig struct {
	KeyPrefix string        // default "url:"
	OpTimeout time.Duration // per-operation bound, default 200ms
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// NewRedis wraps a go-redis client (usually *redis.Client) as a Gateway.
func NewRedis(c client, cfg *RedisConfig) *Redis {
	if cfg == nil {
		cfg = &RedisConfig{}
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	timeout := cfg.OpTimeout
	if timeout <= 0 {
		timeout = DefaultOpTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Redis{
		client:    c,
		keyPrefix: prefix,
		timeout:   timeout,
		logger:    logger,
		metrics:   cfg.Metrics,
	}
}

// Dial connects to Redis and verifies the connection with PING.
// Callers fall back to Noop when it fails.
func Dial(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, errors.New("redis cache disabled by configuration")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.OpTimeout,
		WriteTimeout: cfg.OpTimeout,
		MaxRetries:   -1, // fail soft, never retry on the request path
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// Connect picks the gateway for the process lifetime: Redis when it answers
// PING, Noop otherwise. The returned close func releases the client.
func Connect(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger, m *metrics.Metrics) (Gateway, func() error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() error { return nil }

	if !cfg.Enabled {
		logger.InfoContext(ctx, "redis cache disabled, running without cache")
		return Noop{}, noop
	}

	rdb, err := Dial(ctx, cfg)
	if err != nil {
		logger.WarnContext(ctx, "redis unavailable, running without cache",
			"addr", cfg.Addr,
			"error", err.Error(),
		)
		return Noop{}, noop
	}

	logger.InfoContext(ctx, "redis cache connected", "addr", cfg.Addr, "prefix", cfg.KeyPrefix)
	return NewRedis(rdb, &RedisConfig{
		KeyPrefix: cfg.KeyPrefix,
		OpTimeout: cfg.OpTimeout,
		Logger:    logger,
		Metrics:   m,
	}), rdb.Close
}

func (r *Redis) key(code string) string {
	return r.keyPrefix + code
}

func (r *Redis) Get(ctx context.Context, code string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	url, err := r.client.Get(ctx, r.key(code)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		r.metrics.CacheOp("get", "miss")
		return "", false
	case err != nil:
		r.metrics.CacheOp("get", "error")
		r.logger.WarnContext(ctx, "cache get failed, treating as miss",
			"short_code", code,
			"error", err.Error(),
		)
		return "", false
	}

	r.metrics.CacheOp("get", "hit")
	return url, true
}

func (r *Redis) Put(ctx context.Context, code, url string, ttl time.Duration) {
	if ttl < 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Set(ctx, r.key(code), url, ttl).Err(); err != nil {
		r.metrics.CacheOp("put", "error")
		r.logger.WarnContext(ctx, "cache write dropped",
			"short_code", code,
			"ttl", ttl.String(),
			"error", err.Error(),
		)
		return
	}
	r.metrics.CacheOp("put", "ok")
}

func (r *Redis) Delete(ctx context.Context, code string) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Del(ctx, r.key(code)).Err(); err != nil {
		r.metrics.CacheOp("delete", "error")
		r.logger.WarnContext(ctx, "cache delete dropped",
			"short_code", code,
			"error", err.Error(),
		)
		return
	}
	r.metrics.CacheOp("delete", "ok")
}

// Purge walks the key prefix with SCAN and deletes matches in batches.
// Each SCAN/DEL round trip gets its own timeout; the walk stops at the
// first failure.
func (r *Redis) Purge(ctx context.Context) {
	var (
		cursor  uint64
		removed int64
	)
	match := r.keyPrefix + "*"

	for {
		keys, next, err := r.scan(ctx, cursor, match)
		if err != nil {
			r.purgeFailed(ctx, removed, err)
			return
		}

		if len(keys) > 0 {
			n, err := r.del(ctx, keys)
			if err != nil {
				r.purgeFailed(ctx, removed, err)
				return
			}
			removed += n
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	r.metrics.CacheOp("purge", "ok")
	r.logger.InfoContext(ctx, "cache purged", "prefix", r.keyPrefix, "removed", removed)
}

func (r *Redis) scan(ctx context.Context, cursor uint64, match string) ([]string, uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Scan(ctx, cursor, match, purgeBatchSize).Result()
}

func (r *Redis) del(ctx context.Context, keys []string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Del(ctx, keys...).Result()
}

func (r *Redis) purgeFailed(ctx context.Context, removed int64, err error) {
	r.metrics.CacheOp("purge", "error")
	r.logger.WarnContext(ctx, "cache purge incomplete",
		"prefix", r.keyPrefix,
		"removed", removed,
		"error", err.Error(),
	)
}
