package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/sundayezeilo/shortlinks/internal/config"
)

func startRedis(t *testing.T) config.RedisConfig {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "failed to start redis container")

	endpoint, err := ctr.Endpoint(ctx, "")
	require.NoError(t, err)

	return config.RedisConfig{
		Enabled:     true,
		Addr:        endpoint,
		DialTimeout: 5 * time.Second,
		OpTimeout:   time.Second,
		KeyPrefix:   "url:",
	}
}

func TestRedisGateway_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	ctx := context.Background()
	cfg := startRedis(t)

	rdb, err := Dial(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	g := NewRedis(rdb, &RedisConfig{
		KeyPrefix: cfg.KeyPrefix,
		OpTimeout: cfg.OpTimeout,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	t.Run("put get delete", func(t *testing.T) {
		g.Put(ctx, "abc123", "https://example.com/a", time.Minute)

		url, ok := g.Get(ctx, "abc123")
		require.True(t, ok)
		assert.Equal(t, "https://example.com/a", url)

		ttl, err := rdb.TTL(ctx, "url:abc123").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 50*time.Second)

		g.Delete(ctx, "abc123")
		_, ok = g.Get(ctx, "abc123")
		assert.False(t, ok)
	})

	t.Run("zero ttl persists", func(t *testing.T) {
		g.Put(ctx, "forever", "https://example.com/f", 0)

		ttl, err := rdb.TTL(ctx, "url:forever").Result()
		require.NoError(t, err)
		assert.Equal(t, time.Duration(-1), ttl)
	})

	t.Run("purge only touches prefix", func(t *testing.T) {
		for _, code := range []string{"p1", "p2", "p3"} {
			g.Put(ctx, code, "https://example.com/"+code, time.Minute)
		}
		require.NoError(t, rdb.Set(ctx, "other:key", "keep", 0).Err())

		g.Purge(ctx)

		n, err := rdb.Exists(ctx, "url:p1", "url:p2", "url:p3", "url:forever").Result()
		require.NoError(t, err)
		assert.Zero(t, n)

		kept, err := rdb.Get(ctx, "other:key").Result()
		require.NoError(t, err)
		assert.Equal(t, "keep", kept)
	})
}

func TestDial_Unreachable(t *testing.T) {
	_, err := Dial(context.Background(), config.RedisConfig{
		Enabled:     true,
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		OpTimeout:   100 * time.Millisecond,
	})
	require.Error(t, err)
}

func TestDial_Disabled(t *testing.T) {
	_, err := Dial(context.Background(), config.RedisConfig{Enabled: false})
	require.Error(t, err)
}

func TestConnect_FallsBackToNoop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for name, cfg := range map[string]config.RedisConfig{
		"disabled": {Enabled: false},
		"unreachable": {
			Enabled:     true,
			Addr:        "127.0.0.1:1",
			DialTimeout: 100 * time.Millisecond,
			OpTimeout:   100 * time.Millisecond,
		},
	} {
		t.Run(name, func(t *testing.T) {
			gw, closeFn := Connect(context.Background(), cfg, logger, nil)
			assert.IsType(t, Noop{}, gw)
			assert.NoError(t, closeFn())
		})
	}
}
