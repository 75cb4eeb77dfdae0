package redis

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moner050/ddal-kkak/backend/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")
	cfg := ClientRateLimit("127.0.0.1", 5, 10)

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, cfg.Limit, remaining)
	assert.NoError(t, limiter.Wait(context.Background(), cfg))
}

func TestClientRateLimit(t *testing.T) {
	tests := []struct {
		name  string
		rps   float64
		burst int
		want  int
	}{
		{"burst above rps", 50, 100, 100},
		{"rps above burst", 20, 5, 20},
		{"fractional rps", 0.5, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ClientRateLimit("10.0.0.1", tt.rps, tt.burst)
			assert.Equal(t, tt.want, cfg.Limit)
			assert.Equal(t, "client:10.0.0.1", cfg.Key)
			assert.Equal(t, time.Second, cfg.Window)
		})
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(context.Background(), "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(context.Background(), "key", "value", time.Minute))
	assert.NoError(t, cache.Delete(context.Background(), "key"))

	n, err := cache.Purge(context.Background(), SnapshotPattern)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRemember_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")

	calls := 0
	fn := func() (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 2; i++ {
		v, err := Remember(context.Background(), cache, "answer", time.Minute, fn)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 2, calls, "disabled cache calls through every time")
}

func TestKeys(t *testing.T) {
	cache := NewCache(Disabled(), "screener")

	assert.Equal(t, "screener:cache:snapshot:latest", cache.FullKey(LatestDateKey))
	assert.Equal(t, "snapshot:2025-11-07:sectors", SectorsKey("2025-11-07"))
	assert.Equal(t, "snapshot:2025-11-07:sector_counts", SectorCountsKey("2025-11-07"))
	assert.Equal(t, "snapshot:2025-11-07:avg:total", AverageKey("2025-11-07", "total"))
}

// Integration tests (require REDIS_ADDR)

func testClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}

	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	client, err := New(context.Background(), &config.Config{
		Redis: config.RedisConfig{Host: host, Port: port, Enabled: true},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCache_RoundTripAndPurge(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	cache := NewCache(client, "screener-test")

	require.NoError(t, cache.Set(ctx, SectorsKey("2025-11-07"), []string{"Energy"}, time.Minute))
	require.NoError(t, cache.Set(ctx, SectorsKey("2025-11-06"), []string{"Tech"}, time.Minute))

	var sectors []string
	found, err := cache.Get(ctx, SectorsKey("2025-11-07"), &sectors)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"Energy"}, sectors)

	n, err := cache.Purge(ctx, SnapshotPattern)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(2))

	found, err = cache.Get(ctx, SectorsKey("2025-11-07"), &sectors)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRateLimiter_Window(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	limiter := NewRateLimiter(client, "screener-test")

	cfg := RateLimitConfig{Key: "window-" + time.Now().Format("150405.000"), Limit: 2, Window: time.Minute}

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow(ctx, cfg)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, remaining, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
}
