package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aycf/internal/config"
	"aycf/internal/model"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, newRedisCache(client, time.Minute, zerolog.Nop())
}

func TestRedisCacheRoundTrip(t *testing.T) {
	_, c := setupMiniRedis(t)
	ctx := context.Background()
	hash := model.SegmentHash("AUH", "AMM")

	_, ok := c.Get(ctx, hash, "2025-04-13")
	assert.False(t, ok)

	dep := time.Date(2025, 4, 13, 6, 25, 0, 0, time.FixedZone("UTC+4", 4*3600))
	c.Set(ctx, hash, "2025-04-13", []model.CheckedFlight{{
		SegmentHash: hash,
		FlightCode:  "W6 5042",
		Departure:   model.Endpoint{Code: "AUH", Time: dep},
		Duration:    3*time.Hour + 25*time.Minute,
	}})

	got, ok := c.Get(ctx, hash, "2025-04-13")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "W6 5042", got[0].FlightCode)
	assert.True(t, dep.Equal(got[0].Departure.Time))
	assert.Equal(t, 3*time.Hour+25*time.Minute, got[0].Duration)

	assert.Equal(t, Stats{Hits: 1, Misses: 1, Sets: 1}, c.Stats())
}

func TestRedisCacheEmptyResultIsAHit(t *testing.T) {
	_, c := setupMiniRedis(t)
	ctx := context.Background()

	c.Set(ctx, "abc", "2025-04-13", nil)
	got, ok := c.Get(ctx, "abc", "2025-04-13")
	assert.True(t, ok)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRedisCacheTTL(t *testing.T) {
	mr, c := setupMiniRedis(t)
	ctx := context.Background()

	c.Set(ctx, "abc", "2025-04-13", nil)
	assert.Equal(t, time.Minute, mr.TTL(key("abc", "2025-04-13")))

	mr.FastForward(2 * time.Minute)
	_, ok := c.Get(ctx, "abc", "2025-04-13")
	assert.False(t, ok)
}

func TestRedisCacheErrorsAreMisses(t *testing.T) {
	mr, c := setupMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(key("abc", "2025-04-13"), "not json"))
	_, ok := c.Get(ctx, "abc", "2025-04-13")
	assert.False(t, ok)

	mr.Close()
	_, ok = c.Get(ctx, "abc", "2025-04-13")
	assert.False(t, ok)
	c.Set(ctx, "abc", "2025-04-13", nil)
	assert.Equal(t, int64(0), c.Stats().Sets)
}

func TestNewRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(config.RedisConfig{Addr: mr.Addr()}, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, 30*time.Minute, c.ttl)

	mr.Close()
	_, err = NewRedisCache(config.RedisConfig{Addr: mr.Addr()}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var c Availability = Nop{}
	c.Set(context.Background(), "abc", "2025-04-13", nil)
	_, ok := c.Get(context.Background(), "abc", "2025-04-13")
	assert.False(t, ok)
}
