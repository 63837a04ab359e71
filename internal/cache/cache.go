// Package cache keeps availability results for a short time so jobs with
// overlapping routes share checks.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"aycf/internal/config"
	"aycf/internal/model"
)

// Availability stores the checked flights of a segment on a date. A hit
// with an empty slice means the segment was checked and had no seats.
type Availability interface {
	Get(ctx context.Context, segmentHash, date string) ([]model.CheckedFlight, bool)
	Set(ctx context.Context, segmentHash, date string, flights []model.CheckedFlight)
}

// Stats counts cache activity.
type Stats struct {
	Hits   int64
	Misses int64
	Sets   int64
}

// RedisCache is the Redis-backed Availability.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
	stats  struct {
		hits   atomic.Int64
		misses atomic.Int64
		sets   atomic.Int64
	}
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg config.RedisConfig, logger zerolog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("connected to Redis cache")
	return newRedisCache(client, cfg.TTL, logger), nil
}

func newRedisCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func key(segmentHash, date string) string {
	return "aycf:availability:" + segmentHash + ":" + date
}

// Get returns cached flights. Redis errors are logged and reported as misses.
func (c *RedisCache) Get(ctx context.Context, segmentHash, date string) ([]model.CheckedFlight, bool) {
	k := key(segmentHash, date)
	val, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		c.stats.misses.Add(1)
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", k).Msg("redis get failed")
		c.stats.misses.Add(1)
		return nil, false
	}

	var flights []model.CheckedFlight
	if err := json.Unmarshal(val, &flights); err != nil {
		c.logger.Warn().Err(err).Str("key", k).Msg("json unmarshal failed")
		c.stats.misses.Add(1)
		return nil, false
	}
	if flights == nil {
		flights = []model.CheckedFlight{}
	}
	c.stats.hits.Add(1)
	return flights, true
}

// Set stores flights with the configured TTL. A nil slice is stored as empty.
func (c *RedisCache) Set(ctx context.Context, segmentHash, date string, flights []model.CheckedFlight) {
	if flights == nil {
		flights = []model.CheckedFlight{}
	}
	k := key(segmentHash, date)
	data, err := json.Marshal(flights)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", k).Msg("json marshal failed")
		return
	}
	if err := c.client.Set(ctx, k, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", k).Msg("redis set failed")
		return
	}
	c.stats.sets.Add(1)
}

// Stats returns hit, miss and set counts since start.
func (c *RedisCache) Stats() Stats {
	return Stats{
		Hits:   c.stats.hits.Load(),
		Misses: c.stats.misses.Load(),
		Sets:   c.stats.sets.Load(),
	}
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Nop never hits. It stands in when no Redis address is configured.
type Nop struct{}

func (Nop) Get(context.Context, string, string) ([]model.CheckedFlight, bool) { return nil, false }
func (Nop) Set(context.Context, string, string, []model.CheckedFlight)        {}
