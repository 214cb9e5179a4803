// internal/cache/redis.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rating-engine/internal/common/config"
	"rating-engine/internal/common/metrics"
)

const (
	redisKeyPrefix = "rating:response:"
	redisIndexKey  = "rating:response:index"
)

// RedisStore backs the response cache with Redis so multiple instances share
// cached judgments. Entry ordering for eviction is tracked in a sorted set
// scored by insertion time.
type RedisStore struct {
	client     *redis.Client
	ttl        time.Duration
	maxEntries int
}

// NewRedisStore creates a Redis-backed cache from the given configuration.
func NewRedisStore(cfg config.RedisConfig, ttl time.Duration, maxEntries int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	return &RedisStore{client: rdb, ttl: ttl, maxEntries: maxEntries}, nil
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		// The value key expired; drop the leftover index member so stats
		// and eviction ranks only count live entries.
		s.client.ZRem(ctx, redisIndexKey, key)
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		s.client.Incr(ctx, "rating:cache:misses")
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}

	metrics.CacheHits.WithLabelValues("redis").Inc()
	s.client.Incr(ctx, "rating:cache:hits")
	return value, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key, value string) error {
	now := time.Now()

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+key, value, s.ttl)
	pipe.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(now.UnixNano()), Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put failed: %w", err)
	}

	count, err := s.client.ZCard(ctx, redisIndexKey).Result()
	if err != nil {
		return fmt.Errorf("redis index count failed: %w", err)
	}
	if int(count) > s.maxEntries {
		return s.evictOldest(ctx, int(count))
	}
	return nil
}

// evictOldest drops the oldest entries so only the newest half remains.
func (s *RedisStore) evictOldest(ctx context.Context, count int) error {
	keep := s.maxEntries / 2
	drop := count - keep

	oldest, err := s.client.ZRange(ctx, redisIndexKey, 0, int64(drop-1)).Result()
	if err != nil {
		return fmt.Errorf("redis eviction scan failed: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, k := range oldest {
		pipe.Del(ctx, redisKeyPrefix+k)
	}
	pipe.ZRemRangeByRank(ctx, redisIndexKey, 0, int64(drop-1))
	pipe.IncrBy(ctx, "rating:cache:evictions", int64(drop))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis eviction failed: %w", err)
	}

	metrics.CacheEvictions.WithLabelValues("redis").Add(float64(drop))
	return nil
}

func (s *RedisStore) Stats(ctx context.Context) (Statistics, error) {
	count, err := s.client.ZCard(ctx, redisIndexKey).Result()
	if err != nil {
		return Statistics{}, fmt.Errorf("redis stats failed: %w", err)
	}

	hits, _ := s.client.Get(ctx, "rating:cache:hits").Int64()
	misses, _ := s.client.Get(ctx, "rating:cache:misses").Int64()
	evictions, _ := s.client.Get(ctx, "rating:cache:evictions").Int64()

	return Statistics{
		Entries:    int(count),
		MaxEntries: s.maxEntries,
		Hits:       hits,
		Misses:     misses,
		Evictions:  evictions,
	}, nil
}

func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
