package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"predictionScope/internal/model"
)

const metadataKeyPrefix = "scope:round-metadata:"

// ConnectRedis opens a client and checks connectivity.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// RedisMetadataCache shares round metadata between processes.
type RedisMetadataCache struct {
	R   *redis.Client
	TTL time.Duration
}

func NewRedisMetadataCache(r *redis.Client, ttl time.Duration) *RedisMetadataCache {
	return &RedisMetadataCache{R: r, TTL: ttl}
}

func metadataKey(id string) string { return metadataKeyPrefix + id }

func (c *RedisMetadataCache) GetMetadata(ctx context.Context, ids []string) (map[string]model.RoundMetadata, error) {
	out := make(map[string]model.RoundMetadata, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, metadataKey(id))
	}

	values, err := c.R.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget metadata: %w", err)
	}
	for i, value := range values {
		s, ok := value.(string)
		if !ok {
			continue
		}
		var meta model.RoundMetadata
		if err := json.Unmarshal([]byte(s), &meta); err != nil {
			continue
		}
		out[ids[i]] = meta
	}
	return out, nil
}

func (c *RedisMetadataCache) PutMetadata(ctx context.Context, entries []model.RoundMetadata) error {
	if len(entries) == 0 {
		return nil
	}
	pipe := c.R.Pipeline()
	for _, meta := range entries {
		b, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		pipe.Set(ctx, metadataKey(meta.ObjectID), b, c.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store metadata: %w", err)
	}
	return nil
}
