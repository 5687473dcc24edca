package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"currency-rate-proxy/internal/domain/model"
	"currency-rate-proxy/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Connect accepts either a redis:// URL or a bare host:port.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisStore is a CacheStore shared across service instances. The Redis key
// TTL is the retention period; freshness travels inside the stored entry.
type RedisStore struct {
	client *redis.Client
	prefix string
	log    *logger.Logger
}

func NewRedisStore(client *redis.Client, prefix string, log *logger.Logger) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, log: log}
}

func (r *RedisStore) key(key string) string {
	return r.prefix + key
}

func (r *RedisStore) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.log.Debug("Redis cache miss", "key", key)
		return nil, nil
	}
	if err != nil {
		r.log.Error("Redis cache get error", "key", key, "error", err)
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry model.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		r.log.Error("Redis cache unmarshal error", "key", key, "error", err)
		return nil, fmt.Errorf("redis decode %s: %w", key, err)
	}

	r.log.Debug("Redis cache hit", "key", key, "expires_at", entry.ExpiresAt)
	return &entry, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, entry model.CacheEntry, retention time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", key, err)
	}

	if err := r.client.Set(ctx, r.key(key), raw, retention).Err(); err != nil {
		r.log.Error("Redis cache set error", "key", key, "error", err)
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	r.log.Debug("Redis cache set", "key", key, "retention", retention)
	return nil
}

// ClearExpired is a no-op: Redis evicts keys when their TTL runs out.
func (r *RedisStore) ClearExpired(ctx context.Context) error {
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
