package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/railtix/internal/logger"
)

const defaultOperationTimeout = 5 * time.Second

// RedisStore shares cached lists between server instances. Redis failures
// degrade to calling the loader directly.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultOperationTimeout)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "railtix:"}, nil
}

func (s *RedisStore) operationContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, defaultOperationTimeout)
}

func (s *RedisStore) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load Loader) ([]string, error) {
	opCtx, cancel := s.operationContext(ctx)
	raw, err := s.client.Get(opCtx, s.prefix+key).Bytes()
	cancel()

	switch {
	case err == nil:
		var values []string
		if jsonErr := json.Unmarshal(raw, &values); jsonErr == nil {
			return values, nil
		}
		logger.Warn("Discarding undecodable cache entry", map[string]interface{}{"key": key})
	case !errors.Is(err, redis.Nil):
		logger.Warn("Redis read failed, loading directly", map[string]interface{}{"key": key, "error": err.Error()})
	}

	values, err := load(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(values)
	if err != nil {
		return values, nil
	}

	opCtx, cancel = s.operationContext(ctx)
	defer cancel()
	if setErr := s.client.Set(opCtx, s.prefix+key, encoded, ttl).Err(); setErr != nil {
		logger.Warn("Redis write failed", map[string]interface{}{"key": key, "error": setErr.Error()})
	}
	return values, nil
}

func (s *RedisStore) Invalidate(ctx context.Context, key string) error {
	opCtx, cancel := s.operationContext(ctx)
	defer cancel()
	return s.client.Del(opCtx, s.prefix+key).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
