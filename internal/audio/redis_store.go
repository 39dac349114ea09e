package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"codeberg.org/snonux/worldly/internal/logging"
)

// RedisKeyPrefix namespaces artifacts in a shared Redis.
const RedisKeyPrefix = "worldly:audio:"

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore is a second cache tier over a FileStore. The local directory
// stays authoritative; Redis lets several machines share synthesized audio.
// Redis failures are logged and never fail a lookup or a write.
type RedisStore struct {
	local  *FileStore
	rdb    redisKV
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisClient creates a client for addr and verifies it with a PING.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s failed: %w", addr, err)
	}
	return rdb, nil
}

// NewRedisStore returns a tiered store. A ttl of zero keeps keys forever.
func NewRedisStore(local *FileStore, rdb redisKV, ttl time.Duration) *RedisStore {
	return &RedisStore{
		local:  local,
		rdb:    rdb,
		ttl:    ttl,
		logger: logging.WithComponent("redis-store"),
	}
}

func (s *RedisStore) PathFor(name string) string {
	return s.local.PathFor(name)
}

// Has checks the local directory first, then Redis. A Redis hit is written
// to the local directory before returning.
func (s *RedisStore) Has(ctx context.Context, name string) (bool, error) {
	ok, err := s.local.Has(ctx, name)
	if err != nil || ok {
		return ok, err
	}

	data, err := s.rdb.Get(ctx, RedisKeyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		s.logger.Warn("redis get failed, using local cache only", "key", name, "error", err)
		return false, nil
	}
	if len(data) == 0 {
		return false, nil
	}

	if err := s.local.Put(ctx, name, data); err != nil {
		return false, err
	}
	s.logger.Debug("materialized artifact from redis", "key", name, "bytes", len(data))
	return true, nil
}

// Put writes the local file and then the Redis key.
func (s *RedisStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.local.Put(ctx, name, data); err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, RedisKeyPrefix+name, data, s.ttl).Err(); err != nil {
		s.logger.Warn("redis set failed", "key", name, "error", err)
	}
	return nil
}
