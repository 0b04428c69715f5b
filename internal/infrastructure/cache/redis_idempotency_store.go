package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "ledger:idempotency:"
	connectTimeout       = 5 * time.Second
)

// RedisIdempotencyStore shares processed payment command keys across service
// instances. SETNX gives the first-writer-wins semantics MarkProcessed needs
// without a round trip to check first.
type RedisIdempotencyStore struct {
	client *redis.Client
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisIdempotencyStore connects to Redis and verifies the connection
// with a ping before returning the store.
func NewRedisIdempotencyStore(cfg RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisIdempotencyStore{client: client}, nil
}

// MarkProcessed records a command key for ttl via SETNX. It returns false
// when the key already exists, which marks the command as a replay.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	fresh, err := s.client.SetNX(ctx, idempotencyKeyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark command as processed: %w", err)
	}
	return fresh, nil
}

// IsProcessed reports whether the command key is still recorded. Redis drops
// the key when its TTL lapses, so expiry needs no handling here.
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, idempotencyKeyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if command is processed: %w", err)
	}
	return n > 0, nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
