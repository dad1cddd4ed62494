package dictionary

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list key used when none is configured.
const DefaultRedisKey = "scribeclean:custom_words"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
	Key      string // List key; defaults to DefaultRedisKey
}

// Compile-time interface checks.
var (
	_ Store  = (*RedisStore)(nil)
	_ Pinger = (*RedisStore)(nil)
)

// RedisStore keeps the words in a single Redis list so that several
// instances share one vocabulary.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("dictionary: redis connect %s: %w", cfg.Addr, err)
	}
	return NewRedisStoreFromClient(client, cfg.Key), nil
}

// NewRedisStoreFromClient wraps an existing client. An empty key selects
// [DefaultRedisKey].
func NewRedisStoreFromClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// List implements [Store.List].
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	words, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("dictionary: redis list: %w", err)
	}
	return words, nil
}

// Add implements [Store.Add].
func (s *RedisStore) Add(ctx context.Context, word string) error {
	w, err := Normalize(word)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, s.key, w).Err(); err != nil {
		return fmt.Errorf("dictionary: redis add %q: %w", w, err)
	}
	return nil
}

// Remove implements [Store.Remove].
func (s *RedisStore) Remove(ctx context.Context, word string) error {
	n, err := s.client.LRem(ctx, s.key, 0, word).Result()
	if err != nil {
		return fmt.Errorf("dictionary: redis remove %q: %w", word, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Replace implements [Store.Replace]. DEL and RPUSH run in one MULTI/EXEC
// transaction so readers never observe a partial list.
func (s *RedisStore) Replace(ctx context.Context, words []string) error {
	normalized, err := NormalizeAll(words)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key)
	if len(normalized) > 0 {
		args := make([]any, len(normalized))
		for i, w := range normalized {
			args[i] = w
		}
		pipe.RPush(ctx, s.key, args...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("dictionary: redis replace: %w", err)
	}
	return nil
}

// Ping implements [Pinger].
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
