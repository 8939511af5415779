package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/models"
	"github.com/redis/go-redis/v9"
)

// Key patterns
const (
	proxiesKey    = "config:proxies"
	userAgentsKey = "config:uas"
	accountsKey   = "config:accounts"
)

// RedisStore keeps the configuration blobs in Redis string keys, for
// deployments where the server has no stable local disk.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) LoadProxies(ctx context.Context) (string, error) {
	return s.get(ctx, proxiesKey)
}

func (s *RedisStore) SaveProxies(ctx context.Context, text string) error {
	return s.client.Set(ctx, proxiesKey, text, 0).Err()
}

func (s *RedisStore) LoadUserAgents(ctx context.Context) (string, error) {
	return s.get(ctx, userAgentsKey)
}

func (s *RedisStore) SaveUserAgents(ctx context.Context, text string) error {
	return s.client.Set(ctx, userAgentsKey, text, 0).Err()
}

func (s *RedisStore) LoadAccounts(ctx context.Context) ([]models.KickAccount, error) {
	text, err := s.get(ctx, accountsKey)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	var accounts []models.KickAccount
	if err := json.Unmarshal([]byte(text), &accounts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal accounts: %w", err)
	}
	return accounts, nil
}

func (s *RedisStore) SaveAccounts(ctx context.Context, accounts []models.KickAccount) error {
	data, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}
	return s.client.Set(ctx, accountsKey, data, 0).Err()
}
