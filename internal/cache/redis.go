package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"learninghouse/console/internal/config"
	"learninghouse/console/internal/models"
)

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

const modeKey = "console:service:mode"

// ModeCache keeps the last service mode seen by the mode poll so the
// console can answer without a round trip. A nil redis client keeps the
// value in process.
type ModeCache struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.RWMutex
	local models.ServiceMode
}

func NewModeCache(client *redis.Client, ttl time.Duration) *ModeCache {
	return &ModeCache{client: client, ttl: ttl, local: models.ServiceModeUnknown}
}

func (c *ModeCache) Set(ctx context.Context, mode models.ServiceMode) error {
	if c.client == nil {
		c.mu.Lock()
		c.local = mode
		c.mu.Unlock()
		return nil
	}
	return c.client.Set(ctx, modeKey, string(mode), c.ttl).Err()
}

// Get returns ServiceModeUnknown when nothing is cached.
func (c *ModeCache) Get(ctx context.Context) (models.ServiceMode, error) {
	if c.client == nil {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.local, nil
	}
	value, err := c.client.Get(ctx, modeKey).Result()
	if errors.Is(err, redis.Nil) {
		return models.ServiceModeUnknown, nil
	}
	if err != nil {
		return models.ServiceModeUnknown, err
	}
	return models.ServiceMode(value), nil
}
