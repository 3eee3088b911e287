package tokenstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"learninghouse/console/internal/security"
)

// Storage is a session scoped key-value store. Values live for the lifetime
// of one console session and are never shared between sessions.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
}

type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (s *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *MemoryStorage) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// RedisStorage keeps session values in redis under console:session:<id>:.
// Every access slides the idle TTL, so the session survives a console
// restart while it is in use and disappears once abandoned.
type RedisStorage struct {
	client    *redis.Client
	sessionID string
	idleTTL   time.Duration
}

func NewRedisStorage(client *redis.Client, sessionID string, idleTTL time.Duration) *RedisStorage {
	return &RedisStorage{
		client:    client,
		sessionID: sessionID,
		idleTTL:   idleTTL,
	}
}

func (s *RedisStorage) key(key string) string {
	return fmt.Sprintf("console:session:%s:%s", s.sessionID, key)
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.GetEx(ctx, s.key(key), s.idleTTL).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *RedisStorage) Set(ctx context.Context, key string, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, s.idleTTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStorage) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// SealedStorage encrypts values before handing them to the wrapped storage.
// The key name is bound as additional data so values cannot be swapped
// between keys.
type SealedStorage struct {
	next   Storage
	sealer *security.Sealer
}

func NewSealedStorage(next Storage, sealer *security.Sealer) *SealedStorage {
	return &SealedStorage{next: next, sealer: sealer}
}

func (s *SealedStorage) Get(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := s.next.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	sealed, err := base64.RawStdEncoding.DecodeString(raw)
	if err != nil {
		return "", false, fmt.Errorf("decode %s: %w", key, err)
	}
	plain, err := s.sealer.Open(sealed, []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("open %s: %w", key, err)
	}
	return string(plain), true, nil
}

func (s *SealedStorage) Set(ctx context.Context, key string, value string) error {
	sealed, err := s.sealer.Seal([]byte(value), []byte(key))
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	return s.next.Set(ctx, key, base64.RawStdEncoding.EncodeToString(sealed))
}

func (s *SealedStorage) Remove(ctx context.Context, key string) error {
	return s.next.Remove(ctx, key)
}
