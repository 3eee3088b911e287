package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"learninghouse/console/internal/models"
	"learninghouse/console/internal/security"
)

const (
	KeyTokens        = "tokens"
	KeyAPIKey        = "apikey"
	KeyAPIKeyRole    = "apikey_role"
	KeySidenavOpened = "sidenav_is_opened"
)

// Store persists the session credentials under fixed keys.
type Store struct {
	storage  Storage
	now      func() time.Time
	onExpiry func()
}

type Option func(*Store)

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithExpiryHook registers a callback run after Load discarded an expired
// token pair.
func WithExpiryHook(hook func()) Option {
	return func(s *Store) { s.onExpiry = hook }
}

func New(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetExpiryHook replaces the expiry hook after construction.
func (s *Store) SetExpiryHook(hook func()) {
	s.onExpiry = hook
}

func (s *Store) Save(ctx context.Context, tokens models.TokenPair) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	return s.storage.Set(ctx, KeyTokens, string(data))
}

// Load returns the stored pair while its refresh token is valid. An expired
// pair is removed, the expiry hook runs and nil is returned.
func (s *Store) Load(ctx context.Context) (*models.TokenPair, error) {
	raw, ok, err := s.storage.Get(ctx, KeyTokens)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var tokens models.TokenPair
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil || security.IsExpired(tokens.RefreshToken, s.now()) {
		if err := s.storage.Remove(ctx, KeyTokens); err != nil {
			return nil, err
		}
		if s.onExpiry != nil {
			s.onExpiry()
		}
		return nil, nil
	}
	return &tokens, nil
}

func (s *Store) Clear(ctx context.Context) error {
	return s.storage.Remove(ctx, KeyTokens)
}

func (s *Store) SaveAPIKey(ctx context.Context, key string, role models.Role) error {
	if err := s.storage.Set(ctx, KeyAPIKey, key); err != nil {
		return err
	}
	if !role.Valid() {
		return nil
	}
	return s.storage.Set(ctx, KeyAPIKeyRole, role.String())
}

// LoadAPIKey returns the stored key. Role is RoleNone when the key was
// saved before its role lookup completed.
func (s *Store) LoadAPIKey(ctx context.Context) (*models.APIKeyCredential, error) {
	key, ok, err := s.storage.Get(ctx, KeyAPIKey)
	if err != nil {
		return nil, err
	}
	if !ok || key == "" {
		return nil, nil
	}

	credential := &models.APIKeyCredential{Key: key}
	rawRole, ok, err := s.storage.Get(ctx, KeyAPIKeyRole)
	if err != nil {
		return nil, err
	}
	if ok {
		if role, err := models.ParseRole(rawRole); err == nil {
			credential.Role = role
		}
	}
	return credential, nil
}

func (s *Store) ClearAPIKey(ctx context.Context) error {
	if err := s.storage.Remove(ctx, KeyAPIKey); err != nil {
		return err
	}
	return s.storage.Remove(ctx, KeyAPIKeyRole)
}

func (s *Store) SetSidenavOpened(ctx context.Context, opened bool) error {
	return s.storage.Set(ctx, KeySidenavOpened, strconv.FormatBool(opened))
}

// SidenavOpened defaults to true when nothing was stored yet.
func (s *Store) SidenavOpened(ctx context.Context) (bool, error) {
	raw, ok, err := s.storage.Get(ctx, KeySidenavOpened)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	opened, err := strconv.ParseBool(raw)
	if err != nil {
		return true, nil
	}
	return opened, nil
}
