package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"learninghouse/console/internal/models"
	"learninghouse/console/internal/security"
	"learninghouse/console/internal/tokenstore"
)

var (
	ErrSessionChanged = models.ErrSessionChanged
	ErrUnexpectedRole = errors.New("api key resolved to an unexpected role")
)

// Gateway is the part of the learninghouse API the manager talks to.
type Gateway interface {
	CreateToken(ctx context.Context, password string) (models.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (models.TokenPair, error)
	RevokeToken(ctx context.Context, refreshToken string) error
	ChangePassword(ctx context.Context, accessToken string, oldPassword string, newPassword string) error
	Role(ctx context.Context, apiKey string) (models.Role, error)
}

// Manager owns the console session: which credential is active and the
// role derived from it. It is the only writer of session state; the
// authorizer, the guard and the handlers read it.
//
// State changes are always written to the store before they are published.
type Manager struct {
	store         *tokenstore.Store
	gateway       Gateway
	log           zerolog.Logger
	now           func() time.Time
	revokeTimeout time.Duration

	mu          sync.Mutex
	state       models.SessionState
	generation  uint64
	subscribers map[int]chan models.SessionState
	nextID      int

	pending sync.WaitGroup
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithRevokeTimeout(timeout time.Duration) Option {
	return func(m *Manager) { m.revokeTimeout = timeout }
}

func NewManager(store *tokenstore.Store, gateway Gateway, log zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		gateway:       gateway,
		log:           log,
		now:           time.Now,
		revokeTimeout: 5 * time.Second,
		subscribers:   make(map[int]chan models.SessionState),
	}
	for _, opt := range opts {
		opt(m)
	}
	// The store only loads tokens on behalf of the manager, with mu held.
	store.SetExpiryHook(m.expiredLocked)
	return m
}

func (m *Manager) Role() models.Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Role
}

func (m *Manager) State() models.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LoginAdmin exchanges the admin password for a token pair. Any previous
// session is logged out first.
func (m *Manager) LoginAdmin(ctx context.Context, password string) error {
	if err := m.Logout(ctx); err != nil {
		return err
	}
	generation := m.currentGeneration()

	tokens, err := m.gateway.CreateToken(ctx, password)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if generation != m.generation {
		return ErrSessionChanged
	}
	if err := m.handleTokensLocked(ctx, tokens); err != nil {
		return err
	}
	m.log.Info().Msg("admin session started")
	return nil
}

// LoginAPIKey logs out, stores the key and resolves its role. A failed
// lookup removes the key again.
func (m *Manager) LoginAPIKey(ctx context.Context, apiKey string) (models.Role, error) {
	if err := m.Logout(ctx); err != nil {
		return models.RoleNone, err
	}

	m.mu.Lock()
	generation := m.generation
	err := m.store.SaveAPIKey(ctx, apiKey, models.RoleNone)
	m.mu.Unlock()
	if err != nil {
		return models.RoleNone, err
	}

	role, lookupErr := m.gateway.Role(ctx, apiKey)
	if lookupErr == nil && !role.IsAPIKeyRole() {
		lookupErr = fmt.Errorf("%w: %s", ErrUnexpectedRole, role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if generation != m.generation {
		return models.RoleNone, ErrSessionChanged
	}
	if lookupErr != nil {
		if err := m.store.ClearAPIKey(ctx); err != nil {
			m.log.Error().Err(err).Msg("clear api key after failed lookup")
		}
		return models.RoleNone, lookupErr
	}

	if err := m.store.SaveAPIKey(ctx, apiKey, role); err != nil {
		return models.RoleNone, err
	}
	m.setStateLocked(role, nil)
	m.log.Info().Str("role", role.String()).Msg("api key session started")
	return role, nil
}

// Logout drops every local credential. The refresh token is revoked in the
// background and failures are ignored: logout is locally authoritative.
// Stored values that cannot be read are removed all the same.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++

	tokens, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("stored tokens unreadable, dropping them")
	}
	if tokens != nil {
		m.revoke(tokens.RefreshToken)
	}

	var errs []error
	if err := m.store.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := m.store.ClearAPIKey(ctx); err != nil {
		errs = append(errs, err)
	}

	m.setStateLocked(models.RoleNone, nil)
	return errors.Join(errs...)
}

func (m *Manager) revoke(refreshToken string) {
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.revokeTimeout)
		defer cancel()
		if err := m.gateway.RevokeToken(ctx, refreshToken); err != nil {
			m.log.Debug().Err(err).Msg("revoke refresh token failed")
		}
	}()
}

// RestoreSession derives the session from storage alone, without network
// calls: a valid token pair means admin, otherwise a cached API key role.
func (m *Manager) RestoreSession(ctx context.Context) (models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens, err := m.store.Load(ctx)
	if err != nil {
		return models.RoleNone, err
	}
	if tokens != nil {
		m.setStateLocked(models.RoleAdmin, m.refreshExpiry(*tokens))
		return models.RoleAdmin, nil
	}

	credential, err := m.store.LoadAPIKey(ctx)
	if err != nil {
		return models.RoleNone, err
	}
	if credential != nil && credential.Role.Valid() {
		m.setStateLocked(credential.Role, nil)
		return credential.Role, nil
	}

	m.setStateLocked(models.RoleNone, nil)
	return models.RoleNone, nil
}

// Tokens returns the stored pair while its refresh token is valid and
// re-affirms the admin role. An expired pair is removed and the role reset.
func (m *Manager) Tokens(ctx context.Context) (*models.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokensLocked(ctx)
}

func (m *Manager) tokensLocked(ctx context.Context) (*models.TokenPair, error) {
	tokens, err := m.store.Load(ctx)
	if err != nil || tokens == nil {
		return nil, err
	}
	m.setStateLocked(models.RoleAdmin, m.refreshExpiry(*tokens))
	return tokens, nil
}

// AccessToken returns the access token if it is still valid, else "".
// A stored pair with a valid refresh token keeps the role at admin either way.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens, err := m.tokensLocked(ctx)
	if err != nil || tokens == nil {
		return "", err
	}
	if security.IsExpired(tokens.AccessToken, m.now()) {
		return "", nil
	}
	return tokens.AccessToken, nil
}

// RefreshToken exchanges a valid refresh token for a new pair. It returns
// nil, nil when there is nothing to refresh with; the caller decides what
// that means. Concurrent callers each refresh on their own.
func (m *Manager) RefreshToken(ctx context.Context) (*models.TokenPair, error) {
	m.mu.Lock()
	tokens, err := m.tokensLocked(ctx)
	generation := m.generation
	m.mu.Unlock()
	if err != nil || tokens == nil {
		return nil, err
	}

	renewed, err := m.gateway.RefreshToken(ctx, tokens.RefreshToken)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if generation != m.generation {
		m.log.Debug().Msg("discarding refreshed tokens of a replaced session")
		return nil, ErrSessionChanged
	}
	if err := m.handleTokensLocked(ctx, renewed); err != nil {
		return nil, err
	}
	return &renewed, nil
}

// APIKey returns the stored raw key and re-affirms its cached role. When an
// API key session has lost its key the role is reset.
func (m *Manager) APIKey(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	credential, err := m.store.LoadAPIKey(ctx)
	if err != nil {
		return "", err
	}
	if credential == nil {
		if m.state.Role.IsAPIKeyRole() {
			m.setStateLocked(models.RoleNone, nil)
		}
		return "", nil
	}
	if credential.Role.Valid() {
		m.setStateLocked(credential.Role, nil)
	}
	return credential.Key, nil
}

// ChangePassword changes the admin password. Rotating the tokens with a new
// login is left to the caller.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword string, newPassword string) error {
	accessToken, err := m.AccessToken(ctx)
	if err != nil {
		return err
	}
	if accessToken == "" {
		tokens, err := m.RefreshToken(ctx)
		if err != nil {
			return err
		}
		if tokens == nil {
			return models.ErrSessionExpired
		}
		accessToken = tokens.AccessToken
	}
	return m.gateway.ChangePassword(ctx, accessToken, oldPassword, newPassword)
}

// Close waits for background revocations started by Logout.
func (m *Manager) Close() {
	m.pending.Wait()
}

func (m *Manager) currentGeneration() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

func (m *Manager) handleTokensLocked(ctx context.Context, tokens models.TokenPair) error {
	if err := m.store.Save(ctx, tokens); err != nil {
		return err
	}
	m.setStateLocked(models.RoleAdmin, m.refreshExpiry(tokens))
	return nil
}

func (m *Manager) expiredLocked() {
	m.log.Debug().Msg("stored refresh token expired")
	m.setStateLocked(models.RoleNone, nil)
}

func (m *Manager) refreshExpiry(tokens models.TokenPair) *time.Time {
	expiry, ok, err := security.ExpiresAt(tokens.RefreshToken)
	if err != nil || !ok {
		return nil
	}
	return &expiry
}
