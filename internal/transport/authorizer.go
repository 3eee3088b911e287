package transport

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"learninghouse/console/internal/client"
	"learninghouse/console/internal/models"
)

// RefreshFailurePolicy decides what happens to an admin request when the
// access token expired and no refresh was possible.
type RefreshFailurePolicy string

const (
	// PolicyLogout ends the session and fails the request with
	// models.ErrSessionExpired.
	PolicyLogout RefreshFailurePolicy = "logout"
	// PolicyForward sends the request without credentials and lets the
	// service answer 401.
	PolicyForward RefreshFailurePolicy = "forward"
)

var DefaultUnprotectedPaths = []string{"/auth/token", "/mode", "/versions"}

// Session is what the authorizer reads from the session manager.
type Session interface {
	Role() models.Role
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (*models.TokenPair, error)
	APIKey(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}

// Authorizer is an http.RoundTripper that attaches the credential of the
// current session to outgoing service calls.
type Authorizer struct {
	session     Session
	next        http.RoundTripper
	unprotected []string
	policy      RefreshFailurePolicy
	log         zerolog.Logger
}

type Option func(*Authorizer)

func WithUnprotectedPaths(paths []string) Option {
	return func(a *Authorizer) {
		if len(paths) > 0 {
			a.unprotected = paths
		}
	}
}

func WithRefreshFailurePolicy(policy RefreshFailurePolicy) Option {
	return func(a *Authorizer) {
		if policy == PolicyForward || policy == PolicyLogout {
			a.policy = policy
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(a *Authorizer) { a.log = log }
}

func NewAuthorizer(s Session, next http.RoundTripper, opts ...Option) *Authorizer {
	if next == nil {
		next = http.DefaultTransport
	}
	a := &Authorizer{
		session:     s,
		next:        next,
		unprotected: DefaultUnprotectedPaths,
		policy:      PolicyLogout,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Authorizer) RoundTrip(req *http.Request) (*http.Response, error) {
	if a.isUnprotected(req) {
		return a.next.RoundTrip(req)
	}

	ctx := req.Context()
	switch role := a.session.Role(); {
	case role == models.RoleAdmin:
		token, err := a.accessToken(ctx)
		if err != nil {
			return nil, err
		}
		if token != "" {
			return a.next.RoundTrip(withCredential(req, "Authorization", "Bearer "+token))
		}
	case role.IsAPIKeyRole():
		key, err := a.session.APIKey(ctx)
		if err != nil {
			return nil, err
		}
		if key != "" {
			return a.next.RoundTrip(withCredential(req, models.HeaderAPIKey, key))
		}
	}

	return a.next.RoundTrip(req)
}

// accessToken returns a usable access token, refreshing once if needed.
// An empty token with nil error means the request goes out unauthenticated.
func (a *Authorizer) accessToken(ctx context.Context) (string, error) {
	token, err := a.session.AccessToken(ctx)
	if err != nil || token != "" {
		return token, err
	}

	tokens, err := a.session.RefreshToken(ctx)
	switch {
	case err == nil && tokens != nil:
		return tokens.AccessToken, nil
	case err != nil && !refreshRejected(err):
		// No verdict on the refresh token; the session stays as it is.
		return "", err
	}

	if a.policy == PolicyForward {
		a.log.Debug().Err(err).Msg("refresh not possible, forwarding unauthenticated")
		return "", nil
	}

	a.log.Info().Err(err).Msg("admin session expired, logging out")
	if logoutErr := a.session.Logout(ctx); logoutErr != nil {
		a.log.Error().Err(logoutErr).Msg("logout after failed refresh")
	}
	return "", models.ErrSessionExpired
}

// refreshRejected reports a refresh the service answered with 401 or 403,
// meaning the refresh token is no longer accepted.
func refreshRejected(err error) bool {
	status := client.StatusOf(err)
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func (a *Authorizer) isUnprotected(req *http.Request) bool {
	path := strings.TrimSuffix(req.URL.Path, "/")
	for _, suffix := range a.unprotected {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// withCredential clones req with exactly one credential header set.
func withCredential(req *http.Request, header string, value string) *http.Request {
	clone := req.Clone(req.Context())
	clone.Header.Del("Authorization")
	clone.Header.Del(models.HeaderAPIKey)
	clone.Header.Set(header, value)
	return clone
}
