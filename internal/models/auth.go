package models

import (
	"errors"
	"time"
)

// TokenPair is the admin credential issued by the learninghouse service.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// APIKeyCredential is a raw API key together with the role resolved for it
// at login time.
type APIKeyCredential struct {
	Key  string
	Role Role
}

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// APIKey describes a server side API key. Key is only populated in the
// response to a create call.
type APIKey struct {
	Description string `json:"description"`
	Role        Role   `json:"role"`
	Key         string `json:"key,omitempty"`
}

// SessionState is a snapshot of the console session published to readers.
type SessionState struct {
	Role          Role       `json:"role"`
	RefreshExpiry *time.Time `json:"refresh_expiry"`
}

func (s SessionState) Authenticated() bool {
	return s.Role.Valid()
}

// HeaderAPIKey carries the raw API key of non-admin sessions.
const HeaderAPIKey = "X-LEARNINGHOUSE-API-KEY"

// ErrSessionExpired is returned for requests that needed an admin token when
// neither the access nor the refresh token was still valid.
var ErrSessionExpired = errors.New("session expired")

// ErrSessionChanged is returned when a login or refresh finished after the
// session it was started for had already been replaced.
var ErrSessionChanged = errors.New("session changed while request was in flight")
