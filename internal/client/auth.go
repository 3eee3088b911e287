package client

import (
	"context"
	"net/http"
	"net/url"

	"learninghouse/console/internal/models"
)

func (c *Client) CreateToken(ctx context.Context, password string) (models.TokenPair, error) {
	var tokens models.TokenPair
	err := c.do(ctx, http.MethodPost, "/auth/token", models.LoginRequest{Password: password}, &tokens)
	return tokens, err
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	var tokens models.TokenPair
	err := c.do(ctx, http.MethodPut, "/auth/token", nil, &tokens, WithBearer(refreshToken))
	return tokens, err
}

func (c *Client) RevokeToken(ctx context.Context, refreshToken string) error {
	var revoked bool
	return c.do(ctx, http.MethodDelete, "/auth/token", nil, &revoked, WithBearer(refreshToken))
}

// ChangePassword uses the access token given by the caller, because the
// session manager drives this call outside of the authorizing transport.
func (c *Client) ChangePassword(ctx context.Context, accessToken string, oldPassword string, newPassword string) error {
	var changed bool
	return c.do(ctx, http.MethodPut, "/auth/password", models.ChangePasswordRequest{
		OldPassword: oldPassword,
		NewPassword: newPassword,
	}, &changed, WithBearer(accessToken))
}

func (c *Client) Role(ctx context.Context, apiKey string) (models.Role, error) {
	var role models.Role
	err := c.do(ctx, http.MethodGet, "/auth/role", nil, &role, WithAPIKey(apiKey))
	return role, err
}

func (c *Client) ListAPIKeys(ctx context.Context) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := c.do(ctx, http.MethodGet, "/auth/apikeys", nil, &keys)
	return keys, err
}

func (c *Client) CreateAPIKey(ctx context.Context, description string, role models.Role) (models.APIKey, error) {
	var key models.APIKey
	err := c.do(ctx, http.MethodPost, "/auth/apikey", models.APIKey{
		Description: description,
		Role:        role,
	}, &key)
	return key, err
}

func (c *Client) DeleteAPIKey(ctx context.Context, description string) (string, error) {
	var deleted string
	err := c.do(ctx, http.MethodDelete, "/auth/apikey/"+url.PathEscape(description), nil, &deleted)
	return deleted, err
}

func (c *Client) Mode(ctx context.Context) (models.ServiceMode, error) {
	var mode models.ServiceMode
	if err := c.do(ctx, http.MethodGet, "/mode", nil, &mode); err != nil {
		return models.ServiceModeUnknown, err
	}
	return mode, nil
}

func (c *Client) Versions(ctx context.Context) (models.Versions, error) {
	var versions models.Versions
	err := c.do(ctx, http.MethodGet, "/versions", nil, &versions)
	return versions, err
}
