package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"learninghouse/console/internal/config"
	"learninghouse/console/internal/models"
)

// Client is the API gateway to the learninghouse service. Credentials are
// either passed explicitly per call or attached by the transport.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

type Option func(*Client)

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(cfg config.ServiceConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	minRequests := cfg.BreakerRequests
	if minRequests == 0 {
		minRequests = 5
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "learninghouse",
		MaxRequests: 1,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= 0.6
		},
		// Only transport failures and 5xx answers count against the service.
		IsSuccessful: func(err error) bool {
			if isSessionError(err) || errors.Is(err, context.Canceled) {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status > 0 && apiErr.Status < http.StatusInternalServerError
			}
			return err == nil
		},
	})
	return c
}

type RequestOption func(*http.Request)

func WithHeader(key string, value string) RequestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

func WithBearer(token string) RequestOption {
	return WithHeader("Authorization", "Bearer "+token)
}

func WithAPIKey(key string) RequestOption {
	return WithHeader(models.HeaderAPIKey, key)
}

func (c *Client) do(ctx context.Context, method string, endpoint string, payload any, out any, opts ...RequestOption) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, endpoint, payload, out, opts...)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return clientSideError(err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method string, endpoint string, payload any, out any, opts ...RequestOption) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return clientSideError(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, endpoint, err)
	}
	return nil
}

// transportError unwraps failures raised by the authorizing transport so
// that session errors and service answers keep their meaning. Anything else
// never reached the service.
func transportError(err error) error {
	if isSessionError(err) {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return urlErr.Err
		}
		return err
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return clientSideError(err)
}

func isSessionError(err error) bool {
	return errors.Is(err, models.ErrSessionExpired) || errors.Is(err, models.ErrSessionChanged)
}

func decodeError(status int, data []byte) *APIError {
	apiErr := &APIError{
		Status:  status,
		Key:     strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_")),
		Message: http.StatusText(status),
	}

	var body models.ErrorMessage
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		apiErr.Key = body.Error
		if body.Description != "" {
			apiErr.Message = body.Description
		}
	}
	return apiErr
}
