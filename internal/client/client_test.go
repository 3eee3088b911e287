package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"learninghouse/console/internal/config"
	"learninghouse/console/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.ServiceConfig{BaseURL: srv.URL + "/api/"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestServiceErrorBecomesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, models.ErrorMessage{
			Error:       "invalid_password",
			Description: "Invalid password",
		})
	})

	_, err := c.CreateToken(context.Background(), "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T %v, want *APIError", err, err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Key != "invalid_password" || apiErr.Message != "Invalid password" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if !IsUnauthorized(err) {
		t.Fatal("IsUnauthorized = false")
	}
}

func TestErrorWithoutBodyUsesStatusText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetSensor(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
	if apiErr.Key != "not_found" || apiErr.Message != "Not Found" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestConnectionFailureIsClientSide(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	c := New(config.ServiceConfig{BaseURL: baseURL})
	_, err := c.Versions(context.Background())
	if StatusOf(err) != 0 {
		t.Fatalf("status = %d, want 0", StatusOf(err))
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Key != KeyClientSide {
		t.Fatalf("err = %v, want CLIENT_SIDE", err)
	}
}

func TestExplicitCredentialHeaders(t *testing.T) {
	var seen http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		switch r.URL.Path {
		case "/api/auth/token":
			writeJSON(w, http.StatusOK, models.TokenPair{AccessToken: "a", RefreshToken: "r", TokenType: "bearer"})
		case "/api/auth/role":
			writeJSON(w, http.StatusOK, "trainer")
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	tokens, err := c.RefreshToken(context.Background(), "refresh-1")
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if tokens.AccessToken != "a" || seen.Get("Authorization") != "Bearer refresh-1" {
		t.Fatalf("tokens %+v, authorization %q", tokens, seen.Get("Authorization"))
	}

	role, err := c.Role(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Role: %v", err)
	}
	if role != models.RoleTrainer {
		t.Fatalf("role = %v", role)
	}
	if seen.Get(models.HeaderAPIKey) != "abc123" || seen.Get("Authorization") != "" {
		t.Fatalf("headers = %v", seen)
	}
}

func TestListBrainInfosSortsByName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]models.BrainInfo{
			"zeta":  {Score: 0.5},
			"alpha": {Name: "alpha", Score: 0.9},
		})
	})

	brains, err := c.ListBrainInfos(context.Background())
	if err != nil {
		t.Fatalf("ListBrainInfos: %v", err)
	}
	if len(brains) != 2 || brains[0].Name != "alpha" || brains[1].Name != "zeta" {
		t.Fatalf("brains = %+v", brains)
	}
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, http.StatusBadRequest, models.ErrorMessage{Error: "bad_request", Description: "nope"})
	})

	for i := 0; i < 10; i++ {
		_, err := c.CreateSensor(context.Background(), models.Sensor{Name: "x"})
		if StatusOf(err) != http.StatusBadRequest {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
	if calls != 10 {
		t.Fatalf("service calls = %d, breaker must stay closed", calls)
	}
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 8; i++ {
		_, _ = c.Versions(context.Background())
	}
	if calls != 5 {
		t.Fatalf("service calls = %d, want breaker to open after 5", calls)
	}
	_, err := c.Versions(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Key != KeyClientSide {
		t.Fatalf("err = %v, want CLIENT_SIDE from open breaker", err)
	}
}

type failingTransport struct{ err error }

func (f failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, f.err
}

func TestTransportErrorsKeepTheirMeaning(t *testing.T) {
	cfg := config.ServiceConfig{BaseURL: "http://lh/api"}

	for _, sentinel := range []error{models.ErrSessionExpired, models.ErrSessionChanged} {
		c := New(cfg, WithTransport(failingTransport{err: sentinel}))
		_, err := c.ListSensors(context.Background())
		if !errors.Is(err, sentinel) {
			t.Fatalf("err = %v, want %v", err, sentinel)
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			t.Fatalf("%v must not become %s", sentinel, apiErr.Key)
		}
	}

	upstream := &APIError{Status: http.StatusServiceUnavailable, Key: "service_unavailable"}
	c := New(cfg, WithTransport(failingTransport{err: upstream}))
	_, err := c.ListSensors(context.Background())
	if StatusOf(err) != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", StatusOf(err))
	}

	c = New(cfg, WithTransport(failingTransport{err: errors.New("dial tcp: refused")}))
	_, err = c.ListSensors(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Key != KeyClientSide || apiErr.Status != 0 {
		t.Fatalf("err = %v, want CLIENT_SIDE", err)
	}
}

func TestSessionErrorsDoNotTripBreaker(t *testing.T) {
	c := New(config.ServiceConfig{BaseURL: "http://lh/api"}, WithTransport(failingTransport{err: models.ErrSessionExpired}))
	for i := 0; i < 10; i++ {
		if _, err := c.ListSensors(context.Background()); !errors.Is(err, models.ErrSessionExpired) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
}
