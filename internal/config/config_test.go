package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Service.BaseURL != "http://localhost:5000/api" {
		t.Fatalf("base url = %q", cfg.Service.BaseURL)
	}
	if cfg.Session.Backend != "memory" || cfg.Session.RefreshFailure != "logout" {
		t.Fatalf("session = %+v", cfg.Session)
	}
	if cfg.Session.IdleTTL != 8*time.Hour {
		t.Fatalf("idle ttl = %v", cfg.Session.IdleTTL)
	}
	if len(cfg.Service.UnprotectedPaths) != 3 {
		t.Fatalf("unprotected paths = %v", cfg.Service.UnprotectedPaths)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LEARNINGHOUSE_CONSOLE_ENVIRONMENT", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != "production" {
		t.Fatalf("environment = %q", cfg.Environment)
	}
}

func TestLoadNestedEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LEARNINGHOUSE_CONSOLE_SESSION_REFRESHFAILURE", "forward")
	t.Setenv("LEARNINGHOUSE_CONSOLE_SERVICE_BASEURL", "http://learninghouse:5000/api")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Session.RefreshFailure != "forward" || cfg.Service.BaseURL != "http://learninghouse:5000/api" {
		t.Fatalf("session = %+v service = %+v", cfg.Session, cfg.Service)
	}
	if cfg.Session.ID != "console" {
		t.Fatalf("session id = %q", cfg.Session.ID)
	}
}

func TestLoadWorkerDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadWorker()
	if err != nil {
		t.Fatalf("LoadWorker: %v", err)
	}
	if cfg.Queue.Stream != "learninghouse:jobs" || cfg.Queue.ClaimInterval != 30*time.Second {
		t.Fatalf("queue = %+v", cfg.Queue)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(".env", []byte("LEARNINGHOUSE_CONSOLE_SESSION_LANDINGROUTE=/brains/training\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("LEARNINGHOUSE_CONSOLE_SESSION_LANDINGROUTE") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Session.LandingRoute != "/brains/training" {
		t.Fatalf("landing route = %q", cfg.Session.LandingRoute)
	}
}
