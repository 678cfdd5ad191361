package config

import (
	"os"
	"testing"
	"time"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv("STASHSPOT_APP_ENV", "prod")
	t.Setenv("STASHSPOT_DB_DSN", "host=localhost port=5432 user=stashspot password=pass dbname=stashspot sslmode=disable")
	t.Setenv("STASHSPOT_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("STASHSPOT_JWT_SECRET", "secret")
	t.Setenv("STASHSPOT_JWT_ISSUER", "stashspot")
}

func TestLoadSuccess(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if !cfg.App.IsProd() {
		t.Fatalf("expected prod env, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.App.Port)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL %q", cfg.Redis.URL)
	}
	if cfg.JWT.ExpirationMinutes != 60 {
		t.Fatalf("expected default expiration 60, got %d", cfg.JWT.ExpirationMinutes)
	}
	if cfg.Webhooks.SchedulingClockTolerance != 5*time.Minute {
		t.Fatalf("expected 5m clock tolerance, got %v", cfg.Webhooks.SchedulingClockTolerance)
	}
	if cfg.Cron.Interval != 24*time.Hour {
		t.Fatalf("expected default cron interval 24h, got %v", cfg.Cron.Interval)
	}
}

func TestLoadDefaultCompletableStates(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	states := cfg.Bookings.CompletableStates
	if len(states) != 2 || states[0] != "confirmed" || states[1] != "pending_confirmation" {
		t.Fatalf("unexpected completable states %v", states)
	}
}

func TestLoadCompletableStatesOverride(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("STASHSPOT_COMPLETABLE_STATES", "confirmed,pending_confirmation,in_progress")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if len(cfg.Bookings.CompletableStates) != 3 {
		t.Fatalf("expected 3 states, got %v", cfg.Bookings.CompletableStates)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv("STASHSPOT_JWT_SECRET"); err != nil {
		t.Fatalf("failed to unset STASHSPOT_JWT_SECRET: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoadBuildsDSNFromParts(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("STASHSPOT_DB_DSN", "")
	t.Setenv("STASHSPOT_DB_HOST", "db.internal")
	t.Setenv("STASHSPOT_DB_USER", "stashspot")
	t.Setenv("STASHSPOT_DB_PASSWORD", "pass")
	t.Setenv("STASHSPOT_DB_NAME", "stashspot")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.DB.DSN == "" {
		t.Fatal("expected DSN assembled from parts")
	}
}

func TestLoadRejectsMissingDBSettings(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("STASHSPOT_DB_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when neither DSN nor host settings are present")
	}
}
