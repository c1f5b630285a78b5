package config

import (
	"context"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != ":8080" || !cfg.Development() {
		t.Errorf("unexpected server defaults: %+v", cfg)
	}
	if cfg.Backend.URL != "http://localhost:8000/api" || cfg.Backend.Timeout != 30*time.Second {
		t.Errorf("unexpected backend defaults: %+v", cfg.Backend)
	}
	if cfg.Session.Backend != SessionBackendRedis || cfg.Session.TTL != 0 || cfg.Session.Idle != 30*time.Minute {
		t.Errorf("unexpected session defaults: %+v", cfg.Session)
	}
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	if _, err := Load(context.Background()); err == nil {
		t.Fatalf("expected error without SESSION_SECRET")
	}
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef")
	t.Setenv("SESSION_BACKEND", "sqlite")
	if _, err := Load(context.Background()); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoad_RejectsNonPositiveIdle(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef")
	for _, idle := range []string{"0s", "-5m"} {
		t.Setenv("SESSION_IDLE", idle)
		if _, err := Load(context.Background()); err == nil {
			t.Errorf("expected error for SESSION_IDLE=%s", idle)
		}
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef")
	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("SESSION_TTL", "12h")
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "9000")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Session.Backend != SessionBackendMemory || cfg.Session.TTL != 12*time.Hour {
		t.Errorf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Development() || cfg.Addr() != ":9000" {
		t.Errorf("unexpected server config: %+v", cfg)
	}
}
