package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != "development" {
		t.Fatalf("unexpected env %q", cfg.Env)
	}
	if cfg.EnforcementBackend != "simulation" {
		t.Fatalf("unexpected backend %q", cfg.EnforcementBackend)
	}
	if cfg.SweepInterval != time.Minute {
		t.Fatalf("unexpected sweep interval %s", cfg.SweepInterval)
	}
	if cfg.SelectionTTL != 15*time.Minute {
		t.Fatalf("unexpected selection TTL %s", cfg.SelectionTTL)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing JWT_SECRET to fail")
	}
}

func TestLoadRejectsSyntheticIdentityInProduction(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("IDENTITY_SYNTHETIC", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected synthetic identity to be refused in production")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENFORCEMENT_BACKEND", "carrier-pigeon")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown backend to fail")
	}
}

func TestLoadRequiresRouterURLForRemote(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENFORCEMENT_BACKEND", "remote")

	if _, err := Load(); err == nil {
		t.Fatal("expected remote backend without ROUTER_URL to fail")
	}

	t.Setenv("ROUTER_URL", "http://router.local")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ec := cfg.EnforcementConfig()
	if string(ec.Kind) != "remote" || ec.RemoteURL != "http://router.local" {
		t.Fatalf("unexpected enforcement config %+v", ec)
	}
}
