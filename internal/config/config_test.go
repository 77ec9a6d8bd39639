package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/talks")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("PORT", "8080")
	for _, k := range []string{"ENVIRONMENT", "ADDR", "CLIENT_URL", "CORS_ORIGINS", "SESSION_TTL", "CODE_TTL", "RESET_TOKEN_TTL", "SWEEP_INTERVAL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("expected PORT fallback, got %q", cfg.Addr)
	}
	if cfg.SessionTTL != 7*24*time.Hour || cfg.CodeTTL != 10*time.Minute || cfg.ResetTokenTTL != time.Hour {
		t.Fatalf("unexpected ttls: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != cfg.ClientURL {
		t.Fatalf("CORS should default to the client url, got %v", cfg.CORSOrigins)
	}
	if !cfg.IsDevelopment() {
		t.Fatal("default environment should be development")
	}
	if cfg.SweepInterval != 0 {
		t.Fatalf("sweeper should be off by default, got %v", cfg.SweepInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/talks")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("ADDR", "127.0.0.1:9000")
	t.Setenv("PORT", "8080")
	t.Setenv("CODE_TTL", "5m")
	t.Setenv("SESSION_TTL", "bogus")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("AUTH_RATE_LIMIT", "12")
	t.Setenv("AUTO_MIGRATE", "true")

	cfg := Load()
	if cfg.Addr != "127.0.0.1:9000" {
		t.Fatalf("ADDR should win over PORT, got %q", cfg.Addr)
	}
	if cfg.CodeTTL != 5*time.Minute {
		t.Fatalf("expected CODE_TTL override, got %v", cfg.CodeTTL)
	}
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Fatalf("invalid duration should fall back, got %v", cfg.SessionTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.AuthRateLimit != 12 || !cfg.AutoMigrate || cfg.IsDevelopment() {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestMissingRequiredExits(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_SECRET", "x")

	orig := exit
	t.Cleanup(func() { exit = orig })
	var code int
	exit = func(c int) { code = c }

	_ = Load()
	if code != 1 {
		t.Fatalf("expected exit(1), got %d", code)
	}
}
