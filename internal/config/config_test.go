package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "PORT", "JWT_SECRET", "TOKEN_TTL_SECONDS", "BCRYPT_COST",
		"REDIS_ADDR", "ALLOWED_ORIGINS", "DB_HOST", "DB_PORT", "DB_USER",
		"DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Env != "dev" {
		t.Errorf("got env %q, want dev", cfg.Env)
	}
	if cfg.Port != 8080 {
		t.Errorf("got port %d, want 8080", cfg.Port)
	}
	if cfg.TokenTTLSeconds != 3600 {
		t.Errorf("got token ttl %d, want 3600", cfg.TokenTTLSeconds)
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("got bcrypt cost %d, want 10", cfg.BcryptCost)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("expected no redis addr, got %q", cfg.RedisAddr)
	}
	if !strings.HasPrefix(cfg.DBURL, "postgres://") || !strings.Contains(cfg.DBURL, "sslmode=disable") {
		t.Errorf("unexpected db url: %q", cfg.DBURL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9001")
	t.Setenv("TOKEN_TTL_SECONDS", "60")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")

	cfg := Load()

	if cfg.Env != "prod" {
		t.Errorf("got env %q, want prod", cfg.Env)
	}
	if cfg.Port != 9001 {
		t.Errorf("got port %d, want 9001", cfg.Port)
	}
	if cfg.TokenTTL() != time.Minute {
		t.Errorf("got ttl %v, want 1m", cfg.TokenTTL())
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}

func TestLoadIgnoresBadInts(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("got port %d, want the 8080 fallback", cfg.Port)
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(time.Minute)
	defer cancel()

	deadline, ok := ctx.Deadline()

	if !ok {
		t.Fatal("context carries no deadline")
	}

	if until := time.Until(deadline); until <= 0 || until > time.Minute {
		t.Fatalf("deadline out of range: %v", until)
	}
}
