package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BACKEND_URL", "")
	t.Setenv("BACKEND_TIMEOUT", "")
	t.Setenv("NOTIFICATION_TTL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.BackendTimeout != 0 {
		t.Fatalf("expected no backend timeout by default, got %s", cfg.BackendTimeout)
	}
	if cfg.NotificationTTL != 3*time.Second {
		t.Fatalf("expected 3s notification ttl, got %s", cfg.NotificationTTL)
	}
	if cfg.GeolocationURL != "https://ipapi.co/{ip}/json/" {
		t.Fatalf("unexpected geolocation url %s", cfg.GeolocationURL)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no cors origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.IsProduction() {
		t.Fatalf("development env reported as production")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BACKEND_URL", "https://api.example.com/")
	t.Setenv("BACKEND_TIMEOUT", "20s")
	t.Setenv("SESSION_IDLE_TTL", "10m")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "4")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg := Load()
	if cfg.Port != "9090" || cfg.Env != "production" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected basic overrides: %+v", cfg)
	}
	if cfg.BackendURL != "https://api.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.BackendURL)
	}
	if cfg.BackendTimeout != 20*time.Second {
		t.Fatalf("expected backend timeout 20s, got %s", cfg.BackendTimeout)
	}
	if cfg.SessionIdleTTL != 10*time.Minute {
		t.Fatalf("expected idle ttl 10m, got %s", cfg.SessionIdleTTL)
	}
	if !cfg.CookieSecure {
		t.Fatalf("expected secure cookies")
	}
	if cfg.RateLimitRPS != 2.5 || cfg.RateLimitBurst != 4 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production")
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "lots")
	t.Setenv("NOTIFICATION_TTL", "soon")
	t.Setenv("REDIS_TLS", "maybe")
	cfg := Load()
	if cfg.RateLimitBurst != 20 {
		t.Fatalf("expected default burst, got %d", cfg.RateLimitBurst)
	}
	if cfg.NotificationTTL != 3*time.Second {
		t.Fatalf("expected default ttl, got %s", cfg.NotificationTTL)
	}
	if cfg.RedisTLS {
		t.Fatalf("expected redis tls false")
	}
}
