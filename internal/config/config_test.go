package config

import (
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OIDC_CLIENT_ID", "test-client")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Provider.Authority == "" || cfg.Gateway.URL == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if got := cfg.Provider.RedirectURI; got != "http://localhost:3000/auth/callback" {
		t.Fatalf("redirect URI = %q", got)
	}
	if got := cfg.Provider.SilentRedirectURI; got != "http://localhost:3000/auth/silent" {
		t.Fatalf("silent redirect URI = %q", got)
	}
	if got := cfg.Provider.PostLogoutRedirectURI; got != "http://localhost:3000/login" {
		t.Fatalf("post logout redirect URI = %q", got)
	}
	if len(cfg.Provider.Scopes) != 3 {
		t.Fatalf("scopes = %v", cfg.Provider.Scopes)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("OIDC_CLIENT_ID", "test-client")
	t.Setenv("APP_URL", "https://hub.example.com/")
	t.Setenv("OIDC_REDIRECT_URI", "https://hub.example.com/custom/cb")
	t.Setenv("CREDENTIAL_STORAGE", "redis")
	t.Setenv("REDIS_HOST", "localhost")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if got := cfg.Provider.RedirectURI; got != "https://hub.example.com/custom/cb" {
		t.Fatalf("redirect URI = %q", got)
	}
	// the trailing slash on APP_URL must not leak into derived routes
	if got := cfg.Provider.SilentRedirectURI; got != "https://hub.example.com/auth/silent" {
		t.Fatalf("silent redirect URI = %q", got)
	}
	if cfg.Storage.Backend != "redis" || cfg.Redis.Host != "localhost" {
		t.Fatalf("storage config: %+v %+v", cfg.Storage, cfg.Redis)
	}
}
