package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("FRONTEND_URL", "")
	t.Setenv("ENV", "")
	t.Setenv("USER_JWT_EXPIRES_HOURS", "")

	cfg := Load()
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.IsProduction() {
		t.Errorf("default environment should not be production")
	}
	if cfg.UserSessionTTL != 24*time.Hour {
		t.Errorf("UserSessionTTL = %v", cfg.UserSessionTTL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://seller.ridit.in, https://admin.ridit.in ,")
	cfg := Load()
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://admin.ridit.in" {
		t.Fatalf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadPortal(t *testing.T) {
	t.Setenv("RIDIT_API_URL", "https://api.ridit.in/")
	t.Setenv("RIDIT_SESSION_FILE", "/tmp/ridit.json")
	t.Setenv("RIDIT_GEO_TIMEOUT", "3s")

	cfg := LoadPortal()
	if cfg.APIBaseURL != "https://api.ridit.in" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.SessionFile != "/tmp/ridit.json" {
		t.Errorf("SessionFile = %q", cfg.SessionFile)
	}
	if cfg.GeolocationTimeout != 3*time.Second {
		t.Errorf("GeolocationTimeout = %v", cfg.GeolocationTimeout)
	}
	if cfg.PrefetchTTL != time.Minute {
		t.Errorf("PrefetchTTL = %v", cfg.PrefetchTTL)
	}
	if !cfg.LoginPrefetch {
		t.Error("LoginPrefetch should default to on")
	}
}
