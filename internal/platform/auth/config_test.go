package auth

import (
	"os"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Mode:                ModeJWT,
			JWTSecret:           "secret",
			JWTExpiry:           time.Hour,
			SessionCookieName:   "lancehub_session",
			SessionCookieMaxAge: time.Hour,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid jwt", func(c *Config) {}, false},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"zero expiry", func(c *Config) { c.JWTExpiry = 0 }, true},
		{"missing cookie name", func(c *Config) { c.SessionCookieName = " " }, true},
		{"valid oidc", func(c *Config) {
			c.Mode = ModeOIDC
			c.OIDCIssuerURL = "https://issuer.example.com"
			c.OIDCClientID = "lancehub"
		}, false},
		{"oidc without issuer", func(c *Config) {
			c.Mode = ModeOIDC
			c.OIDCClientID = "lancehub"
		}, true},
		{"valid dev", func(c *Config) {
			c.Mode = ModeDev
			c.DevUserID = 1
			c.DevRole = "ADMIN"
		}, false},
		{"dev without role", func(c *Config) {
			c.Mode = ModeDev
			c.DevUserID = 1
		}, true},
		{"unknown mode", func(c *Config) { c.Mode = "basic" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigFromEnvDefaultsToJWT(t *testing.T) {
	t.Setenv("AUTH_MODE", "jwt")
	os.Unsetenv("AUTH_MODE")
	t.Setenv("JWT_EXPIRE", "24h")
	os.Unsetenv("JWT_EXPIRE")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.Mode != ModeJWT {
		t.Fatalf("Mode = %q, want jwt", cfg.Mode)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Fatalf("JWTExpiry = %v, want 24h", cfg.JWTExpiry)
	}
	if cfg.SessionCookieName != "lancehub_session" {
		t.Fatalf("SessionCookieName = %q", cfg.SessionCookieName)
	}
}

func TestConfigFromEnvRejectsUnknownMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "saml")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected error for unknown AUTH_MODE")
	}
}
