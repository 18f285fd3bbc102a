package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lancehub-labs/lancehub-go/internal/platform/env"
)

type Mode string

const (
	// ModeJWT verifies HS256 tokens issued by this service at login.
	ModeJWT Mode = "jwt"
	// ModeOIDC verifies tokens against an external issuer; identities are
	// matched to local accounts by email.
	ModeOIDC Mode = "oidc"
	// ModeDev injects a fixed identity for local work.
	ModeDev Mode = "dev"
)

type Config struct {
	Mode Mode

	JWTSecret string
	JWTExpiry time.Duration

	SessionCookieName     string
	SessionCookieSecure   bool
	SessionCookieMaxAge   time.Duration
	SessionCookieSameSite string

	OIDCIssuerURL    string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
	OIDCScopes       []string
	OIDCEmailClaim   string

	DevUserID int64
	DevEmail  string
	DevName   string
	DevRole   string
}

func ConfigFromEnv() (Config, error) {
	modeRaw := strings.ToLower(strings.TrimSpace(env.String("AUTH_MODE", string(ModeJWT))))
	var mode Mode
	switch modeRaw {
	case string(ModeJWT):
		mode = ModeJWT
	case string(ModeOIDC):
		mode = ModeOIDC
	case string(ModeDev):
		mode = ModeDev
	default:
		return Config{}, fmt.Errorf("AUTH_MODE must be one of: jwt, oidc, dev (got %q)", modeRaw)
	}

	jwtExpiry, err := env.Duration("JWT_EXPIRE", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cookieSecure, err := env.Bool("AUTH_SESSION_COOKIE_SECURE", true)
	if err != nil {
		return Config{}, err
	}
	maxAgeSeconds, err := env.Int("AUTH_SESSION_MAX_AGE_SECONDS", 86400)
	if err != nil {
		return Config{}, err
	}
	devUserID, err := env.Int("DEV_AUTH_USER_ID", 1)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Mode:                  mode,
		JWTSecret:             env.String("JWT_SECRET", ""),
		JWTExpiry:             jwtExpiry,
		SessionCookieName:     env.String("AUTH_SESSION_COOKIE_NAME", "lancehub_session"),
		SessionCookieSecure:   cookieSecure,
		SessionCookieMaxAge:   time.Duration(maxAgeSeconds) * time.Second,
		SessionCookieSameSite: env.String("AUTH_SESSION_COOKIE_SAMESITE", "Lax"),
		OIDCIssuerURL:         env.String("OIDC_ISSUER_URL", ""),
		OIDCClientID:          env.String("OIDC_CLIENT_ID", ""),
		OIDCClientSecret:      env.String("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:       env.String("OIDC_REDIRECT_URL", ""),
		OIDCScopes:            env.CSV("OIDC_SCOPES", []string{"openid", "profile", "email"}),
		OIDCEmailClaim:        env.String("OIDC_EMAIL_CLAIM", "email"),
		DevUserID:             int64(devUserID),
		DevEmail:              env.String("DEV_AUTH_EMAIL", "admin@lancehub.local"),
		DevName:               env.String("DEV_AUTH_NAME", "Dev Admin"),
		DevRole:               env.String("DEV_AUTH_ROLE", "ADMIN"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return errors.New("AUTH_SESSION_COOKIE_NAME is required")
	}
	if c.SessionCookieMaxAge <= 0 {
		return errors.New("AUTH_SESSION_MAX_AGE_SECONDS must be positive")
	}

	switch c.Mode {
	case ModeJWT:
		if strings.TrimSpace(c.JWTSecret) == "" {
			return errors.New("JWT_SECRET is required when AUTH_MODE=jwt")
		}
		if c.JWTExpiry <= 0 {
			return errors.New("JWT_EXPIRE must be positive")
		}
	case ModeOIDC:
		if strings.TrimSpace(c.OIDCIssuerURL) == "" {
			return errors.New("OIDC_ISSUER_URL is required when AUTH_MODE=oidc")
		}
		if strings.TrimSpace(c.OIDCClientID) == "" {
			return errors.New("OIDC_CLIENT_ID is required when AUTH_MODE=oidc")
		}
	case ModeDev:
		if c.DevUserID <= 0 {
			return errors.New("DEV_AUTH_USER_ID must be positive when AUTH_MODE=dev")
		}
		if strings.TrimSpace(c.DevRole) == "" {
			return errors.New("DEV_AUTH_ROLE is required when AUTH_MODE=dev")
		}
	default:
		return fmt.Errorf("unsupported auth mode: %q", c.Mode)
	}

	return nil
}

func (c Config) ValidateForOIDCLogin() error {
	if c.Mode != ModeOIDC {
		return fmt.Errorf("oidc login requires AUTH_MODE=oidc (got %q)", c.Mode)
	}
	if strings.TrimSpace(c.OIDCClientSecret) == "" {
		return errors.New("OIDC_CLIENT_SECRET is required for login endpoints")
	}
	if strings.TrimSpace(c.OIDCRedirectURL) == "" {
		return errors.New("OIDC_REDIRECT_URL is required for login endpoints")
	}
	return nil
}
