package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		Mode:                ModeJWT,
		JWTSecret:           "test-secret",
		JWTExpiry:           time.Hour,
		SessionCookieName:   "lancehub_session",
		SessionCookieMaxAge: time.Hour,
	}
}

func TestJWTRoundTrip(t *testing.T) {
	cfg := testConfig()
	issuer, err := NewTokenIssuer(cfg)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	stored := Identity{ID: 42, Email: "writer@example.com", Name: "W. Writer", Role: "WRITER"}
	token, err := issuer.Issue(stored)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	authn, err := NewJWTAuthenticator(cfg, func(ctx context.Context, id int64) (Identity, error) {
		if id != stored.ID {
			return Identity{}, fmt.Errorf("unexpected lookup id %d", id)
		}
		return stored, nil
	})
	if err != nil {
		t.Fatalf("NewJWTAuthenticator: %v", err)
	}

	r := httptest.NewRequest("GET", "/api/assignments", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	got, err := authn.Authenticate(r.Context(), r)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got != stored {
		t.Fatalf("Authenticate = %+v, want %+v", got, stored)
	}
}

func TestJWTCookieFallback(t *testing.T) {
	cfg := testConfig()
	issuer, err := NewTokenIssuer(cfg)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	stored := Identity{ID: 7, Email: "client@example.com", Role: "CLIENT"}
	token, err := issuer.Issue(stored)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	authn, err := NewJWTAuthenticator(cfg, func(ctx context.Context, id int64) (Identity, error) {
		return stored, nil
	})
	if err != nil {
		t.Fatalf("NewJWTAuthenticator: %v", err)
	}

	r := httptest.NewRequest("GET", "/api/assignments", nil)
	r.AddCookie(&http.Cookie{Name: cfg.SessionCookieName, Value: token})
	got, err := authn.Authenticate(r.Context(), r)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != stored.ID {
		t.Fatalf("Authenticate id = %d, want %d", got.ID, stored.ID)
	}
}

func TestJWTRejections(t *testing.T) {
	cfg := testConfig()
	authn, err := NewJWTAuthenticator(cfg, func(ctx context.Context, id int64) (Identity, error) {
		return Identity{ID: id, Role: "CLIENT"}, nil
	})
	if err != nil {
		t.Fatalf("NewJWTAuthenticator: %v", err)
	}

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"no credential", func(r *http.Request) {}},
		{"malformed header", func(r *http.Request) {
			r.Header.Set("Authorization", "Token abc")
		}},
		{"garbage token", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer not.a.jwt")
		}},
		{"wrong secret", func(r *http.Request) {
			other, _ := NewTokenIssuer(Config{Mode: ModeJWT, JWTSecret: "other-secret", JWTExpiry: time.Hour, SessionCookieName: "s", SessionCookieMaxAge: time.Hour})
			token, _ := other.Issue(Identity{ID: 1, Role: "CLIENT"})
			r.Header.Set("Authorization", "Bearer "+token)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/assignments", nil)
			tt.setup(r)
			if _, err := authn.Authenticate(r.Context(), r); !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("Authenticate error = %v, want ErrUnauthenticated", err)
			}
		})
	}
}

func TestJWTExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.JWTExpiry = -time.Minute
	issuer := &TokenIssuer{secret: []byte(cfg.JWTSecret), expiry: cfg.JWTExpiry}
	token, err := issuer.Issue(Identity{ID: 3, Role: "CLIENT"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	authn, err := NewJWTAuthenticator(testConfig(), func(ctx context.Context, id int64) (Identity, error) {
		return Identity{ID: id}, nil
	})
	if err != nil {
		t.Fatalf("NewJWTAuthenticator: %v", err)
	}

	r := httptest.NewRequest("GET", "/api/assignments", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	if _, err := authn.Authenticate(r.Context(), r); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("Authenticate error = %v, want ErrUnauthenticated", err)
	}
}
