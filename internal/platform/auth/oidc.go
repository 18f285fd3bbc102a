package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// EmailLookup matches an external identity to a local account by email.
type EmailLookup func(ctx context.Context, email string) (Identity, error)

// OIDCService authenticates against an external issuer. Verified identities
// must correspond to a registered account; the account's stored role wins.
type OIDCService struct {
	cfg          Config
	provider     *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	oauth2Config oauth2.Config
	lookup       EmailLookup
}

func NewOIDCService(ctx context.Context, cfg Config, lookup EmailLookup) (*OIDCService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode != ModeOIDC {
		return nil, fmt.Errorf("auth mode must be oidc (got %q)", cfg.Mode)
	}
	if lookup == nil {
		return nil, errors.New("email lookup is required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID})
	oauth2Cfg := oauth2.Config{
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  cfg.OIDCRedirectURL,
		Scopes:       cfg.OIDCScopes,
	}

	return &OIDCService{
		cfg:          cfg,
		provider:     provider,
		verifier:     verifier,
		oauth2Config: oauth2Cfg,
		lookup:       lookup,
	}, nil
}

func (s *OIDCService) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	rawToken := tokenFromHeader(r)
	if rawToken == "" {
		rawToken = tokenFromCookie(r, s.cfg.SessionCookieName)
	}
	if rawToken == "" {
		return Identity{}, ErrUnauthenticated
	}

	idToken, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Identity{}, fmt.Errorf("verify id token: %w", errors.Join(err, ErrUnauthenticated))
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("decode claims: %w", errors.Join(err, ErrUnauthenticated))
	}

	email, _ := claims[s.cfg.OIDCEmailClaim].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Identity{}, ErrUnauthenticated
	}

	identity, err := s.lookup(ctx, email)
	if err != nil {
		return Identity{}, fmt.Errorf("lookup user: %w", errors.Join(err, ErrUnauthenticated))
	}
	return identity, nil
}

// LoginHandler starts the authorization-code flow with PKCE.
func (s *OIDCService) LoginHandler() (http.HandlerFunc, error) {
	if err := s.cfg.ValidateForOIDCLogin(); err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		state, err := randomBase64URL(32)
		if err != nil {
			writeAuthError(w, http.StatusInternalServerError, "Server error")
			return
		}
		verifier, err := randomBase64URL(32)
		if err != nil {
			writeAuthError(w, http.StatusInternalServerError, "Server error")
			return
		}
		nonce, err := randomBase64URL(32)
		if err != nil {
			writeAuthError(w, http.StatusInternalServerError, "Server error")
			return
		}

		s.setShortCookie(w, "lancehub_oidc_state", state)
		s.setShortCookie(w, "lancehub_oidc_verifier", verifier)
		s.setShortCookie(w, "lancehub_oidc_nonce", nonce)

		redirectURL := s.oauth2Config.AuthCodeURL(
			state,
			oauth2.AccessTypeOnline,
			oauth2.SetAuthURLParam("code_challenge", pkceS256Challenge(verifier)),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
			oidc.Nonce(nonce),
		)
		http.Redirect(w, r, redirectURL, http.StatusFound)
	}, nil
}

// CallbackHandler finishes the flow: code exchange, token verification,
// account matching, then a session cookie carrying the id token.
func (s *OIDCService) CallbackHandler() (http.HandlerFunc, error) {
	if err := s.cfg.ValidateForOIDCLogin(); err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		stateCookie, err := r.Cookie("lancehub_oidc_state")
		if err != nil || state == "" || state != stateCookie.Value {
			writeAuthError(w, http.StatusBadRequest, "Invalid login state")
			return
		}
		verifierCookie, err := r.Cookie("lancehub_oidc_verifier")
		if err != nil || verifierCookie.Value == "" {
			writeAuthError(w, http.StatusBadRequest, "Invalid login state")
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			writeAuthError(w, http.StatusBadRequest, "Missing authorization code")
			return
		}

		exchangeCtx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		token, err := s.oauth2Config.Exchange(
			exchangeCtx,
			code,
			oauth2.SetAuthURLParam("code_verifier", verifierCookie.Value),
		)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "Login failed")
			return
		}

		rawIDToken, ok := token.Extra("id_token").(string)
		if !ok || rawIDToken == "" {
			writeAuthError(w, http.StatusUnauthorized, "Login failed")
			return
		}
		idToken, err := s.verifier.Verify(r.Context(), rawIDToken)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "Login failed")
			return
		}
		if nonceCookie, err := r.Cookie("lancehub_oidc_nonce"); err != nil || idToken.Nonce != nonceCookie.Value {
			writeAuthError(w, http.StatusUnauthorized, "Login failed")
			return
		}

		var claims map[string]any
		if err := idToken.Claims(&claims); err != nil {
			writeAuthError(w, http.StatusUnauthorized, "Login failed")
			return
		}
		email, _ := claims[s.cfg.OIDCEmailClaim].(string)
		identity, err := s.lookup(r.Context(), strings.ToLower(strings.TrimSpace(email)))
		if err != nil {
			writeAuthError(w, http.StatusForbidden, "No account for this identity")
			return
		}

		clearCookie(w, "lancehub_oidc_state", s.cfg)
		clearCookie(w, "lancehub_oidc_verifier", s.cfg)
		clearCookie(w, "lancehub_oidc_nonce", s.cfg)
		http.SetCookie(w, &http.Cookie{
			Name:     s.cfg.SessionCookieName,
			Value:    rawIDToken,
			Path:     "/",
			MaxAge:   int(s.cfg.SessionCookieMaxAge / time.Second),
			HttpOnly: true,
			Secure:   s.cfg.SessionCookieSecure,
			SameSite: sameSiteFromString(s.cfg.SessionCookieSameSite),
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "Login successful",
			"user": map[string]any{
				"id":    identity.ID,
				"email": identity.Email,
				"name":  identity.Name,
				"role":  identity.Role,
			},
		})
	}, nil
}

func (s *OIDCService) setShortCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   s.cfg.SessionCookieSecure,
		SameSite: sameSiteFromString(s.cfg.SessionCookieSameSite),
	})
}

func clearCookie(w http.ResponseWriter, name string, cfg Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.SessionCookieSecure,
		SameSite: sameSiteFromString(cfg.SessionCookieSameSite),
	})
}

func sameSiteFromString(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func randomBase64URL(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func pkceS256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"message": message})
}
